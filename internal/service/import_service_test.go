package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/testutil"
	"github.com/alexanderramin/miru/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractedReply = "読み取り結果です。\n```json\n" + `{
  "nickname": " ゆうか ",
  "platform": "Pairs",
  "age": 27,
  "occupation": "",
  "location": "横浜",
  "hobbies": ["カフェ巡り", " ", "ヨガ"],
  "frequency": "daily",
  "response_time": "sometimes",
  "communication_style": "絵文字が多い",
  "suggested_stage": "messaging"
}` + "\n```"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestImportService_ExtractFromScreenshot(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	ai := &fakeAI{reply: extractedReply}
	svc := NewImportService(e.conns, e.actions, ai)
	ctx := context.Background()

	p, err := svc.Extract(ctx, u.ID, domain.ProviderClaude, ImportSource{
		Image: &llm.Image{Data: pngHeader, MimeType: "image/png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ゆうか", p.Nickname)
	require.NotNil(t, p.Age)
	assert.Equal(t, 27, *p.Age)
	assert.Equal(t, []string{"カフェ巡り", "ヨガ"}, p.Hobbies)
	assert.Equal(t, "daily", p.Frequency)
	assert.Empty(t, p.ResponseTime, "unknown values are dropped")

	require.Len(t, ai.requests, 1)
	req := ai.requests[0]
	require.NotNil(t, req.Image)
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)

	actions, err := e.actions.List(ctx, u.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, actionTypeImport, actions[0].ActionType)
	assert.Equal(t, domain.ActionSucceeded, actions[0].Status)
}

func TestImportService_ExtractRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	ai := &fakeAI{reply: extractedReply}
	svc := NewImportService(e.conns, e.actions, ai)
	ctx := context.Background()

	_, err := svc.Extract(ctx, u.ID, domain.ProviderClaude, ImportSource{
		Image: &llm.Image{Data: pngHeader, MimeType: "image/bmp"},
	})
	var verrs validate.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = svc.Extract(ctx, u.ID, domain.ProviderClaude, ImportSource{})
	assert.ErrorAs(t, err, &verrs)

	assert.Empty(t, ai.requests, "nothing is sent for invalid input")
}

func TestImportService_ExtractEmptyReply(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	svc := NewImportService(e.conns, e.actions, &fakeAI{reply: `{"nickname": "", "hobbies": []}`})
	ctx := context.Background()

	_, err := svc.Extract(ctx, u.ID, domain.ProviderGPT, ImportSource{Text: "こんにちは"})
	assert.ErrorIs(t, err, ErrNothingExtracted)

	actions, err := e.actions.List(ctx, u.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionFailed, actions[0].Status)
}

func TestImportService_ExtractProviderError(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	svc := NewImportService(e.conns, e.actions, &fakeAI{err: llm.ErrUnavailable})

	_, err := svc.Extract(context.Background(), u.ID, domain.ProviderGPT, ImportSource{Text: "プロフィール"})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestImportService_ApplyOverwritesNonEmpty(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	c := e.connection(t, u.ID, "ゆう",
		testutil.WithStage(domain.StageLineExchanged),
		testutil.WithHobbies("映画"),
		testutil.WithResponseTime(domain.ResponseHours))
	c.BasicInfo.Occupation = "デザイナー"
	require.NoError(t, e.conns.Update(context.Background(), c))
	svc := NewImportService(e.conns, e.actions, &fakeAI{})

	age := 27
	got, err := svc.Apply(context.Background(), u.ID, c.ID, &ExtractedProfile{
		Nickname:  "ゆうか",
		Age:       &age,
		Hobbies:   []string{"ヨガ"},
		Frequency: "daily",
	})
	require.NoError(t, err)

	stored, err := e.conns.GetByID(context.Background(), u.ID, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "ゆうか", stored.Nickname)
	assert.Equal(t, "デザイナー", stored.BasicInfo.Occupation, "empty fields keep the old value")
	assert.Equal(t, []string{"ヨガ"}, stored.BasicInfo.Hobbies)
	assert.Equal(t, domain.FrequencyDaily, stored.Communication.Frequency)
	assert.Equal(t, domain.ResponseHours, stored.Communication.ResponseTime)
	assert.Equal(t, domain.StageLineExchanged, stored.CurrentStage)
}

func TestImportService_CreateFrom(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	svc := NewImportService(e.conns, e.actions, &fakeAI{})
	ctx := context.Background()

	c, err := svc.CreateFrom(ctx, u.ID, &ExtractedProfile{Nickname: "ゆうか", Platform: "Tinder", SuggestedStage: "messaging"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageMessaging, c.CurrentStage)

	c2, err := svc.CreateFrom(ctx, u.ID, &ExtractedProfile{Nickname: "まい", SuggestedStage: "???"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageJustMatched, c2.CurrentStage)

	_, err = svc.CreateFrom(ctx, u.ID, &ExtractedProfile{Platform: "Pairs"})
	var verrs validate.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "nickname is still required")
}
