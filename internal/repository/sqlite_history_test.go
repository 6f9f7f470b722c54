package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepo_ListOrderedByTime(t *testing.T) {
	database, connRepo, user := connectionTestSetup(t)
	ctx := context.Background()
	c := testutil.NewTestConnection(user.ID, "なな")
	require.NoError(t, connRepo.Create(ctx, c))

	repo := NewSQLiteProgressRepo(database)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.ProgressRecord{
		ID: "p2", ConnectionID: c.ID, UserID: user.ID,
		FromStage: domain.StageMessaging, ToStage: domain.StageLineExchanged,
		HopeScore: 50, RecordedAt: base.Add(48 * time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &domain.ProgressRecord{
		ID: "p1", ConnectionID: c.ID, UserID: user.ID,
		FromStage: domain.StageJustMatched, ToStage: domain.StageMessaging,
		Note: "返信きた", HopeScore: 35, RecordedAt: base,
	}))

	records, err := repo.ListByConnection(ctx, user.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ID)
	assert.Equal(t, "返信きた", records[0].Note)
	assert.Equal(t, domain.StageLineExchanged, records[1].ToStage)

	other, err := repo.ListByConnection(ctx, "someone-else", c.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPromptHistoryRepo_FilterAndLimit(t *testing.T) {
	repo := NewSQLitePromptHistoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	for i, conn := range []string{"c1", "c1", "c2"} {
		require.NoError(t, repo.Create(ctx, &domain.PromptRecord{
			ID: string(rune('a' + i)), UserID: "u1", ConnectionID: conn,
			UseCase: domain.UseCaseFirstMessage, Provider: domain.ProviderClaude,
			Prompt: "prompt", Response: "reply", Model: "m", InputTokens: 10, OutputTokens: 20,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	c1, err := repo.List(ctx, "u1", "c1", 0)
	require.NoError(t, err)
	assert.Len(t, c1, 2)

	limited, err := repo.List(ctx, "u1", "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 20, limited[0].OutputTokens)
}

func TestActionHistoryRepo_RoundTrip(t *testing.T) {
	repo := NewSQLiteActionHistoryRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.ActionRecord{
		ID: "a1", UserID: "u1", ConnectionID: "c1", ActionType: "ai_execute",
		UseCase: domain.UseCaseFollowUp, Provider: domain.ProviderGemini,
		Status: domain.ActionFailed, ErrorMessage: "APIキーが無効です", CreatedAt: time.Now(),
	}))

	list, err := repo.List(ctx, "u1", "c1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ActionFailed, list[0].Status)
	assert.Equal(t, domain.ProviderGemini, list[0].Provider)
	assert.Equal(t, "APIキーが無効です", list[0].ErrorMessage)
}
