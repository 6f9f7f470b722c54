package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/validate"
)

const extractionSystemPrompt = `あなたはマッチングアプリのプロフィールやチャットのスクリーンショットから情報を読み取るアシスタントです。
読み取れた情報だけをJSONで返してください。推測はせず、読み取れない項目は空文字列、null、または空配列にしてください。`

const extractionTask = `次の形式のJSONオブジェクトを1つだけ返してください。説明文は不要です。
{
  "nickname": "相手のニックネーム",
  "platform": "アプリ名 (例: Pairs, Tinder)",
  "age": 28,
  "occupation": "職業",
  "location": "居住地",
  "hobbies": ["趣味"],
  "frequency": "daily | few_days | weekly | irregular",
  "response_time": "minutes | within_hour | hours | over_day",
  "communication_style": "やり取りの特徴",
  "suggested_stage": "just_matched | messaging | line_exchanged | date_arranging | before_date | after_date | dating | ended"
}`

// ErrNothingExtracted is returned when the reply parsed but carried no
// usable field.
var ErrNothingExtracted = errors.New("no profile information found")

type importService struct {
	conns    repository.ConnectionRepo
	actions  repository.ActionHistoryRepo
	ai       AIClient
	observer UseCaseObserver
}

func NewImportService(
	conns repository.ConnectionRepo,
	actions repository.ActionHistoryRepo,
	ai AIClient,
	observers ...UseCaseObserver,
) ImportService {
	return &importService{
		conns:    conns,
		actions:  actions,
		ai:       ai,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) Extract(ctx context.Context, userID string, provider domain.Provider, src ImportSource) (p *ExtractedProfile, err error) {
	fields := map[string]any{"provider": string(provider), "image": src.Image != nil}
	defer observe(ctx, s.observer, "import-extract", fields)(&err)

	req := llm.Request{SystemPrompt: extractionSystemPrompt, Temperature: new(float64)}
	switch {
	case src.Image != nil:
		if err = validate.Screenshot(src.Image.Data, src.Image.MimeType); err != nil {
			return nil, err
		}
		req.Image = src.Image
		req.UserPrompt = "このスクリーンショットを読み取ってください。\n\n" + extractionTask
	default:
		if err = validate.FreeText("text", "テキスト", src.Text, true); err != nil {
			return nil, err
		}
		req.UserPrompt = "次のテキストを読み取ってください。\n\n---\n" + src.Text + "\n---\n\n" + extractionTask
	}

	p, err = s.extract(ctx, provider, req)
	s.record(ctx, userID, provider, err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *importService) extract(ctx context.Context, provider domain.Provider, req llm.Request) (*ExtractedProfile, error) {
	resp, err := s.ai.Generate(ctx, provider, req)
	if err != nil {
		return nil, err
	}
	p, err := llm.ExtractJSON[ExtractedProfile](resp.Content, func(p ExtractedProfile) error {
		p.normalize()
		if p.empty() {
			return ErrNothingExtracted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

func (s *importService) record(ctx context.Context, userID string, provider domain.Provider, err error) {
	rec := &domain.ActionRecord{
		ID:         newID(),
		UserID:     userID,
		ActionType: actionTypeImport,
		Provider:   provider,
		Status:     domain.ActionSucceeded,
		CreatedAt:  nowUTC(),
	}
	if err != nil {
		rec.Status = domain.ActionFailed
		rec.ErrorMessage = llm.UserMessage(err)
	}
	// Best effort.
	_ = s.actions.Create(ctx, rec)
}

// Apply overwrites the connection's fields with every non-empty extracted
// value. The stage is not touched.
func (s *importService) Apply(ctx context.Context, userID, connectionID string, p *ExtractedProfile) (c *domain.Connection, err error) {
	defer observe(ctx, s.observer, "import-apply", map[string]any{"connection_id": connectionID})(&err)

	c, err = s.conns.GetByID(ctx, userID, connectionID)
	if err != nil {
		return nil, err
	}
	p.applyTo(c)
	if err = validate.Connection(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = nowUTC()
	if err = s.conns.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateFrom creates a connection from an extraction. The suggested stage is
// used when it parses, otherwise the connection starts just matched.
func (s *importService) CreateFrom(ctx context.Context, userID string, p *ExtractedProfile) (c *domain.Connection, err error) {
	defer observe(ctx, s.observer, "import-create", map[string]any{"user_id": userID})(&err)

	now := nowUTC()
	c = &domain.Connection{
		ID:           newID(),
		UserID:       userID,
		CurrentStage: domain.StageJustMatched,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if st, perr := domain.ParseStage(p.SuggestedStage); perr == nil {
		c.CurrentStage = st
	}
	p.applyTo(c)
	if err = validate.Connection(c); err != nil {
		return nil, err
	}
	if err = s.conns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating connection: %w", err)
	}
	return c, nil
}

func (p *ExtractedProfile) normalize() {
	p.Nickname = strings.TrimSpace(p.Nickname)
	p.Platform = strings.TrimSpace(p.Platform)
	p.Occupation = strings.TrimSpace(p.Occupation)
	p.Location = strings.TrimSpace(p.Location)
	p.CommunicationStyle = strings.TrimSpace(p.CommunicationStyle)
	p.SuggestedStage = strings.TrimSpace(p.SuggestedStage)
	if p.Age != nil && (*p.Age < validate.MinAge || *p.Age > validate.MaxAge) {
		p.Age = nil
	}
	if _, err := domain.ParseFrequency(p.Frequency); err != nil {
		p.Frequency = ""
	}
	if _, err := domain.ParseResponseTime(p.ResponseTime); err != nil {
		p.ResponseTime = ""
	}

	hobbies := make([]string, 0, len(p.Hobbies))
	for _, h := range p.Hobbies {
		if h = strings.TrimSpace(h); h != "" && len(hobbies) < validate.MaxHobbies {
			hobbies = append(hobbies, h)
		}
	}
	p.Hobbies = hobbies
}

func (p *ExtractedProfile) empty() bool {
	return p.Nickname == "" && p.Platform == "" && p.Age == nil && p.Occupation == "" &&
		p.Location == "" && len(p.Hobbies) == 0 && p.Frequency == "" && p.ResponseTime == "" &&
		p.CommunicationStyle == ""
}

func (p *ExtractedProfile) applyTo(c *domain.Connection) {
	c.Nickname = domain.CoalesceStr(p.Nickname, c.Nickname)
	c.Platform = domain.CoalesceStr(p.Platform, c.Platform)
	if p.Age != nil {
		age := *p.Age
		c.BasicInfo.Age = &age
	}
	c.BasicInfo.Occupation = domain.CoalesceStr(p.Occupation, c.BasicInfo.Occupation)
	c.BasicInfo.Location = domain.CoalesceStr(p.Location, c.BasicInfo.Location)
	c.BasicInfo.Hobbies = domain.CoalesceSlice(p.Hobbies, c.BasicInfo.Hobbies)
	if f, err := domain.ParseFrequency(p.Frequency); err == nil && f != domain.FrequencyUnknown {
		c.Communication.Frequency = f
	}
	if r, err := domain.ParseResponseTime(p.ResponseTime); err == nil && r != domain.ResponseUnknown {
		c.Communication.ResponseTime = r
	}
	c.Communication.Style = domain.CoalesceStr(p.CommunicationStyle, c.Communication.Style)
}
