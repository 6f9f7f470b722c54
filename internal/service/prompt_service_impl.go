package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/prompt"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/validate"
)

// AIClient is the slice of *llm.Manager the services call.
type AIClient interface {
	Generate(ctx context.Context, p domain.Provider, req llm.Request) (*llm.Response, error)
}

const (
	actionTypeExecute = "ai_execute"
	actionTypeImport  = "screenshot_import"

	defaultHistoryLimit = 50
)

type promptService struct {
	conns    repository.ConnectionRepo
	prompts  repository.PromptHistoryRepo
	actions  repository.ActionHistoryRepo
	uow      db.UnitOfWork
	ai       AIClient
	gen      prompt.Generator
	observer UseCaseObserver
}

func NewPromptService(
	conns repository.ConnectionRepo,
	prompts repository.PromptHistoryRepo,
	actions repository.ActionHistoryRepo,
	uow db.UnitOfWork,
	ai AIClient,
	observers ...UseCaseObserver,
) PromptService {
	return &promptService{
		conns:    conns,
		prompts:  prompts,
		actions:  actions,
		uow:      uow,
		ai:       ai,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *promptService) render(ctx context.Context, userID string, req PromptRequest) (*OrchestratedPrompt, error) {
	if err := validate.FreeText("extra", "質問", req.Extra, req.UseCase == domain.UseCaseRelationshipAdvice); err != nil {
		return nil, err
	}
	c, err := s.conns.GetByID(ctx, userID, req.ConnectionID)
	if err != nil {
		return nil, err
	}
	text, err := s.gen.Generate(req.Provider, req.UseCase, c, req.Extra)
	if err != nil {
		return nil, err
	}
	return &OrchestratedPrompt{
		ID:           newID(),
		ConnectionID: c.ID,
		UseCase:      req.UseCase,
		Provider:     req.Provider,
		Prompt:       text,
		GeneratedAt:  nowUTC(),
	}, nil
}

// Generate renders the prompt and records it without a response.
func (s *promptService) Generate(ctx context.Context, userID string, req PromptRequest) (op *OrchestratedPrompt, err error) {
	fields := map[string]any{"connection_id": req.ConnectionID, "use_case": string(req.UseCase), "provider": string(req.Provider)}
	defer observe(ctx, s.observer, "prompt-generate", fields)(&err)

	op, err = s.render(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	rec := &domain.PromptRecord{
		ID:           op.ID,
		UserID:       userID,
		ConnectionID: op.ConnectionID,
		UseCase:      op.UseCase,
		Provider:     op.Provider,
		Prompt:       op.Prompt,
		CreatedAt:    op.GeneratedAt,
	}
	if err = s.prompts.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording prompt: %w", err)
	}
	return op, nil
}

// Execute sends the rendered prompt to the provider. Successful replies are
// stored in prompt and action history together; failures leave a failed
// action row carrying the user-facing message.
func (s *promptService) Execute(ctx context.Context, userID string, req PromptRequest) (res *ActionResult, err error) {
	fields := map[string]any{"connection_id": req.ConnectionID, "use_case": string(req.UseCase), "provider": string(req.Provider)}
	defer observe(ctx, s.observer, "prompt-execute", fields)(&err)

	op, err := s.render(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.ai.Generate(ctx, req.Provider, llm.Request{SystemPrompt: prompt.SystemPrompt, UserPrompt: op.Prompt})
	if err != nil {
		failed := &domain.ActionRecord{
			ID:           newID(),
			UserID:       userID,
			ConnectionID: op.ConnectionID,
			ActionType:   actionTypeExecute,
			UseCase:      op.UseCase,
			Provider:     op.Provider,
			Status:       domain.ActionFailed,
			ErrorMessage: llm.UserMessage(err),
			CreatedAt:    nowUTC(),
		}
		if recErr := s.actions.Create(ctx, failed); recErr != nil {
			return nil, fmt.Errorf("%w (recording failure: %v)", err, recErr)
		}
		return nil, err
	}

	res = &ActionResult{
		OrchestratedPrompt: *op,
		Response:           resp.Content,
		Model:              resp.Model,
		Usage:              resp.Usage,
		LatencyMs:          resp.LatencyMs,
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		now := nowUTC()
		if err := repository.NewSQLitePromptHistoryRepo(tx).Create(ctx, &domain.PromptRecord{
			ID:           op.ID,
			UserID:       userID,
			ConnectionID: op.ConnectionID,
			UseCase:      op.UseCase,
			Provider:     op.Provider,
			Prompt:       op.Prompt,
			Response:     resp.Content,
			Model:        resp.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		return repository.NewSQLiteActionHistoryRepo(tx).Create(ctx, &domain.ActionRecord{
			ID:           newID(),
			UserID:       userID,
			ConnectionID: op.ConnectionID,
			ActionType:   actionTypeExecute,
			UseCase:      op.UseCase,
			Provider:     op.Provider,
			Status:       domain.ActionSucceeded,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("recording action: %w", err)
	}
	fields["model"] = resp.Model
	fields["latency_ms"] = resp.LatencyMs
	return res, nil
}

func (s *promptService) PromptHistory(ctx context.Context, userID, connectionID string, limit int) ([]*domain.PromptRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.prompts.List(ctx, userID, connectionID, limit)
}

func (s *promptService) ActionHistory(ctx context.Context, userID, connectionID string, limit int) ([]*domain.ActionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.actions.List(ctx, userID, connectionID, limit)
}
