package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/alexanderramin/miru/internal/validate"
)

type connectionService struct {
	conns    repository.ConnectionRepo
	progress repository.ProgressRepo
	users    repository.UserRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewConnectionService(
	conns repository.ConnectionRepo,
	progress repository.ProgressRepo,
	users repository.UserRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ConnectionService {
	return &connectionService{
		conns:    conns,
		progress: progress,
		users:    users,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *connectionService) Create(ctx context.Context, c *domain.Connection) (err error) {
	defer observe(ctx, s.observer, "connection-create", map[string]any{"user_id": c.UserID})(&err)

	if c.CurrentStage == "" {
		c.CurrentStage = domain.StageJustMatched
	}
	if err = validate.Connection(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = newID()
	}
	now := nowUTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.conns.Create(ctx, c)
}

func (s *connectionService) Get(ctx context.Context, userID, id string) (*domain.Connection, error) {
	return s.conns.GetByID(ctx, userID, id)
}

func (s *connectionService) List(ctx context.Context, userID string) ([]*domain.Connection, error) {
	return s.conns.ListByUser(ctx, userID)
}

// Update saves every editable field. The stage is left as stored; it only
// moves through UpdateStage so that each move is tracked.
func (s *connectionService) Update(ctx context.Context, c *domain.Connection) (err error) {
	defer observe(ctx, s.observer, "connection-update", map[string]any{"connection_id": c.ID})(&err)

	var existing *domain.Connection
	existing, err = s.conns.GetByID(ctx, c.UserID, c.ID)
	if err != nil {
		return err
	}
	c.CurrentStage = existing.CurrentStage
	c.CreatedAt = existing.CreatedAt
	if err = validate.Connection(c); err != nil {
		return err
	}
	c.UpdatedAt = nowUTC()
	return s.conns.Update(ctx, c)
}

func (s *connectionService) Delete(ctx context.Context, userID, id string) (err error) {
	defer observe(ctx, s.observer, "connection-delete", map[string]any{"connection_id": id})(&err)
	return s.conns.Delete(ctx, userID, id)
}

// UpdateStage moves the connection to stage and appends a progress row with
// the hope score at the new stage, both in one transaction.
func (s *connectionService) UpdateStage(ctx context.Context, userID, id string, stage domain.Stage, note string) (rec *domain.ProgressRecord, err error) {
	fields := map[string]any{"connection_id": id, "to_stage": string(stage)}
	defer observe(ctx, s.observer, "connection-update-stage", fields)(&err)

	if !stage.Valid() {
		return nil, validate.ValidationErrors{"current_stage": "ステージが正しくありません"}
	}
	if err = validate.FreeText("note", "メモ", note, false); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txConns := repository.NewSQLiteConnectionRepo(tx)
		txProgress := repository.NewSQLiteProgressRepo(tx)
		txUsers := repository.NewSQLiteUserRepo(tx)

		c, err := txConns.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		profile, err := loadProfile(ctx, txUsers, userID)
		if err != nil {
			return err
		}

		now := nowUTC()
		from := c.CurrentStage
		if err := txConns.UpdateStage(ctx, userID, id, stage, now); err != nil {
			return err
		}
		c.CurrentStage = stage

		rec = &domain.ProgressRecord{
			ID:           newID(),
			ConnectionID: id,
			UserID:       userID,
			FromStage:    from,
			ToStage:      stage,
			Note:         note,
			HopeScore:    scoring.Score(c, profile).Total,
			RecordedAt:   now,
		}
		return txProgress.Create(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("updating stage: %w", err)
	}
	fields["from_stage"] = string(rec.FromStage)
	fields["hope_score"] = rec.HopeScore
	return rec, nil
}

func (s *connectionService) ListProgress(ctx context.Context, userID, id string) ([]*domain.ProgressRecord, error) {
	if _, err := s.conns.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.progress.ListByConnection(ctx, userID, id)
}

func (s *connectionService) Score(ctx context.Context, userID, id string) (*ScoredConnection, error) {
	c, err := s.conns.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	profile, err := loadProfile(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	sc := scoreConnection(c, profile)
	return &sc, nil
}
