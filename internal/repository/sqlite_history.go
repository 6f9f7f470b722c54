package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
)

// SQLiteProgressRepo implements ProgressRepo (table progress_tracking).
type SQLiteProgressRepo struct {
	db db.DBTX
}

func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

func (r *SQLiteProgressRepo) Create(ctx context.Context, p *domain.ProgressRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress_tracking (id, connection_id, user_id, from_stage, to_stage, note, hope_score, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ConnectionID, p.UserID, string(p.FromStage), string(p.ToStage),
		p.Note, p.HopeScore, formatTime(p.RecordedAt))
	if err != nil {
		return fmt.Errorf("inserting progress record: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepo) ListByConnection(ctx context.Context, userID, connectionID string) ([]*domain.ProgressRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, connection_id, user_id, from_stage, to_stage, note, hope_score, recorded_at
		FROM progress_tracking WHERE user_id = ? AND connection_id = ? ORDER BY recorded_at, id`,
		userID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	var out []*domain.ProgressRecord
	for rows.Next() {
		var p domain.ProgressRecord
		var from, to, recordedAt string
		if err := rows.Scan(&p.ID, &p.ConnectionID, &p.UserID, &from, &to, &p.Note, &p.HopeScore, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning progress row: %w", err)
		}
		p.FromStage = domain.Stage(from)
		p.ToStage = domain.Stage(to)
		if p.RecordedAt, err = parseTime(recordedAt, "recorded_at"); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress: %w", err)
	}
	return out, nil
}

// SQLitePromptHistoryRepo implements PromptHistoryRepo (table prompt_history).
type SQLitePromptHistoryRepo struct {
	db db.DBTX
}

func NewSQLitePromptHistoryRepo(conn db.DBTX) *SQLitePromptHistoryRepo {
	return &SQLitePromptHistoryRepo{db: conn}
}

func (r *SQLitePromptHistoryRepo) Create(ctx context.Context, p *domain.PromptRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO prompt_history (id, user_id, connection_id, use_case, provider, prompt, response, model, input_tokens, output_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.ConnectionID, string(p.UseCase), string(p.Provider),
		p.Prompt, p.Response, p.Model, p.InputTokens, p.OutputTokens, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting prompt history: %w", err)
	}
	return nil
}

// List returns newest first. An empty connectionID lists across all of the
// user's connections; limit <= 0 means no limit.
func (r *SQLitePromptHistoryRepo) List(ctx context.Context, userID, connectionID string, limit int) ([]*domain.PromptRecord, error) {
	query := `SELECT id, user_id, connection_id, use_case, provider, prompt, response, model, input_tokens, output_tokens, created_at
		FROM prompt_history WHERE user_id = ?`
	args := []any{userID}
	query, args = scopeHistoryQuery(query, args, connectionID, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing prompt history: %w", err)
	}
	defer rows.Close()

	var out []*domain.PromptRecord
	for rows.Next() {
		var p domain.PromptRecord
		var useCase, provider, createdAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ConnectionID, &useCase, &provider,
			&p.Prompt, &p.Response, &p.Model, &p.InputTokens, &p.OutputTokens, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning prompt history row: %w", err)
		}
		p.UseCase = domain.UseCase(useCase)
		p.Provider = domain.Provider(provider)
		if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt history: %w", err)
	}
	return out, nil
}

// SQLiteActionHistoryRepo implements ActionHistoryRepo (table action_history).
type SQLiteActionHistoryRepo struct {
	db db.DBTX
}

func NewSQLiteActionHistoryRepo(conn db.DBTX) *SQLiteActionHistoryRepo {
	return &SQLiteActionHistoryRepo{db: conn}
}

func (r *SQLiteActionHistoryRepo) Create(ctx context.Context, a *domain.ActionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_history (id, user_id, connection_id, action_type, use_case, provider, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.ConnectionID, a.ActionType, string(a.UseCase), string(a.Provider),
		string(a.Status), a.ErrorMessage, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting action history: %w", err)
	}
	return nil
}

func (r *SQLiteActionHistoryRepo) List(ctx context.Context, userID, connectionID string, limit int) ([]*domain.ActionRecord, error) {
	query := `SELECT id, user_id, connection_id, action_type, use_case, provider, status, error_message, created_at
		FROM action_history WHERE user_id = ?`
	args := []any{userID}
	query, args = scopeHistoryQuery(query, args, connectionID, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing action history: %w", err)
	}
	defer rows.Close()

	var out []*domain.ActionRecord
	for rows.Next() {
		var a domain.ActionRecord
		var useCase, provider, status, createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ConnectionID, &a.ActionType, &useCase, &provider,
			&status, &a.ErrorMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning action history row: %w", err)
		}
		a.UseCase = domain.UseCase(useCase)
		a.Provider = domain.Provider(provider)
		a.Status = domain.ActionStatus(status)
		if a.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action history: %w", err)
	}
	return out, nil
}

func scopeHistoryQuery(query string, args []any, connectionID string, limit int) (string, []any) {
	if connectionID != "" {
		query += ` AND connection_id = ?`
		args = append(args, connectionID)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return query, args
}
