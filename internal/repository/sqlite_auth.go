package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
)

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, formatTime(s.CreatedAt), formatTime(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) Get(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	var createdAt, expiresAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.UserID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if s.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if s.ExpiresAt, err = parseTime(expiresAt, "expires_at"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// SQLitePasswordResetRepo implements PasswordResetRepo using a SQLite database.
type SQLitePasswordResetRepo struct {
	db db.DBTX
}

func NewSQLitePasswordResetRepo(conn db.DBTX) *SQLitePasswordResetRepo {
	return &SQLitePasswordResetRepo{db: conn}
}

func (r *SQLitePasswordResetRepo) Create(ctx context.Context, p *domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at, used_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Token, p.UserID, formatTime(p.ExpiresAt),
		nullableTimeToString(p.UsedAt, time.RFC3339Nano), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting password reset: %w", err)
	}
	return nil
}

func (r *SQLitePasswordResetRepo) Get(ctx context.Context, token string) (*domain.PasswordReset, error) {
	var p domain.PasswordReset
	var expiresAt, createdAt string
	var usedAt sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, used_at, created_at FROM password_resets WHERE token = ?`, token).
		Scan(&p.Token, &p.UserID, &expiresAt, &usedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("password reset: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning password reset: %w", err)
	}
	if p.ExpiresAt, err = parseTime(expiresAt, "expires_at"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	p.UsedAt = parseNullableTime(usedAt, time.RFC3339Nano)
	return &p, nil
}

func (r *SQLitePasswordResetRepo) MarkUsed(ctx context.Context, token string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE token = ? AND used_at IS NULL`, formatTime(at), token)
	if err != nil {
		return fmt.Errorf("marking password reset used: %w", err)
	}
	return requireAffected(res, "password reset")
}
