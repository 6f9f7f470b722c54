package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
)

// ConnectionRepo stores connections. Every lookup is scoped by owner.
type ConnectionRepo interface {
	Create(ctx context.Context, c *domain.Connection) error
	GetByID(ctx context.Context, userID, id string) (*domain.Connection, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Connection, error)
	Update(ctx context.Context, c *domain.Connection) error
	UpdateStage(ctx context.Context, userID, id string, stage domain.Stage, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

type ProgressRepo interface {
	Create(ctx context.Context, r *domain.ProgressRecord) error
	ListByConnection(ctx context.Context, userID, connectionID string) ([]*domain.ProgressRecord, error)
}

type PromptHistoryRepo interface {
	Create(ctx context.Context, r *domain.PromptRecord) error
	List(ctx context.Context, userID, connectionID string, limit int) ([]*domain.PromptRecord, error)
}

type ActionHistoryRepo interface {
	Create(ctx context.Context, r *domain.ActionRecord) error
	List(ctx context.Context, userID, connectionID string, limit int) ([]*domain.ActionRecord, error)
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	UpdateProfile(ctx context.Context, u *domain.User) error
}

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type PasswordResetRepo interface {
	Create(ctx context.Context, r *domain.PasswordReset) error
	Get(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, token string, at time.Time) error
}
