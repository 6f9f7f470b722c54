package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/validate"
)

type authService struct {
	users    repository.UserRepo
	sessions repository.SessionRepo
	resets   repository.PasswordResetRepo
	uow      db.UnitOfWork
	ttl      time.Duration
	observer UseCaseObserver
}

// NewAuthService wires the auth use cases. sessions may be the SQLite repo
// or a Redis store; ttl <= 0 means auth.SessionTTL.
func NewAuthService(
	users repository.UserRepo,
	sessions repository.SessionRepo,
	resets repository.PasswordResetRepo,
	uow db.UnitOfWork,
	ttl time.Duration,
	observers ...UseCaseObserver,
) AuthService {
	if ttl <= 0 {
		ttl = auth.SessionTTL
	}
	return &authService{
		users:    users,
		sessions: sessions,
		resets:   resets,
		uow:      uow,
		ttl:      ttl,
		observer: useCaseObserverOrNoop(observers),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (res *AuthResult, err error) {
	defer observe(ctx, s.observer, "auth-sign-up", nil)(&err)

	email = normalizeEmail(email)
	if err = validate.Email(email); err != nil {
		return nil, errors.Join(auth.ErrInvalidEmail, err)
	}
	if err = validate.Password(password); err != nil {
		return nil, errors.Join(auth.ErrWeakPassword, err)
	}
	if err = validate.Profile(displayName, domain.UserProfile{}); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	u := &domain.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, auth.ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	sess, err := s.startSession(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Session: sess}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer observe(ctx, s.observer, "auth-sign-in", nil)(&err)

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err = auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	sess, err := s.startSession(ctx, u.ID, nowUTC())
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: u, Session: sess}, nil
}

func (s *authService) startSession(ctx context.Context, userID string, now time.Time) (*domain.Session, error) {
	token, err := auth.NewToken()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

func (s *authService) SignOut(ctx context.Context, token string) (err error) {
	defer observe(ctx, s.observer, "auth-sign-out", nil)(&err)
	return s.sessions.Delete(ctx, token)
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, auth.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, err
	}
	if sess.Expired(nowUTC()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, auth.ErrSessionExpired
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

// RequestPasswordReset issues a one-time token. Unknown addresses return
// (nil, nil) so callers cannot probe for accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (reset *domain.PasswordReset, err error) {
	defer observe(ctx, s.observer, "auth-request-reset", nil)(&err)

	email = normalizeEmail(email)
	if err = validate.Email(email); err != nil {
		return nil, errors.Join(auth.ErrInvalidEmail, err)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	token, err := auth.NewToken()
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	reset = &domain.PasswordReset{
		Token:     token,
		UserID:    u.ID,
		ExpiresAt: now.Add(auth.ResetTTL),
		CreatedAt: now,
	}
	if err = s.resets.Create(ctx, reset); err != nil {
		return nil, err
	}
	return reset, nil
}

// ConfirmPasswordReset sets the new password, burns the token and signs the
// user out everywhere.
func (s *authService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (err error) {
	defer observe(ctx, s.observer, "auth-confirm-reset", nil)(&err)

	if err = validate.Password(newPassword); err != nil {
		return errors.Join(auth.ErrWeakPassword, err)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	var userID string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txResets := repository.NewSQLitePasswordResetRepo(tx)
		txUsers := repository.NewSQLiteUserRepo(tx)

		reset, err := txResets.Get(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return auth.ErrResetTokenInvalid
			}
			return err
		}
		now := nowUTC()
		if reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
			return auth.ErrResetTokenInvalid
		}
		if err := txUsers.UpdatePassword(ctx, reset.UserID, hash, now); err != nil {
			return err
		}
		userID = reset.UserID
		return txResets.MarkUsed(ctx, token, now)
	})
	if err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *authService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (err error) {
	defer observe(ctx, s.observer, "auth-update-password", map[string]any{"user_id": userID})(&err)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err = auth.CheckPassword(u.PasswordHash, currentPassword); err != nil {
		return err
	}
	if err = validate.Password(newPassword); err != nil {
		return errors.Join(auth.ErrWeakPassword, err)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash, nowUTC())
}

func (s *authService) UpdateProfile(ctx context.Context, userID, displayName string, profile domain.UserProfile) (u *domain.User, err error) {
	defer observe(ctx, s.observer, "auth-update-profile", map[string]any{"user_id": userID})(&err)

	if err = validate.Profile(displayName, profile); err != nil {
		return nil, err
	}
	u, err = s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.DisplayName = strings.TrimSpace(displayName)
	u.Profile = profile
	u.UpdatedAt = nowUTC()
	if err = s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
