package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	Profile      UserProfile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile is the user's own information. The commonality sub-score
// compares connections against it.
type UserProfile struct {
	Age      *int
	Location string
	Hobbies  []string
}

// Session is an authenticated sign-in.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// PasswordReset is a one-time token issued by a reset request.
type PasswordReset struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
