package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/google/uuid"
)

var testEmailCounter atomic.Int64

// User options
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) {
		u.Email = email
	}
}

func WithUserHobbies(hobbies ...string) UserOption {
	return func(u *domain.User) {
		u.Profile.Hobbies = hobbies
	}
}

func WithUserLocation(loc string) UserOption {
	return func(u *domain.User) {
		u.Profile.Location = loc
	}
}

// NewTestUser builds a user with a unique email. PasswordHash is a
// placeholder; auth tests hash real passwords themselves.
func NewTestUser(opts ...UserOption) *domain.User {
	now := time.Now().UTC()
	n := testEmailCounter.Add(1)
	u := &domain.User{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "not-a-real-hash",
		DisplayName:  fmt.Sprintf("テストユーザー%d", n),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Connection options
type ConnectionOption func(*domain.Connection)

func WithStage(s domain.Stage) ConnectionOption {
	return func(c *domain.Connection) {
		c.CurrentStage = s
	}
}

func WithPlatform(p string) ConnectionOption {
	return func(c *domain.Connection) {
		c.Platform = p
	}
}

func WithAge(age int) ConnectionOption {
	return func(c *domain.Connection) {
		c.BasicInfo.Age = &age
	}
}

func WithHobbies(hobbies ...string) ConnectionOption {
	return func(c *domain.Connection) {
		c.BasicInfo.Hobbies = hobbies
	}
}

func WithLocation(loc string) ConnectionOption {
	return func(c *domain.Connection) {
		c.BasicInfo.Location = loc
	}
}

func WithFrequency(f domain.Frequency) ConnectionOption {
	return func(c *domain.Connection) {
		c.Communication.Frequency = f
	}
}

func WithResponseTime(r domain.ResponseTime) ConnectionOption {
	return func(c *domain.Connection) {
		c.Communication.ResponseTime = r
	}
}

func WithLastContact(t time.Time) ConnectionOption {
	return func(c *domain.Connection) {
		c.Communication.LastContact = &t
	}
}

func WithExpectation(e domain.Expectation) ConnectionOption {
	return func(c *domain.Connection) {
		c.UserFeelings.Expectation = e
	}
}

func WithAttractivePoints(points ...string) ConnectionOption {
	return func(c *domain.Connection) {
		c.UserFeelings.AttractivePoints = points
	}
}

func WithConcerns(concerns ...string) ConnectionOption {
	return func(c *domain.Connection) {
		c.UserFeelings.Concerns = concerns
	}
}

func NewTestConnection(userID, nickname string, opts ...ConnectionOption) *domain.Connection {
	now := time.Now().UTC()
	c := &domain.Connection{
		ID:           uuid.New().String(),
		UserID:       userID,
		Nickname:     nickname,
		Platform:     "Pairs",
		CurrentStage: domain.StageJustMatched,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
