package service

import (
	"context"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/recommend"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/google/uuid"
)

func newID() string {
	return uuid.New().String()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// loadProfile returns the owner's profile, which scoring compares against.
func loadProfile(ctx context.Context, users repository.UserRepo, userID string) (domain.UserProfile, error) {
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return u.Profile, nil
}

func scoreConnection(c *domain.Connection, profile domain.UserProfile) ScoredConnection {
	sc := ScoredConnection{Connection: c, Score: scoring.Score(c, profile)}
	if a, ok := recommend.ForConnection(c); ok {
		a.HopeScore = sc.Score.Total
		sc.Action = &a
	}
	return sc
}

func scoreAll(conns []*domain.Connection, profile domain.UserProfile) ([]ScoredConnection, map[string]int) {
	scored := make([]ScoredConnection, len(conns))
	totals := make(map[string]int, len(conns))
	for i, c := range conns {
		scored[i] = scoreConnection(c, profile)
		totals[c.ID] = scored[i].Score.Total
	}
	return scored, totals
}
