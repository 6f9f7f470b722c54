package service

import (
	"context"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/recommend"
	"github.com/alexanderramin/miru/internal/repository"
)

type dashboardService struct {
	conns    repository.ConnectionRepo
	users    repository.UserRepo
	observer UseCaseObserver
}

func NewDashboardService(
	conns repository.ConnectionRepo,
	users repository.UserRepo,
	observers ...UseCaseObserver,
) DashboardService {
	return &dashboardService{
		conns:    conns,
		users:    users,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Overview scores every connection and derives the stage histogram. The
// average and active count exclude ended connections.
func (s *dashboardService) Overview(ctx context.Context, userID string) (d *Dashboard, err error) {
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, s.observer, "dashboard-overview", fields)(&err)

	conns, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	scored, totals := scoreAll(conns, profile)

	d = &Dashboard{
		Connections:     scored,
		StageCounts:     make(map[domain.Stage]int, len(domain.Stages)),
		Recommendations: recommend.Batch(conns, totals),
		GeneratedAt:     nowUTC(),
	}
	for _, st := range domain.Stages {
		d.StageCounts[st] = 0
	}
	sum := 0
	for _, sc := range scored {
		st := sc.Connection.CurrentStage
		d.StageCounts[st]++
		if st.IsTerminal() {
			continue
		}
		d.ActiveCount++
		sum += sc.Score.Total
	}
	if d.ActiveCount > 0 {
		d.AverageScore = float64(sum) / float64(d.ActiveCount)
	}
	fields["connections"] = len(conns)
	return d, nil
}

func (s *dashboardService) Recommendations(ctx context.Context, userID string) ([]domain.RecommendedAction, error) {
	conns, profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, totals := scoreAll(conns, profile)
	return recommend.Batch(conns, totals), nil
}

func (s *dashboardService) load(ctx context.Context, userID string) ([]*domain.Connection, domain.UserProfile, error) {
	profile, err := loadProfile(ctx, s.users, userID)
	if err != nil {
		return nil, domain.UserProfile{}, err
	}
	conns, err := s.conns.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.UserProfile{}, err
	}
	return conns, profile, nil
}
