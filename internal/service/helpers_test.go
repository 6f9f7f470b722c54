package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

type testEnv struct {
	db       *sql.DB
	uow      db.UnitOfWork
	conns    *repository.SQLiteConnectionRepo
	progress *repository.SQLiteProgressRepo
	users    *repository.SQLiteUserRepo
	sessions *repository.SQLiteSessionRepo
	resets   *repository.SQLitePasswordResetRepo
	prompts  *repository.SQLitePromptHistoryRepo
	actions  *repository.SQLiteActionHistoryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	return &testEnv{
		db:       database,
		uow:      testutil.NewTestUoW(database),
		conns:    repository.NewSQLiteConnectionRepo(database),
		progress: repository.NewSQLiteProgressRepo(database),
		users:    repository.NewSQLiteUserRepo(database),
		sessions: repository.NewSQLiteSessionRepo(database),
		resets:   repository.NewSQLitePasswordResetRepo(database),
		prompts:  repository.NewSQLitePromptHistoryRepo(database),
		actions:  repository.NewSQLiteActionHistoryRepo(database),
	}
}

func (e *testEnv) user(t *testing.T, opts ...testutil.UserOption) *domain.User {
	t.Helper()
	u := testutil.NewTestUser(opts...)
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) connection(t *testing.T, userID, nickname string, opts ...testutil.ConnectionOption) *domain.Connection {
	t.Helper()
	c := testutil.NewTestConnection(userID, nickname, opts...)
	require.NoError(t, e.conns.Create(context.Background(), c))
	return c
}

type fakeAI struct {
	mu       sync.Mutex
	requests []llm.Request
	reply    string
	err      error
}

func (f *fakeAI) Generate(_ context.Context, p domain.Provider, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{
		Provider: p,
		Model:    "fake-model",
		Content:  f.reply,
		Usage:    llm.Usage{InputTokens: 12, OutputTokens: 34, TotalTokens: 46},
	}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}
