package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/logging"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/alexanderramin/miru/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

type fakeAdapter struct {
	mu       sync.Mutex
	provider domain.Provider
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeAdapter) Provider() domain.Provider { return f.provider }

func (f *fakeAdapter) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{
		Provider:  f.provider,
		Model:     "fake-model",
		Content:   f.reply,
		Usage:     llm.Usage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
		LatencyMs: 5,
	}, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (n *captureNotifier) NotifyReset(_ context.Context, email string, reset *domain.PasswordReset) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens[email] = reset.Token
	return nil
}

type stubHealth struct {
	err error
}

func (s stubHealth) Probe(context.Context) error { return s.err }
func (s stubHealth) Components() []string        { return []string{"db", "i18n"} }

func (s stubHealth) Lookup(name string) (any, bool) {
	switch name {
	case "db":
		return stubPinger{err: s.err}, true
	case "i18n":
		return struct{}{}, true
	}
	return nil, false
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }

type testAPI struct {
	handler  http.Handler
	ai       *fakeAdapter
	notifier *captureNotifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	conns := repository.NewSQLiteConnectionRepo(database)
	users := repository.NewSQLiteUserRepo(database)
	actions := repository.NewSQLiteActionHistoryRepo(database)

	ai := &fakeAdapter{provider: domain.ProviderClaude, reply: "こんにちは！"}
	manager := llm.NewManagerWithAdapters(0, ai)
	notifier := &captureNotifier{tokens: map[string]string{}}

	api := NewAPIHandlers(logging.Discard(), Services{
		Connections: service.NewConnectionService(conns, repository.NewSQLiteProgressRepo(database), users, uow),
		Dashboard:   service.NewDashboardService(conns, users),
		Prompts:     service.NewPromptService(conns, repository.NewSQLitePromptHistoryRepo(database), actions, uow, manager),
		Auth: service.NewAuthService(users, repository.NewSQLiteSessionRepo(database),
			repository.NewSQLitePasswordResetRepo(database), uow, 0),
		Import: service.NewImportService(conns, actions, manager),
		AI:     manager,
		Reset:  notifier,
		I18n:   i18n.MustLoad(),
	})
	handler := NewRouter(logging.Discard(), RouterDependencies{
		Health:         stubHealth{},
		API:            api,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &testAPI{handler: handler, ai: ai, notifier: notifier}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) signUp(t *testing.T, email string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "password": "password123", "display_name": "テスト",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out sessionResponse
	decode(t, rec, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (a *testAPI) createConnection(t *testing.T, token string, body map[string]any) connectionResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/connections", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out connectionResponse
	decode(t, rec, &out)
	return out
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	handler := NewRouter(logging.Discard(), RouterDependencies{Health: stubHealth{}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	decode(t, rec, &payload)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, []any{"db", "i18n"}, payload["components"])
}

func TestHealthz_Degraded(t *testing.T) {
	handler := NewRouter(logging.Discard(), RouterDependencies{Health: stubHealth{err: errors.New("db down")}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestHealthzComponent(t *testing.T) {
	get := func(h stubHealth, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		NewRouter(logging.Discard(), RouterDependencies{Health: h}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get(stubHealth{}, "/healthz/db")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(stubHealth{}, "/healthz/i18n")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(stubHealth{}, "/healthz/redis")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(stubHealth{err: errors.New("db down")}, "/healthz/db")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "flow@example.com")

	rec := api.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me userResponse
	decode(t, rec, &me)
	assert.Equal(t, "flow@example.com", me.Email)
	assert.Equal(t, "テスト", me.DisplayName)

	rec = api.do(t, http.MethodPost, "/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "auth.unauthenticated", errBody.Code)
	assert.Equal(t, "ログインしてください", errBody.Error)
}

func TestSignIn(t *testing.T) {
	api := newTestAPI(t)
	api.signUp(t, "signin@example.com")

	rec := api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "SignIn@Example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "signin@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "auth.invalid_credentials", errBody.Code)
}

func TestSignUp_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.signUp(t, "dup@example.com")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate", map[string]string{"email": "dup@example.com", "password": "password123"}, http.StatusConflict, "auth.email_taken"},
		{"weak password", map[string]string{"email": "new@example.com", "password": "short"}, http.StatusBadRequest, "auth.weak_password"},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "password123"}, http.StatusBadRequest, "auth.invalid_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/auth/signup", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var errBody errorResponse
			decode(t, rec, &errBody)
			assert.Equal(t, tt.code, errBody.Code)
		})
	}
}

func TestDecode_UnknownField(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "bad_request", errBody.Code)
}

func TestAcceptLanguage(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Please sign in", errBody.Error)
}

func TestConnectionsCRUD(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "crud@example.com")

	created := api.createConnection(t, token, map[string]any{
		"nickname":  "さくら",
		"platform":  "Pairs",
		"age":       27,
		"hobbies":   []string{"カフェ巡り"},
		"frequency": "毎日",
	})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "just_matched", created.Stage.Key)
	assert.Equal(t, "daily", created.Frequency)

	rec := api.do(t, http.MethodGet, "/connections/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPut, "/connections/"+created.ID, token, map[string]any{
		"nickname":     "さくらさん",
		"platform":     "Pairs",
		"last_contact": "2026-10-01",
		"stage":        "dating",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated connectionResponse
	decode(t, rec, &updated)
	assert.Equal(t, "さくらさん", updated.Nickname)
	assert.Equal(t, "just_matched", updated.Stage.Key, "stage only changes via the stage endpoint")
	require.NotNil(t, updated.LastContact)

	rec = api.do(t, http.MethodGet, "/connections", token, nil)
	var list []connectionResponse
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = api.do(t, http.MethodDelete, "/connections/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/connections/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateConnection_Invalid(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "invalid@example.com")

	rec := api.do(t, http.MethodPost, "/connections", token, map[string]any{
		"nickname":  "",
		"frequency": "hourly",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "validation", errBody.Code)
	assert.Contains(t, errBody.Fields, "frequency")

	rec = api.do(t, http.MethodPost, "/connections", token, map[string]any{"nickname": ""})
	decode(t, rec, &errBody)
	assert.Contains(t, errBody.Fields, "nickname")
}

func TestConnections_OwnerIsolation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com")
	bob := api.signUp(t, "bob@example.com")
	c := api.createConnection(t, alice, map[string]any{"nickname": "ゆい"})

	for _, path := range []string{"/connections/" + c.ID, "/connections/" + c.ID + "/score", "/connections/" + c.ID + "/progress"} {
		rec := api.do(t, http.MethodGet, path, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := api.do(t, http.MethodGet, "/connections", bob, nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpdateStage(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "stage@example.com")
	c := api.createConnection(t, token, map[string]any{"nickname": "みく"})

	rec := api.do(t, http.MethodPost, "/connections/"+c.ID+"/stage", token, map[string]string{
		"stage": "デート調整中", "note": "日曜にランチ",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p progressResponse
	decode(t, rec, &p)
	assert.Equal(t, "just_matched", p.FromStage.Key)
	assert.Equal(t, "date_arranging", p.ToStage.Key)
	assert.Positive(t, p.HopeScore)

	rec = api.do(t, http.MethodGet, "/connections/"+c.ID+"/progress", token, nil)
	var history []progressResponse
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "日曜にランチ", history[0].Note)

	rec = api.do(t, http.MethodPost, "/connections/"+c.ID+"/stage", token, map[string]string{"stage": "married"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreAndDashboard(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "dash@example.com")
	c := api.createConnection(t, token, map[string]any{"nickname": "あや", "frequency": "daily"})

	rec := api.do(t, http.MethodGet, "/connections/"+c.ID+"/score", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sc scoredConnectionResponse
	decode(t, rec, &sc)
	assert.Equal(t, c.ID, sc.Connection.ID)
	assert.NotEmpty(t, sc.Score.Health)
	require.NotNil(t, sc.Action)

	rec = api.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d dashboardResponse
	decode(t, rec, &d)
	assert.Len(t, d.StageCounts, len(domain.Stages))
	assert.Equal(t, 1, d.StageCounts["just_matched"])
	assert.Equal(t, 1, d.ActiveCount)
	assert.Len(t, d.Recommendations, 1)

	rec = api.do(t, http.MethodGet, "/recommendations", token, nil)
	var recs []actionResponse
	decode(t, rec, &recs)
	require.Len(t, recs, 1)
	assert.Equal(t, "あや", recs[0].Nickname)
}

func TestGenerateAndExecute(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "ai@example.com")
	c := api.createConnection(t, token, map[string]any{"nickname": "えみ", "hobbies": []string{"映画"}})

	rec := api.do(t, http.MethodPost, "/connections/"+c.ID+"/prompts", token, map[string]string{
		"use_case": "first_message", "provider": "claude",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var op promptResponse
	decode(t, rec, &op)
	assert.Contains(t, op.Prompt, "えみ")

	rec = api.do(t, http.MethodPost, "/connections/"+c.ID+"/actions", token, map[string]string{
		"use_case": "first_message", "provider": "claude",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res actionResultResponse
	decode(t, rec, &res)
	assert.Equal(t, "こんにちは！", res.Response)
	assert.Equal(t, 30, res.Usage.TotalTokens)

	rec = api.do(t, http.MethodGet, "/history/actions?connection_id="+c.ID, token, nil)
	var actions []actionHistoryResponse
	decode(t, rec, &actions)
	require.Len(t, actions, 1)
	assert.Equal(t, "success", actions[0].Status)

	rec = api.do(t, http.MethodGet, "/history/prompts?limit=1", token, nil)
	var prompts []promptHistoryResponse
	decode(t, rec, &prompts)
	require.Len(t, prompts, 1)
	assert.Equal(t, "こんにちは！", prompts[0].Response)
}

func TestExecute_ProviderErrors(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "aierr@example.com")
	c := api.createConnection(t, token, map[string]any{"nickname": "りな"})
	path := "/connections/" + c.ID + "/actions"

	rec := api.do(t, http.MethodPost, path, token, map[string]string{"use_case": "first_message", "provider": "gpt"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "ai.not_configured", errBody.Code)

	rec = api.do(t, http.MethodPost, path, token, map[string]string{"use_case": "first_message", "provider": "bard"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errBody)
	assert.Contains(t, errBody.Fields, "provider")

	api.ai.err = &llm.ProviderError{Provider: "claude", StatusCode: http.StatusTooManyRequests, Message: "slow down"}
	rec = api.do(t, http.MethodPost, path, token, map[string]string{"use_case": "first_message", "provider": "claude"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	decode(t, rec, &errBody)
	assert.Equal(t, "ai.rate_limited", errBody.Code)

	rec = api.do(t, http.MethodGet, "/history/actions", token, nil)
	var actions []actionHistoryResponse
	decode(t, rec, &actions)
	require.Len(t, actions, 2, "not configured and rate limited are both recorded")
	for _, a := range actions {
		assert.Equal(t, "failed", a.Status)
	}
}

func TestImportText_Create(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "import@example.com")
	api.ai.reply = `{"nickname":"ななみ","platform":"Tinder","hobbies":["ヨガ"],"suggested_stage":"messaging"}`

	rec := api.do(t, http.MethodPost, "/import?create=true", token, map[string]string{
		"provider": "claude", "text": "ななみ 25歳 ヨガが好き",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Profile    service.ExtractedProfile `json:"profile"`
		Connection *connectionResponse      `json:"connection"`
	}
	decode(t, rec, &out)
	assert.Equal(t, "ななみ", out.Profile.Nickname)
	require.NotNil(t, out.Connection)
	assert.Equal(t, "messaging", out.Connection.Stage.Key)
	assert.Equal(t, []string{"ヨガ"}, out.Connection.Hobbies)
}

func TestImportText_Empty(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "empty@example.com")

	rec := api.do(t, http.MethodPost, "/import", token, map[string]string{"provider": "claude", "text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody errorResponse
	decode(t, rec, &errBody)
	assert.Contains(t, errBody.Fields, "text")
}

func TestImportScreenshot_Apply(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "shot@example.com")
	c := api.createConnection(t, token, map[string]any{"nickname": "かな"})
	api.ai.reply = `{"occupation":"看護師","location":"横浜"}`

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("provider", "claude"))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="screenshot"; filename="profile.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/connections/"+c.ID+"/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Connection connectionResponse `json:"connection"`
	}
	decode(t, rec, &out)
	assert.Equal(t, "かな", out.Connection.Nickname)
	assert.Equal(t, "看護師", out.Connection.Occupation)
	assert.Equal(t, "横浜", out.Connection.Location)

	require.Len(t, api.ai.requests, 1)
	require.NotNil(t, api.ai.requests[0].Image)
	assert.Equal(t, "image/png", api.ai.requests[0].Image.MimeType)
}

func TestPasswordReset(t *testing.T) {
	api := newTestAPI(t)
	oldToken := api.signUp(t, "reset@example.com")

	rec := api.do(t, http.MethodPost, "/auth/password-reset", "", map[string]string{"email": "unknown@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, api.notifier.tokens)

	rec = api.do(t, http.MethodPost, "/auth/password-reset", "", map[string]string{"email": "reset@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	resetToken := api.notifier.tokens["reset@example.com"]
	require.NotEmpty(t, resetToken)

	rec = api.do(t, http.MethodPost, "/auth/password-reset/confirm", "", map[string]string{
		"token": resetToken, "new_password": "newpassword456",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/auth/me", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "reset signs out every session")

	rec = api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "reset@example.com", "password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/password-reset/confirm", "", map[string]string{
		"token": resetToken, "new_password": "another789xx",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "profile@example.com")

	rec := api.do(t, http.MethodPut, "/auth/me", token, map[string]any{
		"display_name": "たろう", "age": 30, "location": "東京", "hobbies": []string{"映画"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me userResponse
	decode(t, rec, &me)
	assert.Equal(t, "東京", me.Location)
	assert.Equal(t, []string{"映画"}, me.Hobbies)

	rec = api.do(t, http.MethodPut, "/auth/password", token, map[string]string{
		"current_password": "wrong-password", "new_password": "newpassword456",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPut, "/auth/password", token, map[string]string{
		"current_password": "password123", "new_password": "newpassword456",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAIHealthAndTest(t *testing.T) {
	api := newTestAPI(t)
	token := api.signUp(t, "health@example.com")

	rec := api.do(t, http.MethodGet, "/ai/health", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []healthStatusResponse
	decode(t, rec, &statuses)
	require.Len(t, statuses, 1)
	assert.Equal(t, "claude", statuses[0].Provider)
	assert.True(t, statuses[0].Healthy)

	rec = api.do(t, http.MethodPost, "/ai/test/gemini", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = api.do(t, http.MethodPost, "/ai/test/unknown", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/connections", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/connections", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{auth.ErrSessionExpired, http.StatusUnauthorized},
		{llm.ErrTimeout, http.StatusGatewayTimeout},
		{llm.ErrInvalidOutput, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
