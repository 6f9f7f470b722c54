package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/service"
)

// AIStatus is the provider health surface of *llm.Manager.
type AIStatus interface {
	HealthCheck(ctx context.Context) []llm.HealthStatus
	TestConnection(ctx context.Context, p domain.Provider) (llm.HealthStatus, error)
}

// ResetNotifier delivers password-reset tokens to the user.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, email string, reset *domain.PasswordReset) error
}

// LogResetNotifier writes reset tokens to the server log. It stands in for
// a mail transport.
type LogResetNotifier struct {
	Logger *slog.Logger
}

func (n LogResetNotifier) NotifyReset(ctx context.Context, email string, reset *domain.PasswordReset) error {
	n.Logger.InfoContext(ctx, "password reset issued",
		"email", email,
		"token", reset.Token,
		"expires_at", reset.ExpiresAt,
	)
	return nil
}

// Services collects handler dependencies.
type Services struct {
	Connections service.ConnectionService
	Dashboard   service.DashboardService
	Prompts     service.PromptService
	Auth        service.AuthService
	Import      service.ImportService
	AI          AIStatus
	Reset       ResetNotifier
	I18n        *i18n.Bundle
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger *slog.Logger
	svc    Services
	i18n   *i18n.Bundle
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc Services) *APIHandlers {
	if logger == nil {
		logger = logDiscard()
	}
	if svc.I18n == nil {
		svc.I18n = i18n.MustLoad()
	}
	if svc.Reset == nil {
		svc.Reset = LogResetNotifier{Logger: logger}
	}
	return &APIHandlers{logger: logger, svc: svc, i18n: svc.I18n}
}

type ctxKey int

const userKey ctxKey = iota

func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authed resolves the bearer session before calling next.
func (h *APIHandlers) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.svc.Auth.CurrentUser(r.Context(), bearerToken(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Auth

func (h *APIHandlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.Auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{
		User:      newUserResponse(res.User),
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

func (h *APIHandlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		User:      newUserResponse(res.User),
		Token:     res.Session.Token,
		ExpiresAt: res.Session.ExpiresAt,
	})
}

func (h *APIHandlers) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newUserResponse(userFrom(r.Context())))
}

func (h *APIHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	profile := domain.UserProfile{Age: req.Age, Location: req.Location, Hobbies: req.Hobbies}
	u, err := h.svc.Auth.UpdateProfile(r.Context(), userFrom(r.Context()).ID, req.DisplayName, profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(u))
}

func (h *APIHandlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Auth.UpdatePassword(r.Context(), userFrom(r.Context()).ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestReset answers 202 whether or not the address is registered.
func (h *APIHandlers) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	reset, err := h.svc.Auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if reset != nil {
		if err := h.svc.Reset.NotifyReset(r.Context(), req.Email, reset); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": h.i18n.Text(h.lang(r), "auth.reset_requested")})
}

func (h *APIHandlers) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Auth.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connections

func (h *APIHandlers) listConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.svc.Connections.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]connectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, newConnectionResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandlers) createConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, bad := req.toDomain(userFrom(r.Context()).ID, "")
	if len(bad) > 0 {
		h.writeError(w, r, badFields(bad))
		return
	}
	if err := h.svc.Connections.Create(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newConnectionResponse(c))
}

func (h *APIHandlers) getConnection(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Connections.Get(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newConnectionResponse(c))
}

func (h *APIHandlers) updateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, bad := req.toDomain(userFrom(r.Context()).ID, r.PathValue("id"))
	if len(bad) > 0 {
		h.writeError(w, r, badFields(bad))
		return
	}
	if err := h.svc.Connections.Update(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newConnectionResponse(c))
}

func (h *APIHandlers) deleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Connections.Delete(r.Context(), userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandlers) updateStage(w http.ResponseWriter, r *http.Request) {
	var req stageUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	stage, err := domain.ParseStage(req.Stage)
	if err != nil {
		h.writeError(w, r, badFields(map[string]string{"stage": "ステージが正しくありません"}))
		return
	}
	rec, err := h.svc.Connections.UpdateStage(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"), stage, req.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProgressResponse(rec))
}

func (h *APIHandlers) scoreConnection(w http.ResponseWriter, r *http.Request) {
	sc, err := h.svc.Connections.Score(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newScoredResponse(*sc))
}

func (h *APIHandlers) listProgress(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Connections.ListProgress(r.Context(), userFrom(r.Context()).ID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]progressResponse, 0, len(recs))
	for _, p := range recs {
		out = append(out, newProgressResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// Prompts and actions

func (h *APIHandlers) promptRequest(r *http.Request) (service.PromptRequest, error) {
	var req promptRequest
	if err := decodeJSON(r, &req); err != nil {
		return service.PromptRequest{}, err
	}
	bad := map[string]string{}
	uc, err := domain.ParseUseCase(req.UseCase)
	if err != nil {
		bad["use_case"] = "用途が正しくありません"
	}
	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		bad["provider"] = "AIサービスが正しくありません"
	}
	if len(bad) > 0 {
		return service.PromptRequest{}, badFields(bad)
	}
	return service.PromptRequest{
		ConnectionID: r.PathValue("id"),
		UseCase:      uc,
		Provider:     provider,
		Extra:        req.Extra,
	}, nil
}

func (h *APIHandlers) generatePrompt(w http.ResponseWriter, r *http.Request) {
	req, err := h.promptRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	op, err := h.svc.Prompts.Generate(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newPromptResponse(op))
}

func (h *APIHandlers) executeAction(w http.ResponseWriter, r *http.Request) {
	req, err := h.promptRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.Prompts.Execute(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newActionResultResponse(res))
}

// Dashboard and history

func (h *APIHandlers) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard.Overview(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDashboardResponse(d))
}

func (h *APIHandlers) recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Dashboard.Recommendations(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newActionResponses(recs))
}

func (h *APIHandlers) promptHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Prompts.PromptHistory(r.Context(), userFrom(r.Context()).ID, r.URL.Query().Get("connection_id"), queryLimit(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]promptHistoryResponse, 0, len(recs))
	for _, p := range recs {
		out = append(out, promptHistoryResponse{
			ID:           p.ID,
			ConnectionID: p.ConnectionID,
			UseCase:      string(p.UseCase),
			Provider:     string(p.Provider),
			Prompt:       p.Prompt,
			Response:     p.Response,
			Model:        p.Model,
			InputTokens:  p.InputTokens,
			OutputTokens: p.OutputTokens,
			CreatedAt:    p.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandlers) actionHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Prompts.ActionHistory(r.Context(), userFrom(r.Context()).ID, r.URL.Query().Get("connection_id"), queryLimit(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]actionHistoryResponse, 0, len(recs))
	for _, a := range recs {
		out = append(out, actionHistoryResponse{
			ID:           a.ID,
			ConnectionID: a.ConnectionID,
			ActionType:   a.ActionType,
			UseCase:      string(a.UseCase),
			Provider:     string(a.Provider),
			Status:       string(a.Status),
			ErrorMessage: a.ErrorMessage,
			CreatedAt:    a.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// AI providers

func (h *APIHandlers) aiHealth(w http.ResponseWriter, r *http.Request) {
	statuses := h.svc.AI.HealthCheck(r.Context())
	out := make([]healthStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, newHealthStatusResponse(s))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandlers) aiTest(w http.ResponseWriter, r *http.Request) {
	p, err := domain.ParseProvider(r.PathValue("provider"))
	if err != nil {
		h.writeError(w, r, llm.ErrUnknownProvider)
		return
	}
	status, err := h.svc.AI.TestConnection(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newHealthStatusResponse(status))
}
