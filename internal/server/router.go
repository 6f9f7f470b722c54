package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// componentLister is implemented by health services that can name what
// they wired.
type componentLister interface {
	Components() []string
}

// componentLookup resolves one wired component by name.
type componentLookup interface {
	Lookup(name string) (any, bool)
}

// pinger is satisfied by *sql.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
			if cl, ok := deps.Health.(componentLister); ok {
				payload["components"] = cl.Components()
			}
		}

		respondJSON(w, status, payload)
	})

	mux.HandleFunc("GET /healthz/{component}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("component")
		cl, ok := deps.Health.(componentLookup)
		if !ok {
			respondJSON(w, http.StatusNotFound, map[string]any{"component": name, "status": "unknown"})
			return
		}
		v, ok := cl.Lookup(name)
		if !ok {
			respondJSON(w, http.StatusNotFound, map[string]any{"component": name, "status": "unknown"})
			return
		}

		payload := map[string]any{"component": name, "status": "ok"}
		status := http.StatusOK
		if p, ok := v.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.PingContext(ctx); err != nil {
				logger.Error("component ping failed", "component", name, "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
			}
		}
		respondJSON(w, status, payload)
	})

	if h := deps.API; h != nil {
		mux.HandleFunc("POST /auth/signup", h.signUp)
		mux.HandleFunc("POST /auth/signin", h.signIn)
		mux.HandleFunc("POST /auth/signout", h.signOut)
		mux.HandleFunc("POST /auth/password-reset", h.requestReset)
		mux.HandleFunc("POST /auth/password-reset/confirm", h.confirmReset)
		mux.HandleFunc("GET /auth/me", h.authed(h.me))
		mux.HandleFunc("PUT /auth/me", h.authed(h.updateProfile))
		mux.HandleFunc("PUT /auth/password", h.authed(h.updatePassword))

		mux.HandleFunc("GET /connections", h.authed(h.listConnections))
		mux.HandleFunc("POST /connections", h.authed(h.createConnection))
		mux.HandleFunc("GET /connections/{id}", h.authed(h.getConnection))
		mux.HandleFunc("PUT /connections/{id}", h.authed(h.updateConnection))
		mux.HandleFunc("DELETE /connections/{id}", h.authed(h.deleteConnection))
		mux.HandleFunc("POST /connections/{id}/stage", h.authed(h.updateStage))
		mux.HandleFunc("GET /connections/{id}/score", h.authed(h.scoreConnection))
		mux.HandleFunc("GET /connections/{id}/progress", h.authed(h.listProgress))
		mux.HandleFunc("POST /connections/{id}/prompts", h.authed(h.generatePrompt))
		mux.HandleFunc("POST /connections/{id}/actions", h.authed(h.executeAction))
		mux.HandleFunc("POST /connections/{id}/import", h.authed(h.importInto))
		mux.HandleFunc("POST /import", h.authed(h.importNew))

		mux.HandleFunc("GET /dashboard", h.authed(h.dashboard))
		mux.HandleFunc("GET /recommendations", h.authed(h.recommendations))
		mux.HandleFunc("GET /history/prompts", h.authed(h.promptHistory))
		mux.HandleFunc("GET /history/actions", h.authed(h.actionHistory))

		mux.HandleFunc("GET /ai/health", h.authed(h.aiHealth))
		mux.HandleFunc("POST /ai/test/{provider}", h.authed(h.aiTest))
	}

	handler := http.Handler(loggingMiddleware(logger, mux))
	if len(deps.AllowedOrigins) > 0 {
		handler = corsMiddleware(deps.AllowedOrigins, deps.AllowCredentials)(handler)
	}
	return handler
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	normalized := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		normalized[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!containsOrigin(normalized, origin) && !containsOrigin(normalized, "*")) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func containsOrigin(set map[string]struct{}, origin string) bool {
	_, ok := set[origin]
	return ok
}
