package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/validate"
	"golang.org/x/text/language"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("bad request")

func badFields(fields map[string]string) error {
	return validate.ValidationErrors(fields)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var verrs validate.ValidationErrors
	var pe *llm.ProviderError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrResetTokenInvalid),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrUnavailable),
		errors.Is(err, llm.ErrInvalidOutput),
		errors.As(err, &pe):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err in the caller's language. Internal errors are
// logged and shown as the generic message.
func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	tag := h.lang(r)
	status := statusFor(err)
	body := errorResponse{Error: h.i18n.Error(tag, err)}
	if key, ok := i18n.Key(err); ok {
		body.Code = key
	}

	var verrs validate.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		body.Fields = verrs
	case errors.Is(err, errBadRequest):
		body.Error = h.i18n.Text(tag, "bad_request")
		body.Code = "bad_request"
	case status == http.StatusInternalServerError:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Error = h.i18n.Text(tag, "generic")
		body.Code = "generic"
	case status >= http.StatusBadGateway:
		h.logger.WarnContext(r.Context(), "upstream failure", "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, body)
}

func (h *APIHandlers) lang(r *http.Request) language.Tag {
	return h.i18n.Match(r.Header.Get("Accept-Language"))
}

func logDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
