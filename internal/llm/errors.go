package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable indicates the provider could not be reached at all.
	ErrUnavailable = errors.New("ai provider unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("ai request timed out")

	// ErrInvalidOutput indicates the model response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid ai output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("ai retry attempts exhausted")

	// ErrUnknownProvider is returned for a provider key the manager does not know.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// ErrNotConfigured is returned when a known provider has no API key.
	ErrNotConfigured = errors.New("ai provider not configured")
)

// ProviderError is a non-2xx reply from a vendor API, normalized across
// vendors.
type ProviderError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: status %d (%s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the failure is on the vendor side.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// UserMessage maps an AI call error to the Japanese text shown to users.
// Errors without a mapping surface their raw text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden:
			return "APIキーが無効です"
		case pe.StatusCode == http.StatusTooManyRequests:
			return "リクエストが多すぎます。しばらく待ってから再度お試しください"
		case pe.StatusCode >= http.StatusInternalServerError:
			return "AIサービスでエラーが発生しました"
		}
		if pe.Message != "" {
			return pe.Message
		}
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return "AIサービスの応答がタイムアウトしました"
	case errors.Is(err, ErrUnavailable):
		return "ネットワークエラーが発生しました"
	case errors.Is(err, ErrNotConfigured):
		return "AIサービスが設定されていません"
	case errors.Is(err, ErrUnknownProvider):
		return "未対応のAIサービスです"
	case errors.Is(err, ErrInvalidOutput):
		return "AIの応答を読み取れませんでした"
	}
	return err.Error()
}

func errorCode(err error) string {
	var pe *ProviderError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.As(err, &pe):
		return fmt.Sprintf("HTTP_%d", pe.StatusCode)
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
