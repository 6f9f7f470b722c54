package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", &ProviderError{StatusCode: 401, Message: "x"}, "APIキーが無効です"},
		{"forbidden", &ProviderError{StatusCode: 403}, "APIキーが無効です"},
		{"rate limited", &ProviderError{StatusCode: 429}, "リクエストが多すぎます。しばらく待ってから再度お試しください"},
		{"server error", &ProviderError{StatusCode: 503}, "AIサービスでエラーが発生しました"},
		{"wrapped server error", fmt.Errorf("%w: %w", ErrRetryExhausted, &ProviderError{StatusCode: 500}), "AIサービスでエラーが発生しました"},
		{"bad request keeps vendor text", &ProviderError{StatusCode: 400, Message: "max_tokens too large"}, "max_tokens too large"},
		{"timeout", ErrTimeout, "AIサービスの応答がタイムアウトしました"},
		{"network", fmt.Errorf("%w: claude: dial", ErrUnavailable), "ネットワークエラーが発生しました"},
		{"not configured", ErrNotConfigured, "AIサービスが設定されていません"},
		{"raw", errors.New("something odd"), "something odd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestProviderError_Error(t *testing.T) {
	e := &ProviderError{Provider: "claude", StatusCode: 401, Type: "authentication_error", Message: "invalid key"}
	assert.Equal(t, "claude: status 401 (authentication_error): invalid key", e.Error())

	e = &ProviderError{Provider: "gpt", StatusCode: 500, Message: "oops"}
	assert.Equal(t, "gpt: status 500: oops", e.Error())
	assert.True(t, e.Retryable())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", errorCode(nil))
	assert.Equal(t, "TIMEOUT", errorCode(ErrTimeout))
	assert.Equal(t, "UNAVAILABLE", errorCode(fmt.Errorf("%w: x", ErrUnavailable)))
	assert.Equal(t, "HTTP_429", errorCode(&ProviderError{StatusCode: 429}))
	assert.Equal(t, "INVALID_OUTPUT", errorCode(ErrInvalidOutput))
	assert.Equal(t, "UNKNOWN", errorCode(errors.New("x")))
}
