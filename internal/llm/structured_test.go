package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profilePayload struct {
	Nickname string   `json:"nickname"`
	Age      *int     `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	raw := `{"nickname":"ゆき","age":27,"hobbies":["カフェ"]}`
	result, err := ExtractJSON[profilePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "ゆき", result.Nickname)
	require.NotNil(t, result.Age)
	assert.Equal(t, 27, *result.Age)
	assert.Equal(t, []string{"カフェ"}, result.Hobbies)
}

func TestExtractJSON_FencedWithProse(t *testing.T) {
	raw := "読み取った結果です:\n```json\n{\"nickname\":\"さき\",\"age\":null}\n```\n以上です。"
	result, err := ExtractJSON[profilePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "さき", result.Nickname)
	assert.Nil(t, result.Age)
}

func TestExtractJSON_BracesAndQuotesInsideStrings(t *testing.T) {
	raw := `{"nickname":"a}{\"b","hobbies":["x // not a comment"]}`
	result, err := ExtractJSON[profilePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, `a}{"b`, result.Nickname)
	assert.Equal(t, []string{"x // not a comment"}, result.Hobbies)
}

func TestExtractJSON_Comments(t *testing.T) {
	raw := "{\n  \"nickname\": \"ゆき\", // from profile header\n  /* unknown */ \"age\": 30\n}"
	result, err := ExtractJSON[profilePayload](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "ゆき", result.Nickname)
	assert.Equal(t, 30, *result.Age)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[profilePayload]("読み取れませんでした", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	_, err := ExtractJSON[profilePayload](`{"nickname":"a"`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	_, err := ExtractJSON[profilePayload](`{"nickname": broken}`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_Validation(t *testing.T) {
	requireNickname := func(p profilePayload) error {
		if p.Nickname == "" {
			return fmt.Errorf("nickname missing")
		}
		return nil
	}

	_, err := ExtractJSON(`{"age":20}`, requireNickname)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "validation failed")

	result, err := ExtractJSON(`{"nickname":"n"}`, requireNickname)
	require.NoError(t, err)
	assert.Equal(t, "n", result.Nickname)
}
