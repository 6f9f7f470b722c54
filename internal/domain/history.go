package domain

import "time"

// ProgressRecord is one stage transition of a connection.
type ProgressRecord struct {
	ID           string
	ConnectionID string
	UserID       string
	FromStage    Stage
	ToStage      Stage
	Note         string
	HopeScore    int
	RecordedAt   time.Time
}

// PromptRecord is a generated prompt and, once executed, the provider reply.
type PromptRecord struct {
	ID           string
	UserID       string
	ConnectionID string
	UseCase      UseCase
	Provider     Provider
	Prompt       string
	Response     string
	Model        string
	InputTokens  int
	OutputTokens int
	CreatedAt    time.Time
}

// ActionRecord logs an executed action against a provider.
type ActionRecord struct {
	ID           string
	UserID       string
	ConnectionID string
	ActionType   string
	UseCase      UseCase
	Provider     Provider
	Status       ActionStatus
	ErrorMessage string
	CreatedAt    time.Time
}
