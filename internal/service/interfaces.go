package service

import (
	"context"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/scoring"
)

// ScoredConnection pairs a connection with its hope score and next action.
type ScoredConnection struct {
	Connection *domain.Connection
	Score      scoring.Breakdown
	Action     *domain.RecommendedAction
}

type ConnectionService interface {
	Create(ctx context.Context, c *domain.Connection) error
	Get(ctx context.Context, userID, id string) (*domain.Connection, error)
	List(ctx context.Context, userID string) ([]*domain.Connection, error)
	Update(ctx context.Context, c *domain.Connection) error
	Delete(ctx context.Context, userID, id string) error
	UpdateStage(ctx context.Context, userID, id string, stage domain.Stage, note string) (*domain.ProgressRecord, error)
	ListProgress(ctx context.Context, userID, id string) ([]*domain.ProgressRecord, error)
	Score(ctx context.Context, userID, id string) (*ScoredConnection, error)
}

// Dashboard is the per-user overview.
type Dashboard struct {
	Connections     []ScoredConnection
	StageCounts     map[domain.Stage]int
	ActiveCount     int
	AverageScore    float64
	Recommendations []domain.RecommendedAction
	GeneratedAt     time.Time
}

type DashboardService interface {
	Overview(ctx context.Context, userID string) (*Dashboard, error)
	Recommendations(ctx context.Context, userID string) ([]domain.RecommendedAction, error)
}

// PromptRequest selects what to generate for which connection.
type PromptRequest struct {
	ConnectionID string
	UseCase      domain.UseCase
	Provider     domain.Provider
	Extra        string
}

// OrchestratedPrompt is a generated prompt before it is sent anywhere.
type OrchestratedPrompt struct {
	ID           string
	ConnectionID string
	UseCase      domain.UseCase
	Provider     domain.Provider
	Prompt       string
	GeneratedAt  time.Time
}

// ActionResult is an executed prompt together with the provider reply.
type ActionResult struct {
	OrchestratedPrompt
	Response  string
	Model     string
	Usage     llm.Usage
	LatencyMs int64
}

type PromptService interface {
	Generate(ctx context.Context, userID string, req PromptRequest) (*OrchestratedPrompt, error)
	Execute(ctx context.Context, userID string, req PromptRequest) (*ActionResult, error)
	PromptHistory(ctx context.Context, userID, connectionID string, limit int) ([]*domain.PromptRecord, error)
	ActionHistory(ctx context.Context, userID, connectionID string, limit int) ([]*domain.ActionRecord, error)
}

// AuthResult is a signed-in user and the session that authenticates them.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}

type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID, displayName string, profile domain.UserProfile) (*domain.User, error)
}

// ImportSource is either a screenshot or pasted text.
type ImportSource struct {
	Image *llm.Image
	Text  string
}

// ExtractedProfile is what the AI read from an import source. Zero fields
// mean "not found".
type ExtractedProfile struct {
	Nickname           string   `json:"nickname"`
	Platform           string   `json:"platform"`
	Age                *int     `json:"age"`
	Occupation         string   `json:"occupation"`
	Location           string   `json:"location"`
	Hobbies            []string `json:"hobbies"`
	Frequency          string   `json:"frequency"`
	ResponseTime       string   `json:"response_time"`
	CommunicationStyle string   `json:"communication_style"`
	SuggestedStage     string   `json:"suggested_stage"`
}

type ImportService interface {
	Extract(ctx context.Context, userID string, provider domain.Provider, src ImportSource) (*ExtractedProfile, error)
	Apply(ctx context.Context, userID, connectionID string, p *ExtractedProfile) (*domain.Connection, error)
	CreateFrom(ctx context.Context, userID string, p *ExtractedProfile) (*domain.Connection, error)
}
