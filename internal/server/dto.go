package server

import (
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/scoring"
	"github.com/alexanderramin/miru/internal/service"
)

type connectionRequest struct {
	Nickname         string   `json:"nickname"`
	Platform         string   `json:"platform"`
	Stage            string   `json:"stage"`
	Age              *int     `json:"age"`
	Occupation       string   `json:"occupation"`
	Location         string   `json:"location"`
	Hobbies          []string `json:"hobbies"`
	Frequency        string   `json:"frequency"`
	ResponseTime     string   `json:"response_time"`
	Style            string   `json:"communication_style"`
	LastContact      *string  `json:"last_contact"`
	Expectation      string   `json:"expectation"`
	Concerns         []string `json:"concerns"`
	AttractivePoints []string `json:"attractive_points"`
}

// toDomain converts the request. Enum fields accept keys or Japanese
// labels; a bad value is reported under its JSON field name.
func (r connectionRequest) toDomain(userID, id string) (*domain.Connection, map[string]string) {
	bad := map[string]string{}
	c := &domain.Connection{
		ID:       id,
		UserID:   userID,
		Nickname: r.Nickname,
		Platform: r.Platform,
		BasicInfo: domain.BasicInfo{
			Age:        r.Age,
			Occupation: r.Occupation,
			Location:   r.Location,
			Hobbies:    r.Hobbies,
		},
		Communication: domain.Communication{Style: r.Style},
		UserFeelings: domain.UserFeelings{
			Concerns:         r.Concerns,
			AttractivePoints: r.AttractivePoints,
		},
	}
	var err error
	if r.Stage != "" {
		if c.CurrentStage, err = domain.ParseStage(r.Stage); err != nil {
			bad["stage"] = "ステージが正しくありません"
		}
	}
	if c.Communication.Frequency, err = domain.ParseFrequency(r.Frequency); err != nil {
		bad["frequency"] = "連絡頻度が正しくありません"
	}
	if c.Communication.ResponseTime, err = domain.ParseResponseTime(r.ResponseTime); err != nil {
		bad["response_time"] = "返信速度が正しくありません"
	}
	if c.UserFeelings.Expectation, err = domain.ParseExpectation(r.Expectation); err != nil {
		bad["expectation"] = "期待が正しくありません"
	}
	if r.LastContact != nil && *r.LastContact != "" {
		t, err := parseDate(*r.LastContact)
		if err != nil {
			bad["last_contact"] = "日付が正しくありません"
		} else {
			c.Communication.LastContact = &t
		}
	}
	return c, bad
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

type stageResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func newStage(s domain.Stage) stageResponse {
	return stageResponse{Key: s.Key(), Label: string(s)}
}

type connectionResponse struct {
	ID               string        `json:"id"`
	Nickname         string        `json:"nickname"`
	Platform         string        `json:"platform"`
	Stage            stageResponse `json:"stage"`
	Age              *int          `json:"age,omitempty"`
	Occupation       string        `json:"occupation,omitempty"`
	Location         string        `json:"location,omitempty"`
	Hobbies          []string      `json:"hobbies"`
	Frequency        string        `json:"frequency,omitempty"`
	ResponseTime     string        `json:"response_time,omitempty"`
	Style            string        `json:"communication_style,omitempty"`
	LastContact      *time.Time    `json:"last_contact,omitempty"`
	Expectation      string        `json:"expectation,omitempty"`
	Concerns         []string      `json:"concerns"`
	AttractivePoints []string      `json:"attractive_points"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func newConnectionResponse(c *domain.Connection) connectionResponse {
	return connectionResponse{
		ID:               c.ID,
		Nickname:         c.Nickname,
		Platform:         c.Platform,
		Stage:            newStage(c.CurrentStage),
		Age:              c.BasicInfo.Age,
		Occupation:       c.BasicInfo.Occupation,
		Location:         c.BasicInfo.Location,
		Hobbies:          nonNil(c.BasicInfo.Hobbies),
		Frequency:        string(c.Communication.Frequency),
		ResponseTime:     string(c.Communication.ResponseTime),
		Style:            c.Communication.Style,
		LastContact:      c.Communication.LastContact,
		Expectation:      string(c.UserFeelings.Expectation),
		Concerns:         nonNil(c.UserFeelings.Concerns),
		AttractivePoints: nonNil(c.UserFeelings.AttractivePoints),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

type reasonResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Delta   int    `json:"delta"`
}

type scoreResponse struct {
	Stage         int              `json:"stage"`
	Communication int              `json:"communication"`
	Response      int              `json:"response"`
	Commonality   int              `json:"commonality"`
	Emotional     int              `json:"emotional"`
	Total         int              `json:"total"`
	Health        string           `json:"health"`
	Reasons       []reasonResponse `json:"reasons"`
}

func newScoreResponse(b scoring.Breakdown) scoreResponse {
	out := scoreResponse{
		Stage:         b.Stage,
		Communication: b.Communication,
		Response:      b.Response,
		Commonality:   b.Commonality,
		Emotional:     b.Emotional,
		Total:         b.Total,
		Health:        string(b.Health),
		Reasons:       make([]reasonResponse, 0, len(b.Reasons)),
	}
	for _, r := range b.Reasons {
		out.Reasons = append(out.Reasons, reasonResponse{Code: string(r.Code), Message: r.Message, Delta: r.Delta})
	}
	return out
}

type actionResponse struct {
	ConnectionID  string        `json:"connection_id"`
	Nickname      string        `json:"nickname"`
	Stage         stageResponse `json:"stage"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Urgency       string        `json:"urgency"`
	EstimatedTime string        `json:"estimated_time"`
	PromptType    string        `json:"prompt_type"`
	HopeScore     int           `json:"hope_score"`
}

func newActionResponse(a domain.RecommendedAction) actionResponse {
	return actionResponse{
		ConnectionID:  a.ConnectionID,
		Nickname:      a.Nickname,
		Stage:         newStage(a.Stage),
		Title:         a.Title,
		Description:   a.Description,
		Urgency:       string(a.Urgency),
		EstimatedTime: a.EstimatedTime,
		PromptType:    string(a.PromptType),
		HopeScore:     a.HopeScore,
	}
}

func newActionResponses(actions []domain.RecommendedAction) []actionResponse {
	out := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, newActionResponse(a))
	}
	return out
}

type scoredConnectionResponse struct {
	Connection connectionResponse `json:"connection"`
	Score      scoreResponse      `json:"score"`
	Action     *actionResponse    `json:"recommended_action,omitempty"`
}

func newScoredResponse(sc service.ScoredConnection) scoredConnectionResponse {
	out := scoredConnectionResponse{
		Connection: newConnectionResponse(sc.Connection),
		Score:      newScoreResponse(sc.Score),
	}
	if sc.Action != nil {
		a := newActionResponse(*sc.Action)
		out.Action = &a
	}
	return out
}

type dashboardResponse struct {
	Connections     []scoredConnectionResponse `json:"connections"`
	StageCounts     map[string]int             `json:"stage_counts"`
	ActiveCount     int                        `json:"active_count"`
	AverageScore    float64                    `json:"average_score"`
	Recommendations []actionResponse           `json:"recommendations"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

func newDashboardResponse(d *service.Dashboard) dashboardResponse {
	out := dashboardResponse{
		Connections:     make([]scoredConnectionResponse, 0, len(d.Connections)),
		StageCounts:     make(map[string]int, len(d.StageCounts)),
		ActiveCount:     d.ActiveCount,
		AverageScore:    d.AverageScore,
		Recommendations: newActionResponses(d.Recommendations),
		GeneratedAt:     d.GeneratedAt,
	}
	for _, sc := range d.Connections {
		out.Connections = append(out.Connections, newScoredResponse(sc))
	}
	for st, n := range d.StageCounts {
		out.StageCounts[st.Key()] = n
	}
	return out
}

type stageUpdateRequest struct {
	Stage string `json:"stage"`
	Note  string `json:"note"`
}

type progressResponse struct {
	ID         string        `json:"id"`
	FromStage  stageResponse `json:"from_stage"`
	ToStage    stageResponse `json:"to_stage"`
	Note       string        `json:"note,omitempty"`
	HopeScore  int           `json:"hope_score"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func newProgressResponse(p *domain.ProgressRecord) progressResponse {
	return progressResponse{
		ID:         p.ID,
		FromStage:  newStage(p.FromStage),
		ToStage:    newStage(p.ToStage),
		Note:       p.Note,
		HopeScore:  p.HopeScore,
		RecordedAt: p.RecordedAt,
	}
}

type promptRequest struct {
	UseCase  string `json:"use_case"`
	Provider string `json:"provider"`
	Extra    string `json:"extra"`
}

type promptResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	UseCase      string    `json:"use_case"`
	Provider     string    `json:"provider"`
	Prompt       string    `json:"prompt"`
	GeneratedAt  time.Time `json:"generated_at"`
}

func newPromptResponse(op *service.OrchestratedPrompt) promptResponse {
	return promptResponse{
		ID:           op.ID,
		ConnectionID: op.ConnectionID,
		UseCase:      string(op.UseCase),
		Provider:     string(op.Provider),
		Prompt:       op.Prompt,
		GeneratedAt:  op.GeneratedAt,
	}
}

type usageResponse struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type actionResultResponse struct {
	promptResponse
	Response  string        `json:"response"`
	Model     string        `json:"model"`
	Usage     usageResponse `json:"usage"`
	LatencyMs int64         `json:"latency_ms"`
}

func newActionResultResponse(r *service.ActionResult) actionResultResponse {
	return actionResultResponse{
		promptResponse: newPromptResponse(&r.OrchestratedPrompt),
		Response:       r.Response,
		Model:          r.Model,
		Usage: usageResponse{
			InputTokens:  r.Usage.InputTokens,
			OutputTokens: r.Usage.OutputTokens,
			TotalTokens:  r.Usage.TotalTokens,
		},
		LatencyMs: r.LatencyMs,
	}
}

type promptHistoryResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	UseCase      string    `json:"use_case"`
	Provider     string    `json:"provider"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response,omitempty"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CreatedAt    time.Time `json:"created_at"`
}

type actionHistoryResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id,omitempty"`
	ActionType   string    `json:"action_type"`
	UseCase      string    `json:"use_case,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type profileRequest struct {
	DisplayName string   `json:"display_name"`
	Age         *int     `json:"age"`
	Location    string   `json:"location"`
	Hobbies     []string `json:"hobbies"`
}

type passwordUpdateRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Age         *int     `json:"age,omitempty"`
	Location    string   `json:"location,omitempty"`
	Hobbies     []string `json:"hobbies"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Age:         u.Profile.Age,
		Location:    u.Profile.Location,
		Hobbies:     nonNil(u.Profile.Hobbies),
	}
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type healthStatusResponse struct {
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	Model     string    `json:"model,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

func newHealthStatusResponse(h llm.HealthStatus) healthStatusResponse {
	return healthStatusResponse{
		Provider:  string(h.Provider),
		Healthy:   h.Healthy,
		Model:     h.Model,
		LatencyMs: h.LatencyMs,
		Error:     h.Error,
		CheckedAt: h.CheckedAt,
	}
}

type importTextRequest struct {
	Provider string `json:"provider"`
	Text     string `json:"text"`
}

type extractedResponse struct {
	Profile    *service.ExtractedProfile `json:"profile"`
	Connection *connectionResponse       `json:"connection,omitempty"`
}
