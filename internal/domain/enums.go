package domain

import (
	"fmt"
	"strings"
)

// Stage is the relationship progress label. Values are the Japanese labels
// users see; English keys are accepted on input.
type Stage string

const (
	StageJustMatched   Stage = "マッチング直後"
	StageMessaging     Stage = "メッセージ中"
	StageLineExchanged Stage = "LINE交換済み"
	StageDateArranging Stage = "デート調整中"
	StageBeforeDate    Stage = "デート前"
	StageAfterDate     Stage = "デート後"
	StageDating        Stage = "交際中"
	StageEnded         Stage = "終了"
)

// Stages lists every stage in progress order.
var Stages = []Stage{
	StageJustMatched,
	StageMessaging,
	StageLineExchanged,
	StageDateArranging,
	StageBeforeDate,
	StageAfterDate,
	StageDating,
	StageEnded,
}

var stageKeys = map[Stage]string{
	StageJustMatched:   "just_matched",
	StageMessaging:     "messaging",
	StageLineExchanged: "line_exchanged",
	StageDateArranging: "date_arranging",
	StageBeforeDate:    "before_date",
	StageAfterDate:     "after_date",
	StageDating:        "dating",
	StageEnded:         "ended",
}

// ParseStage accepts either the Japanese label or the English key.
func ParseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	for st, key := range stageKeys {
		if s == string(st) || strings.EqualFold(s, key) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Valid reports whether s is one of the eight stages.
func (s Stage) Valid() bool {
	_, ok := stageKeys[s]
	return ok
}

// Key returns the English key, e.g. "line_exchanged".
func (s Stage) Key() string {
	return stageKeys[s]
}

// Index returns the 0-based position in progress order, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) IsTerminal() bool {
	return s == StageEnded
}

// Frequency is how often the user and the connection exchange messages.
type Frequency string

const (
	FrequencyUnknown   Frequency = ""
	FrequencyDaily     Frequency = "daily"
	FrequencyFewDays   Frequency = "few_days"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyIrregular Frequency = "irregular"
)

var frequencyLabels = map[Frequency]string{
	FrequencyDaily:     "毎日",
	FrequencyFewDays:   "数日に1回",
	FrequencyWeekly:    "週1回",
	FrequencyIrregular: "不定期",
}

// ResponseTime is the typical reply latency of the connection.
type ResponseTime string

const (
	ResponseUnknown    ResponseTime = ""
	ResponseMinutes    ResponseTime = "minutes"
	ResponseWithinHour ResponseTime = "within_hour"
	ResponseHours      ResponseTime = "hours"
	ResponseOverDay    ResponseTime = "over_day"
)

var responseLabels = map[ResponseTime]string{
	ResponseMinutes:    "数分以内",
	ResponseWithinHour: "1時間以内",
	ResponseHours:      "数時間以内",
	ResponseOverDay:    "1日以上",
}

// Expectation is what the user hopes the relationship becomes.
type Expectation string

const (
	ExpectationUnknown   Expectation = ""
	ExpectationSerious   Expectation = "serious"
	ExpectationCasual    Expectation = "casual"
	ExpectationFriends   Expectation = "friends"
	ExpectationUndecided Expectation = "undecided"
)

var expectationLabels = map[Expectation]string{
	ExpectationSerious:   "真剣な交際",
	ExpectationCasual:    "楽しい関係",
	ExpectationFriends:   "友達から",
	ExpectationUndecided: "様子見",
}

// Label returns the Japanese display label, or "" when unknown.
func (f Frequency) Label() string    { return frequencyLabels[f] }
func (r ResponseTime) Label() string { return responseLabels[r] }
func (e Expectation) Label() string  { return expectationLabels[e] }

// ParseFrequency accepts the key or the Japanese label. Empty input is FrequencyUnknown.
func ParseFrequency(s string) (Frequency, error) {
	v, err := parseLabeled(s, frequencyLabels)
	if err != nil {
		return "", fmt.Errorf("unknown frequency %q", s)
	}
	return v, nil
}

// ParseResponseTime accepts the key or the Japanese label.
func ParseResponseTime(s string) (ResponseTime, error) {
	v, err := parseLabeled(s, responseLabels)
	if err != nil {
		return "", fmt.Errorf("unknown response time %q", s)
	}
	return v, nil
}

// ParseExpectation accepts the key or the Japanese label.
func ParseExpectation(s string) (Expectation, error) {
	v, err := parseLabeled(s, expectationLabels)
	if err != nil {
		return "", fmt.Errorf("unknown expectation %q", s)
	}
	return v, nil
}

func parseLabeled[T ~string](s string, labels map[T]string) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for k, label := range labels {
		if strings.EqualFold(s, string(k)) || s == label {
			return k, nil
		}
	}
	return "", fmt.Errorf("no match")
}

// Urgency ranks recommended actions.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Priority maps urgency to a sortable rank, critical highest.
func (u Urgency) Priority() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	default:
		return 0
	}
}

// UseCase selects the prompt template. Recommended actions carry one as
// their prompt type.
type UseCase string

const (
	UseCaseFirstMessage       UseCase = "first_message"
	UseCaseConversationTopic  UseCase = "conversation_topic"
	UseCaseDateInvitation     UseCase = "date_invitation"
	UseCaseDatePlanning       UseCase = "date_planning"
	UseCaseDatePreparation    UseCase = "date_preparation"
	UseCaseFollowUp           UseCase = "follow_up"
	UseCaseProgressAnalysis   UseCase = "progress_analysis"
	UseCaseReflection         UseCase = "reflection"
	UseCaseRelationshipAdvice UseCase = "relationship_advice"
)

// UseCases lists every supported use case.
var UseCases = []UseCase{
	UseCaseFirstMessage,
	UseCaseConversationTopic,
	UseCaseDateInvitation,
	UseCaseDatePlanning,
	UseCaseDatePreparation,
	UseCaseFollowUp,
	UseCaseProgressAnalysis,
	UseCaseReflection,
	UseCaseRelationshipAdvice,
}

func ParseUseCase(s string) (UseCase, error) {
	for _, uc := range UseCases {
		if strings.EqualFold(strings.TrimSpace(s), string(uc)) {
			return uc, nil
		}
	}
	return "", fmt.Errorf("unknown use case %q", s)
}

// Provider names an external AI assistant.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderGPT    Provider = "gpt"
	ProviderGemini Provider = "gemini"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderClaude, ProviderGPT, ProviderGemini}

// ParseProvider accepts "claude", "gpt" (or "openai") and "gemini".
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "claude", "anthropic":
		return ProviderClaude, nil
	case "gpt", "openai", "chatgpt":
		return ProviderGPT, nil
	case "gemini", "google":
		return ProviderGemini, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// ActionStatus is the outcome recorded in action history.
type ActionStatus string

const (
	ActionSucceeded ActionStatus = "success"
	ActionFailed    ActionStatus = "failed"
)
