// Package scoring computes the hope score: a deterministic 0-100 estimate of
// how well a connection is going, summed from five capped sub-scores.
package scoring

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"golang.org/x/text/width"
)

const (
	MaxStage         = 30
	MaxCommunication = 25
	MaxResponse      = 15
	MaxCommonality   = 15
	MaxEmotional     = 15
	MaxTotal         = 100
)

type ReasonCode string

const (
	ReasonStage         ReasonCode = "STAGE"
	ReasonFrequency     ReasonCode = "FREQUENCY"
	ReasonResponse      ReasonCode = "RESPONSE_TIME"
	ReasonSharedHobbies ReasonCode = "SHARED_HOBBIES"
	ReasonSameLocation  ReasonCode = "SAME_LOCATION"
	ReasonAttractive    ReasonCode = "ATTRACTIVE_POINTS"
	ReasonExpectation   ReasonCode = "EXPECTATION"
	ReasonCapApplied    ReasonCode = "CAP_APPLIED"
)

// Reason explains one contribution to the score.
type Reason struct {
	Code    ReasonCode
	Message string
	Delta   int
}

// Breakdown is the full scoring trace for one connection.
type Breakdown struct {
	Stage         int
	Communication int
	Response      int
	Commonality   int
	Emotional     int
	Total         int
	Health        Health
	Reasons       []Reason
}

type Health string

const (
	HealthGood      Health = "良好"
	HealthFair      Health = "普通"
	HealthAttention Health = "要注意"
)

var stagePoints = map[domain.Stage]int{
	domain.StageJustMatched:   5,
	domain.StageMessaging:     10,
	domain.StageLineExchanged: 15,
	domain.StageDateArranging: 20,
	domain.StageBeforeDate:    22,
	domain.StageAfterDate:     25,
	domain.StageDating:        30,
	domain.StageEnded:         0,
}

var frequencyPoints = map[domain.Frequency]int{
	domain.FrequencyDaily:     25,
	domain.FrequencyFewDays:   18,
	domain.FrequencyWeekly:    10,
	domain.FrequencyIrregular: 5,
}

var responsePoints = map[domain.ResponseTime]int{
	domain.ResponseMinutes:    15,
	domain.ResponseWithinHour: 12,
	domain.ResponseHours:      8,
	domain.ResponseOverDay:    3,
}

var expectationPoints = map[domain.Expectation]int{
	domain.ExpectationSerious:   6,
	domain.ExpectationCasual:    4,
	domain.ExpectationFriends:   3,
	domain.ExpectationUndecided: 2,
}

const (
	pointsPerSharedHobby = 5
	maxSharedHobbyPoints = 10
	sameLocationPoints   = 5
	pointsPerAttractive  = 3
	maxAttractivePoints  = 9
	healthGoodThreshold  = 70
	healthFairThreshold  = 40
)

// Score computes the hope score of c against the user's own profile.
func Score(c *domain.Connection, profile domain.UserProfile) Breakdown {
	var b Breakdown

	b.Stage = b.add(scoreStage(c), MaxStage, "stage")
	b.Communication = b.add(scoreFrequency(c), MaxCommunication, "communication")
	b.Response = b.add(scoreResponse(c), MaxResponse, "response")
	b.Commonality = b.add(scoreCommonality(c, profile), MaxCommonality, "commonality")
	b.Emotional = b.add(scoreEmotional(c), MaxEmotional, "emotional")

	total := b.Stage + b.Communication + b.Response + b.Commonality + b.Emotional
	b.Total = clamp(total, 0, MaxTotal)
	b.Health = HealthFor(b.Total)
	return b
}

// HealthFor maps a total score to its health label.
func HealthFor(total int) Health {
	switch {
	case total >= healthGoodThreshold:
		return HealthGood
	case total >= healthFairThreshold:
		return HealthFair
	default:
		return HealthAttention
	}
}

// add records the factor's reasons and returns its capped sum.
func (b *Breakdown) add(reasons []Reason, limit int, name string) int {
	sum := 0
	for _, r := range reasons {
		sum += r.Delta
		b.Reasons = append(b.Reasons, r)
	}
	if sum > limit {
		b.Reasons = append(b.Reasons, Reason{
			Code:    ReasonCapApplied,
			Message: fmt.Sprintf("%s capped at %d", name, limit),
			Delta:   limit - sum,
		})
		return limit
	}
	return clamp(sum, 0, limit)
}

func scoreStage(c *domain.Connection) []Reason {
	pts, ok := stagePoints[c.CurrentStage]
	if !ok {
		return nil
	}
	return []Reason{{Code: ReasonStage, Message: "ステージ: " + string(c.CurrentStage), Delta: pts}}
}

func scoreFrequency(c *domain.Connection) []Reason {
	pts, ok := frequencyPoints[c.Communication.Frequency]
	if !ok {
		return nil
	}
	return []Reason{{Code: ReasonFrequency, Message: "連絡頻度: " + c.Communication.Frequency.Label(), Delta: pts}}
}

func scoreResponse(c *domain.Connection) []Reason {
	pts, ok := responsePoints[c.Communication.ResponseTime]
	if !ok {
		return nil
	}
	return []Reason{{Code: ReasonResponse, Message: "返信速度: " + c.Communication.ResponseTime.Label(), Delta: pts}}
}

func scoreCommonality(c *domain.Connection, profile domain.UserProfile) []Reason {
	var reasons []Reason

	shared := SharedHobbies(c.BasicInfo.Hobbies, profile.Hobbies)
	if len(shared) > 0 {
		pts := len(shared) * pointsPerSharedHobby
		if pts > maxSharedHobbyPoints {
			pts = maxSharedHobbyPoints
		}
		reasons = append(reasons, Reason{
			Code:    ReasonSharedHobbies,
			Message: "共通の趣味: " + strings.Join(shared, "、"),
			Delta:   pts,
		})
	}

	if c.BasicInfo.Location != "" && normalize(c.BasicInfo.Location) == normalize(profile.Location) {
		reasons = append(reasons, Reason{
			Code:    ReasonSameLocation,
			Message: "同じ地域: " + c.BasicInfo.Location,
			Delta:   sameLocationPoints,
		})
	}
	return reasons
}

func scoreEmotional(c *domain.Connection) []Reason {
	var reasons []Reason

	if n := countNonBlank(c.UserFeelings.AttractivePoints); n > 0 {
		pts := n * pointsPerAttractive
		if pts > maxAttractivePoints {
			pts = maxAttractivePoints
		}
		reasons = append(reasons, Reason{
			Code:    ReasonAttractive,
			Message: fmt.Sprintf("魅力に感じる点: %d個", n),
			Delta:   pts,
		})
	}

	if pts, ok := expectationPoints[c.UserFeelings.Expectation]; ok {
		reasons = append(reasons, Reason{
			Code:    ReasonExpectation,
			Message: "期待: " + c.UserFeelings.Expectation.Label(),
			Delta:   pts,
		})
	}
	return reasons
}

// SharedHobbies returns the connection's hobbies that also appear in mine,
// compared case-insensitively with full-width characters folded. Order
// follows theirs and duplicates are dropped.
func SharedHobbies(theirs, mine []string) []string {
	own := make(map[string]bool, len(mine))
	for _, h := range mine {
		if n := normalize(h); n != "" {
			own[n] = true
		}
	}
	var shared []string
	seen := make(map[string]bool)
	for _, h := range theirs {
		n := normalize(h)
		if n == "" || !own[n] || seen[n] {
			continue
		}
		seen[n] = true
		shared = append(shared, strings.TrimSpace(h))
	}
	return shared
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(s)))
}

func countNonBlank(items []string) int {
	n := 0
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
