package domain

import "time"

// Connection is one tracked person the user is matching with or dating.
type Connection struct {
	ID            string
	UserID        string
	Nickname      string
	Platform      string
	CurrentStage  Stage
	BasicInfo     BasicInfo
	Communication Communication
	UserFeelings  UserFeelings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type BasicInfo struct {
	Age        *int
	Occupation string
	Location   string
	Hobbies    []string
}

type Communication struct {
	Frequency    Frequency
	ResponseTime ResponseTime
	Style        string
	LastContact  *time.Time
}

type UserFeelings struct {
	Expectation      Expectation
	Concerns         []string
	AttractivePoints []string
}

// DaysSinceContact returns whole days since LastContact, or nil if unknown.
func (c *Connection) DaysSinceContact(now time.Time) *int {
	if c.Communication.LastContact == nil {
		return nil
	}
	d := int(now.Sub(*c.Communication.LastContact).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return &d
}

// RecommendedAction is a derived next step for one connection. It is never
// persisted.
type RecommendedAction struct {
	ConnectionID  string
	Nickname      string
	Stage         Stage
	Title         string
	Description   string
	Urgency       Urgency
	EstimatedTime string
	PromptType    UseCase
	HopeScore     int
}
