package prompt

import (
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
)

// Unset is rendered for any connection field the user has not filled in.
const Unset = "未設定"

// view is the flattened, display-ready form of a connection that the
// templates interpolate. Every field is a non-empty string.
type view struct {
	Nickname         string
	Platform         string
	Stage            string
	Age              string
	Occupation       string
	Location         string
	Hobbies          string
	Frequency        string
	ResponseTime     string
	Style            string
	LastContact      string
	Expectation      string
	Concerns         string
	AttractivePoints string
	Extra            string
}

func newView(c *domain.Connection, extra string, now time.Time) view {
	v := view{
		Nickname:         orUnset(c.Nickname),
		Platform:         orUnset(c.Platform),
		Stage:            orUnset(string(c.CurrentStage)),
		Age:              Unset,
		Occupation:       orUnset(c.BasicInfo.Occupation),
		Location:         orUnset(c.BasicInfo.Location),
		Hobbies:          joinOrUnset(c.BasicInfo.Hobbies),
		Frequency:        orUnset(c.Communication.Frequency.Label()),
		ResponseTime:     orUnset(c.Communication.ResponseTime.Label()),
		Style:            orUnset(c.Communication.Style),
		LastContact:      Unset,
		Expectation:      orUnset(c.UserFeelings.Expectation.Label()),
		Concerns:         joinOrUnset(c.UserFeelings.Concerns),
		AttractivePoints: joinOrUnset(c.UserFeelings.AttractivePoints),
		Extra:            orUnset(extra),
	}
	if c.BasicInfo.Age != nil {
		v.Age = strconv.Itoa(*c.BasicInfo.Age) + "歳"
	}
	if days := c.DaysSinceContact(now); days != nil {
		if *days == 0 {
			v.LastContact = "今日"
		} else {
			v.LastContact = strconv.Itoa(*days) + "日前"
		}
	}
	return v
}

func orUnset(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unset
	}
	return strings.TrimSpace(s)
}

func joinOrUnset(items []string) string {
	var kept []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return Unset
	}
	return strings.Join(kept, "、")
}
