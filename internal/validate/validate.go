// Package validate checks user input before it reaches storage. Lengths are
// counted in grapheme clusters so that Japanese text and emoji count as the
// user perceives them.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/rivo/uniseg"
)

const (
	MaxNickname     = 50
	MaxPlatform     = 30
	MaxOccupation   = 50
	MaxLocation     = 50
	MaxHobby        = 30
	MaxHobbies      = 20
	MaxListItem     = 200
	MaxListItems    = 20
	MaxFreeText     = 1000
	MaxDisplayName  = 50
	MinPasswordLen  = 8
	MaxPasswordLen  = 72 // bcrypt input limit in bytes
	MinAge, MaxAge  = 18, 120
	MaxScreenshotMB = 5
)

// ValidationErrors maps a field name to its Japanese error message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// Err returns v as an error, or nil when there are no failures.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)<[^>]*\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)<\s*object`),
	regexp.MustCompile(`(?i)<\s*embed`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
}

// ContainsXSS reports whether s matches a known script-injection pattern.
func ContainsXSS(s string) bool {
	for _, re := range xssPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Length returns the number of user-perceived characters in s.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

func (v ValidationErrors) text(field, label, s string, max int, required bool) {
	trimmed := strings.TrimSpace(s)
	switch {
	case required && trimmed == "":
		v.add(field, label+"を入力してください")
	case Length(trimmed) > max:
		v.add(field, fmt.Sprintf("%sは%d文字以内で入力してください", label, max))
	case ContainsXSS(s):
		v.add(field, label+"に使用できない文字列が含まれています")
	}
}

func (v ValidationErrors) list(field, label string, items []string, maxItems, maxLen int) {
	if len(items) > maxItems {
		v.add(field, fmt.Sprintf("%sは%d個以内で入力してください", label, maxItems))
		return
	}
	for _, item := range items {
		if Length(strings.TrimSpace(item)) > maxLen {
			v.add(field, fmt.Sprintf("%sの各項目は%d文字以内で入力してください", label, maxLen))
			return
		}
		if ContainsXSS(item) {
			v.add(field, label+"に使用できない文字列が含まれています")
			return
		}
	}
}

// Connection validates every user-editable field of c.
func Connection(c *domain.Connection) error {
	v := ValidationErrors{}

	v.text("nickname", "ニックネーム", c.Nickname, MaxNickname, true)
	v.text("platform", "出会った場所", c.Platform, MaxPlatform, false)
	if !c.CurrentStage.Valid() {
		v.add("current_stage", "ステージが正しくありません")
	}

	if age := c.BasicInfo.Age; age != nil && (*age < MinAge || *age > MaxAge) {
		v.add("age", fmt.Sprintf("年齢は%d〜%d歳で入力してください", MinAge, MaxAge))
	}
	v.text("occupation", "職業", c.BasicInfo.Occupation, MaxOccupation, false)
	v.text("location", "居住地", c.BasicInfo.Location, MaxLocation, false)
	v.list("hobbies", "趣味", c.BasicInfo.Hobbies, MaxHobbies, MaxHobby)

	if c.Communication.Frequency != domain.FrequencyUnknown && c.Communication.Frequency.Label() == "" {
		v.add("frequency", "連絡頻度が正しくありません")
	}
	if c.Communication.ResponseTime != domain.ResponseUnknown && c.Communication.ResponseTime.Label() == "" {
		v.add("response_time", "返信速度が正しくありません")
	}
	v.text("communication_style", "やり取りのスタイル", c.Communication.Style, MaxFreeText, false)

	if c.UserFeelings.Expectation != domain.ExpectationUnknown && c.UserFeelings.Expectation.Label() == "" {
		v.add("expectation", "期待が正しくありません")
	}
	v.list("concerns", "不安な点", c.UserFeelings.Concerns, MaxListItems, MaxListItem)
	v.list("attractive_points", "魅力に感じる点", c.UserFeelings.AttractivePoints, MaxListItems, MaxListItem)

	return v.Err()
}

// Profile validates the user's own profile fields.
func Profile(displayName string, p domain.UserProfile) error {
	v := ValidationErrors{}
	v.text("display_name", "表示名", displayName, MaxDisplayName, false)
	if p.Age != nil && (*p.Age < MinAge || *p.Age > MaxAge) {
		v.add("age", fmt.Sprintf("年齢は%d〜%d歳で入力してください", MinAge, MaxAge))
	}
	v.text("location", "居住地", p.Location, MaxLocation, false)
	v.list("hobbies", "趣味", p.Hobbies, MaxHobbies, MaxHobby)
	return v.Err()
}

// FreeText validates a single free-form field such as a note or a question.
func FreeText(field, label, s string, required bool) error {
	v := ValidationErrors{}
	v.text(field, label, s, MaxFreeText, required)
	return v.Err()
}

// Email validates an address. Display-name forms like "A <a@b>" are rejected.
func Email(email string) error {
	v := ValidationErrors{}
	email = strings.TrimSpace(email)
	if email == "" {
		v.add("email", "メールアドレスを入力してください")
		return v
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		v.add("email", "有効なメールアドレスを入力してください")
	}
	return v.Err()
}

// Password checks the length bounds bcrypt can handle.
func Password(pw string) error {
	v := ValidationErrors{}
	switch {
	case len(pw) < MinPasswordLen:
		v.add("password", fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLen))
	case len(pw) > MaxPasswordLen:
		v.add("password", fmt.Sprintf("パスワードは%dバイト以内で入力してください", MaxPasswordLen))
	}
	return v.Err()
}

// Screenshot validates an uploaded image before it is sent to a provider.
func Screenshot(data []byte, mimeType string) error {
	v := ValidationErrors{}
	switch mimeType {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
	default:
		v.add("screenshot", "対応していない画像形式です")
	}
	if len(data) == 0 {
		v.add("screenshot", "画像が空です")
	} else if len(data) > MaxScreenshotMB<<20 {
		v.add("screenshot", fmt.Sprintf("画像は%dMB以内にしてください", MaxScreenshotMB))
	}
	return v.Err()
}
