package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/validate"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// miruHuhTheme styles huh forms with the formatter palette.
func miruHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// connectionFormValues is the string-typed mirror of the add form.
type connectionFormValues struct {
	Nickname     string
	Platform     string
	Age          string
	Occupation   string
	Location     string
	Hobbies      string
	Frequency    string
	ResponseTime string
	Expectation  string
}

// apply copies the form values onto c. Hobbies are comma or 、 separated.
func (v connectionFormValues) apply(c *domain.Connection) error {
	c.Nickname = strings.TrimSpace(v.Nickname)
	c.Platform = strings.TrimSpace(v.Platform)
	c.BasicInfo.Occupation = strings.TrimSpace(v.Occupation)
	c.BasicInfo.Location = strings.TrimSpace(v.Location)
	c.BasicInfo.Hobbies = splitList(v.Hobbies)
	if age := strings.TrimSpace(v.Age); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return fmt.Errorf("invalid age %q", age)
		}
		c.BasicInfo.Age = &n
	}
	c.Communication.Frequency = domain.Frequency(v.Frequency)
	c.Communication.ResponseTime = domain.ResponseTime(v.ResponseTime)
	c.UserFeelings.Expectation = domain.Expectation(v.Expectation)
	return nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '、' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func optionalAge(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < validate.MinAge || n > validate.MaxAge {
		return fmt.Errorf("%d〜%d歳で入力してください", validate.MinAge, validate.MaxAge)
	}
	return nil
}

func labeledOptions[T ~string](keys []T, label func(T) string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("未設定", "")}
	for _, k := range keys {
		opts = append(opts, huh.NewOption(label(k), string(k)))
	}
	return opts
}

// connectionForm collects a new connection interactively.
func connectionForm(v *connectionFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("ニックネーム").Value(&v.Nickname).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("ニックネームを入力してください")
					}
					return nil
				}),
			huh.NewInput().Title("出会った場所").Placeholder("Pairs").Value(&v.Platform),
			huh.NewInput().Title("年齢").Value(&v.Age).Validate(optionalAge),
			huh.NewInput().Title("職業").Value(&v.Occupation),
			huh.NewInput().Title("居住地").Value(&v.Location),
			huh.NewInput().Title("趣味").Description("カンマ区切り").Value(&v.Hobbies),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("連絡頻度").Value(&v.Frequency).
				Options(labeledOptions([]domain.Frequency{
					domain.FrequencyDaily, domain.FrequencyFewDays, domain.FrequencyWeekly, domain.FrequencyIrregular,
				}, domain.Frequency.Label)...),
			huh.NewSelect[string]().Title("返信速度").Value(&v.ResponseTime).
				Options(labeledOptions([]domain.ResponseTime{
					domain.ResponseMinutes, domain.ResponseWithinHour, domain.ResponseHours, domain.ResponseOverDay,
				}, domain.ResponseTime.Label)...),
			huh.NewSelect[string]().Title("期待").Value(&v.Expectation).
				Options(labeledOptions([]domain.Expectation{
					domain.ExpectationSerious, domain.ExpectationCasual, domain.ExpectationFriends, domain.ExpectationUndecided,
				}, domain.Expectation.Label)...),
		),
	).WithTheme(miruHuhTheme()).WithShowHelp(false)
}
