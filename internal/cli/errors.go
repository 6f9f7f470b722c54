package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/validate"
)

// errorText renders err for the terminal in the configured language. Known
// failures use the message catalog; anything else shows its raw text.
func (a *App) errorText(err error) string {
	msg := err.Error()
	if _, ok := i18n.Key(err); ok && a.I18n != nil {
		msg = a.I18n.Error(a.Lang, err)
	}

	var b strings.Builder
	b.WriteString(formatter.StyleRed.Render("✖ " + msg))

	var verrs validate.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for f := range verrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(&b, "\n  %s %s", formatter.Dim(f+":"), verrs[f])
		}
	}
	if errors.Is(err, auth.ErrUnauthenticated) || errors.Is(err, auth.ErrSessionExpired) {
		b.WriteString("\n  " + formatter.Dim("miru auth signin --email <メールアドレス>"))
	}
	return b.String()
}
