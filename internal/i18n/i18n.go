// Package i18n picks ja or en user-facing text for errors and notices.
// Japanese is the default; catalogs are embedded YAML files keyed by
// message ID.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/alexanderramin/miru/internal/auth"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/validate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// Supported lists the catalog languages, default first.
var Supported = []language.Tag{language.Japanese, language.English}

// Bundle holds the parsed catalogs.
type Bundle struct {
	matcher  language.Matcher
	catalogs map[language.Tag]map[string]string
}

// Load parses the embedded catalogs.
func Load() (*Bundle, error) {
	b := &Bundle{
		matcher:  language.NewMatcher(Supported),
		catalogs: make(map[language.Tag]map[string]string, len(Supported)),
	}
	for _, tag := range Supported {
		raw, err := locales.ReadFile(path.Join("locales", tag.String()+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("reading %s catalog: %w", tag, err)
		}
		cat := map[string]string{}
		if err := yaml.Unmarshal(raw, &cat); err != nil {
			return nil, fmt.Errorf("parsing %s catalog: %w", tag, err)
		}
		b.catalogs[tag] = cat
	}
	return b, nil
}

// MustLoad is Load for package initialisation; the catalogs are embedded so
// a failure is a build defect.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Match picks a supported language from an Accept-Language header or a
// plain locale such as "en_US". Unknown or empty input yields Japanese.
func (b *Bundle) Match(accept string) language.Tag {
	accept = strings.ReplaceAll(strings.TrimSpace(accept), "_", "-")
	if accept == "" {
		return Supported[0]
	}
	_, i := language.MatchStrings(b.matcher, accept)
	return Supported[i]
}

// Text returns the message for key, falling back to Japanese and then to
// the key itself.
func (b *Bundle) Text(tag language.Tag, key string) string {
	if msg, ok := b.catalogs[tag][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[Supported[0]][key]; ok {
		return msg
	}
	return key
}

// Error renders err for a user. Known errors use the catalog; provider
// errors without a mapping show the provider's message; anything else
// shows its raw text, or the generic message when it has none.
func (b *Bundle) Error(tag language.Tag, err error) string {
	if err == nil {
		return ""
	}
	if key, ok := Key(err); ok {
		return b.Text(tag, key)
	}
	var pe *llm.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	if text := err.Error(); text != "" {
		return text
	}
	return b.Text(tag, "generic")
}

var sentinelKeys = []struct {
	err error
	key string
}{
	{auth.ErrInvalidCredentials, "auth.invalid_credentials"},
	{auth.ErrEmailTaken, "auth.email_taken"},
	{auth.ErrWeakPassword, "auth.weak_password"},
	{auth.ErrInvalidEmail, "auth.invalid_email"},
	{auth.ErrSessionExpired, "auth.session_expired"},
	{auth.ErrUnauthenticated, "auth.unauthenticated"},
	{auth.ErrResetTokenInvalid, "auth.reset_token_invalid"},
	{llm.ErrTimeout, "ai.timeout"},
	{llm.ErrUnavailable, "ai.unavailable"},
	{llm.ErrNotConfigured, "ai.not_configured"},
	{llm.ErrUnknownProvider, "ai.unknown_provider"},
	{llm.ErrInvalidOutput, "ai.invalid_output"},
	{repository.ErrNotFound, "not_found"},
}

// Key classifies err into a catalog key.
func Key(err error) (string, bool) {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden:
			return "ai.invalid_key", true
		case pe.StatusCode == http.StatusTooManyRequests:
			return "ai.rate_limited", true
		case pe.StatusCode >= http.StatusInternalServerError:
			return "ai.server_error", true
		}
	}
	for _, s := range sentinelKeys {
		if errors.Is(err, s.err) {
			return s.key, true
		}
	}
	var verrs validate.ValidationErrors
	if errors.As(err, &verrs) {
		return "validation", true
	}
	return "", false
}
