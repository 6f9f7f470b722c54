package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/miru/internal/config"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/server"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// App holds references to all services used by CLI commands.
type App struct {
	Connections service.ConnectionService
	Dashboard   service.DashboardService
	Prompts     service.PromptService
	Auth        service.AuthService
	Import      service.ImportService
	AI          server.AIStatus

	I18n   *i18n.Bundle
	Lang   language.Tag
	Tokens TokenStore
	Logger *slog.Logger

	// Serve-only dependencies.
	Health server.HealthService
	HTTP   config.HTTPConfig

	// IsInteractive reports whether stdin is a terminal. Forms, the
	// dashboard TUI and the chat REPL fall back to plain output when false.
	IsInteractive func() bool

	// Now is overridable in tests.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// currentUser resolves the signed-in user from the stored session token.
func (a *App) currentUser(ctx context.Context) (*domain.User, error) {
	token, err := a.Tokens.Load()
	if err != nil {
		return nil, err
	}
	return a.Auth.CurrentUser(ctx, token)
}

// NewRootCmd creates the top-level "miru" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "miru",
		Short:         "Dating relationship tracker with AI prompt orchestration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newAuthCmd(app),
		newConnectionCmd(app),
		newScoreCmd(app),
		newRecommendCmd(app),
		newPromptCmd(app),
		newActionCmd(app),
		newImportCmd(app),
		newHistoryCmd(app),
		newAICmd(app),
		newDashboardCmd(app),
		newChatCmd(app),
	)

	return root
}

// Execute runs the command tree and writes a localized error to errOut.
func Execute(ctx context.Context, app *App, args []string, out, errOut io.Writer) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	if err != nil {
		io.WriteString(errOut, app.errorText(err)+"\n")
	}
	return err
}
