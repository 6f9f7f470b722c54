package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// promptFlags are shared by prompt and action.
type promptFlags struct {
	useCase  string
	provider string
	extra    string
}

func (f *promptFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.useCase, "use-case", "u", "", "Prompt use case (defaults to the recommended one)")
	fs.StringVarP(&f.provider, "provider", "p", string(domain.ProviderClaude), "AI provider: claude|gpt|gemini")
	fs.StringVarP(&f.extra, "extra", "e", "", "Additional context appended to the prompt")
}

// request resolves the connection and builds a PromptRequest. Without
// --use-case the connection's recommended prompt type is used.
func (f *promptFlags) request(ctx context.Context, app *App, userID, input string) (service.PromptRequest, error) {
	c, err := resolveConnection(ctx, app, userID, input)
	if err != nil {
		return service.PromptRequest{}, err
	}
	provider, err := domain.ParseProvider(f.provider)
	if err != nil {
		return service.PromptRequest{}, err
	}
	req := service.PromptRequest{ConnectionID: c.ID, Provider: provider, Extra: f.extra}

	if f.useCase != "" {
		if req.UseCase, err = domain.ParseUseCase(f.useCase); err != nil {
			return service.PromptRequest{}, err
		}
		return req, nil
	}

	req.UseCase = domain.UseCaseProgressAnalysis
	sc, err := app.Connections.Score(ctx, userID, c.ID)
	if err != nil {
		return service.PromptRequest{}, err
	}
	if sc.Action != nil && sc.Action.PromptType != "" {
		req.UseCase = sc.Action.PromptType
	}
	return req, nil
}

func newPromptCmd(app *App) *cobra.Command {
	var flags promptFlags

	cmd := &cobra.Command{
		Use:   "prompt <connection>",
		Short: "Generate a prompt to paste into an AI assistant",
		Long: "Generate a prompt for a connection without calling any provider.\n" +
			"Use cases: first_message, conversation_topic, date_invitation, date_planning,\n" +
			"date_preparation, follow_up, progress_analysis, reflection, relationship_advice.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			req, err := flags.request(ctx, app, u.ID, args[0])
			if err != nil {
				return err
			}
			op, err := app.Prompts.Generate(ctx, u.ID, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPrompt(op))
			return nil
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func newActionCmd(app *App) *cobra.Command {
	var (
		flags      promptFlags
		showPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "action <connection>",
		Short: "Generate a prompt and send it to the AI provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			req, err := flags.request(ctx, app, u.ID, args[0])
			if err != nil {
				return err
			}
			res, err := app.Prompts.Execute(ctx, u.ID, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showPrompt {
				fmt.Fprint(out, formatter.FormatPrompt(&res.OrchestratedPrompt))
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, formatter.FormatActionResult(res))
			return nil
		},
	}

	flags.bind(cmd.Flags())
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the generated prompt before the reply")
	return cmd
}
