package cli

import (
	"fmt"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/spf13/cobra"
)

func newAICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Check AI provider configuration",
	}

	health := &cobra.Command{
		Use:   "health",
		Short: "Probe every configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHealth(app.AI.HealthCheck(cmd.Context())))
			return nil
		},
	}

	test := &cobra.Command{
		Use:   "test <provider>",
		Short: "Send a test request to one provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := domain.ParseProvider(args[0])
			if err != nil {
				return llm.ErrUnknownProvider
			}
			status, err := app.AI.TestConnection(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHealth([]llm.HealthStatus{status}))
			return nil
		},
	}

	cmd.AddCommand(health, test)
	return cmd
}
