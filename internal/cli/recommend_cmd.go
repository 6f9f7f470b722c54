package cli

import (
	"fmt"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newRecommendCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "recommend",
		Aliases: []string{"next"},
		Short:   "Show next actions across all connections, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			actions, err := app.Dashboard.Recommendations(ctx, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRecommendations(actions, limit))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum actions to show (0 for all)")
	return cmd
}
