package cli

import (
	"fmt"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newScoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "score <connection>",
		Short: "Explain a connection's hope score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			c, err := resolveConnection(ctx, app, u.ID, args[0])
			if err != nil {
				return err
			}
			sc, err := app.Connections.Score(ctx, u.ID, c.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.Header(c.Nickname))
			fmt.Fprint(out, formatter.FormatScore(sc.Score))
			if sc.Action != nil {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatter.FormatAction(*sc.Action))
			}
			return nil
		},
	}
}
