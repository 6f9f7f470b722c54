package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		connection string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show generated prompts and executed actions",
	}
	cmd.PersistentFlags().StringVarP(&connection, "connection", "c", "", "Only this connection")
	cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 20, "Maximum records")

	// scope resolves the signed-in user and the optional connection filter.
	scope := func(ctx context.Context) (userID, connID string, err error) {
		u, err := app.currentUser(ctx)
		if err != nil {
			return "", "", err
		}
		if connection == "" {
			return u.ID, "", nil
		}
		c, err := resolveConnection(ctx, app, u.ID, connection)
		if err != nil {
			return "", "", err
		}
		return u.ID, c.ID, nil
	}

	prompts := &cobra.Command{
		Use:   "prompts",
		Short: "Generated prompts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, connID, err := scope(ctx)
			if err != nil {
				return err
			}
			recs, err := app.Prompts.PromptHistory(ctx, userID, connID, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPromptHistory(recs, app.now()))
			return nil
		},
	}

	actions := &cobra.Command{
		Use:   "actions",
		Short: "Executed actions with their outcome, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, connID, err := scope(ctx)
			if err != nil {
				return err
			}
			recs, err := app.Prompts.ActionHistory(ctx, userID, connID, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActionHistory(recs, app.now()))
			return nil
		},
	}

	cmd.AddCommand(prompts, actions)
	return cmd
}
