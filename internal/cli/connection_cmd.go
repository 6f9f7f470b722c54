package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newConnectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn", "c"},
		Short:   "Manage the people you are talking to",
	}

	cmd.AddCommand(
		newConnectionAddCmd(app),
		newConnectionListCmd(app),
		newConnectionShowCmd(app),
		newConnectionEditCmd(app),
		newConnectionDeleteCmd(app),
		newConnectionStageCmd(app),
		newConnectionProgressCmd(app),
		newConnectionContactCmd(app),
	)

	return cmd
}

// connectionFlags are the profile flags shared by add and edit.
type connectionFlags struct {
	nickname, platform, occupation, location, style string
	frequency, responseTime, expectation            string
	lastContact                                     string
	age                                             int
	hobbies, concerns, attractive                   []string
}

func (f *connectionFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.nickname, "nickname", "", "Nickname")
	fs.StringVar(&f.platform, "platform", "", "Where you met (app name etc.)")
	fs.IntVar(&f.age, "age", 0, "Age (0 clears)")
	fs.StringVar(&f.occupation, "occupation", "", "Occupation")
	fs.StringVar(&f.location, "location", "", "Where they live")
	fs.StringSliceVar(&f.hobbies, "hobby", nil, "Hobby (repeatable)")
	fs.StringVar(&f.frequency, "frequency", "", "Contact frequency: daily|few_days|weekly|irregular")
	fs.StringVar(&f.responseTime, "response-time", "", "Reply speed: minutes|within_hour|hours|over_day")
	fs.StringVar(&f.style, "style", "", "Communication style notes")
	fs.StringVar(&f.lastContact, "last-contact", "", "Last contact date (YYYY-MM-DD)")
	fs.StringVar(&f.expectation, "expectation", "", "What you hope for: serious|casual|friends|undecided")
	fs.StringSliceVar(&f.concerns, "concern", nil, "Concern (repeatable)")
	fs.StringSliceVar(&f.attractive, "attractive", nil, "Attractive point (repeatable)")
}

// apply copies every flag the user set onto c.
func (f *connectionFlags) apply(fs *pflag.FlagSet, c *domain.Connection) error {
	var err error
	if fs.Changed("nickname") {
		c.Nickname = f.nickname
	}
	if fs.Changed("platform") {
		c.Platform = f.platform
	}
	if fs.Changed("age") {
		c.BasicInfo.Age = nil
		if f.age != 0 {
			age := f.age
			c.BasicInfo.Age = &age
		}
	}
	if fs.Changed("occupation") {
		c.BasicInfo.Occupation = f.occupation
	}
	if fs.Changed("location") {
		c.BasicInfo.Location = f.location
	}
	if fs.Changed("hobby") {
		c.BasicInfo.Hobbies = f.hobbies
	}
	if fs.Changed("frequency") {
		if c.Communication.Frequency, err = domain.ParseFrequency(f.frequency); err != nil {
			return err
		}
	}
	if fs.Changed("response-time") {
		if c.Communication.ResponseTime, err = domain.ParseResponseTime(f.responseTime); err != nil {
			return err
		}
	}
	if fs.Changed("style") {
		c.Communication.Style = f.style
	}
	if fs.Changed("last-contact") {
		c.Communication.LastContact = nil
		if f.lastContact != "" {
			t, err := time.ParseInLocation(time.DateOnly, f.lastContact, time.Local)
			if err != nil {
				return fmt.Errorf("invalid last contact date %q: %w", f.lastContact, err)
			}
			t = t.UTC()
			c.Communication.LastContact = &t
		}
	}
	if fs.Changed("expectation") {
		if c.UserFeelings.Expectation, err = domain.ParseExpectation(f.expectation); err != nil {
			return err
		}
	}
	if fs.Changed("concern") {
		c.UserFeelings.Concerns = f.concerns
	}
	if fs.Changed("attractive") {
		c.UserFeelings.AttractivePoints = f.attractive
	}
	return nil
}

func newConnectionAddCmd(app *App) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new connection",
		Long:  "Register a new connection. Without --nickname on a terminal, an interactive form is shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			c := &domain.Connection{UserID: u.ID}

			if !cmd.Flags().Changed("nickname") && app.interactive() {
				var v connectionFormValues
				if err := connectionForm(&v).Run(); err != nil {
					return err
				}
				if err := v.apply(c); err != nil {
					return err
				}
			} else if err := flags.apply(cmd.Flags(), c); err != nil {
				return err
			}

			if err := app.Connections.Create(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s を追加しました %s\n", formatter.Bold(c.Nickname), formatter.TruncID(c.ID))
			return nil
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func newConnectionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List connections with their hope scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			conns, err := app.Connections.List(ctx, u.ID)
			if err != nil {
				return err
			}
			scored := make([]service.ScoredConnection, 0, len(conns))
			for _, c := range conns {
				sc, err := app.Connections.Score(ctx, u.ID, c.ID)
				if err != nil {
					return err
				}
				scored = append(scored, *sc)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConnectionList(scored, app.now()))
			return nil
		},
	}
}

func newConnectionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <connection>",
		Short: "Show a connection's profile, score and next action",
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
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatConnection(*sc, app.now()))
			return nil
		},
	}
}

func newConnectionEditCmd(app *App) *cobra.Command {
	var flags connectionFlags

	cmd := &cobra.Command{
		Use:   "edit <connection>",
		Short: "Update profile fields (use `stage` to change the stage)",
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
			if err := flags.apply(cmd.Flags(), c); err != nil {
				return err
			}
			if err := app.Connections.Update(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s を更新しました\n", formatter.Bold(c.Nickname))
			return nil
		},
	}

	flags.bind(cmd.Flags())
	return cmd
}

func newConnectionDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <connection>",
		Aliases: []string{"rm"},
		Short:   "Delete a connection and its history",
		Args:    cobra.ExactArgs(1),
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
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %q without --yes", c.Nickname)
				}
				confirmed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("%s を削除しますか？", c.Nickname)).
					Affirmative("削除").Negative("やめる").
					Value(&confirmed).WithTheme(miruHuhTheme()).Run()
				if err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}
			if err := app.Connections.Delete(ctx, u.ID, c.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s を削除しました\n", formatter.Bold(c.Nickname))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newConnectionStageCmd(app *App) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "stage <connection> <stage>",
		Short: "Move a connection to a new stage",
		Long: "Move a connection to a new stage. Stages: just_matched, messaging, line_exchanged, " +
			"date_arranging, before_date, after_date, dating, ended (Japanese labels also accepted).",
		Args: cobra.ExactArgs(2),
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
			stage, err := domain.ParseStage(args[1])
			if err != nil {
				return err
			}
			rec, err := app.Connections.UpdateStage(ctx, u.ID, c.ID, stage, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s → %s  %s\n",
				formatter.Bold(c.Nickname),
				formatter.StagePill(rec.FromStage),
				formatter.StagePill(rec.ToStage),
				formatter.RenderScore(rec.HopeScore, 10),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note for this stage change")
	return cmd
}

func newConnectionProgressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <connection>",
		Short: "Show the stage history",
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
			recs, err := app.Connections.ListProgress(ctx, u.ID, c.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProgress(recs))
			return nil
		},
	}
}

func newConnectionContactCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contact <connection>",
		Short: "Record that you were in touch today",
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
			now := app.now().UTC()
			c.Communication.LastContact = &now
			if err := app.Connections.Update(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s の最終連絡を今日に更新しました\n", formatter.Bold(c.Nickname))
			return nil
		},
	}
}
