package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in and manage your account",
	}

	cmd.AddCommand(
		newAuthSignUpCmd(app),
		newAuthSignInCmd(app),
		newAuthSignOutCmd(app),
		newAuthWhoAmICmd(app),
		newAuthProfileCmd(app),
		newAuthPasswordCmd(app),
		newAuthResetCmd(app),
	)

	return cmd
}

// passwordFlag returns value, or prompts for it when interactive.
func passwordFlag(app *App, title, value string) (string, error) {
	if value != "" || !app.interactive() {
		return value, nil
	}
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&value),
	)).WithTheme(miruHuhTheme()).WithShowHelp(false).Run()
	return value, err
}

func newAuthSignUpCmd(app *App) *cobra.Command {
	var email, password, displayName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(app, "パスワード (8文字以上)", password)
			if err != nil {
				return err
			}
			res, err := app.Auth.SignUp(cmd.Context(), email, pw, displayName)
			if err != nil {
				return err
			}
			if err := app.Tokens.Save(res.Session.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s として登録しました\n", formatter.Bold(res.User.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthSignInCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(app, "パスワード", password)
			if err != nil {
				return err
			}
			res, err := app.Auth.SignIn(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			if err := app.Tokens.Save(res.Session.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s でログインしました\n", formatter.Bold(res.User.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthSignOutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.Tokens.Load()
			if err == nil {
				if err := app.Auth.SignOut(cmd.Context(), token); err != nil {
					return err
				}
			}
			if err := app.Tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ログアウトしました")
			return nil
		},
	}
}

func newAuthWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatUser(u))
			return nil
		},
	}
}

func formatUser(u *domain.User) string {
	age := ""
	if u.Profile.Age != nil {
		age = fmt.Sprintf("%d歳", *u.Profile.Age)
	}
	return formatter.RenderFields([][2]string{
		{"メール", u.Email},
		{"表示名", u.DisplayName},
		{"年齢", age},
		{"居住地", u.Profile.Location},
		{"趣味", strings.Join(u.Profile.Hobbies, "、")},
	})
}

func newAuthProfileCmd(app *App) *cobra.Command {
	var (
		displayName, location string
		age                   int
		hobbies               []string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your own profile used for commonality scoring",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			name := u.DisplayName
			profile := u.Profile
			flags := cmd.Flags()
			if flags.Changed("name") {
				name = displayName
			}
			if flags.Changed("age") {
				profile.Age = &age
				if age == 0 {
					profile.Age = nil
				}
			}
			if flags.Changed("location") {
				profile.Location = location
			}
			if flags.Changed("hobby") {
				profile.Hobbies = hobbies
			}
			updated, err := app.Auth.UpdateProfile(ctx, u.ID, name, profile)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatUser(updated))
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.Flags().IntVar(&age, "age", 0, "Age (0 clears)")
	cmd.Flags().StringVar(&location, "location", "", "Where you live")
	cmd.Flags().StringSliceVar(&hobbies, "hobby", nil, "Hobby (repeatable)")

	return cmd
}

func newAuthPasswordCmd(app *App) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			if current, err = passwordFlag(app, "現在のパスワード", current); err != nil {
				return err
			}
			if next, err = passwordFlag(app, "新しいパスワード", next); err != nil {
				return err
			}
			if err := app.Auth.UpdatePassword(ctx, u.ID, current, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "パスワードを変更しました")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVar(&next, "new", "", "New password")

	return cmd
}

func newAuthResetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password",
	}

	var email string
	request := &cobra.Command{
		Use:   "request",
		Short: "Issue a one-time reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, err := app.Auth.RequestPasswordReset(cmd.Context(), email)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, app.I18n.Text(app.Lang, "auth.reset_requested"))
			// Local installs have no mail transport; show the token directly.
			if reset != nil {
				fmt.Fprintf(out, "%s %s\n", formatter.Dim("token:"), reset.Token)
				fmt.Fprintf(out, "%s %s\n", formatter.Dim("expires:"), formatter.HumanTimestamp(reset.ExpiresAt))
			}
			return nil
		},
	}
	request.Flags().StringVar(&email, "email", "", "Email address")
	_ = request.MarkFlagRequired("email")

	var token, password string
	confirm := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(app, "新しいパスワード", password)
			if err != nil {
				return err
			}
			if err := app.Auth.ConfirmPasswordReset(cmd.Context(), token, pw); err != nil {
				return err
			}
			_ = app.Tokens.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "パスワードを再設定しました。もう一度ログインしてください。")
			return nil
		},
	}
	confirm.Flags().StringVar(&token, "token", "", "Reset token")
	confirm.Flags().StringVar(&password, "password", "", "New password")
	_ = confirm.MarkFlagRequired("token")

	cmd.AddCommand(request, confirm)
	return cmd
}
