package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var provider, useCase string

	cmd := &cobra.Command{
		Use:   "chat <connection>",
		Short: "Talk to an AI assistant about one connection",
		Long: "Open a conversation about a connection. Each line is sent with the connection's\n" +
			"profile as context. Type /help for commands and exit to quit.",
		Args: cobra.ExactArgs(1),
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
			s := &chatSession{app: app, userID: u.ID, conn: c, out: cmd.OutOrStdout()}
			if s.provider, err = domain.ParseProvider(provider); err != nil {
				return err
			}
			if s.useCase, err = domain.ParseUseCase(useCase); err != nil {
				return err
			}

			fmt.Fprintf(s.out, "%s と話しています (%s)\n", formatter.Bold(c.Nickname), s.provider)
			fmt.Fprintln(s.out, formatter.Dim("exit で終了、/help でコマンド一覧"))

			if app.interactive() {
				return s.runReadline(ctx)
			}
			return s.runLines(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", string(domain.ProviderClaude), "AI provider: claude|gpt|gemini")
	cmd.Flags().StringVarP(&useCase, "use-case", "u", string(domain.UseCaseRelationshipAdvice), "Prompt use case for each message")
	return cmd
}

// chatSession sends each user line as extra context on a prompt for one
// connection.
type chatSession struct {
	app      *App
	userID   string
	conn     *domain.Connection
	provider domain.Provider
	useCase  domain.UseCase
	out      io.Writer
}

func (s *chatSession) runReadline(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "あなた> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.out,
	})
	if err != nil {
		return fmt.Errorf("starting line editor: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil {
			return nil
		}
		if quit := s.handle(ctx, line); quit {
			return nil
		}
	}
}

func (s *chatSession) runLines(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if quit := s.handle(ctx, sc.Text()); quit {
			return nil
		}
	}
	return sc.Err()
}

// handle processes one input line and reports whether the session ended.
// Provider failures are printed and the session continues.
func (s *chatSession) handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	switch {
	case input == "":
		return false
	case input == "exit" || input == "quit":
		return true
	case strings.HasPrefix(input, "/"):
		s.command(ctx, input)
		return false
	}

	res, err := s.app.Prompts.Execute(ctx, s.userID, service.PromptRequest{
		ConnectionID: s.conn.ID,
		UseCase:      s.useCase,
		Provider:     s.provider,
		Extra:        input,
	})
	if err != nil {
		fmt.Fprintln(s.out, s.app.errorText(err))
		return false
	}
	fmt.Fprintf(s.out, "\n%s\n", formatter.StyleHeader.Render("AI>"))
	fmt.Fprint(s.out, formatter.FormatActionResult(res))
	fmt.Fprintln(s.out)
	return false
}

func (s *chatSession) command(ctx context.Context, input string) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/help":
		fmt.Fprint(s.out, formatter.RenderFields([][2]string{
			{"/score", "脈ありスコアを表示"},
			{"/use <用途>", "プロンプトの用途を変更"},
			{"/provider <AI>", "AIを変更 (claude, gpt, gemini)"},
			{"exit", "終了"},
		}))
	case "/score":
		sc, err := s.app.Connections.Score(ctx, s.userID, s.conn.ID)
		if err != nil {
			fmt.Fprintln(s.out, s.app.errorText(err))
			return
		}
		fmt.Fprint(s.out, formatter.FormatScore(sc.Score))
	case "/use":
		uc, err := domain.ParseUseCase(arg)
		if err != nil {
			fmt.Fprintln(s.out, s.app.errorText(err))
			return
		}
		s.useCase = uc
		fmt.Fprintf(s.out, "%s %s\n", formatter.Dim("用途:"), uc)
	case "/provider":
		p, err := domain.ParseProvider(arg)
		if err != nil {
			fmt.Fprintln(s.out, s.app.errorText(err))
			return
		}
		s.provider = p
		fmt.Fprintf(s.out, "%s %s\n", formatter.Dim("AI:"), p)
	default:
		fmt.Fprintf(s.out, "%s %s\n", formatter.Dim("不明なコマンド:"), name)
	}
}
