package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/miru/internal/cli/formatter"
	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Overview of every connection and what to do next",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := app.currentUser(ctx)
			if err != nil {
				return err
			}
			if plain || !app.interactive() {
				d, err := app.Dashboard.Overview(ctx, u.ID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDashboard(d, app.now()))
				return nil
			}
			p := tea.NewProgram(newDashboardModel(ctx, app, u.ID), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print once instead of opening the interactive view")
	return cmd
}

// ── key bindings ─────────────────────────────────────────────────────────────

type dashboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Prompt  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Prompt, k.Refresh, k.Quit}
}

func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var dashboardKeys = dashboardKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "上へ")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "下へ")),
	Prompt:  key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter", "プロンプト生成")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "更新")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "終了")),
}

// ── messages ─────────────────────────────────────────────────────────────────

type dashboardLoadedMsg struct {
	data *service.Dashboard
	err  error
}

type dashboardPromptMsg struct {
	connectionID string
	prompt       *service.OrchestratedPrompt
	err          error
}

// ── model ────────────────────────────────────────────────────────────────────

// dashboardModel shows a selectable connection list on the left and the
// selected connection's score, next action and generated prompt on the right.
type dashboardModel struct {
	ctx    context.Context
	app    *App
	userID string

	data    *service.Dashboard
	loading bool
	err     error
	cursor  int

	prompt    *service.OrchestratedPrompt
	promptFor string
	promptErr error

	width int
	help  help.Model
}

func newDashboardModel(ctx context.Context, app *App, userID string) *dashboardModel {
	return &dashboardModel{
		ctx:     ctx,
		app:     app,
		userID:  userID,
		loading: true,
		help:    help.New(),
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.load()
}

func (m *dashboardModel) load() tea.Cmd {
	return func() tea.Msg {
		d, err := m.app.Dashboard.Overview(m.ctx, m.userID)
		return dashboardLoadedMsg{data: d, err: err}
	}
}

func (m *dashboardModel) selected() *service.ScoredConnection {
	if m.data == nil || m.cursor >= len(m.data.Connections) {
		return nil
	}
	return &m.data.Connections[m.cursor]
}

// generate builds a prompt for the selected connection's recommended use case.
func (m *dashboardModel) generate() tea.Cmd {
	sc := m.selected()
	if sc == nil {
		return nil
	}
	req := service.PromptRequest{
		ConnectionID: sc.Connection.ID,
		UseCase:      domain.UseCaseProgressAnalysis,
		Provider:     domain.ProviderClaude,
	}
	if sc.Action != nil && sc.Action.PromptType != "" {
		req.UseCase = sc.Action.PromptType
	}
	return func() tea.Msg {
		op, err := m.app.Prompts.Generate(m.ctx, m.userID, req)
		return dashboardPromptMsg{connectionID: req.ConnectionID, prompt: op, err: err}
	}
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case dashboardLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.data = msg.data
			if m.cursor >= len(m.data.Connections) {
				m.cursor = max(0, len(m.data.Connections)-1)
			}
		}

	case dashboardPromptMsg:
		m.promptFor = msg.connectionID
		m.prompt = msg.prompt
		m.promptErr = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, dashboardKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, dashboardKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, dashboardKeys.Down):
			if m.data != nil && m.cursor < len(m.data.Connections)-1 {
				m.cursor++
			}
		case key.Matches(msg, dashboardKeys.Prompt):
			return m, m.generate()
		case key.Matches(msg, dashboardKeys.Refresh):
			m.loading = true
			m.err = nil
			return m, m.load()
		}
	}
	return m, nil
}

// ── rendering ────────────────────────────────────────────────────────────────

const dashLeftPaneWidth = 34

func (m *dashboardModel) View() string {
	if m.loading {
		return "\n  " + formatter.Dim("読み込み中...")
	}
	if m.err != nil {
		return "\n  " + m.app.errorText(m.err)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(formatter.Header("ダッシュボード"))
	fmt.Fprintf(&b, "  %s %s   %s %s\n\n",
		formatter.Dim("進行中"), formatter.Bold(fmt.Sprintf("%d人", m.data.ActiveCount)),
		formatter.Dim("平均スコア"), formatter.Bold(fmt.Sprintf("%.1f点", m.data.AverageScore)),
	)

	if len(m.data.Connections) == 0 {
		b.WriteString("  " + formatter.Dim("まだ相手が登録されていません。`miru connection add` で追加しましょう。") + "\n")
	} else {
		left := m.renderList()
		right := m.renderDetail()
		if m.width >= 80 {
			rightWidth := max(m.width-dashLeftPaneWidth-3, 20)
			divider := lipgloss.NewStyle().Foreground(formatter.ColorDim).Render("│")
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
				lipgloss.NewStyle().Width(dashLeftPaneWidth).Render(left),
				" "+divider+" ",
				lipgloss.NewStyle().Width(rightWidth).Render(right),
			))
		} else {
			b.WriteString(left + "\n" + right)
		}
	}

	b.WriteString("\n\n  " + m.help.View(dashboardKeys))
	return b.String()
}

func (m *dashboardModel) renderList() string {
	var b strings.Builder
	for i, sc := range m.data.Connections {
		cursor := "  "
		name := formatter.StyleFg.Render(sc.Connection.Nickname)
		if i == m.cursor {
			cursor = formatter.StyleGreen.Render("▸ ")
			name = formatter.Bold(sc.Connection.Nickname)
		}
		fmt.Fprintf(&b, "%s%s %s %s\n",
			cursor,
			name,
			formatter.RenderBar(sc.Score.Total, 100, 8),
			formatter.HealthColor(sc.Score.Health).Render(fmt.Sprintf("%3d", sc.Score.Total)),
		)
	}
	return b.String()
}

func (m *dashboardModel) renderDetail() string {
	sc := m.selected()
	if sc == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", formatter.Bold(sc.Connection.Nickname), formatter.StagePill(sc.Connection.CurrentStage))
	fmt.Fprintf(&b, "%s %s\n\n", formatter.Dim("最終連絡"), formatter.LastContactStyled(sc.Connection.Communication.LastContact, m.app.now()))
	b.WriteString(formatter.FormatScore(sc.Score))
	if sc.Action != nil {
		b.WriteString("\n")
		b.WriteString(formatter.FormatAction(*sc.Action))
	}
	if m.promptFor == sc.Connection.ID {
		b.WriteString("\n")
		if m.promptErr != nil {
			b.WriteString(m.app.errorText(m.promptErr))
		} else if m.prompt != nil {
			b.WriteString(formatter.FormatPrompt(m.prompt))
		}
	}
	return b.String()
}
