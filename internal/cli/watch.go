package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/brainboard/internal/broadcast"
)

var watchAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live task view against a running dashboard server",
	Long: `Connect to a running bb serve instance and render a live task table.

The view subscribes to the server's invalidation channel over websocket and
refetches on every change; while disconnected it falls back to polling.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		model := newWatchModel(watchAddr)
		p := tea.NewProgram(model, tea.WithAltScreen())

		keys := broadcast.NewKeyCache()
		sub := broadcast.NewSubscriber(
			fmt.Sprintf("ws://%s/ws", watchAddr), keys,
			App.Config.PollInterval, App.Logger)
		sub.OnRefresh = func([]string) {
			p.Send(refreshMsg{})
		}
		go sub.Run(ctx)

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running watch view: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "127.0.0.1:8177", "address of the running dashboard server")
	rootCmd.AddCommand(watchCmd)
}

// taskRow is one rendered line of the watch table, as served by /api/tasks.
type taskRow struct {
	Title        string `json:"title"`
	Status       string `json:"status"`
	TimeInStatus string `json:"time_in_status"`
	AlertLevel   string `json:"alert_level"`
}

type refreshMsg struct{}

type tasksLoadedMsg struct {
	rows []taskRow
	err  error
}

var (
	watchTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	rowNone   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	rowYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	rowRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	watchHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type watchModel struct {
	addr    string
	rows    []taskRow
	loading bool
	err     error
	updated time.Time
}

func newWatchModel(addr string) watchModel {
	return watchModel{addr: addr, loading: true}
}

func (m watchModel) Init() tea.Cmd {
	return loadTasks(m.addr)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadTasks(m.addr)
		}
	case refreshMsg:
		return m, loadTasks(m.addr)
	case tasksLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			m.updated = time.Now()
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	s := watchTitleStyle.Render("brainboard") + "\n\n"

	switch {
	case m.loading && len(m.rows) == 0:
		s += "loading...\n"
	case m.err != nil:
		s += fmt.Sprintf("error: %v\n", m.err)
	case len(m.rows) == 0:
		s += "no tasks\n"
	default:
		for _, row := range m.rows {
			style := rowNone
			switch row.AlertLevel {
			case "yellow":
				style = rowYellow
			case "red":
				style = rowRed
			}
			elapsed := row.TimeInStatus
			if elapsed == "" {
				elapsed = "-"
			}
			s += style.Render(fmt.Sprintf("%-12s %-10s %s", row.Status, elapsed, truncate(row.Title, 60))) + "\n"
		}
	}

	if !m.updated.IsZero() {
		s += "\n" + watchHelpStyle.Render(fmt.Sprintf("updated %s", m.updated.Format("15:04:05")))
	}
	s += "\n" + watchHelpStyle.Render("r refresh - q quit")
	return s
}

// loadTasks fetches the task list from the dashboard API.
func loadTasks(addr string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/api/tasks", addr))
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		defer resp.Body.Close()

		var rows []taskRow
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return tasksLoadedMsg{err: err}
		}
		return tasksLoadedMsg{rows: rows}
	}
}
