package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/brainboard/internal/observability"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active tasks and their time in status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := App.Tasks.GetAllTasks()
		if err != nil {
			return fmt.Errorf("loading tasks: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}

		now := time.Now()
		for i := range tasks {
			task := &tasks[i]
			status := observability.ComputeTimeInStatus(task, now, App.Thresholds)

			marker := " "
			switch status.Level {
			case observability.AlertYellow:
				marker = "!"
			case observability.AlertRed:
				marker = "!!"
			}

			elapsed := "-"
			if status.Tracked && status.Known {
				elapsed = status.Human
			}
			fmt.Printf("%-2s %-12s %-10s %s\n",
				marker, task.Status, elapsed, truncate(task.Title, 60))
		}

		unread, err := App.Notifs.UnreadCount()
		if err == nil && unread > 0 {
			fmt.Printf("\n%d unread notification(s)\n", unread)
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
