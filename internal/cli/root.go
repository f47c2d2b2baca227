// Package cli implements the bb command tree. Commands receive their wired
// services through the package-level App set at startup.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	app "github.com/valter-silva-au/brainboard/internal"
	"github.com/valter-silva-au/brainboard/internal/config"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// App is the wired application used by every command. Set in Execute.
var App *app.App

var dataDirFlag string

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "bb",
	Short: "brainboard - a live dashboard over a file-based project store",
	Long: `brainboard (bb) mirrors a file-based project-management store (tasks,
agents, activity, notifications) and a markdown idea log. It keeps every
dashboard view consistent with on-disk data through a read-through cache,
file-watch invalidation, and a websocket invalidation broadcast.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(dataDirFlag)
		if err != nil {
			return err
		}
		// The flag wins only when given; otherwise the config file's
		// data_dir setting stands.
		if cmd.Flags().Changed("data") {
			cfg.DataDir = dataDirFlag
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		App = app.NewApp(cfg, logger)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bb %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data", "d", ".", "data directory holding the store and idea log")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
