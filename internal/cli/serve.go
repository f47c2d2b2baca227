package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	Long: `Start the dashboard: the file watcher, the stuck-task monitor, the
recurring-task scheduler, the invalidation broadcaster, and the HTTP API.

The process runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := App.Start(ctx); err != nil {
			return fmt.Errorf("starting dashboard: %w", err)
		}
		defer App.Stop(context.Background())

		App.Logger.Info("dashboard running",
			"addr", App.Config.Listen, "data", App.Config.DataDir)
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
