package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fxengine/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run startup ingestion, schedulers and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(ctx context.Context, a *app.App) error {
			err := a.Serve(ctx)
			logrus.Info("Server stopped")
			return err
		})
	},
}
