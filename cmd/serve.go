// -- cmd/serve.go --
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/browser"
	"github.com/rfalmeida/detranbridge/internal/observability"
	"github.com/rfalmeida/detranbridge/internal/portal"
	"github.com/rfalmeida/detranbridge/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP query server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from Execute (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			jar := browser.NewJar(cfg.Portal.CookieFile, logger)
			manager, err := browser.NewManager(ctx, logger, cfg, jar)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Browser shutdown was not clean", zap.Error(err))
				}
			}()

			client := portal.NewClient(logger, cfg, portal.NewBrowserFactory(manager))
			srv := server.New(logger, cfg.Server, client)

			if err := srv.Start(ctx); err != nil {
				return err
			}
			logger.Info("Server stopped")
			return nil
		},
	}
}
