// -- cmd/query.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfalmeida/detranbridge/internal/browser"
	"github.com/rfalmeida/detranbridge/internal/observability"
	"github.com/rfalmeida/detranbridge/internal/portal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newQueryCmd creates the `query` command group for one-shot lookups from the
// terminal, printing the result as JSON.
func newQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Runs a single registry query and prints the result as JSON",
	}

	queryCmd.AddCommand(&cobra.Command{
		Use:   "chassis <chassis>",
		Short: "Looks up the lien status of a chassis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), func(ctx context.Context, client *portal.Client) (any, error) {
				rec, err := client.LookupChassisStatus(ctx, args[0])
				if err != nil {
					return nil, err
				}
				if rec == nil {
					return nil, fmt.Errorf("no vehicle found for chassis %q", args[0])
				}
				return rec, nil
			})
		},
	})

	var binType string
	binCmd := &cobra.Command{
		Use:   "bin <key>",
		Short: "Looks up the base vehicle record by chassis, plate or renavam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), func(ctx context.Context, client *portal.Client) (any, error) {
				return client.LookupBin(ctx, args[0], portal.BinKeyType(binType))
			})
		},
	}
	binCmd.Flags().StringVar(&binType, "type", "plate", "query key type: chassis, plate or renavam")
	queryCmd.AddCommand(binCmd)

	queryCmd.AddCommand(&cobra.Command{
		Use:   "vehicles <document>",
		Short: "Lists vehicles registered to an owner CPF or CNPJ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), func(ctx context.Context, client *portal.Client) (any, error) {
				return client.LookupVehiclesByDocument(ctx, args[0])
			})
		},
	})

	return queryCmd
}

// runQuery owns the browser lifecycle for a one-shot lookup.
func runQuery(ctx context.Context, fn func(context.Context, *portal.Client) (any, error)) error {
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

	result, err := fn(ctx, portal.NewClient(logger, cfg, portal.NewBrowserFactory(manager)))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
