// Package cli is the parkgo command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/park-go/internal/app"
	"github.com/kirinyoku/park-go/internal/config"
)

type options struct {
	outputJSON bool
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "parkgo",
		Short:        "Parking zone reservations with live capacity accounting",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output JSON")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(sweepCmd(opts))
	cmd.AddCommand(zoneCmd(opts))
	cmd.AddCommand(watchCmd())
	return cmd
}

// loadApp reads the environment and wires the application. Logs go to
// logOut so that command output stays parseable.
func loadApp(ctx context.Context, logOut io.Writer) (*app.App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	return app.New(ctx, cfg, app.NewLogger(logOut, cfg.Log))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
