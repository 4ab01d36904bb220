package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := loadApp(ctx, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if _, err := a.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			return a.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Migrate(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "No migrations to apply.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			return nil
		},
	}
}
