package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func sweepCmd(opts *options) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed holds",
		Long:  "Runs the expiry sweeper without the HTTP API. With --once it makes a single pass and prints the report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			sw := a.Services().Sweeper
			if !once {
				return sw.Run(ctx)
			}

			rep, err := sw.SweepOnce(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, rep)
			}
			if rep.Standby {
				fmt.Fprintln(out, "Another replica holds the sweep lease.")
				return nil
			}
			fmt.Fprintf(out, "expired=%d activated=%d skipped=%d failed=%d\n",
				rep.Expired, rep.Activated, rep.Skipped, rep.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Make one pass and exit")
	return cmd
}
