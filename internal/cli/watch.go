package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print zone usage whenever a zone changes",
		Long:  "Subscribes to zone change hints over redis and prints the recomputed summary for each one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ps := a.PubSub()
			if ps == nil {
				return errors.New("watch needs REDIS_ADDR")
			}

			out := cmd.OutOrStdout()
			query := a.Services().Query

			err = ps.Subscribe(ctx, func(ctx context.Context, zoneID int64) {
				sum, err := query.GetZoneSummary(ctx, zoneID, nil)
				if err != nil {
					fmt.Fprintf(out, "zone %d: %v\n", zoneID, err)
					return
				}
				fmt.Fprintf(out, "zone %d: pending=%d occupied=%d available=%d/%d\n",
					zoneID, sum.PendingCount, sum.ActiveCount, sum.Available, sum.Capacity)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
