package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/service/admin"
)

func zoneCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Inspect and provision zones",
	}

	cmd.AddCommand(zoneListCmd(opts))
	cmd.AddCommand(zoneSeedCmd(opts))
	return cmd
}

func zoneListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List zones with current usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			zones, err := a.Services().Query.ListZones(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, zones)
			}
			if len(zones) == 0 {
				fmt.Fprintln(out, "No zones.")
				return nil
			}

			writer := tabwriter.NewWriter(out, 2, 2, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tACTIVE\tCAPACITY\tPENDING\tOCCUPIED\tAVAILABLE")
			for _, z := range zones {
				fmt.Fprintf(writer, "%d\t%s\t%t\t%d\t%d\t%d\t%d\n",
					z.Zone.ID, z.Zone.Name, z.Zone.Active, z.Summary.Capacity,
					z.Summary.PendingCount, z.Summary.ActiveCount, z.Summary.Available)
			}
			return writer.Flush()
		},
	}
}

func zoneSeedCmd(opts *options) *cobra.Command {
	var (
		name  string
		lat   float64
		lng   float64
		half  float64
		parts int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a square zone split into strip slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			ctx := cmd.Context()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			zone, slots, err := a.Services().Admin.SeedZone(ctx, admin.SeedInput{
				Name:   name,
				Center: domain.Point{Lat: lat, Lng: lng},
				Half:   half,
				Parts:  parts,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.outputJSON {
				return writeJSON(out, struct {
					Zone  *domain.Zone  `json:"zone"`
					Slots []domain.Slot `json:"slots"`
				}{zone, slots})
			}

			fmt.Fprintf(out, "zone %d %q capacity %d\n", zone.ID, zone.Name, zone.Capacity)
			for _, s := range slots {
				fmt.Fprintf(out, "  %s\t%s\n", s.ID, s.Tag)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Zone name")
	cmd.Flags().Float64Var(&lat, "lat", 30.0444, "Center latitude")
	cmd.Flags().Float64Var(&lng, "lng", 31.2357, "Center longitude")
	cmd.Flags().Float64Var(&half, "half", 0.001, "Half side of the square in degrees")
	cmd.Flags().IntVar(&parts, "parts", 4, "Number of slots")
	return cmd
}
