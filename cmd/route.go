package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evcorridor/app"
	"github.com/kilianp07/evcorridor/core/route"
)

var routeFrom, routeTo string

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Print the shortest route between two endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ context.Context, svc *app.Service) error {
			net, err := svc.Corridor().Build(1)
			if err != nil {
				return err
			}
			r, err := net.ShortestRoute(route.Endpoint(routeFrom), route.Endpoint(routeTo))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %.1f km, %d stations\n", r.Name, r.LengthKm, len(r.Stations))
			for i, st := range r.Stations {
				fmt.Fprintf(out, "  %7.1f km  %s (%d chargers)\n", r.Distances[i], st.Name, len(st.Chargers()))
			}
			return nil
		})
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeFrom, "from", "", "start endpoint")
	routeCmd.Flags().StringVar(&routeTo, "to", "", "destination endpoint")
	_ = routeCmd.MarkFlagRequired("from")
	_ = routeCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(routeCmd)
}
