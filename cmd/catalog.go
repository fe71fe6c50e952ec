package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evcorridor/app"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the car models in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(_ context.Context, svc *app.Service) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tPOPULATION\tKWH\tKWH/100KM\tAC KW\tDC KW\tCONNECTORS")
			for _, t := range svc.Catalog().Types() {
				conns := make([]string, len(t.Connectors))
				for i, c := range t.Connectors {
					conns[i] = c.String()
				}
				fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.0f\t%.0f\t%s\n",
					t.Name, t.Population, t.Capacity, t.Efficiency, t.MaxAC, t.MaxDC, strings.Join(conns, ","))
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
