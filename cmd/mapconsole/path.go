package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"map_console/pkg/pathview"
)

func pathCmd(a *app) *cobra.Command {
	var (
		from, to  string
		algorithm string
		showNodes bool
	)
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Find a route between two coordinates",
		Long: `Find a route between two coordinates. Both ends are snapped to the
nearest edge by the backend; the offsets show how far the snap moved them.

  mapconsole path --from 20.9630,105.8290 --to 20.9615,105.8320 -a a_star`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session()
			p := s.Picker()
			if err := p.SetAlgorithm(algorithm); err != nil {
				return err
			}
			if err := findPath(cmd, s, from, to); err != nil {
				return err
			}

			d := p.Drawing()
			sum := pathview.Summarize(d.Result)
			fmt.Println()
			brand.Printf("  %s\n\n", p.Algorithm())
			fmt.Printf("  %-16s %s\n", "total", sum.TotalDistance)
			fmt.Printf("  %-16s %s\n", "graph", sum.GraphDistance)
			fmt.Printf("  %-16s %s\n", "start offset", sum.StartOffset)
			fmt.Printf("  %-16s %s\n", "end offset", sum.EndOffset)
			fmt.Printf("  %-16s %d\n", "nodes", sum.NumNodes)
			if sum.PathString != "" {
				fmt.Printf("  %-16s %s\n", "path", sum.PathString)
			}
			if pathview.SnappedExactly(d.Result) {
				subtle.Println("\n  both ends are graph nodes")
			}
			if showNodes {
				rows := make([][]string, len(d.Result.PathCoordinates))
				for i, pt := range d.Result.PathCoordinates {
					rows[i] = []string{
						strconv.Itoa(i),
						strconv.FormatInt(pt.NodeID, 10),
						strconv.FormatFloat(pt.Lat, 'f', 6, 64),
						strconv.FormatFloat(pt.Lon, 'f', 6, 64),
					}
				}
				fmt.Println()
				table(os.Stdout, []string{"#", "NODE", "LAT", "LON"}, rows)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start as lat,lon")
	cmd.Flags().StringVar(&to, "to", "", "end as lat,lon")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", pathview.AlgorithmDijkstra, "dijkstra|a_star")
	cmd.Flags().BoolVar(&showNodes, "nodes", false, "list every path vertex")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}
