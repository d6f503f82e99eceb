package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"map_console/pkg/editor"
	"map_console/pkg/geo"
	"map_console/pkg/model"
	"map_console/pkg/spatial"
	"map_console/pkg/view"
)

// selectFlags are shared by every region subcommand.
type selectFlags struct {
	apply       string
	description string
}

func (f *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apply, "apply", "", "apply a constraint to the result: block, penalty:FACTOR or oneway:DIRECTION")
	cmd.Flags().StringVar(&f.description, "description", "", "description for --apply")
}

func (f *selectFlags) draft() (editor.Draft, bool) {
	if f.apply == "" {
		return editor.Draft{}, false
	}
	typ, value, _ := strings.Cut(f.apply, ":")
	return editor.Draft{
		Type:        model.ConstraintType(typ),
		Value:       value,
		Description: f.description,
	}, true
}

func selectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Find edges inside a region, optionally constraining them",
	}
	cmd.AddCommand(selectPolygonCmd(a), selectRectangleCmd(a), selectCircleCmd(a))
	return cmd
}

func selectPolygonCmd(a *app) *cobra.Command {
	var (
		points []string
		flags  selectFlags
	)
	cmd := &cobra.Command{
		Use:   "polygon",
		Short: "Edges inside a polygon",
		Long: `Edges inside a polygon given by three or more vertices.

  mapconsole select polygon -p 20.963,105.829 -p 20.963,105.832 -p 20.9615,105.832 --apply block`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ring := make(orb.Ring, 0, len(points))
			for _, p := range points {
				lat, lon, err := parseLatLon(p)
				if err != nil {
					return err
				}
				ring = append(ring, geo.Point(lat, lon))
			}
			return a.runSelect(cmd, view.Shape{Kind: view.ShapePolygon, Ring: ring}, flags)
		},
	}
	cmd.Flags().StringArrayVarP(&points, "point", "p", nil, "vertex as lat,lon (repeat)")
	flags.register(cmd)
	return cmd
}

func selectRectangleCmd(a *app) *cobra.Command {
	var (
		from, to string
		flags    selectFlags
	)
	cmd := &cobra.Command{
		Use:   "rectangle",
		Short: "Edges inside a rectangle given by two corners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lat1, lon1, err := parseLatLon(from)
			if err != nil {
				return err
			}
			lat2, lon2, err := parseLatLon(to)
			if err != nil {
				return err
			}
			ring := spatial.Rectangle(geo.Point(lat1, lon1), geo.Point(lat2, lon2))
			return a.runSelect(cmd, view.Shape{Kind: view.ShapeRectangle, Ring: ring}, flags)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first corner as lat,lon")
	cmd.Flags().StringVar(&to, "to", "", "opposite corner as lat,lon")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	flags.register(cmd)
	return cmd
}

func selectCircleCmd(a *app) *cobra.Command {
	var (
		center string
		radius float64
		flags  selectFlags
	)
	cmd := &cobra.Command{
		Use:   "circle",
		Short: "Edges inside a circle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(center)
			if err != nil {
				return err
			}
			circle := spatial.Circle{Center: geo.Point(lat, lon), Radius: radius}
			return a.runSelect(cmd, view.Shape{Kind: view.ShapeCircle, Circle: circle}, flags)
		},
	}
	cmd.Flags().StringVar(&center, "center", "", "center as lat,lon")
	cmd.Flags().Float64Var(&radius, "radius", 0, "radius in meters")
	cmd.MarkFlagRequired("center")
	cmd.MarkFlagRequired("radius")
	flags.register(cmd)
	return cmd
}

// runSelect queries the shape, lists the matching edges and, when asked,
// submits a constraint for them.
func (a *app) runSelect(cmd *cobra.Command, sh view.Shape, flags selectFlags) error {
	s, err := a.loaded(cmd.Context())
	if err != nil {
		return err
	}
	s.SetMode(view.ModeEdit)
	s.SetShape(sh)

	op, err := s.QueryShape()
	if err != nil {
		return err
	}
	if err := s.Run(cmd.Context(), op); err != nil {
		return err
	}

	c := s.Cache()
	ids := s.Selection().IDs()
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		row := []string{strconv.FormatInt(id, 10), "", "", ""}
		if e, ok := c.Edge(id); ok {
			row[1] = fmt.Sprintf("%d → %d", e.FromNode, e.ToNode)
			row[2] = fmt.Sprintf("%.1f m", e.Distance)
			if con := c.Constraint(id); con != nil {
				row[3] = string(con.Type)
			}
		}
		rows = append(rows, row)
	}
	fmt.Println()
	info.Printf("  %s: %d edges\n\n", sh.Kind, len(ids))
	table(os.Stdout, []string{"EDGE", "NODES", "LENGTH", "CONSTRAINT"}, rows)
	fmt.Println()

	draft, ok := flags.draft()
	if !ok {
		return nil
	}
	return submit(cmd, s, draft)
}
