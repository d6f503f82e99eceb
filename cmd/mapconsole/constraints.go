package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"map_console/pkg/editor"
	"map_console/pkg/model"
	"map_console/pkg/view"
)

func constraintsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "constraints",
		Aliases: []string{"c"},
		Short:   "List and edit edge constraints",
	}
	cmd.AddCommand(
		constraintsListCmd(a),
		constraintsAddCmd(a),
		constraintsRemoveCmd(a),
		constraintsClearCmd(a),
	)
	return cmd
}

func constraintsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show every constraint with its resolved style",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			printConstraints(s)
			return nil
		},
	}
}

func printConstraints(s *view.Session) {
	c := s.Cache()
	r := s.Resolver()

	var rows [][]string
	for _, con := range c.Constraints() {
		e, ok := c.Edge(con.EdgeID)
		label, style := "?", "unknown edge"
		if ok {
			st := r.Resolve(e, c.Constraint(e.ID), false)
			label, style = st.Label, swatch(st.Color)+" "+st.Kind.String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(con.EdgeID, 10),
			string(con.Type),
			con.Value,
			label,
			style,
			con.Description,
		})
	}
	fmt.Println()
	table(os.Stdout, []string{"EDGE", "TYPE", "VALUE", "DIRECTION", "STYLE", "DESCRIPTION"}, rows)
	fmt.Println()
	if conflicts := c.Conflicts(); len(conflicts) > 0 {
		warn.Printf("  %d edges carry more than one constraint; the first listed is shown: %v\n\n", len(conflicts), conflicts)
	}
}

func constraintsAddCmd(a *app) *cobra.Command {
	var (
		edges []int64
		draft editor.Draft
		typ   string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Apply a constraint to edges",
		Long: `Apply one constraint to a set of edges.

  mapconsole constraints add --edges 10,11 --type block --description "road works"
  mapconsole constraints add --edges 12 --type penalty --value 2.5 --description "ngập"
  mapconsole constraints add --edges 13 --type oneway --value both`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			s.SetMode(view.ModeEdit)
			s.Selection().UnionWith(edges)
			draft.Type = model.ConstraintType(typ)
			return submit(cmd, s, draft)
		},
	}
	cmd.Flags().Int64SliceVar(&edges, "edges", nil, "edge ids")
	cmd.Flags().StringVar(&typ, "type", "", "block|penalty|oneway")
	cmd.Flags().StringVar(&draft.Value, "value", "", "penalty factor or oneway direction (forward|backward|both)")
	cmd.Flags().StringVar(&draft.Description, "description", "", "free text; flood keywords color penalties as flooding")
	cmd.MarkFlagRequired("edges")
	cmd.MarkFlagRequired("type")
	return cmd
}

// submit applies draft to the session's selection and reports the result.
func submit(cmd *cobra.Command, s *view.Session, draft editor.Draft) error {
	n := s.Selection().Len()
	op, err := s.Submit(draft)
	if err != nil {
		var both *editor.OnewayBothError
		if errors.As(err, &both) {
			warn.Println("  nothing was sent")
		}
		return err
	}
	if err := s.Run(cmd.Context(), op); err != nil {
		return err
	}
	fmt.Printf("  %s %s applied to %d edges\n", statusIcon(true), draft.Type, n)
	return nil
}

func constraintsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove EDGE_ID...",
		Short: "Remove the constraint on each edge",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			var failed int
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("edge id %q: %w", arg, err)
				}
				op, err := s.RemoveConstraint(id)
				if err == nil {
					err = s.Run(cmd.Context(), op)
				}
				if err != nil {
					fmt.Printf("  %s edge %d: %v\n", statusIcon(false), id, err)
					failed++
					continue
				}
				fmt.Printf("  %s edge %d\n", statusIcon(true), id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d removals failed", failed, len(args))
			}
			return nil
		},
	}
}

func constraintsClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every constraint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			s, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			n := len(s.Cache().Constraints())
			op, err := s.ClearConstraints()
			if err != nil {
				return err
			}
			if err := s.Run(cmd.Context(), op); err != nil {
				return err
			}
			fmt.Printf("  %s cleared %d constraints\n", statusIcon(true), n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}
