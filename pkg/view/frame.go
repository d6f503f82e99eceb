package view

import (
	"sort"

	"github.com/paulmach/orb"

	"map_console/pkg/model"
	"map_console/pkg/pathview"
	"map_console/pkg/style"
)

// EdgeLine is one drawable edge.
type EdgeLine struct {
	Edge  model.Edge
	Line  orb.LineString
	Style style.Style
}

// NodeMarker is one drawable node.
type NodeMarker struct {
	ID    int64
	Point orb.Point
}

// Frame is a renderer-agnostic display list of the current state.
// Edges are ordered so that higher-precedence styles come last and are
// drawn on top.
type Frame struct {
	Edges   []EdgeLine
	Nodes   []NodeMarker
	Shape   Shape
	Path    *pathview.Drawing
	Picks   []pathview.Marker
	Palette style.Palette
	Bounds  orb.Bound

	Mode     Mode
	Selected int
	Status   Status
	Busy     bool
}

// Frame builds the display list. Edges whose endpoints are unknown are
// skipped. Selection only affects styling in edit mode.
func (s *Session) Frame() Frame {
	f := Frame{
		Shape:    s.shape,
		Path:     s.picker.Drawing(),
		Palette:  s.resolver.Palette(),
		Bounds:   s.cache.Bounds(),
		Mode:     s.mode,
		Selected: s.sel.Len(),
		Status:   s.Status(),
		Busy:     s.busy,
	}

	edges := s.cache.Edges()
	f.Edges = make([]EdgeLine, 0, len(edges))
	for _, e := range edges {
		from, to, ok := s.cache.Endpoints(e)
		if !ok {
			continue
		}
		selected := s.mode == ModeEdit && s.sel.Contains(e.ID)
		f.Edges = append(f.Edges, EdgeLine{
			Edge: e,
			Line: orb.LineString{
				{from.Longitude, from.Latitude},
				{to.Longitude, to.Latitude},
			},
			Style: s.resolver.Resolve(e, s.cache.Constraint(e.ID), selected),
		})
	}
	sort.SliceStable(f.Edges, func(i, j int) bool {
		return f.Edges[i].Style.Kind < f.Edges[j].Style.Kind
	})

	nodes := s.cache.Nodes()
	f.Nodes = make([]NodeMarker, len(nodes))
	for i, n := range nodes {
		f.Nodes[i] = NodeMarker{ID: n.ID, Point: orb.Point{n.Longitude, n.Latitude}}
	}

	if st := s.picker.Start(); st.Set {
		f.Picks = append(f.Picks, pathview.Marker{Point: st.Point, Start: true, Label: "start"})
	}
	if en := s.picker.End(); en.Set {
		f.Picks = append(f.Picks, pathview.Marker{Point: en.Point, Label: "end"})
	}
	return f
}
