// Package pathview tracks endpoint picking for path queries and turns a
// path result into something a map can draw.
package pathview

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"map_console/pkg/geo"
	"map_console/pkg/model"
)

// Supported algorithm names.
const (
	AlgorithmDijkstra = "dijkstra"
	AlgorithmAStar    = "a_star"
)

// Algorithms lists the selectable algorithms in display order.
var Algorithms = []string{AlgorithmDijkstra, AlgorithmAStar}

// ErrIncompleteRequest is returned when a path is requested before both
// endpoints and an algorithm are set.
var ErrIncompleteRequest = errors.New("start, end and algorithm are required")

// PickState is the endpoint picking state.
type PickState int

const (
	Idle PickState = iota
	PickingStart
	PickingEnd
)

func (s PickState) String() string {
	switch s {
	case PickingStart:
		return "picking-start"
	case PickingEnd:
		return "picking-end"
	default:
		return "idle"
	}
}

// Endpoint is an optional picked coordinate.
type Endpoint struct {
	Point orb.Point
	Set   bool
}

// Marker is a labelled point drawn on the map.
type Marker struct {
	Point  orb.Point
	NodeID int64
	Start  bool
	Label  string
}

// Drawing is the display form of a path result.
type Drawing struct {
	Line   orb.LineString
	Start  Marker
	End    Marker
	Bounds orb.Bound // padded, ready to fit the viewport to
	Result model.PathResult
}

// Picker is the endpoint state machine plus the last drawn path.
type Picker struct {
	state     PickState
	start     Endpoint
	end       Endpoint
	algorithm string
	drawing   *Drawing
}

// NewPicker returns an idle picker using Dijkstra.
func NewPicker() *Picker {
	return &Picker{algorithm: AlgorithmDijkstra}
}

// State returns the current picking state.
func (p *Picker) State() PickState { return p.state }

// Start returns the start endpoint.
func (p *Picker) Start() Endpoint { return p.start }

// End returns the end endpoint.
func (p *Picker) End() Endpoint { return p.end }

// Algorithm returns the chosen algorithm.
func (p *Picker) Algorithm() string { return p.algorithm }

// Drawing returns the path currently displayed, or nil.
func (p *Picker) Drawing() *Drawing { return p.drawing }

// ArmStart makes the next map click set the start point.
func (p *Picker) ArmStart() { p.state = PickingStart }

// ArmEnd makes the next map click set the end point.
func (p *Picker) ArmEnd() { p.state = PickingEnd }

// Cancel returns to idle without recording anything.
func (p *Picker) Cancel() { p.state = Idle }

// SetAlgorithm picks an algorithm; an empty name clears the choice.
func (p *Picker) SetAlgorithm(name string) error {
	switch name {
	case AlgorithmDijkstra, AlgorithmAStar, "":
		p.algorithm = name
		return nil
	}
	return fmt.Errorf("unknown algorithm %q", name)
}

// CycleAlgorithm moves to the next algorithm in Algorithms.
func (p *Picker) CycleAlgorithm() string {
	next := 0
	for i, a := range Algorithms {
		if a == p.algorithm {
			next = (i + 1) % len(Algorithms)
		}
	}
	p.algorithm = Algorithms[next]
	return p.algorithm
}

// Click handles a map click. When a pick is armed it records the rounded
// coordinate, returns to idle and reports true; otherwise it does nothing.
func (p *Picker) Click(lat, lon float64) bool {
	pt := geo.Point(round6(lat), round6(lon))
	switch p.state {
	case PickingStart:
		p.start = Endpoint{Point: pt, Set: true}
	case PickingEnd:
		p.end = Endpoint{Point: pt, Set: true}
	default:
		return false
	}
	p.state = Idle
	return true
}

// SetStart records a typed-in start coordinate.
func (p *Picker) SetStart(lat, lon float64) error {
	if !geo.ValidLatLng(lat, lon) {
		return fmt.Errorf("start: %w", ErrIncompleteRequest)
	}
	p.start = Endpoint{Point: geo.Point(lat, lon), Set: true}
	return nil
}

// SetEnd records a typed-in end coordinate.
func (p *Picker) SetEnd(lat, lon float64) error {
	if !geo.ValidLatLng(lat, lon) {
		return fmt.Errorf("end: %w", ErrIncompleteRequest)
	}
	p.end = Endpoint{Point: geo.Point(lat, lon), Set: true}
	return nil
}

// Request builds the find-path body, or ErrIncompleteRequest.
func (p *Picker) Request() (model.FindPathRequest, error) {
	if !p.start.Set || !p.end.Set || p.algorithm == "" {
		return model.FindPathRequest{}, ErrIncompleteRequest
	}
	s, e := p.start.Point, p.end.Point
	if !geo.ValidLatLng(s.Lat(), s.Lon()) || !geo.ValidLatLng(e.Lat(), e.Lon()) {
		return model.FindPathRequest{}, ErrIncompleteRequest
	}
	return model.FindPathRequest{
		StartLat:  s.Lat(),
		StartLon:  s.Lon(),
		EndLat:    e.Lat(),
		EndLon:    e.Lon(),
		Algorithm: p.algorithm,
	}, nil
}

// Show replaces the displayed path with res. A result with no coordinates
// is rejected and the previous path stays.
func (p *Picker) Show(res *model.PathResult) (*Drawing, error) {
	d, err := Draw(res)
	if err != nil {
		return nil, err
	}
	p.drawing = d
	return d, nil
}

// ClearPath removes the displayed path.
func (p *Picker) ClearPath() { p.drawing = nil }

// Draw converts a path result into a line with start and end markers and
// padded bounds.
func Draw(res *model.PathResult) (*Drawing, error) {
	if res == nil || len(res.PathCoordinates) == 0 {
		return nil, errors.New("path result has no coordinates")
	}
	line := make(orb.LineString, len(res.PathCoordinates))
	for i, pt := range res.PathCoordinates {
		if !geo.ValidLatLng(pt.Lat, pt.Lon) {
			return nil, fmt.Errorf("path point %d is not a valid coordinate", i)
		}
		line[i] = geo.Point(pt.Lat, pt.Lon)
	}

	first := res.PathCoordinates[0]
	last := res.PathCoordinates[len(res.PathCoordinates)-1]
	return &Drawing{
		Line:   line,
		Start:  Marker{Point: line[0], NodeID: first.NodeID, Start: true, Label: fmt.Sprintf("Node %d (start)", first.NodeID)},
		End:    Marker{Point: line[len(line)-1], NodeID: last.NodeID, Label: fmt.Sprintf("Node %d (end)", last.NodeID)},
		Bounds: geo.PadBound(line.Bound(), 0.1, 50),
		Result: *res,
	}, nil
}

// Summary is the formatted result panel.
type Summary struct {
	TotalDistance string
	GraphDistance string
	StartOffset   string
	EndOffset     string
	NumNodes      int
	PathString    string
}

// Summarize formats distances in meters with two decimals.
func Summarize(res model.PathResult) Summary {
	m := func(v float64) string { return fmt.Sprintf("%.2f m", v) }
	return Summary{
		TotalDistance: m(res.TotalDistance),
		GraphDistance: m(res.GraphDistance),
		StartOffset:   m(res.StartOffset),
		EndOffset:     m(res.EndOffset),
		NumNodes:      res.NumNodes,
		PathString:    res.PathString,
	}
}

// SnappedExactly reports whether both endpoints landed on graph nodes: zero
// offsets and a total equal to the graph distance.
func SnappedExactly(res model.PathResult) bool {
	return res.StartOffset == 0 && res.EndOffset == 0 &&
		math.Abs(res.TotalDistance-res.GraphDistance) < 1e-9
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
