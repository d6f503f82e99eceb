// Package style decides how each edge of the road network is displayed.
//
// An edge can be affected by several things at once: the operator's pending
// selection, an administrator constraint, and its intrinsic one-way flag.
// Resolve applies a fixed precedence and returns exactly one color and one
// direction label per edge. It reads nothing but its arguments.
package style

import (
	"fmt"
	"strings"

	"map_console/pkg/model"
)

// Kind identifies which precedence rule produced a style.
type Kind int

const (
	KindNormal Kind = iota
	KindOnewayOriginal
	KindOneway
	KindPenaltyTraffic
	KindPenaltyFlood
	KindBlock
	KindSelected
)

var kindNames = [...]string{
	KindNormal:         "normal",
	KindOnewayOriginal: "oneway_original",
	KindOneway:         "oneway",
	KindPenaltyTraffic: "penalty_traffic",
	KindPenaltyFlood:   "penalty_flood",
	KindBlock:          "block",
	KindSelected:       "selected",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Style is the resolved display of one edge.
type Style struct {
	Kind    Kind
	Color   string
	Label   string
	Weight  int
	Opacity float64
}

// Palette maps every Kind plus the path overlay to a hex color.
type Palette struct {
	Block          string `toml:"block"`
	PenaltyFlood   string `toml:"penalty_flood"`
	PenaltyTraffic string `toml:"penalty_traffic"`
	Oneway         string `toml:"oneway"`
	OnewayOriginal string `toml:"oneway_original"`
	Normal         string `toml:"normal"`
	Selected       string `toml:"selected"`
	Path           string `toml:"path"`
	StartMarker    string `toml:"start_marker"`
	EndMarker      string `toml:"end_marker"`
}

// DefaultPalette returns the stock colors.
func DefaultPalette() Palette {
	return Palette{
		Block:          "#DC2626",
		PenaltyFlood:   "#EA580C",
		PenaltyTraffic: "#F59E0B",
		Oneway:         "#0051FF",
		OnewayOriginal: "#7C3AED",
		Normal:         "#6B7280",
		Selected:       "#FF00C3",
		Path:           "#059669",
		StartMarker:    "#4F46E5",
		EndMarker:      "#DC2626",
	}
}

// Color returns the palette entry for k.
func (p Palette) Color(k Kind) string {
	switch k {
	case KindSelected:
		return p.Selected
	case KindBlock:
		return p.Block
	case KindPenaltyFlood:
		return p.PenaltyFlood
	case KindPenaltyTraffic:
		return p.PenaltyTraffic
	case KindOneway:
		return p.Oneway
	case KindOnewayOriginal:
		return p.OnewayOriginal
	default:
		return p.Normal
	}
}

// withDefaults fills empty entries from DefaultPalette.
func (p Palette) withDefaults() Palette {
	d := DefaultPalette()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.Block, d.Block)
	fill(&p.PenaltyFlood, d.PenaltyFlood)
	fill(&p.PenaltyTraffic, d.PenaltyTraffic)
	fill(&p.Oneway, d.Oneway)
	fill(&p.OnewayOriginal, d.OnewayOriginal)
	fill(&p.Normal, d.Normal)
	fill(&p.Selected, d.Selected)
	fill(&p.Path, d.Path)
	fill(&p.StartMarker, d.StartMarker)
	fill(&p.EndMarker, d.EndMarker)
	return p
}

// DefaultFloodKeywords are matched against penalty descriptions.
var DefaultFloodKeywords = []string{"ngập", "lụt", "flood"}

// Resolver holds the immutable inputs shared by every Resolve call.
type Resolver struct {
	palette  Palette
	keywords []string
}

// NewResolver builds a resolver. Empty palette entries fall back to the
// defaults; a nil keyword list means DefaultFloodKeywords.
func NewResolver(p Palette, floodKeywords []string) *Resolver {
	if floodKeywords == nil {
		floodKeywords = DefaultFloodKeywords
	}
	kw := make([]string, 0, len(floodKeywords))
	for _, k := range floodKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &Resolver{palette: p.withDefaults(), keywords: kw}
}

// Palette returns the resolver's effective palette.
func (r *Resolver) Palette() Palette {
	return r.palette
}

// Resolve returns the display style for edge. c is the constraint bound to
// the edge, or nil. selected must only be true where selection is
// meaningful (the edit mode).
//
// Precedence, first match wins: selected, block, penalty (flood before
// traffic by description keywords), oneway constraint, intrinsic oneway,
// normal.
func (r *Resolver) Resolve(edge model.Edge, c *model.Constraint, selected bool) Style {
	s := Style{
		Kind:    r.kind(edge, c, selected),
		Label:   Label(edge, c),
		Weight:  3,
		Opacity: 0.6,
	}
	if selected {
		s.Weight = 4
		s.Opacity = 0.8
	}
	s.Color = r.palette.Color(s.Kind)
	return s
}

func (r *Resolver) kind(edge model.Edge, c *model.Constraint, selected bool) Kind {
	if selected {
		return KindSelected
	}
	if c != nil {
		switch c.Type {
		case model.ConstraintBlock:
			return KindBlock
		case model.ConstraintPenalty:
			if r.isFlood(c.Description) {
				return KindPenaltyFlood
			}
			return KindPenaltyTraffic
		case model.ConstraintOneway:
			return KindOneway
		}
	}
	if edge.IsOneway {
		return KindOnewayOriginal
	}
	return KindNormal
}

func (r *Resolver) isFlood(description string) bool {
	d := strings.ToLower(description)
	for _, k := range r.keywords {
		if strings.Contains(d, k) {
			return true
		}
	}
	return false
}

// Label returns the direction label of edge under constraint c.
// Only a oneway constraint changes it: "both" gives "from ↔ to",
// "backward" swaps the ends, anything else keeps the original order.
func Label(edge model.Edge, c *model.Constraint) string {
	if c != nil && c.Type == model.ConstraintOneway {
		switch c.Value {
		case model.DirectionBoth:
			return fmt.Sprintf("%d ↔ %d", edge.FromNode, edge.ToNode)
		case model.DirectionBackward:
			return fmt.Sprintf("%d → %d", edge.ToNode, edge.FromNode)
		}
	}
	return fmt.Sprintf("%d → %d", edge.FromNode, edge.ToNode)
}
