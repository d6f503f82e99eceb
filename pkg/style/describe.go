package style

import (
	"fmt"

	"map_console/pkg/model"
)

// DirectionText returns the human wording of a oneway constraint value.
func DirectionText(value string) string {
	switch value {
	case model.DirectionBoth:
		return "two-way"
	case model.DirectionForward:
		return "one-way forward"
	case model.DirectionBackward:
		return "one-way reverse"
	}
	return ""
}

// Describe returns the popup lines shown when an edge is inspected.
func Describe(edge model.Edge, c *model.Constraint) []string {
	kind := "two-way"
	if edge.IsOneway {
		kind = "one-way"
	}
	lines := []string{
		fmt.Sprintf("Edge %d", edge.ID),
		Label(edge, c),
		fmt.Sprintf("Distance: %.1fm", edge.Distance),
		"Type: " + kind,
	}
	if c == nil {
		return lines
	}

	constraint := "Constraint: " + string(c.Type)
	if c.Type == model.ConstraintOneway {
		if txt := DirectionText(c.Value); txt != "" {
			constraint += " (" + txt + ")"
		}
	}
	if c.Type == model.ConstraintPenalty && c.Value != "" {
		constraint += " x" + c.Value
	}
	lines = append(lines, constraint)
	if c.Description != "" {
		lines = append(lines, c.Description)
	}
	return lines
}
