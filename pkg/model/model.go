package model

import (
	"encoding/json"
	"fmt"
)

// ConstraintType is the kind of administrator rule bound to an edge.
type ConstraintType string

const (
	ConstraintBlock   ConstraintType = "block"
	ConstraintPenalty ConstraintType = "penalty"
	ConstraintOneway  ConstraintType = "oneway"
)

// Oneway constraint values.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"
	DirectionBoth     = "both"
)

// Node is a graph vertex as served by GET /api/nodes.
type Node struct {
	ID        int64   `json:"node_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Edge is a road segment as served by GET /api/edges.
type Edge struct {
	ID       int64   `json:"edge_id"`
	FromNode int64   `json:"from_node"`
	ToNode   int64   `json:"to_node"`
	Distance float64 `json:"distance"` // meters
	IsOneway Flag    `json:"is_oneway"`
}

// Constraint is an administrator-imposed rule on one edge.
type Constraint struct {
	EdgeID      int64          `json:"edge_id"`
	Type        ConstraintType `json:"constraint_type"`
	Value       string         `json:"value"`
	Description string         `json:"description"`
}

// Flag decodes the backend's 0/1 integers as well as JSON booleans.
// It always encodes as 0/1 so snapshots round-trip unchanged.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("is_oneway: unsupported value %s", data)
		}
		*f = n != 0
	}
	return nil
}

// PathPoint is one vertex of a computed path.
type PathPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	NodeID int64   `json:"node_id"`
}

// PathResult is the JSON response for a successful POST /api/find-path.
type PathResult struct {
	Path            []int64     `json:"path,omitempty"`
	PathCoordinates []PathPoint `json:"path_coordinates"`
	PathString      string      `json:"path_string"`
	TotalDistance   float64     `json:"total_distance"`
	GraphDistance   float64     `json:"graph_distance"`
	StartOffset     float64     `json:"start_offset"`
	EndOffset       float64     `json:"end_offset"`
	NumNodes        int         `json:"num_nodes"`
}

// PolygonRequest is the JSON body for POST /api/edges-in-polygon.
// Vertices are [lat, lon] pairs.
type PolygonRequest struct {
	Polygon [][2]float64 `json:"polygon"`
}

// CircleRequest is the JSON body for POST /api/edges-in-circle.
type CircleRequest struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Radius    float64 `json:"radius"` // meters
}

// EdgesResponse is the JSON response for both spatial queries.
type EdgesResponse struct {
	Edges []Edge `json:"edges"`
}

// AddConstraintsRequest is the JSON body for POST /api/add-constraints.
type AddConstraintsRequest struct {
	EdgeIDs     []int64        `json:"edge_ids"`
	Type        ConstraintType `json:"constraint_type"`
	Value       string         `json:"value"`
	Description string         `json:"description"`
}

// FindPathRequest is the JSON body for POST /api/find-path.
type FindPathRequest struct {
	StartLat  float64 `json:"start_lat"`
	StartLon  float64 `json:"start_lon"`
	EndLat    float64 `json:"end_lat"`
	EndLon    float64 `json:"end_lon"`
	Algorithm string  `json:"algorithm"`
}

// NearestRequest is the JSON body for POST /api/find-nearest.
type NearestRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearestResponse is the JSON response for POST /api/find-nearest.
type NearestResponse struct {
	NodeID   int64   `json:"node_id"`
	Distance float64 `json:"distance"`
}

// ErrorResponse is the JSON body the backend may attach to a non-2xx response.
type ErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error"`
}

// Snapshot is one wholesale fetch of the graph and its constraints.
type Snapshot struct {
	Nodes       []Node
	Edges       []Edge
	Constraints []Constraint
}
