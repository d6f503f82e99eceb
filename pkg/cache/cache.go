// Package cache holds the last-fetched snapshot of the road network and its
// constraints.
//
// Snapshots are replaced wholesale; nothing is patched in place. The cache
// keeps a content fingerprint of the constraint list so that pollers can
// tell a changed payload from an identical one regardless of identity.
package cache

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"map_console/pkg/geo"
	"map_console/pkg/model"
)

// Cache is owned by a single view goroutine and is not safe for concurrent
// use.
type Cache struct {
	nodes       []model.Node
	edges       []model.Edge
	constraints []model.Constraint

	nodeByID       map[int64]int
	edgeByID       map[int64]int
	constraintByID map[int64]int
	conflicts      []int64

	fingerprint []byte
	edgeIndex   rtree.RTreeG[int64]
	bounds      orb.Bound
	loaded      bool
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Loaded reports whether a snapshot has been stored.
func (c *Cache) Loaded() bool {
	return c.loaded
}

// Replace stores a full snapshot and rebuilds every index.
func (c *Cache) Replace(s model.Snapshot) {
	c.nodes = s.Nodes
	c.edges = s.Edges
	c.nodeByID = make(map[int64]int, len(s.Nodes))
	for i, n := range s.Nodes {
		c.nodeByID[n.ID] = i
	}
	c.edgeByID = make(map[int64]int, len(s.Edges))
	for i, e := range s.Edges {
		c.edgeByID[e.ID] = i
	}
	c.rebuildEdgeIndex()
	c.setConstraints(s.Constraints)
	c.loaded = true
}

// SetConstraints replaces the constraint list if its content differs from
// the cached one and reports whether it did.
func (c *Cache) SetConstraints(cs []model.Constraint) bool {
	if bytes.Equal(Fingerprint(cs), c.fingerprint) {
		return false
	}
	c.setConstraints(cs)
	return true
}

func (c *Cache) setConstraints(cs []model.Constraint) {
	c.constraints = cs
	c.fingerprint = Fingerprint(cs)
	c.constraintByID = make(map[int64]int, len(cs))
	c.conflicts = nil
	for i, con := range cs {
		if _, dup := c.constraintByID[con.EdgeID]; dup {
			c.conflicts = append(c.conflicts, con.EdgeID)
			continue
		}
		c.constraintByID[con.EdgeID] = i
	}
}

// Fingerprint returns the canonical serialization of a constraint list.
// Order is significant, as it is in the backend payload.
func Fingerprint(cs []model.Constraint) []byte {
	if cs == nil {
		cs = []model.Constraint{}
	}
	data, err := json.Marshal(cs)
	if err != nil {
		// Constraint has only string and integer fields.
		panic(err)
	}
	return data
}

// Nodes returns the cached nodes. Callers must not modify the slice.
func (c *Cache) Nodes() []model.Node { return c.nodes }

// Edges returns the cached edges. Callers must not modify the slice.
func (c *Cache) Edges() []model.Edge { return c.edges }

// Constraints returns the cached constraints. Callers must not modify the slice.
func (c *Cache) Constraints() []model.Constraint { return c.constraints }

// Node looks up a node by id.
func (c *Cache) Node(id int64) (model.Node, bool) {
	i, ok := c.nodeByID[id]
	if !ok {
		return model.Node{}, false
	}
	return c.nodes[i], true
}

// Edge looks up an edge by id.
func (c *Cache) Edge(id int64) (model.Edge, bool) {
	i, ok := c.edgeByID[id]
	if !ok {
		return model.Edge{}, false
	}
	return c.edges[i], true
}

// Constraint returns the constraint bound to an edge, or nil. When the
// backend sent several for one edge the first in payload order is returned
// and the edge is listed by Conflicts.
func (c *Cache) Constraint(edgeID int64) *model.Constraint {
	i, ok := c.constraintByID[edgeID]
	if !ok {
		return nil
	}
	con := c.constraints[i]
	return &con
}

// Conflicts returns edge ids that carry more than one constraint, sorted.
func (c *Cache) Conflicts() []int64 {
	if len(c.conflicts) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(c.conflicts))
	var out []int64
	for _, id := range c.conflicts {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Endpoints returns the coordinates of both ends of an edge. ok is false
// when either node is unknown; such edges are not drawn.
func (c *Cache) Endpoints(e model.Edge) (from, to model.Node, ok bool) {
	from, okFrom := c.Node(e.FromNode)
	to, okTo := c.Node(e.ToNode)
	return from, to, okFrom && okTo
}

// Bounds returns the bounding box of all nodes.
func (c *Cache) Bounds() orb.Bound {
	return c.bounds
}

func (c *Cache) rebuildEdgeIndex() {
	c.edgeIndex = rtree.RTreeG[int64]{}
	c.bounds = orb.Bound{}
	for i, n := range c.nodes {
		p := geo.Point(n.Latitude, n.Longitude)
		if i == 0 {
			c.bounds = p.Bound()
		} else {
			c.bounds = c.bounds.Extend(p)
		}
	}
	for _, e := range c.edges {
		from, to, ok := c.Endpoints(e)
		if !ok {
			continue
		}
		minPt := [2]float64{math.Min(from.Longitude, to.Longitude), math.Min(from.Latitude, to.Latitude)}
		maxPt := [2]float64{math.Max(from.Longitude, to.Longitude), math.Max(from.Latitude, to.Latitude)}
		c.edgeIndex.Insert(minPt, maxPt, e.ID)
	}
}

// EdgeAt returns the edge nearest to (lat, lon) within tolerance meters.
// It is used to turn a map click into an edge pick.
func (c *Cache) EdgeAt(lat, lon, tolerance float64) (model.Edge, bool) {
	dLat, dLon := geo.MetersToDegrees(lat, tolerance)
	minPt := [2]float64{lon - dLon, lat - dLat}
	maxPt := [2]float64{lon + dLon, lat + dLat}

	best := math.Inf(1)
	var bestID int64
	found := false
	c.edgeIndex.Search(minPt, maxPt, func(_, _ [2]float64, id int64) bool {
		e, ok := c.Edge(id)
		if !ok {
			return true
		}
		from, to, ok := c.Endpoints(e)
		if !ok {
			return true
		}
		d, _ := geo.PointToSegmentDist(lat, lon, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
		if d <= tolerance && (d < best || (d == best && id < bestID)) {
			best = d
			bestID = id
			found = true
		}
		return true
	})
	if !found {
		return model.Edge{}, false
	}
	return c.Edge(bestID)
}
