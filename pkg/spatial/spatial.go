// Package spatial forwards polygon and circle regions to the backend and
// merges the matching edges into the selection.
package spatial

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"map_console/pkg/geo"
	"map_console/pkg/model"
	"map_console/pkg/selection"
)

// ErrInvalidRegion is returned before any request when a region cannot be
// queried.
var ErrInvalidRegion = errors.New("invalid region")

// Backend is the part of the API client used for region lookups.
type Backend interface {
	EdgesInPolygon(ctx context.Context, polygon [][2]float64) ([]model.Edge, error)
	EdgesInCircle(ctx context.Context, lat, lon, radius float64) ([]model.Edge, error)
}

// Circle is a circular region with a radius in meters.
type Circle struct {
	Center orb.Point
	Radius float64
}

// Bound returns the circle's bounding box.
func (c Circle) Bound() orb.Bound {
	return geo.CircleBound(c.Center, c.Radius)
}

// Client issues region queries.
type Client struct {
	backend Backend
}

// NewClient wraps a backend.
func NewClient(b Backend) *Client {
	return &Client{backend: b}
}

// Rectangle converts two opposite corners into a closed 4-vertex ring.
func Rectangle(a, b orb.Point) orb.Ring {
	bound := orb.MultiPoint{a, b}.Bound()
	return orb.Ring{
		bound.Min,
		{bound.Max.Lon(), bound.Min.Lat()},
		bound.Max,
		{bound.Min.Lon(), bound.Max.Lat()},
	}
}

// ValidatePolygon checks that ring has at least three distinct finite
// vertices. A closing vertex equal to the first is ignored.
func ValidatePolygon(ring orb.Ring) error {
	pts := openRing(ring)
	if len(pts) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidRegion, len(pts))
	}
	for i, p := range pts {
		if !geo.ValidLatLng(p.Lat(), p.Lon()) {
			return fmt.Errorf("%w: vertex %d is not a valid coordinate", ErrInvalidRegion, i)
		}
	}
	return nil
}

// ValidateCircle checks the center and that the radius is positive.
func ValidateCircle(c Circle) error {
	if !geo.ValidLatLng(c.Center.Lat(), c.Center.Lon()) {
		return fmt.Errorf("%w: circle center is not a valid coordinate", ErrInvalidRegion)
	}
	if !geo.Finite(c.Radius) || c.Radius <= 0 {
		return fmt.Errorf("%w: radius must be a positive number of meters", ErrInvalidRegion)
	}
	return nil
}

// Polygon returns the ids of edges the backend reports inside ring.
func (c *Client) Polygon(ctx context.Context, ring orb.Ring) ([]int64, error) {
	if err := ValidatePolygon(ring); err != nil {
		return nil, err
	}
	pts := openRing(ring)
	poly := make([][2]float64, len(pts))
	for i, p := range pts {
		poly[i] = [2]float64{p.Lat(), p.Lon()}
	}
	edges, err := c.backend.EdgesInPolygon(ctx, poly)
	if err != nil {
		return nil, fmt.Errorf("edges in polygon: %w", err)
	}
	return edgeIDs(edges), nil
}

// Circle returns the ids of edges the backend reports inside circle.
func (c *Client) Circle(ctx context.Context, circle Circle) ([]int64, error) {
	if err := ValidateCircle(circle); err != nil {
		return nil, err
	}
	edges, err := c.backend.EdgesInCircle(ctx, circle.Center.Lat(), circle.Center.Lon(), circle.Radius)
	if err != nil {
		return nil, fmt.Errorf("edges in circle: %w", err)
	}
	return edgeIDs(edges), nil
}

// QueryPolygon unions the polygon's edges into sel, so several shapes can
// build one selection. sel is untouched on error.
func (c *Client) QueryPolygon(ctx context.Context, ring orb.Ring, sel *selection.Set) (int, error) {
	ids, err := c.Polygon(ctx, ring)
	if err != nil {
		return 0, err
	}
	return MergePolygon(sel, ids), nil
}

// QueryCircle replaces sel with the circle's edges; only one circle is
// active at a time. sel is untouched on error.
func (c *Client) QueryCircle(ctx context.Context, circle Circle, sel *selection.Set) (int, error) {
	ids, err := c.Circle(ctx, circle)
	if err != nil {
		return 0, err
	}
	MergeCircle(sel, ids)
	return len(ids), nil
}

// MergePolygon applies polygon results to sel and returns how many ids
// were added.
func MergePolygon(sel *selection.Set, ids []int64) int {
	return sel.UnionWith(ids)
}

// MergeCircle applies circle results to sel.
func MergeCircle(sel *selection.Set, ids []int64) {
	sel.Replace(ids)
}

func edgeIDs(edges []model.Edge) []int64 {
	ids := make([]int64, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

func openRing(ring orb.Ring) orb.Ring {
	if len(ring) > 1 && ring[0].Equal(ring[len(ring)-1]) {
		return ring[:len(ring)-1]
	}
	return ring
}
