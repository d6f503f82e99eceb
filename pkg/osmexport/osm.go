// Package osmexport writes the cached network, with constraints folded
// into tags, as OSM XML or GeoJSON, and reads such OSM files back.
package osmexport

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"map_console/pkg/cache"
	"map_console/pkg/model"
	"map_console/pkg/style"
)

// Tag keys carrying console state that OSM has no standard tag for.
const (
	TagPrefix     = "mapconsole:"
	tagConstraint = TagPrefix + "constraint"
	tagValue      = TagPrefix + "value"
	tagStyle      = TagPrefix + "style"
	tagIntrinsic  = TagPrefix + "intrinsic_oneway"
	tagDistance   = TagPrefix + "distance"
)

const generator = "mapconsole"

// Build converts the cache into an OSM document: one node per graph node
// and one two-node way per edge, sharing the backend ids.
func Build(c *cache.Cache, r *style.Resolver) *osm.OSM {
	o := &osm.OSM{Version: "0.6", Generator: generator}

	for _, n := range c.Nodes() {
		o.Nodes = append(o.Nodes, &osm.Node{
			ID:      osm.NodeID(n.ID),
			Lat:     n.Latitude,
			Lon:     n.Longitude,
			Visible: true,
		})
	}

	for _, e := range c.Edges() {
		if _, _, ok := c.Endpoints(e); !ok {
			continue
		}
		o.Ways = append(o.Ways, &osm.Way{
			ID:      osm.WayID(e.ID),
			Visible: true,
			Nodes:   osm.WayNodes{{ID: osm.NodeID(e.FromNode)}, {ID: osm.NodeID(e.ToNode)}},
			Tags:    EdgeTags(e, c.Constraint(e.ID), r),
		})
	}
	return o
}

// EdgeTags returns the OSM tags of an edge. The oneway tag reflects the
// effective direction after a oneway constraint; a block adds access=no.
func EdgeTags(e model.Edge, con *model.Constraint, r *style.Resolver) osm.Tags {
	st := r.Resolve(e, con, false)
	tags := osm.Tags{
		{Key: "highway", Value: "road"},
		{Key: "oneway", Value: onewayValue(e, con)},
		{Key: "colour", Value: st.Color},
		{Key: tagStyle, Value: st.Kind.String()},
		{Key: tagIntrinsic, Value: yesNo(bool(e.IsOneway))},
		{Key: tagDistance, Value: strconv.FormatFloat(e.Distance, 'f', -1, 64)},
	}
	if con == nil {
		return tags
	}

	tags = append(tags,
		osm.Tag{Key: tagConstraint, Value: string(con.Type)},
		osm.Tag{Key: tagValue, Value: con.Value},
	)
	if con.Type == model.ConstraintBlock {
		tags = append(tags, osm.Tag{Key: "access", Value: "no"})
	}
	if con.Description != "" {
		tags = append(tags, osm.Tag{Key: "note", Value: con.Description})
	}
	return tags
}

func onewayValue(e model.Edge, con *model.Constraint) string {
	if con != nil && con.Type == model.ConstraintOneway {
		switch con.Value {
		case model.DirectionBackward:
			return "-1"
		case model.DirectionBoth:
			return "no"
		default:
			return "yes"
		}
	}
	return yesNo(bool(e.IsOneway))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// DirectionFlags reads the travel directions permitted by a way's oneway
// tag. Ways without one are two-way.
func DirectionFlags(tags osm.Tags) (forward, backward bool) {
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		return true, false
	case "-1", "reverse":
		return false, true
	case "reversible":
		return false, false
	}
	return true, true
}

// WriteOSM encodes the network as OSM XML.
func WriteOSM(w io.Writer, c *cache.Cache, r *style.Resolver) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(Build(c, r)); err != nil {
		return fmt.Errorf("encode osm: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadOSM decodes an OSM XML file written by WriteOSM back into a
// snapshot. Ways that are not two-node segments are skipped. For foreign
// files without console tags, a way is intrinsically oneway when its
// oneway tag only permits one direction.
func ReadOSM(ctx context.Context, r io.Reader) (model.Snapshot, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	var snap model.Snapshot
	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			snap.Nodes = append(snap.Nodes, model.Node{
				ID:        int64(obj.ID),
				Latitude:  obj.Lat,
				Longitude: obj.Lon,
			})
		case *osm.Way:
			if len(obj.Nodes) != 2 {
				continue
			}
			e, con := wayEdge(obj)
			snap.Edges = append(snap.Edges, e)
			if con != nil {
				snap.Constraints = append(snap.Constraints, *con)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("read osm: %w", err)
	}
	return snap, nil
}

// ErrMismatch is returned by Verify when an export differs from the cache.
var ErrMismatch = errors.New("export does not match the network")

// Verify reads an export back and checks that it holds every drawable
// edge of c with the same intrinsic direction and constraint.
func Verify(ctx context.Context, r io.Reader, c *cache.Cache) error {
	snap, err := ReadOSM(ctx, r)
	if err != nil {
		return err
	}

	want := 0
	for _, e := range c.Edges() {
		if _, _, ok := c.Endpoints(e); ok {
			want++
		}
	}
	if len(snap.Edges) != want {
		return fmt.Errorf("%w: %d edges, want %d", ErrMismatch, len(snap.Edges), want)
	}

	got := make(map[int64]model.Constraint, len(snap.Constraints))
	for _, con := range snap.Constraints {
		got[con.EdgeID] = con
	}
	for _, e := range snap.Edges {
		orig, ok := c.Edge(e.ID)
		if !ok {
			return fmt.Errorf("%w: edge %d is not in the network", ErrMismatch, e.ID)
		}
		if orig.IsOneway != e.IsOneway {
			return fmt.Errorf("%w: edge %d oneway = %v, want %v", ErrMismatch, e.ID, e.IsOneway, orig.IsOneway)
		}
		con, exported := got[e.ID]
		cached := c.Constraint(e.ID)
		switch {
		case cached == nil && exported:
			return fmt.Errorf("%w: edge %d has an unexpected %s constraint", ErrMismatch, e.ID, con.Type)
		case cached != nil && !exported:
			return fmt.Errorf("%w: edge %d lost its %s constraint", ErrMismatch, e.ID, cached.Type)
		case cached != nil && (con.Type != cached.Type || con.Value != cached.Value || con.Description != cached.Description):
			return fmt.Errorf("%w: edge %d constraint = %+v, want %+v", ErrMismatch, e.ID, con, *cached)
		}
	}
	return nil
}

func wayEdge(w *osm.Way) (model.Edge, *model.Constraint) {
	e := model.Edge{
		ID:       int64(w.ID),
		FromNode: int64(w.Nodes[0].ID),
		ToNode:   int64(w.Nodes[1].ID),
	}
	e.Distance, _ = strconv.ParseFloat(w.Tags.Find(tagDistance), 64)

	if v := w.Tags.Find(tagIntrinsic); v != "" {
		e.IsOneway = v == "yes"
	} else {
		fwd, bwd := DirectionFlags(w.Tags)
		e.IsOneway = fwd != bwd
	}

	typ := w.Tags.Find(tagConstraint)
	if typ == "" {
		return e, nil
	}
	return e, &model.Constraint{
		EdgeID:      e.ID,
		Type:        model.ConstraintType(typ),
		Value:       w.Tags.Find(tagValue),
		Description: w.Tags.Find("note"),
	}
}
