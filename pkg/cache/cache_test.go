package cache

import (
	"reflect"
	"testing"

	"map_console/internal/fakebackend"
	"map_console/pkg/model"
)

func sampleCache(cs ...model.Constraint) *Cache {
	nodes, edges := fakebackend.SampleGraph()
	c := New()
	c.Replace(model.Snapshot{Nodes: nodes, Edges: edges, Constraints: cs})
	return c
}

func TestReplaceIndexes(t *testing.T) {
	c := sampleCache(model.Constraint{EdgeID: 11, Type: model.ConstraintBlock, Value: "1.0"})

	if !c.Loaded() {
		t.Fatal("Loaded = false after Replace")
	}
	if e, ok := c.Edge(13); !ok || e.FromNode != 5 {
		t.Errorf("Edge(13) = %+v, %v", e, ok)
	}
	if _, ok := c.Edge(99); ok {
		t.Error("Edge(99) should be missing")
	}
	if n, ok := c.Node(3); !ok || n.Longitude != 105.8320 {
		t.Errorf("Node(3) = %+v, %v", n, ok)
	}
	if con := c.Constraint(11); con == nil || con.Type != model.ConstraintBlock {
		t.Errorf("Constraint(11) = %+v", con)
	}
	if con := c.Constraint(10); con != nil {
		t.Errorf("Constraint(10) = %+v, want nil", con)
	}
}

func TestSetConstraintsByContent(t *testing.T) {
	c := sampleCache(model.Constraint{EdgeID: 11, Type: model.ConstraintBlock, Value: "1.0"})

	// Same content in a fresh slice is not a change.
	same := []model.Constraint{{EdgeID: 11, Type: model.ConstraintBlock, Value: "1.0"}}
	if c.SetConstraints(same) {
		t.Error("identical payload reported as changed")
	}

	changed := []model.Constraint{{EdgeID: 11, Type: model.ConstraintBlock, Value: "1.0", Description: "closed"}}
	if !c.SetConstraints(changed) {
		t.Error("description change not detected")
	}
	if got := c.Constraint(11).Description; got != "closed" {
		t.Errorf("Description = %q, want closed", got)
	}

	if !c.SetConstraints(nil) {
		t.Error("clearing constraints not detected")
	}
	// nil and empty serialize the same.
	if c.SetConstraints([]model.Constraint{}) {
		t.Error("empty after nil reported as changed")
	}
}

func TestConflicts(t *testing.T) {
	c := sampleCache(
		model.Constraint{EdgeID: 12, Type: model.ConstraintPenalty, Value: "2"},
		model.Constraint{EdgeID: 12, Type: model.ConstraintBlock, Value: "1.0"},
		model.Constraint{EdgeID: 10, Type: model.ConstraintBlock, Value: "1.0"},
		model.Constraint{EdgeID: 12, Type: model.ConstraintOneway, Value: "both"},
	)

	if got := c.Conflicts(); !reflect.DeepEqual(got, []int64{12}) {
		t.Errorf("Conflicts = %v, want [12]", got)
	}
	// First in payload order wins.
	if got := c.Constraint(12).Type; got != model.ConstraintPenalty {
		t.Errorf("Constraint(12).Type = %v, want penalty", got)
	}
}

func TestEdgeAt(t *testing.T) {
	c := sampleCache()

	// Just below the middle of edge 11 (nodes 2 -> 3 along lat 20.9630).
	e, ok := c.EdgeAt(20.96295, 105.83125, 20)
	if !ok || e.ID != 11 {
		t.Errorf("EdgeAt near e11 = %+v, %v", e, ok)
	}

	// Center of the block is far from every edge.
	if e, ok := c.EdgeAt(20.96225, 105.8305, 20); ok {
		t.Errorf("EdgeAt in the middle = %+v, want none", e)
	}
}

func TestBounds(t *testing.T) {
	c := sampleCache()
	b := c.Bounds()
	if b.Min.Lat() != 20.9615 || b.Max.Lat() != 20.9630 {
		t.Errorf("lat bounds = %v..%v", b.Min.Lat(), b.Max.Lat())
	}
	if b.Min.Lon() != 105.8290 || b.Max.Lon() != 105.8320 {
		t.Errorf("lon bounds = %v..%v", b.Min.Lon(), b.Max.Lon())
	}
}

func TestEndpointsMissingNode(t *testing.T) {
	nodes, edges := fakebackend.SampleGraph()
	edges = append(edges, model.Edge{ID: 99, FromNode: 1, ToNode: 404})
	c := New()
	c.Replace(model.Snapshot{Nodes: nodes, Edges: edges})

	e, _ := c.Edge(99)
	if _, _, ok := c.Endpoints(e); ok {
		t.Error("Endpoints should fail for an unknown node")
	}
}
