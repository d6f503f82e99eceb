package editor

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"map_console/internal/fakebackend"
	"map_console/pkg/cache"
	"map_console/pkg/client"
	"map_console/pkg/model"
	"map_console/pkg/selection"
)

func setup(t *testing.T) (*Editor, *fakebackend.Backend, *cache.Cache) {
	t.Helper()
	nodes, edges := fakebackend.SampleGraph()
	b := fakebackend.New(t, nodes, edges)
	cl := client.New(b.URL(), 5*time.Second)

	c := cache.New()
	snap, err := cl.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}
	c.Replace(snap)
	return New(cl, nil), b, c
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Draft
		wantValue string
		wantErr   bool
	}{
		{"block forces value", Draft{Type: model.ConstraintBlock, Value: "7"}, "1.0", false},
		{"penalty ok", Draft{Type: model.ConstraintPenalty, Value: " 2.5 "}, "2.5", false},
		{"penalty zero", Draft{Type: model.ConstraintPenalty, Value: "0"}, "", true},
		{"penalty text", Draft{Type: model.ConstraintPenalty, Value: "lots"}, "", true},
		{"oneway default", Draft{Type: model.ConstraintOneway}, "forward", false},
		{"oneway backward", Draft{Type: model.ConstraintOneway, Value: "backward"}, "backward", false},
		{"oneway bad", Draft{Type: model.ConstraintOneway, Value: "left"}, "", true},
		{"unknown type", Draft{Type: "detour"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDraft) {
					t.Errorf("err = %v, want ErrInvalidDraft", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", got.Value, tt.wantValue)
			}
		})
	}
}

func TestApplyEmptySelection(t *testing.T) {
	ed, b, c := setup(t)
	err := ed.Apply(context.Background(), Draft{Type: model.ConstraintBlock}, selection.New(), c)
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	if b.Hits("add-constraints") != 0 {
		t.Error("request sent for empty selection")
	}
}

func TestApplyOnewayBothRejectsTwoWayEdges(t *testing.T) {
	ed, b, c := setup(t)
	sel := selection.New()
	// 10 and 13 are oneway, 11 and 14 are not, 99 does not exist.
	sel.UnionWith([]int64{10, 11, 13, 14, 99})
	before := sel.IDs()

	err := ed.Apply(context.Background(), Draft{Type: model.ConstraintOneway, Value: "both"}, sel, c)
	var obe *OnewayBothError
	if !errors.As(err, &obe) {
		t.Fatalf("err = %v, want *OnewayBothError", err)
	}
	if want := []int64{11, 14, 99}; !reflect.DeepEqual(obe.Offending, want) {
		t.Errorf("Offending = %v, want %v", obe.Offending, want)
	}
	if b.Hits("add-constraints") != 0 {
		t.Error("request sent despite validation failure")
	}
	if !reflect.DeepEqual(sel.IDs(), before) {
		t.Errorf("selection changed to %v", sel.IDs())
	}
}

func TestApplyOnewayBothAllOneway(t *testing.T) {
	ed, _, c := setup(t)
	sel := selection.New()
	sel.UnionWith([]int64{10, 13})

	if err := ed.Apply(context.Background(), Draft{Type: model.ConstraintOneway, Value: "both", Description: "festival"}, sel, c); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sel.Len() != 0 {
		t.Errorf("selection not reset: %v", sel.IDs())
	}
	for _, id := range []int64{10, 13} {
		con := c.Constraint(id)
		if con == nil || con.Value != "both" || con.Description != "festival" {
			t.Errorf("Constraint(%d) = %+v", id, con)
		}
	}
}

func TestApplyBackendFailureKeepsState(t *testing.T) {
	ed, b, c := setup(t)
	b.SetFail("add-constraints", http.StatusBadRequest)
	sel := selection.New()
	sel.Add(11)

	err := ed.Apply(context.Background(), Draft{Type: model.ConstraintBlock}, sel, c)
	if !client.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("err = %v, want HTTP 400", err)
	}
	if !sel.Contains(11) {
		t.Error("selection cleared on failure")
	}
	if c.Constraint(11) != nil {
		t.Error("cache changed on failure")
	}
}

func TestRemoveAndClear(t *testing.T) {
	ed, b, c := setup(t)
	b.SetConstraints([]model.Constraint{
		{EdgeID: 11, Type: model.ConstraintBlock, Value: "1.0"},
		{EdgeID: 12, Type: model.ConstraintPenalty, Value: "3"},
	})
	ctx := context.Background()

	if err := ed.Remove(ctx, 11, c); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Constraint(11) != nil || c.Constraint(12) == nil {
		t.Errorf("after Remove: %v", c.Constraints())
	}

	if err := ed.Remove(ctx, 11, c); err == nil {
		t.Error("removing a missing constraint should fail")
	}

	if err := ed.Clear(ctx, c); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(c.Constraints()) != 0 {
		t.Errorf("after Clear: %v", c.Constraints())
	}
}

func TestOnewayBothErrorMessage(t *testing.T) {
	err := &OnewayBothError{Offending: []int64{3, 8}}
	want := `"both" only applies to intrinsically oneway edges; two-way or unknown edges: 3, 8`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidateOnewayBothUsesIntrinsicFlag(t *testing.T) {
	nodes, edges := fakebackend.SampleGraph()
	c := cache.New()
	c.Replace(model.Snapshot{Nodes: nodes, Edges: edges})

	d := Draft{Type: model.ConstraintOneway, Value: "both"}
	if _, err := Validate(d, []int64{10, 13}, c); err != nil {
		t.Errorf("Validate(oneway edges) = %v, want nil", err)
	}

	_, err := Validate(d, []int64{13, 12, 77}, c)
	var obe *OnewayBothError
	if !errors.As(err, &obe) {
		t.Fatalf("err = %v, want *OnewayBothError", err)
	}
	if want := []int64{12, 77}; !reflect.DeepEqual(obe.Offending, want) {
		t.Errorf("Offending = %v, want %v", obe.Offending, want)
	}
}
