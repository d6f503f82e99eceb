package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"map_console/internal/fakebackend"
	"map_console/pkg/model"
)

func newTestClient(t *testing.T) (*Client, *fakebackend.Backend) {
	t.Helper()
	nodes, edges := fakebackend.SampleGraph()
	b := fakebackend.New(t, nodes, edges)
	return New(b.URL(), 5*time.Second), b
}

func TestSnapshot(t *testing.T) {
	c, b := newTestClient(t)
	b.SetConstraints([]model.Constraint{{EdgeID: 10, Type: model.ConstraintBlock, Value: "1.0"}})

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Nodes) != 5 || len(snap.Edges) != 5 || len(snap.Constraints) != 1 {
		t.Fatalf("snapshot sizes = %d/%d/%d, want 5/5/1", len(snap.Nodes), len(snap.Edges), len(snap.Constraints))
	}
	if !snap.Edges[0].IsOneway {
		t.Error("edge 10 should decode as oneway")
	}
}

func TestSnapshotFailsWhole(t *testing.T) {
	c, b := newTestClient(t)
	b.SetFail("constraints", http.StatusInternalServerError)

	snap, err := c.Snapshot(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if snap.Nodes != nil || snap.Edges != nil {
		t.Error("partial snapshot returned on failure")
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("err = %v, want HTTP 500 StatusError", err)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	c, b := newTestClient(t)
	b.SetFail("add-constraints", http.StatusBadRequest)

	err := c.AddConstraints(context.Background(), model.AddConstraintsRequest{EdgeIDs: []int64{1}, Type: model.ConstraintBlock})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusBadRequest || se.Message != "add-constraints failed" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestAddRemoveClear(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()

	req := model.AddConstraintsRequest{EdgeIDs: []int64{10, 11}, Type: model.ConstraintPenalty, Value: "2.5", Description: "traffic"}
	if err := c.AddConstraints(ctx, req); err != nil {
		t.Fatalf("AddConstraints: %v", err)
	}

	var sent model.AddConstraintsRequest
	if err := json.Unmarshal(b.LastBody("add-constraints"), &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if len(sent.EdgeIDs) != 2 || sent.Type != model.ConstraintPenalty || sent.Value != "2.5" {
		t.Errorf("sent = %+v", sent)
	}

	if err := c.RemoveConstraint(ctx, 10); err != nil {
		t.Fatalf("RemoveConstraint: %v", err)
	}
	if err := c.RemoveConstraint(ctx, 10); !IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("removing twice: err = %v, want HTTP 500", err)
	}

	if err := c.ClearConstraints(ctx); err != nil {
		t.Fatalf("ClearConstraints: %v", err)
	}
	cs, err := c.Constraints(ctx)
	if err != nil {
		t.Fatalf("Constraints: %v", err)
	}
	if len(cs) != 0 {
		t.Errorf("constraints after clear = %v", cs)
	}
}

func TestSpatialQueries(t *testing.T) {
	c, b := newTestClient(t)
	b.PolygonEdges = []int64{10, 12}
	b.CircleEdges = []int64{14}
	ctx := context.Background()

	poly, err := c.EdgesInPolygon(ctx, [][2]float64{{20.96, 105.82}, {20.97, 105.82}, {20.97, 105.84}})
	if err != nil {
		t.Fatalf("EdgesInPolygon: %v", err)
	}
	if len(poly) != 2 || poly[0].ID != 10 || poly[1].ID != 12 {
		t.Errorf("polygon edges = %+v", poly)
	}

	var sent model.PolygonRequest
	json.Unmarshal(b.LastBody("edges-in-polygon"), &sent)
	if len(sent.Polygon) != 3 || sent.Polygon[0] != [2]float64{20.96, 105.82} {
		t.Errorf("sent polygon = %v", sent.Polygon)
	}

	circ, err := c.EdgesInCircle(ctx, 20.962, 105.83, 250)
	if err != nil {
		t.Fatalf("EdgesInCircle: %v", err)
	}
	if len(circ) != 1 || circ[0].ID != 14 {
		t.Errorf("circle edges = %+v", circ)
	}
}

func TestFindPath(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()
	req := model.FindPathRequest{StartLat: 20.963, StartLon: 105.829, EndLat: 20.9615, EndLon: 105.832, Algorithm: "dijkstra"}

	if _, err := c.FindPath(ctx, req); !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("no path: err = %v, want HTTP 404", err)
	}

	b.Path = &model.PathResult{
		PathCoordinates: []model.PathPoint{{Lat: 20.963, Lon: 105.829, NodeID: 1}, {Lat: 20.9615, Lon: 105.829, NodeID: 4}},
		PathString:      "1 → 4",
		TotalDistance:   166.8,
		GraphDistance:   166.8,
		NumNodes:        2,
	}
	res, err := c.FindPath(ctx, req)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if res.NumNodes != 2 || res.PathString != "1 → 4" {
		t.Errorf("result = %+v", res)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.Constraints(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("transport failure reported as StatusError: %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Nodes(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReloadAndNearest(t *testing.T) {
	c, b := newTestClient(t)
	ctx := context.Background()

	if err := c.ReloadGraph(ctx); err != nil {
		t.Fatalf("ReloadGraph: %v", err)
	}
	if got := b.Hits("reload-graph"); got != 1 {
		t.Errorf("reload-graph hits = %d, want 1", got)
	}

	res, err := c.FindNearest(ctx, 20.9631, 105.8291)
	if err != nil {
		t.Fatalf("FindNearest: %v", err)
	}
	if res.NodeID != 1 {
		t.Errorf("nearest node = %d, want 1", res.NodeID)
	}
	var sent model.NearestRequest
	json.Unmarshal(b.LastBody("find-nearest"), &sent)
	if sent.Latitude != 20.9631 || sent.Longitude != 105.8291 {
		t.Errorf("sent = %+v", sent)
	}
}
