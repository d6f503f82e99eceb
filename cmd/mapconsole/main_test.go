package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"map_console/internal/fakebackend"
	"map_console/pkg/model"
	"map_console/pkg/osmexport"
)

func execute(t *testing.T, b *fakebackend.Backend, args ...string) error {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.toml")
	cmd := rootCmd()
	cmd.SetArgs(append([]string{"--config", cfg, "--backend", b.URL(), "--log-level", "error"}, args...))
	return cmd.ExecuteContext(context.Background())
}

func newBackend(t *testing.T) *fakebackend.Backend {
	nodes, edges := fakebackend.SampleGraph()
	return fakebackend.New(t, nodes, edges)
}

func TestConstraintsAddRemoveClear(t *testing.T) {
	b := newBackend(t)

	if err := execute(t, b, "constraints", "add", "--edges", "11,14", "--type", "penalty", "--value", "2", "--description", "ngập"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := len(b.Constraints); got != 2 {
		t.Fatalf("constraints after add = %d, want 2", got)
	}

	if err := execute(t, b, "constraints", "remove", "11"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := len(b.Constraints); got != 1 {
		t.Fatalf("constraints after remove = %d, want 1", got)
	}

	if err := execute(t, b, "constraints", "clear"); err == nil {
		t.Fatal("clear without --yes succeeded")
	}
	if err := execute(t, b, "constraints", "clear", "--yes"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := len(b.Constraints); got != 0 {
		t.Errorf("constraints after clear = %d, want 0", got)
	}
}

func TestConstraintsAddOnewayBothRejected(t *testing.T) {
	b := newBackend(t)

	err := execute(t, b, "constraints", "add", "--edges", "11", "--type", "oneway", "--value", "both")
	if err == nil {
		t.Fatal("oneway both on a two-way edge succeeded")
	}
	if got := b.Hits("add-constraints"); got != 0 {
		t.Errorf("add-constraints hits = %d, want 0", got)
	}
}

func TestSelectCircleApply(t *testing.T) {
	b := newBackend(t)
	b.CircleEdges = []int64{12, 14}

	err := execute(t, b, "select", "circle", "--center", "20.9620,105.8300", "--radius", "150", "--apply", "block", "--description", "road works")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := len(b.Constraints); got != 2 {
		t.Fatalf("constraints = %d, want 2", got)
	}
	for _, c := range b.Constraints {
		if c.Type != model.ConstraintBlock {
			t.Errorf("edge %d type = %q, want block", c.EdgeID, c.Type)
		}
	}
}

func TestSelectPolygonTooFewPoints(t *testing.T) {
	b := newBackend(t)

	err := execute(t, b, "select", "polygon", "-p", "20.963,105.829", "-p", "20.963,105.832")
	if err == nil {
		t.Fatal("two-vertex polygon succeeded")
	}
	if got := b.Hits("edges-in-polygon"); got != 0 {
		t.Errorf("edges-in-polygon hits = %d, want 0", got)
	}
}

func TestExportOSMRoundTrip(t *testing.T) {
	b := newBackend(t)
	b.Constraints = []model.Constraint{{EdgeID: 12, Type: model.ConstraintBlock, Description: "closed"}}
	out := filepath.Join(t.TempDir(), "network.osm")

	if err := execute(t, b, "export", "-f", "osm", "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	snap, err := osmexport.ReadOSM(context.Background(), f)
	if err != nil {
		t.Fatalf("ReadOSM: %v", err)
	}
	if len(snap.Edges) != 5 {
		t.Errorf("edges = %d, want 5", len(snap.Edges))
	}
	if len(snap.Constraints) != 1 || snap.Constraints[0].EdgeID != 12 {
		t.Errorf("constraints = %+v, want block on 12", snap.Constraints)
	}
}

func TestExportVerify(t *testing.T) {
	b := newBackend(t)
	b.Constraints = []model.Constraint{{EdgeID: 14, Type: model.ConstraintPenalty, Value: "3", Description: "kẹt xe"}}
	out := filepath.Join(t.TempDir(), "network.osm")

	if err := execute(t, b, "export", "-f", "osm", "-o", out, "--verify"); err != nil {
		t.Fatalf("export --verify: %v", err)
	}
	if err := execute(t, b, "export", "-f", "geojson", "--verify"); err == nil {
		t.Error("--verify accepted a GeoJSON export to stdout")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	b := newBackend(t)
	err := execute(t, b, "export", "-f", "kml")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("err = %v, want unknown format", err)
	}
}

func TestPathNotFound(t *testing.T) {
	b := newBackend(t)
	err := execute(t, b, "path", "--from", "20.9630,105.8290", "--to", "20.9615,105.8320")
	if err == nil {
		t.Fatal("path with no route succeeded")
	}
}

func TestParseLatLon(t *testing.T) {
	lat, lon, err := parseLatLon(" 20.5 , 105.25")
	if err != nil || lat != 20.5 || lon != 105.25 {
		t.Errorf("parseLatLon = %v, %v, %v", lat, lon, err)
	}
	if _, _, err := parseLatLon("20.5"); err == nil {
		t.Error("parseLatLon accepted a single number")
	}
}

func TestReloadAndNearest(t *testing.T) {
	b := newBackend(t)

	if err := execute(t, b, "reload"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := b.Hits("reload-graph"); got != 1 {
		t.Errorf("reload-graph hits = %d, want 1", got)
	}
	if got := b.Hits("edges"); got != 1 {
		t.Errorf("edges hits = %d, want 1", got)
	}

	if err := execute(t, b, "nearest", "20.9630,105.8290"); err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if err := execute(t, b, "nearest", "95,105.8290"); err == nil {
		t.Error("nearest accepted latitude 95")
	}
}

func TestConfigInit(t *testing.T) {
	b := newBackend(t)
	path := filepath.Join(t.TempDir(), "mapconsole", "config.toml")
	cmd := rootCmd()
	cmd.SetArgs([]string{"--config", path, "--backend", b.URL(), "config", "init"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	cmd = rootCmd()
	cmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("second init overwrote the file")
	}
}
