package tui

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestViewportProjectRoundTrip(t *testing.T) {
	vp := Viewport{Center: orb.Point{105.830595, 20.962223}, Zoom: 17, Width: 80, Height: 24}

	col, row := vp.Project(vp.Center)
	if col != 40 || row != 12 {
		t.Fatalf("center projects to (%d, %d), want (40, 12)", col, row)
	}

	p := orb.Point{105.8290, 20.9630}
	col, row = vp.Project(p)
	back := vp.Unproject(col, row)
	if math.Abs(back.Lon()-p.Lon()) > vp.degPerCol() || math.Abs(back.Lat()-p.Lat()) > vp.degPerRow() {
		t.Errorf("unproject(%d, %d) = %v, more than a cell from %v", col, row, back, p)
	}
}

func TestViewportFit(t *testing.T) {
	b := orb.Bound{Min: orb.Point{105.8290, 20.9615}, Max: orb.Point{105.8320, 20.9630}}
	vp := Viewport{Zoom: 3, Width: 80, Height: 24}.Fit(b)

	for _, p := range []orb.Point{b.Min, b.Max} {
		col, row := vp.Project(p)
		if col < 0 || col >= vp.Width || row < 0 || row >= vp.Height {
			t.Errorf("%v projects outside the viewport at (%d, %d)", p, col, row)
		}
	}
	if deeper := vp.ZoomBy(1).Fit(b); deeper.Zoom != vp.Zoom {
		t.Errorf("fit is not stable: %d then %d", vp.Zoom, deeper.Zoom)
	}
	if got := (Viewport{Zoom: 9, Width: 10, Height: 10}).Fit(orb.Bound{}); got.Zoom != 9 {
		t.Errorf("empty bound changed zoom to %d", got.Zoom)
	}
}

func TestZoomLimits(t *testing.T) {
	vp := Viewport{Zoom: maxZoom}
	if got := vp.ZoomBy(3).Zoom; got != maxZoom {
		t.Errorf("zoom = %d, want %d", got, maxZoom)
	}
	vp.Zoom = minZoom
	if got := vp.ZoomBy(-1).Zoom; got != minZoom {
		t.Errorf("zoom = %d, want %d", got, minZoom)
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(6, 3)
	c.Line(0, 1, 4, 1, "", false)
	for x := 0; x <= 4; x++ {
		if c.At(x, 1) != '─' {
			t.Errorf("cell (%d, 1) = %q, want '─'", x, c.At(x, 1))
		}
	}
	if c.At(5, 1) != ' ' {
		t.Error("line drawn past its end")
	}

	c = NewCanvas(3, 3)
	c.Line(0, 0, 0, 2, "", false)
	if c.At(0, 2) != '│' {
		t.Errorf("vertical end = %q", c.At(0, 2))
	}

	c.Line(-5, -5, 10, 10, "#FFFFFF", false)
	if c.At(2, 2) == ' ' {
		t.Error("clipped diagonal not drawn inside the canvas")
	}
}

func TestLineGlyph(t *testing.T) {
	tests := []struct {
		dx, dy int
		want   rune
	}{
		{5, 0, '─'},
		{0, -3, '│'},
		{4, 2, '╲'},
		{-4, -2, '╲'},
		{4, -2, '╱'},
		{10, 1, '─'},
		{1, 10, '│'},
	}
	for _, tt := range tests {
		if got := lineGlyph(tt.dx, tt.dy); got != tt.want {
			t.Errorf("lineGlyph(%d, %d) = %q, want %q", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(3, 2)
	c.Set(1, 0, 'x', "#DC2626", true)
	out := c.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "x") {
		t.Errorf("first line %q lacks the glyph", lines[0])
	}
}

func TestTermColor(t *testing.T) {
	if got := termColor("#DC2626FF"); got != "#DC2626" {
		t.Errorf("termColor = %q, want #DC2626", got)
	}
	if got := termColor("205"); got != "205" {
		t.Errorf("termColor = %q, want 205", got)
	}
}
