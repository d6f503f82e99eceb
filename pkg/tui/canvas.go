package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
)

const (
	minZoom = 1
	maxZoom = 22
	// cellPixels is how many web-map pixels one terminal column covers.
	cellPixels = 4
)

// Viewport maps geographic coordinates onto terminal cells. Rows are
// assumed to be twice as tall as columns are wide.
type Viewport struct {
	Center orb.Point
	Zoom   int
	Width  int
	Height int
}

func (v Viewport) degPerCol() float64 {
	return 360 / (256 * math.Exp2(float64(v.Zoom))) * cellPixels
}

func (v Viewport) degPerRow() float64 {
	return v.degPerCol() * 2 * math.Cos(v.Center.Lat()*math.Pi/180)
}

// Project returns the cell for p. Cells outside the viewport are returned
// as is; callers clip.
func (v Viewport) Project(p orb.Point) (col, row int) {
	col = int(math.Round((p.Lon()-v.Center.Lon())/v.degPerCol())) + v.Width/2
	row = int(math.Round((v.Center.Lat()-p.Lat())/v.degPerRow())) + v.Height/2
	return col, row
}

// Unproject returns the geographic center of a cell.
func (v Viewport) Unproject(col, row int) orb.Point {
	lon := v.Center.Lon() + float64(col-v.Width/2)*v.degPerCol()
	lat := v.Center.Lat() - float64(row-v.Height/2)*v.degPerRow()
	return orb.Point{lon, lat}
}

// Pan moves the center by whole cells.
func (v Viewport) Pan(dCol, dRow int) Viewport {
	v.Center = v.Unproject(v.Width/2+dCol, v.Height/2+dRow)
	return v
}

// ZoomBy changes the zoom level within limits.
func (v Viewport) ZoomBy(d int) Viewport {
	v.Zoom = min(max(v.Zoom+d, minZoom), maxZoom)
	return v
}

// Fit centers on b and picks the deepest zoom that shows all of it.
func (v Viewport) Fit(b orb.Bound) Viewport {
	if b == (orb.Bound{}) {
		return v
	}
	v.Center = b.Center()
	for z := maxZoom; z >= minZoom; z-- {
		v.Zoom = z
		if b.Max.Lon()-b.Min.Lon() <= v.degPerCol()*float64(v.Width-2) &&
			b.Max.Lat()-b.Min.Lat() <= v.degPerRow()*float64(v.Height-2) {
			return v
		}
	}
	return v
}

type cell struct {
	ch    rune
	color string
	bold  bool
}

// Canvas is a grid of colored glyphs.
type Canvas struct {
	w, h  int
	cells []cell
}

// NewCanvas returns a blank canvas.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

// Set draws one glyph; out-of-range cells are ignored.
func (c *Canvas) Set(col, row int, ch rune, color string, bold bool) {
	if col < 0 || row < 0 || col >= c.w || row >= c.h {
		return
	}
	c.cells[row*c.w+col] = cell{ch: ch, color: color, bold: bold}
}

// At returns the glyph at a cell.
func (c *Canvas) At(col, row int) rune {
	if col < 0 || row < 0 || col >= c.w || row >= c.h {
		return 0
	}
	return c.cells[row*c.w+col].ch
}

// Line draws a segment with Bresenham's algorithm, using a glyph that
// follows its slope.
func (c *Canvas) Line(x0, y0, x1, y1 int, color string, bold bool) {
	ch := lineGlyph(x1-x0, y1-y0)
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, ch, color, bold)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func lineGlyph(dx, dy int) rune {
	switch {
	case dy == 0:
		return '─'
	case dx == 0:
		return '│'
	}
	// Rows are twice as tall as columns are wide.
	slope := math.Abs(float64(dy)*2) / math.Abs(float64(dx))
	switch {
	case slope < 0.5:
		return '─'
	case slope > 4:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// Render turns the canvas into styled text, one line per row.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.w : (row+1)*c.w]
		for i := 0; i < len(line); {
			j := i
			var run strings.Builder
			for j < len(line) && line[j].color == line[i].color && line[j].bold == line[i].bold {
				run.WriteRune(line[j].ch)
				j++
			}
			if line[i].color == "" {
				b.WriteString(run.String())
			} else {
				st := lipgloss.NewStyle().Foreground(termColor(line[i].color)).Bold(line[i].bold)
				b.WriteString(st.Render(run.String()))
			}
			i = j
		}
	}
	return b.String()
}

// termColor drops an alpha channel from #RRGGBBAA colors.
func termColor(hex string) lipgloss.Color {
	if len(hex) == 9 && hex[0] == '#' {
		hex = hex[:7]
	}
	return lipgloss.Color(hex)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
