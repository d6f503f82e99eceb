package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"map_console/pkg/geo"
	"map_console/pkg/pathview"
	"map_console/pkg/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#1F2937")).Padding(0, 1)
	modeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#059669"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4F46E5"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("241")).Padding(0, 1)
)

const (
	headerLines = 1
	footerLines = 5
	cursorColor = "#FAFAFA"
)

func (m Model) mapHeight() int {
	return max(m.height-headerLines-footerLines, 5)
}

// View renders the UI.
func (m Model) View() string {
	f := m.session.Frame()

	var b strings.Builder
	b.WriteString(m.header(f))
	b.WriteByte('\n')
	b.WriteString(m.canvas(f).Render())
	b.WriteByte('\n')
	b.WriteString(m.footer(f))
	return b.String()
}

func (m Model) header(f view.Frame) string {
	parts := []string{
		titleStyle.Render("mapconsole"),
		modeStyle.Render(f.Mode.String()),
	}
	if f.Mode == view.ModeEdit {
		parts = append(parts, fmt.Sprintf("selected %d", f.Selected))
	} else {
		p := m.session.Picker()
		parts = append(parts, "algorithm "+p.Algorithm())
		if st := p.State(); st != pathview.Idle {
			parts = append(parts, infoStyle.Render(st.String()))
		}
	}
	cur := m.cursorPoint()
	parts = append(parts, subtleStyle.Render(fmt.Sprintf("%.6f, %.6f  z%d", cur.Lat(), cur.Lon(), m.vp.Zoom)))
	if f.Busy {
		parts = append(parts, m.spinner.View()+" working")
	}
	return strings.Join(parts, "  ")
}

func (m Model) footer(f view.Frame) string {
	var lines []string

	if m.form != nil {
		lines = append(lines, panelStyle.Render(m.form.view()))
	}
	if len(m.popup) > 0 {
		lines = append(lines, strings.Join(m.popup, " · "))
	}
	if f.Path != nil {
		s := pathview.Summarize(f.Path.Result)
		line := fmt.Sprintf("path %s (graph %s, offsets %s / %s) · %d nodes",
			s.TotalDistance, s.GraphDistance, s.StartOffset, s.EndOffset, s.NumNodes)
		if pathview.SnappedExactly(f.Path.Result) {
			line += " · snapped to nodes"
		}
		lines = append(lines, line)
	}
	if f.Status.Text != "" {
		if f.Status.Err {
			lines = append(lines, errorStyle.Render(f.Status.Text))
		} else {
			lines = append(lines, infoStyle.Render(f.Status.Text))
		}
	}

	bindings := m.keys.routeHelp()
	if f.Mode == view.ModeEdit {
		bindings = m.keys.editHelp()
	}
	if m.showHelp {
		lines = append(lines, m.help.FullHelpView([][]key.Binding{bindings, m.keys.navHelp()}))
	} else {
		lines = append(lines, m.help.ShortHelpView(bindings))
	}
	return strings.Join(lines, "\n")
}

// canvas draws the frame: edges in precedence order, then nodes, the
// drawn shape, the path, pick markers and the cursor on top.
func (m Model) canvas(f view.Frame) *Canvas {
	vp := m.vp
	c := NewCanvas(vp.Width, vp.Height)

	for _, e := range f.Edges {
		x0, y0 := vp.Project(e.Line[0])
		x1, y1 := vp.Project(e.Line[1])
		c.Line(x0, y0, x1, y1, e.Style.Color, e.Style.Weight > 3)
	}
	if vp.Zoom >= 16 {
		for _, n := range f.Nodes {
			col, row := vp.Project(n.Point)
			c.Set(col, row, '•', f.Palette.Normal, false)
		}
	}

	drawRing(c, vp, shapeRing(f.Shape), f.Palette.Selected)
	for _, p := range m.draw.verts {
		col, row := vp.Project(p)
		c.Set(col, row, '◆', f.Palette.Selected, true)
	}

	if f.Path != nil {
		for i := 1; i < len(f.Path.Line); i++ {
			x0, y0 := vp.Project(f.Path.Line[i-1])
			x1, y1 := vp.Project(f.Path.Line[i])
			c.Line(x0, y0, x1, y1, f.Palette.Path, true)
		}
		col, row := vp.Project(f.Path.Start.Point)
		c.Set(col, row, 'S', f.Palette.StartMarker, true)
		col, row = vp.Project(f.Path.End.Point)
		c.Set(col, row, 'E', f.Palette.EndMarker, true)
	}
	for _, pk := range f.Picks {
		col, row := vp.Project(pk.Point)
		if pk.Start {
			c.Set(col, row, 's', f.Palette.StartMarker, true)
		} else {
			c.Set(col, row, 'e', f.Palette.EndMarker, true)
		}
	}

	c.Set(m.cursorCol, m.cursorRow, '┼', cursorColor, true)
	return c
}

func shapeRing(sh view.Shape) orb.Ring {
	switch sh.Kind {
	case view.ShapePolygon, view.ShapeRectangle:
		return sh.Ring
	case view.ShapeCircle:
		return circleRing(sh.Circle.Center, sh.Circle.Radius, 32)
	}
	return nil
}

func circleRing(center orb.Point, radius float64, n int) orb.Ring {
	dLat, dLon := geo.MetersToDegrees(center.Lat(), radius)
	ring := make(orb.Ring, n)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = orb.Point{center.Lon() + dLon*math.Cos(a), center.Lat() + dLat*math.Sin(a)}
	}
	return ring
}

func drawRing(c *Canvas, vp Viewport, ring orb.Ring, color string) {
	if len(ring) < 2 {
		return
	}
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		x0, y0 := vp.Project(a)
		x1, y1 := vp.Project(b)
		c.Line(x0, y0, x1, y1, color, false)
	}
}
