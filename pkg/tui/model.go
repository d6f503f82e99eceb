// Package tui is the interactive terminal map. It renders a view.Session
// onto a character canvas and turns key presses into session operations.
// Every network call runs as a tea.Cmd and comes back as a message; only
// Update touches the session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"map_console/pkg/config"
	"map_console/pkg/editor"
	"map_console/pkg/geo"
	"map_console/pkg/model"
	"map_console/pkg/poll"
	"map_console/pkg/spatial"
	"map_console/pkg/view"
)

// Options configures the terminal map.
type Options struct {
	Center orb.Point
	Zoom   int

	// SyncMode is config.SyncPoll, config.SyncStream, or empty to disable
	// background sync.
	SyncMode string
	Stream   *poll.Stream

	// StatusTTL is how long after a message the status line is redrawn.
	// Zero means view.DefaultStatusTTL.
	StatusTTL time.Duration

	// ConfigUpdates delivers reloaded configs, e.g. from config.Watch.
	ConfigUpdates <-chan *config.Config

	Logger *slog.Logger
}

type (
	resultMsg   view.Result
	pollTickMsg time.Time
	streamReady struct {
		updates <-chan []model.Constraint
		errs    <-chan error
	}
	streamMsg     []model.Constraint
	streamEndMsg  struct{ err error }
	configMsg     struct{ cfg *config.Config }
	statusTickMsg struct{}
)

type drawState struct {
	kind  view.ShapeKind
	verts orb.Ring
}

// Model is the bubbletea model.
type Model struct {
	ctx     context.Context
	session *view.Session
	keys    KeyMap
	opts    Options
	logger  *slog.Logger

	vp                   Viewport
	cursorCol, cursorRow int
	width, height        int
	fitted               bool

	spinner  spinner.Model
	help     help.Model
	form     *constraintForm
	popup    []string
	draw     drawState
	clearArm bool
	showHelp bool

	stream *streamReady
}

// New creates the model. ctx bounds every request the model issues.
func New(ctx context.Context, s *view.Session, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Zoom == 0 {
		opts.Zoom = 15
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = view.DefaultStatusTTL
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:     ctx,
		session: s,
		keys:    DefaultKeyMap,
		opts:    opts,
		logger:  opts.Logger,
		vp:      Viewport{Center: opts.Center, Zoom: opts.Zoom, Width: 80, Height: 20},
		spinner: sp,
		help:    help.New(),
	}
}

// Session returns the state owned by the model.
func (m Model) Session() *view.Session {
	return m.session
}

// Init loads the network and starts background sync.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if op, err := m.session.Load(); err == nil {
		cmds = append(cmds, m.run(op))
	}
	switch {
	case m.opts.SyncMode == config.SyncStream && m.opts.Stream != nil:
		cmds = append(cmds, m.subscribe())
	case m.opts.SyncMode != "":
		cmds = append(cmds, m.pollTick())
	}
	if m.opts.ConfigUpdates != nil {
		cmds = append(cmds, waitConfig(m.opts.ConfigUpdates))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width, m.vp.Height = msg.Width, m.mapHeight()
		m.cursorCol, m.cursorRow = m.vp.Width/2, m.vp.Height/2
		m.help.Width = msg.Width
		return m, nil

	case resultMsg:
		cmd := m.finish(view.Result(msg))
		return m, cmd

	case pollTickMsg:
		return m, tea.Batch(m.run(m.session.Poll()), m.pollTick())

	case streamReady:
		m.stream = &msg
		return m, m.waitStream()

	case streamMsg:
		m.session.Finish(view.Result{Kind: view.OpPoll, Constraints: msg})
		return m, m.waitStream()

	case streamEndMsg:
		m.stream = nil
		m.logger.Warn("constraint stream ended, falling back to polling", "err", msg.err)
		return m, m.pollTick()

	case configMsg:
		m.session.SetResolver(msg.cfg.Resolver())
		m.session.Info("config reloaded")
		return m, tea.Batch(waitConfig(m.opts.ConfigUpdates), m.statusTick())

	case statusTickMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.session.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.form != nil {
			cmd := m.handleFormKey(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) finish(r view.Result) tea.Cmd {
	err := m.session.Finish(r)
	if err != nil {
		return m.statusTick()
	}
	switch r.Kind {
	case view.OpLoad, view.OpReload:
		if !m.fitted {
			m.vp = m.vp.Fit(m.session.Cache().Bounds())
			m.fitted = true
		}
	case view.OpPath:
		if d := m.session.Picker().Drawing(); d != nil {
			m.vp = m.vp.Fit(d.Bounds)
		}
	case view.OpPoll:
		return nil
	}
	return m.statusTick()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	s := m.session

	if !key.Matches(msg, k.ClearAll) {
		m.clearArm = false
	}

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, k.Cancel):
		m.draw = drawState{}
		m.popup = nil
		s.Picker().Cancel()

	case key.Matches(msg, k.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, k.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, k.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, k.Right):
		m.moveCursor(1, 0)
	case key.Matches(msg, k.PanUp):
		m.vp = m.vp.Pan(0, -max(m.vp.Height/4, 1))
	case key.Matches(msg, k.PanDown):
		m.vp = m.vp.Pan(0, max(m.vp.Height/4, 1))
	case key.Matches(msg, k.PanLeft):
		m.vp = m.vp.Pan(-max(m.vp.Width/4, 1), 0)
	case key.Matches(msg, k.PanRight):
		m.vp = m.vp.Pan(max(m.vp.Width/4, 1), 0)
	case key.Matches(msg, k.ZoomIn):
		m.vp = m.vp.ZoomBy(1)
	case key.Matches(msg, k.ZoomOut):
		m.vp = m.vp.ZoomBy(-1)
	case key.Matches(msg, k.Fit):
		m.vp = m.vp.Fit(s.Cache().Bounds())

	case key.Matches(msg, k.Mode):
		s.ToggleMode()
		m.draw = drawState{}
		m.popup = nil
	case key.Matches(msg, k.Refresh):
		cmd := m.start(s.Load())
		return m, cmd
	case key.Matches(msg, k.Reload):
		cmd := m.start(s.Reload())
		return m, cmd
	case key.Matches(msg, k.Click):
		cmd := m.click()
		return m, cmd

	default:
		if s.Mode() == view.ModeEdit {
			cmd := m.handleEditKey(msg)
			return m, cmd
		}
		cmd := m.handleRouteKey(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	s := m.session
	if s.Busy() {
		return m.busy()
	}
	switch {
	case key.Matches(msg, k.Deselect):
		p := m.cursorPoint()
		s.Deselect(p.Lat(), p.Lon())
	case key.Matches(msg, k.Polygon):
		m.draw = drawState{kind: view.ShapePolygon}
		s.Info("polygon: enter adds a vertex, c closes it")
	case key.Matches(msg, k.Rectangle):
		m.draw = drawState{kind: view.ShapeRectangle}
		s.Info("rectangle: enter at two opposite corners")
	case key.Matches(msg, k.Circle):
		m.draw = drawState{kind: view.ShapeCircle}
		s.Info("circle: enter at the center, then on the rim")
	case key.Matches(msg, k.CloseShape):
		if m.draw.kind == view.ShapePolygon {
			return m.commitShape(view.Shape{Kind: view.ShapePolygon, Ring: m.draw.verts})
		}
	case key.Matches(msg, k.DeleteShape):
		m.draw = drawState{}
		s.DeleteShape()
	case key.Matches(msg, k.Edit):
		if s.Selection().Len() == 0 {
			s.Fail(editor.ErrEmptySelection)
			return m.statusTick()
		}
		m.form = newConstraintForm()
	case key.Matches(msg, k.Remove):
		p := m.cursorPoint()
		e, ok := s.Cache().EdgeAt(p.Lat(), p.Lon(), s.HitTolerance())
		if !ok {
			s.Fail(errors.New("no edge under the cursor"))
			return m.statusTick()
		}
		if s.Cache().Constraint(e.ID) == nil {
			s.Fail(fmt.Errorf("edge %d has no constraint", e.ID))
			return m.statusTick()
		}
		return m.start(s.RemoveConstraint(e.ID))
	case key.Matches(msg, k.ClearAll):
		if !m.clearArm {
			m.clearArm = true
			s.Info("press C again to clear every constraint")
			return nil
		}
		m.clearArm = false
		return m.start(s.ClearConstraints())
	}
	return nil
}

func (m *Model) handleRouteKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	p := m.session.Picker()
	switch {
	case key.Matches(msg, k.FindPath):
		op, err := m.session.FindPath()
		if err != nil {
			return m.statusTick()
		}
		return m.run(op)
	case key.Matches(msg, k.PickStart):
		p.ArmStart()
		m.session.Info("enter sets the start point")
	case key.Matches(msg, k.PickEnd):
		p.ArmEnd()
		m.session.Info("enter sets the end point")
	case key.Matches(msg, k.Algorithm):
		m.session.Info("algorithm: " + p.CycleAlgorithm())
	case key.Matches(msg, k.ClearPath):
		p.ClearPath()
	}
	return nil
}

// handleFormKey routes keys to the open constraint form.
func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.form = nil
		return nil
	case tea.KeyTab:
		m.form.next()
		return nil
	case tea.KeyEnter:
		op, err := m.session.Submit(m.form.draft())
		if err != nil {
			// Validation failures keep the form open; the status says why.
			return m.statusTick()
		}
		m.form = nil
		return m.run(op)
	}
	return m.form.update(msg)
}

// click applies the enter key at the cursor: a shape vertex while
// drawing, otherwise a map click.
func (m *Model) click() tea.Cmd {
	p := m.cursorPoint()
	if m.session.Mode() == view.ModeEdit && m.session.Busy() {
		return m.busy()
	}
	switch m.draw.kind {
	case view.ShapePolygon:
		m.draw.verts = append(m.draw.verts, p)
		return nil
	case view.ShapeRectangle:
		if len(m.draw.verts) == 0 {
			m.draw.verts = orb.Ring{p}
			return nil
		}
		return m.commitShape(view.Shape{Kind: view.ShapeRectangle, Ring: spatial.Rectangle(m.draw.verts[0], p)})
	case view.ShapeCircle:
		if len(m.draw.verts) == 0 {
			m.draw.verts = orb.Ring{p}
			return nil
		}
		c := m.draw.verts[0]
		radius := geo.Haversine(c.Lat(), c.Lon(), p.Lat(), p.Lon())
		return m.commitShape(view.Shape{Kind: view.ShapeCircle, Circle: spatial.Circle{Center: c, Radius: radius}})
	}

	popup, ok := m.session.Click(p.Lat(), p.Lon())
	if ok {
		m.popup = popup.Lines
	} else {
		m.popup = nil
	}
	return nil
}

// busy reports that an edit was ignored because a change is in flight.
func (m *Model) busy() tea.Cmd {
	m.session.Fail(view.ErrBusy)
	return m.statusTick()
}

func (m *Model) commitShape(sh view.Shape) tea.Cmd {
	m.draw = drawState{}
	m.session.SetShape(sh)
	op, err := m.session.QueryShape()
	if err != nil {
		return m.statusTick()
	}
	return m.run(op)
}

func (m *Model) moveCursor(dCol, dRow int) {
	m.cursorCol += dCol
	m.cursorRow += dRow
	if m.cursorCol < 0 || m.cursorCol >= m.vp.Width || m.cursorRow < 0 || m.cursorRow >= m.vp.Height {
		m.vp = m.vp.Pan(dCol, dRow)
		m.cursorCol -= dCol
		m.cursorRow -= dRow
	}
}

func (m Model) cursorPoint() orb.Point {
	return m.vp.Unproject(m.cursorCol, m.cursorRow)
}

// start runs an op prepared by the session, ignoring ErrBusy.
func (m *Model) start(op view.Op, err error) tea.Cmd {
	if err != nil {
		return nil
	}
	return m.run(op)
}

func (m Model) run(op view.Op) tea.Cmd {
	ctx := m.ctx
	exec := func() tea.Msg { return resultMsg(op(ctx)) }
	if !m.session.Busy() {
		return exec
	}
	return tea.Batch(exec, m.spinner.Tick)
}

func (m Model) pollTick() tea.Cmd {
	return tea.Tick(m.session.Poller().Interval(), func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m Model) subscribe() tea.Cmd {
	ctx, st := m.ctx, m.opts.Stream
	return func() tea.Msg {
		updates, errs, err := st.Subscribe(ctx)
		if err != nil {
			return streamEndMsg{err: err}
		}
		return streamReady{updates: updates, errs: errs}
	}
}

func (m Model) waitStream() tea.Cmd {
	if m.stream == nil {
		return nil
	}
	st := *m.stream
	return func() tea.Msg {
		cs, ok := <-st.updates
		if !ok {
			var err error
			select {
			case err = <-st.errs:
			default:
			}
			return streamEndMsg{err: err}
		}
		return streamMsg(cs)
	}
}

func waitConfig(ch <-chan *config.Config) tea.Cmd {
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

// statusTick repaints once the current status message has expired.
func (m Model) statusTick() tea.Cmd {
	return tea.Tick(m.opts.StatusTTL, func(time.Time) tea.Msg { return statusTickMsg{} })
}
