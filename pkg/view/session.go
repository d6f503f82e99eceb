// Package view is the single owner of the map console state: the cached
// network, the selection, the drawn shape, path picking and the status
// line. Network steps are prepared by the session as Ops, run anywhere,
// and their Results handed back to Finish on the owning goroutine.
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"map_console/pkg/cache"
	"map_console/pkg/editor"
	"map_console/pkg/pathview"
	"map_console/pkg/poll"
	"map_console/pkg/selection"
	"map_console/pkg/spatial"
	"map_console/pkg/style"
)

// ErrBusy is returned when a mutation is started while another is in flight.
var ErrBusy = errors.New("another change is still being applied")

// DefaultStatusTTL is how long a status message stays visible.
const DefaultStatusTTL = 3 * time.Second

// DefaultHitTolerance is the click-to-edge distance in meters.
const DefaultHitTolerance = 15.0

// Mode selects what clicks do.
type Mode int

const (
	// ModeRoute inspects edges and picks path endpoints.
	ModeRoute Mode = iota
	// ModeEdit selects edges and draws shapes for constraint editing.
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "route"
}

// ShapeKind is the type of region drawn in edit mode.
type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapePolygon
	ShapeRectangle
	ShapeCircle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePolygon:
		return "polygon"
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	}
	return "none"
}

// Shape is the region currently drawn. Ring is used by polygons and
// rectangles, Circle by circles.
type Shape struct {
	Kind   ShapeKind
	Ring   orb.Ring
	Circle spatial.Circle
}

// Status is a transient message for the user.
type Status struct {
	Text    string
	Err     bool
	Expires time.Time
}

// Options configures a session.
type Options struct {
	Resolver     *style.Resolver
	HitTolerance float64 // meters
	PollInterval time.Duration
	StatusTTL    time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Session holds all mutable view state. It is not safe for concurrent use.
type Session struct {
	backend  Backend
	cache    *cache.Cache
	sel      *selection.Set
	spatial  *spatial.Client
	editor   *editor.Editor
	poller   *poll.Poller
	picker   *pathview.Picker
	resolver *style.Resolver

	mode     Mode
	shape    Shape
	status   Status
	busy     bool
	repaints int

	hitTolerance float64
	statusTTL    time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// New creates a session in route mode with an empty cache.
func New(b Backend, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Resolver == nil {
		opts.Resolver = style.NewResolver(style.DefaultPalette(), nil)
	}
	if opts.HitTolerance <= 0 {
		opts.HitTolerance = DefaultHitTolerance
	}
	if opts.StatusTTL <= 0 {
		opts.StatusTTL = DefaultStatusTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := cache.New()
	return &Session{
		backend:      b,
		cache:        c,
		sel:          selection.New(),
		spatial:      spatial.NewClient(b),
		editor:       editor.New(b, opts.Logger),
		poller:       poll.New(b, c, opts.PollInterval, opts.Logger),
		picker:       pathview.NewPicker(),
		resolver:     opts.Resolver,
		hitTolerance: opts.HitTolerance,
		statusTTL:    opts.StatusTTL,
		now:          opts.Now,
		logger:       opts.Logger,
	}
}

func (s *Session) Cache() *cache.Cache       { return s.cache }
func (s *Session) Selection() *selection.Set { return s.sel }
func (s *Session) Picker() *pathview.Picker  { return s.picker }
func (s *Session) Poller() *poll.Poller      { return s.poller }
func (s *Session) Resolver() *style.Resolver { return s.resolver }
func (s *Session) Mode() Mode                { return s.mode }
func (s *Session) Shape() Shape              { return s.shape }
func (s *Session) Busy() bool                { return s.busy }
func (s *Session) Repaints() int             { return s.repaints }
func (s *Session) HitTolerance() float64     { return s.hitTolerance }

// SetResolver swaps the styling rules, e.g. after a config reload.
func (s *Session) SetResolver(r *style.Resolver) {
	s.resolver = r
	s.repaint()
}

// SetMode switches mode. Any change clears the selection, the drawn shape
// and a pending endpoint pick.
func (s *Session) SetMode(m Mode) {
	if m == s.mode {
		return
	}
	s.mode = m
	s.sel.Reset()
	s.shape = Shape{}
	s.picker.Cancel()
	s.Info(fmt.Sprintf("%s mode", m))
	s.repaint()
}

// ToggleMode flips between route and edit mode.
func (s *Session) ToggleMode() Mode {
	if s.mode == ModeRoute {
		s.SetMode(ModeEdit)
	} else {
		s.SetMode(ModeRoute)
	}
	return s.mode
}

// SetShape replaces the drawn shape. It does not query the backend; see
// QueryShape. It is ignored while a mutation is in flight.
func (s *Session) SetShape(sh Shape) {
	if s.busy {
		return
	}
	s.shape = sh
	s.repaint()
}

// DeleteShape removes the drawn shape and clears the selection. It is
// ignored while a mutation is in flight.
func (s *Session) DeleteShape() {
	if s.busy {
		return
	}
	s.shape = Shape{}
	s.sel.Reset()
	s.repaint()
}

// ResetSelection clears the selection unless a mutation is in flight.
func (s *Session) ResetSelection() {
	if s.busy {
		return
	}
	s.sel.Reset()
	s.repaint()
}

// Popup is what a click on an edge reveals.
type Popup struct {
	EdgeID int64
	Lines  []string
}

// Click handles a map click at (lat, lon). An armed endpoint pick takes
// the click first. Otherwise the nearest edge within the hit tolerance is
// described and, in edit mode, added to the selection. The selection is
// left alone while a mutation is in flight.
func (s *Session) Click(lat, lon float64) (Popup, bool) {
	if st := s.picker.State(); st != pathview.Idle {
		s.picker.Click(lat, lon)
		if st == pathview.PickingStart {
			s.Info(fmt.Sprintf("start set to %.6f, %.6f", lat, lon))
		} else {
			s.Info(fmt.Sprintf("end set to %.6f, %.6f", lat, lon))
		}
		s.repaint()
		return Popup{}, false
	}

	e, ok := s.cache.EdgeAt(lat, lon, s.hitTolerance)
	if !ok {
		return Popup{}, false
	}
	if s.mode == ModeEdit && !s.busy && s.sel.Toggle(e.ID) {
		s.repaint()
	}
	return Popup{EdgeID: e.ID, Lines: style.Describe(e, s.cache.Constraint(e.ID))}, true
}

// Deselect removes the edge nearest (lat, lon) from the selection.
func (s *Session) Deselect(lat, lon float64) bool {
	if s.busy {
		return false
	}
	e, ok := s.cache.EdgeAt(lat, lon, s.hitTolerance)
	if !ok || !s.sel.Remove(e.ID) {
		return false
	}
	s.repaint()
	return true
}

// Info sets a transient status message.
func (s *Session) Info(text string) {
	s.status = Status{Text: text, Expires: s.now().Add(s.statusTTL)}
}

// Fail sets a transient error message.
func (s *Session) Fail(err error) {
	s.status = Status{Text: err.Error(), Err: true, Expires: s.now().Add(s.statusTTL)}
}

// Status returns the current status, or a zero Status once it expired.
func (s *Session) Status() Status {
	if s.status.Text == "" || !s.now().Before(s.status.Expires) {
		return Status{}
	}
	return s.status
}

func (s *Session) repaint() {
	s.repaints++
}
