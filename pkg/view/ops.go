package view

import (
	"context"
	"errors"
	"fmt"

	"map_console/pkg/editor"
	"map_console/pkg/model"
	"map_console/pkg/pathview"
	"map_console/pkg/spatial"
)

// Backend is everything the session needs from the API.
type Backend interface {
	spatial.Backend
	editor.Backend
	Constraints(ctx context.Context) ([]model.Constraint, error)
	ReloadGraph(ctx context.Context) error
	FindPath(ctx context.Context, req model.FindPathRequest) (*model.PathResult, error)
}

// OpKind identifies what an Op did, so Finish knows how to apply it.
type OpKind int

const (
	OpLoad OpKind = iota
	OpReload
	OpPolygon
	OpCircle
	OpSubmit
	OpRemove
	OpClear
	OpPath
	OpPoll
)

func (k OpKind) String() string {
	return [...]string{"load", "reload", "polygon", "circle", "submit", "remove", "clear", "path", "poll"}[k]
}

// mutating ops hold the busy flag until finished.
func (k OpKind) mutating() bool {
	switch k {
	case OpLoad, OpReload, OpSubmit, OpRemove, OpClear:
		return true
	}
	return false
}

// Result is the outcome of an Op.
type Result struct {
	Kind        OpKind
	Snapshot    model.Snapshot
	EdgeIDs     []int64
	Constraints []model.Constraint
	Path        *model.PathResult
	Label       string
	Err         error
}

// Op is a prepared network step. Running it reads no session state, so it
// may run on any goroutine; its Result goes back through Finish.
type Op func(ctx context.Context) Result

// Load fetches the full network and constraint list.
func (s *Session) Load() (Op, error) {
	if err := s.begin(OpLoad); err != nil {
		return nil, err
	}
	b := s.backend
	return func(ctx context.Context) Result {
		snap, err := b.Snapshot(ctx)
		return Result{Kind: OpLoad, Snapshot: snap, Err: err}
	}, nil
}

// Reload asks the backend to rebuild its graph, then fetches it.
func (s *Session) Reload() (Op, error) {
	if err := s.begin(OpReload); err != nil {
		return nil, err
	}
	b := s.backend
	return func(ctx context.Context) Result {
		if err := b.ReloadGraph(ctx); err != nil {
			return Result{Kind: OpReload, Err: fmt.Errorf("reload graph: %w", err)}
		}
		snap, err := b.Snapshot(ctx)
		return Result{Kind: OpReload, Snapshot: snap, Err: err}
	}, nil
}

// QueryShape looks up the edges inside the drawn shape. Polygons and
// rectangles add to the selection, a circle replaces it. It returns ErrBusy
// while a mutation is in flight.
func (s *Session) QueryShape() (Op, error) {
	if s.busy {
		return nil, ErrBusy
	}
	sh := s.shape
	switch sh.Kind {
	case ShapePolygon, ShapeRectangle:
		if err := spatial.ValidatePolygon(sh.Ring); err != nil {
			s.Fail(err)
			return nil, err
		}
		ring := append(sh.Ring[:0:0], sh.Ring...)
		sc := s.spatial
		return func(ctx context.Context) Result {
			ids, err := sc.Polygon(ctx, ring)
			return Result{Kind: OpPolygon, EdgeIDs: ids, Err: err}
		}, nil
	case ShapeCircle:
		if err := spatial.ValidateCircle(sh.Circle); err != nil {
			s.Fail(err)
			return nil, err
		}
		circle := sh.Circle
		sc := s.spatial
		return func(ctx context.Context) Result {
			ids, err := sc.Circle(ctx, circle)
			return Result{Kind: OpCircle, EdgeIDs: ids, Err: err}
		}, nil
	}
	err := fmt.Errorf("%w: no shape drawn", spatial.ErrInvalidRegion)
	s.Fail(err)
	return nil, err
}

// Submit validates d against the selection and prepares the mutation.
// Validation failures are returned before anything is sent and leave the
// selection as it is.
func (s *Session) Submit(d editor.Draft) (Op, error) {
	if s.busy {
		return nil, ErrBusy
	}
	req, err := editor.Request(d, s.sel, s.cache)
	if err != nil {
		s.Fail(err)
		return nil, err
	}
	s.busy = true
	ed := s.editor
	label := fmt.Sprintf("%s applied to %d edges", req.Type, len(req.EdgeIDs))
	return func(ctx context.Context) Result {
		snap, err := ed.Submit(ctx, req)
		return Result{Kind: OpSubmit, Snapshot: snap, Label: label, Err: err}
	}, nil
}

// RemoveConstraint prepares deleting the constraint on edgeID.
func (s *Session) RemoveConstraint(edgeID int64) (Op, error) {
	if err := s.begin(OpRemove); err != nil {
		return nil, err
	}
	ed := s.editor
	return func(ctx context.Context) Result {
		snap, err := ed.RemoveSnapshot(ctx, edgeID)
		return Result{Kind: OpRemove, Snapshot: snap, Label: fmt.Sprintf("constraint on edge %d removed", edgeID), Err: err}
	}, nil
}

// ClearConstraints prepares deleting every constraint.
func (s *Session) ClearConstraints() (Op, error) {
	if err := s.begin(OpClear); err != nil {
		return nil, err
	}
	ed := s.editor
	return func(ctx context.Context) Result {
		snap, err := ed.ClearSnapshot(ctx)
		return Result{Kind: OpClear, Snapshot: snap, Label: "all constraints cleared", Err: err}
	}, nil
}

// FindPath prepares a path query from the picked endpoints.
func (s *Session) FindPath() (Op, error) {
	req, err := s.picker.Request()
	if err != nil {
		s.Fail(err)
		return nil, err
	}
	b := s.backend
	return func(ctx context.Context) Result {
		res, err := b.FindPath(ctx, req)
		if err != nil {
			err = fmt.Errorf("find path: %w", err)
		}
		return Result{Kind: OpPath, Path: res, Err: err}
	}, nil
}

// Poll prepares one constraint fetch for the sync loop.
func (s *Session) Poll() Op {
	p := s.poller
	return func(ctx context.Context) Result {
		cs, err := p.Fetch(ctx)
		return Result{Kind: OpPoll, Constraints: cs, Err: err}
	}
}

func (s *Session) begin(k OpKind) error {
	if s.busy {
		return ErrBusy
	}
	if k.mutating() {
		s.busy = true
	}
	return nil
}

// Finish applies r to the session. On error the previous state is kept
// and the error is shown as status; poll errors are only logged.
func (s *Session) Finish(r Result) error {
	if r.Kind.mutating() {
		s.busy = false
	}
	if r.Err != nil {
		if r.Kind == OpPoll {
			s.logger.Warn("constraint poll failed", "err", r.Err)
			return r.Err
		}
		s.logger.Error("operation failed", "op", r.Kind, "err", r.Err)
		s.Fail(r.Err)
		return r.Err
	}

	if (r.Kind == OpPolygon || r.Kind == OpCircle) && s.busy {
		// The mutation in flight resets the selection when it lands.
		s.logger.Info("region result dropped during mutation", "op", r.Kind, "edges", len(r.EdgeIDs))
		s.Fail(ErrBusy)
		return ErrBusy
	}

	switch r.Kind {
	case OpLoad, OpReload:
		s.cache.Replace(r.Snapshot)
		if conflicts := s.cache.Conflicts(); len(conflicts) > 0 {
			s.logger.Warn("multiple constraints for one edge", "edges", conflicts)
		}
		s.Info(fmt.Sprintf("loaded %d nodes, %d edges, %d constraints",
			len(r.Snapshot.Nodes), len(r.Snapshot.Edges), len(r.Snapshot.Constraints)))
	case OpPolygon:
		added := spatial.MergePolygon(s.sel, r.EdgeIDs)
		s.Info(fmt.Sprintf("%d edges added, %d selected", added, s.sel.Len()))
	case OpCircle:
		spatial.MergeCircle(s.sel, r.EdgeIDs)
		s.Info(fmt.Sprintf("%d edges selected", s.sel.Len()))
	case OpSubmit:
		s.cache.Replace(r.Snapshot)
		s.sel.Reset()
		s.shape = Shape{}
		s.Info(r.Label)
	case OpRemove, OpClear:
		s.cache.Replace(r.Snapshot)
		s.Info(r.Label)
	case OpPath:
		d, err := s.picker.Show(r.Path)
		if err != nil {
			s.Fail(err)
			return err
		}
		s.Info(fmt.Sprintf("path found: %.2f m over %d nodes", d.Result.TotalDistance, d.Result.NumNodes))
	case OpPoll:
		if !s.poller.Apply(r.Constraints) {
			return nil
		}
	}
	s.repaint()
	return nil
}

// Run executes op synchronously and applies its result. It is meant for
// one-shot commands that have no event loop.
func (s *Session) Run(ctx context.Context, op Op) error {
	return s.Finish(op(ctx))
}

// IsValidation reports whether err was raised locally before any request.
func IsValidation(err error) bool {
	var both *editor.OnewayBothError
	return errors.As(err, &both) ||
		errors.Is(err, editor.ErrEmptySelection) ||
		errors.Is(err, editor.ErrInvalidDraft) ||
		errors.Is(err, spatial.ErrInvalidRegion) ||
		errors.Is(err, pathview.ErrIncompleteRequest)
}
