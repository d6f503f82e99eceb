// Package editor is the constraint submission path: it validates a draft
// against the cached graph and the current selection, sends it, and
// refreshes the local view once the backend has accepted it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"map_console/pkg/cache"
	"map_console/pkg/model"
	"map_console/pkg/selection"
)

// ErrEmptySelection is returned when a draft is applied with nothing selected.
var ErrEmptySelection = errors.New("no edges selected")

// ErrInvalidDraft wraps malformed type/value combinations.
var ErrInvalidDraft = errors.New("invalid constraint")

// OnewayBothError rejects a two-way override on edges that are not
// intrinsically oneway. Nothing is sent when it is returned.
type OnewayBothError struct {
	Offending []int64
}

func (e *OnewayBothError) Error() string {
	ids := make([]string, len(e.Offending))
	for i, id := range e.Offending {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf(`"both" only applies to intrinsically oneway edges; two-way or unknown edges: %s`,
		strings.Join(ids, ", "))
}

// Draft is a constraint being prepared in the edit form.
type Draft struct {
	Type        model.ConstraintType
	Value       string
	Description string
}

// Backend is the part of the API client the editor needs.
type Backend interface {
	AddConstraints(ctx context.Context, req model.AddConstraintsRequest) error
	RemoveConstraint(ctx context.Context, edgeID int64) error
	ClearConstraints(ctx context.Context) error
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Editor submits constraint mutations.
type Editor struct {
	backend Backend
	logger  *slog.Logger
}

// New creates an editor.
func New(b Backend, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{backend: b, logger: logger}
}

// Normalize validates d and fills the value the backend expects for its
// type: block always carries "1.0", penalty a positive factor, oneway a
// direction.
func Normalize(d Draft) (Draft, error) {
	d.Value = strings.TrimSpace(d.Value)
	switch d.Type {
	case model.ConstraintBlock:
		d.Value = "1.0"
	case model.ConstraintPenalty:
		f, err := strconv.ParseFloat(d.Value, 64)
		if err != nil || f <= 0 {
			return d, fmt.Errorf("%w: penalty must be a positive number, got %q", ErrInvalidDraft, d.Value)
		}
	case model.ConstraintOneway:
		switch d.Value {
		case model.DirectionForward, model.DirectionBackward, model.DirectionBoth:
		case "":
			d.Value = model.DirectionForward
		default:
			return d, fmt.Errorf("%w: oneway direction must be forward, backward or both, got %q", ErrInvalidDraft, d.Value)
		}
	default:
		return d, fmt.Errorf("%w: unknown type %q", ErrInvalidDraft, d.Type)
	}
	return d, nil
}

// Validate checks d against the selection and the cached edges. It performs
// no I/O.
func Validate(d Draft, ids []int64, c *cache.Cache) (Draft, error) {
	if len(ids) == 0 {
		return d, ErrEmptySelection
	}
	d, err := Normalize(d)
	if err != nil {
		return d, err
	}
	if d.Type == model.ConstraintOneway && d.Value == model.DirectionBoth {
		var bad []int64
		for _, id := range ids {
			e, ok := c.Edge(id)
			if !ok || !bool(e.IsOneway) {
				bad = append(bad, id)
			}
		}
		if len(bad) > 0 {
			return d, &OnewayBothError{Offending: bad}
		}
	}
	return d, nil
}

// Request validates d and builds the request body. It is the pure half of
// Apply for callers that run I/O elsewhere.
func Request(d Draft, sel *selection.Set, c *cache.Cache) (model.AddConstraintsRequest, error) {
	ids := sel.IDs()
	d, err := Validate(d, ids, c)
	if err != nil {
		return model.AddConstraintsRequest{}, err
	}
	return model.AddConstraintsRequest{
		EdgeIDs:     ids,
		Type:        d.Type,
		Value:       d.Value,
		Description: d.Description,
	}, nil
}

// Submit sends req and fetches the refreshed snapshot. It touches no local
// state.
func (e *Editor) Submit(ctx context.Context, req model.AddConstraintsRequest) (model.Snapshot, error) {
	if err := e.backend.AddConstraints(ctx, req); err != nil {
		return model.Snapshot{}, fmt.Errorf("add constraints: %w", err)
	}
	e.logger.Info("constraints applied", "type", req.Type, "value", req.Value, "edges", len(req.EdgeIDs))
	return e.refresh(ctx)
}

// Apply validates d, submits it, replaces the cache with the refreshed
// snapshot and resets the selection. On any error cache and selection are
// left as they were.
func (e *Editor) Apply(ctx context.Context, d Draft, sel *selection.Set, c *cache.Cache) error {
	req, err := Request(d, sel, c)
	if err != nil {
		return err
	}
	snap, err := e.Submit(ctx, req)
	if err != nil {
		return err
	}
	c.Replace(snap)
	sel.Reset()
	return nil
}

// RemoveSnapshot deletes the constraint on edgeID and returns the refreshed
// snapshot.
func (e *Editor) RemoveSnapshot(ctx context.Context, edgeID int64) (model.Snapshot, error) {
	if err := e.backend.RemoveConstraint(ctx, edgeID); err != nil {
		return model.Snapshot{}, fmt.Errorf("remove constraint on edge %d: %w", edgeID, err)
	}
	e.logger.Info("constraint removed", "edge", edgeID)
	return e.refresh(ctx)
}

// Remove deletes the constraint on edgeID and refreshes c.
func (e *Editor) Remove(ctx context.Context, edgeID int64, c *cache.Cache) error {
	snap, err := e.RemoveSnapshot(ctx, edgeID)
	if err != nil {
		return err
	}
	c.Replace(snap)
	return nil
}

// ClearSnapshot deletes every constraint and returns the refreshed snapshot.
func (e *Editor) ClearSnapshot(ctx context.Context) (model.Snapshot, error) {
	if err := e.backend.ClearConstraints(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("clear constraints: %w", err)
	}
	e.logger.Info("constraints cleared")
	return e.refresh(ctx)
}

// Clear deletes every constraint and refreshes c.
func (e *Editor) Clear(ctx context.Context, c *cache.Cache) error {
	snap, err := e.ClearSnapshot(ctx)
	if err != nil {
		return err
	}
	c.Replace(snap)
	return nil
}

func (e *Editor) refresh(ctx context.Context) (model.Snapshot, error) {
	snap, err := e.backend.Snapshot(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("reload after mutation: %w", err)
	}
	return snap, nil
}
