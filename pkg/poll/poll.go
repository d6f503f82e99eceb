// Package poll keeps the cached constraint list eventually consistent with
// the backend. It re-fetches on a fixed interval and reports a change only
// when the payload content differs from the cache.
package poll

import (
	"context"
	"log/slog"
	"time"

	"map_console/pkg/cache"
	"map_console/pkg/model"
)

// DefaultInterval is the polling period.
const DefaultInterval = 2000 * time.Millisecond

// Source fetches the authoritative constraint list.
type Source interface {
	Constraints(ctx context.Context) ([]model.Constraint, error)
}

// Poller diffs fetched constraints against a cache.
type Poller struct {
	source   Source
	cache    *cache.Cache
	interval time.Duration
	logger   *slog.Logger
}

// New creates a poller. A non-positive interval means DefaultInterval.
func New(src Source, c *cache.Cache, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{source: src, cache: c, interval: interval, logger: logger}
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Fetch retrieves the current list. It does not touch the cache, so it may
// run off the view goroutine.
func (p *Poller) Fetch(ctx context.Context) ([]model.Constraint, error) {
	return p.source.Constraints(ctx)
}

// Apply stores cs if its content differs from the cache and reports
// whether a repaint is needed. It must run on the cache owner's goroutine.
func (p *Poller) Apply(cs []model.Constraint) bool {
	changed := p.cache.SetConstraints(cs)
	if changed {
		p.logger.Info("constraints changed upstream", "count", len(cs))
		if conflicts := p.cache.Conflicts(); len(conflicts) > 0 {
			p.logger.Warn("multiple constraints for one edge", "edges", conflicts)
		}
	}
	return changed
}

// Poll runs one Fetch and Apply. Errors leave the cache untouched.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	cs, err := p.Fetch(ctx)
	if err != nil {
		return false, err
	}
	return p.Apply(cs), nil
}

// Run polls until ctx is done, calling onChange after each tick that
// changed the cache. Fetch errors are logged and the next tick tries again.
// Run owns the cache for its lifetime.
func (p *Poller) Run(ctx context.Context, onChange func()) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed, err := p.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Warn("constraint poll failed", "err", err)
				continue
			}
			if changed && onChange != nil {
				onChange()
			}
		}
	}
}
