// Package ratelimit implements the fixed-window admission check in front of
// file retrieval.
//
// Each client identity owns one record: a counter and the instant its
// current window started. A request arriving more than one window after that
// instant starts a new window. A client can therefore get up to twice the
// limit through in a short span straddling a window edge; that is accepted.
package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/filestream/internal/logging"
)

const (
	DefaultLimit  = 30
	DefaultWindow = time.Minute
)

// Record is the per-identity window state.
type Record struct {
	Count       int
	WindowStart time.Time
}

// Store keeps rate records. Hit must apply the whole read-modify-write for
// one identity atomically.
type Store interface {
	// Hit counts one request for identity at now and returns the count in
	// the current window, resetting the record first if its window is over.
	Hit(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error)
	// Purge removes records whose window started before cutoff.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// Governor admits or rejects requests per client identity.
type Governor struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
	logger logging.Logger
}

// New returns a governor over store. Non-positive limit or window fall back
// to the defaults.
func New(store Store, limit int, window time.Duration, logger logging.Logger) *Governor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Governor{
		store:  store,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: logger.With("module", "ratelimit"),
	}
}

// Allow records one request for identity and reports whether it is within
// the limit. If the store fails the request is let through.
func (g *Governor) Allow(ctx context.Context, identity string) bool {
	count, err := g.store.Hit(ctx, identity, g.now(), g.window)
	if err != nil {
		g.logger.Warn(ctx, "rate store unavailable, admitting request", "client", identity, "error", err)
		return true
	}
	return count <= g.limit
}

// Purge drops records older than two windows.
func (g *Governor) Purge(ctx context.Context) {
	cutoff := g.now().Add(-2 * g.window)
	n, err := g.store.Purge(ctx, cutoff)
	if err != nil {
		g.logger.Warn(ctx, "rate record purge failed", "error", err)
		return
	}
	if n > 0 {
		g.logger.Debug(ctx, "rate records purged", "count", n)
	}
}

// Run purges stale records once per window until ctx is done.
func (g *Governor) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.Purge(ctx)
		}
	}
}
