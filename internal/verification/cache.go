// Package verification caches verification snapshots fetched from the
// upstream identity system.
package verification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/metrics"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/service"
	"golang.org/x/sync/singleflight"
)

// DefaultFreshnessWindow is how long a snapshot is served without refetching.
const DefaultFreshnessWindow = 15 * time.Minute

// Option configures a Cache.
type Option func(*Cache)

// WithFreshnessWindow overrides the freshness window.
func WithFreshnessWindow(window time.Duration) Option {
	return func(c *Cache) {
		c.window = window
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// Cache holds the most recent verification snapshot and the session-scoped
// verification state. At most one provider call per subject is in flight;
// concurrent callers share its result.
type Cache struct {
	provider service.VerificationProvider
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
	updates  *common.Broadcaster[model.VerificationState]
	snapshot *model.VerificationSnapshot
	group    singleflight.Group
	state    model.VerificationState
	window   time.Duration
	epoch    uint64
	mu       sync.Mutex
}

// NewCache creates an idle cache in front of provider.
func NewCache(provider service.VerificationProvider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		now:      time.Now,
		window:   DefaultFreshnessWindow,
		state:    model.VerificationStateIdle(),
		updates:  common.NewBroadcaster[model.VerificationState](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = common.OrDefault(c.logger)
	return c
}

// Fetch returns the verification snapshot for subjectID. An in-flight fetch
// is joined rather than duplicated, even when force is set. Otherwise a
// snapshot younger than the freshness window is returned as is unless force
// is set. Provider failures leave the previous snapshot in place, move the
// state to failed, and come back as a common.UserError.
func (c *Cache) Fetch(ctx context.Context, subjectID string, force bool) (*model.VerificationSnapshot, error) {
	c.mu.Lock()
	if !c.loadingLocked() && !force && c.freshLocked(subjectID) {
		snapshot := c.snapshot
		c.setStateLocked(model.VerificationStateLoaded())
		c.mu.Unlock()

		c.metrics.ObserveVerification(metrics.OutcomeHit)
		c.logger.Debug("verification cache hit", "subject_id", subjectID, "age", snapshot.Age(c.now()))
		return snapshot, nil
	}
	c.mu.Unlock()

	// The flight outlives any single caller; ctx only bounds this caller's wait.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(subjectID, func() (any, error) {
		return c.load(flightCtx, subjectID, force)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.VerificationSnapshot), nil
	}
}

func (c *Cache) load(ctx context.Context, subjectID string, force bool) (*model.VerificationSnapshot, error) {
	c.mu.Lock()
	// A flight that finished between the caller's freshness check and this
	// one may already have stored a fresh snapshot.
	if !force && c.freshLocked(subjectID) {
		snapshot := c.snapshot
		c.setStateLocked(model.VerificationStateLoaded())
		c.mu.Unlock()

		c.metrics.ObserveVerification(metrics.OutcomeHit)
		return snapshot, nil
	}
	epoch := c.epoch
	c.setStateLocked(model.VerificationStateLoading())
	c.mu.Unlock()

	start := time.Now()
	snapshot, err := c.provider.FetchVerification(ctx, subjectID)
	c.metrics.ObserveProviderLatency(time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()

	// A reset while the provider was busy discards the outcome.
	stale := epoch != c.epoch

	if err != nil {
		message := Message(err)
		if !stale {
			c.setStateLocked(model.VerificationStateFailed(message))
		}
		c.metrics.ObserveVerification(metrics.OutcomeFailed)
		c.logger.Warn("verification fetch failed", "subject_id", subjectID, "error", err)
		return nil, common.NewUserError(message, err)
	}

	if !stale {
		c.snapshot = snapshot
		c.setStateLocked(model.VerificationStateLoaded())
	}
	c.metrics.ObserveVerification(metrics.OutcomeLoaded)
	c.logger.Info("verification loaded", "subject_id", subjectID, "proofs", len(snapshot.Proofs))
	return snapshot, nil
}

func (c *Cache) loadingLocked() bool {
	return c.state.Phase == model.VerificationLoading
}

func (c *Cache) freshLocked(subjectID string) bool {
	if c.snapshot == nil || c.snapshot.SubjectID != subjectID {
		return false
	}
	return c.snapshot.Age(c.now()) < c.window
}

func (c *Cache) setStateLocked(state model.VerificationState) {
	if c.state == state {
		return
	}
	c.state = state
	c.updates.Publish(state)
}

// State returns the current verification state.
func (c *Cache) State() model.VerificationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the most recent snapshot, or nil if none was fetched.
func (c *Cache) Snapshot() *model.VerificationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Reset drops the snapshot and returns to idle. A fetch still in flight
// completes for its callers but no longer updates the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.snapshot = nil
	c.setStateLocked(model.VerificationStateIdle())
}

// Subscribe delivers verification state changes until the returned function
// is called.
func (c *Cache) Subscribe(buffer int) (<-chan model.VerificationState, func()) {
	return c.updates.Subscribe(buffer)
}
