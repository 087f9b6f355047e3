// Package throttle slows down repeated login attempts from one client.
//
// The guard counts consecutive failed logins in client-side storage and
// refuses new submissions for a while once the count reaches the limit.
// It is a UX deterrent only. Clearing storage, another machine or a
// disabled store all bypass it; the server's own rate limiting is what
// actually stops brute-force attempts.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is where the guard sits in its lockout cycle.
type State int

const (
	// Idle means no recent failures.
	Idle State = iota
	// Accumulating means some failures are recorded but the limit is not reached.
	Accumulating
	// Locked means submissions are refused until the deadline passes.
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	DefaultMaxFailures = 5
	DefaultLockout     = 60 * time.Second
	// EntryTTL bounds how long the stored values live, independent of the lockout.
	EntryTTL     = 24 * time.Hour
	TickInterval = time.Second
)

// Storage keys are intentionally opaque.
const (
	failuresKey = "_fa"
	deadlineKey = "_lu"
)

// ErrLocked matches any *LockedError with errors.Is.
var ErrLocked = errors.New("login temporarily locked")

// LockedError rejects a submission while the guard is locked.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("login temporarily locked, try again in %d seconds", e.Seconds())
}

// Seconds is the remaining lockout rounded up to whole seconds.
func (e *LockedError) Seconds() int {
	return ceilSeconds(e.Remaining)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// Guard tracks consecutive login failures and enforces the lockout window.
type Guard struct {
	mu          sync.Mutex
	store       Storage
	now         func() time.Time
	logger      *slog.Logger
	maxFailures int
	lockout     time.Duration
	tick        time.Duration

	failures int64
	deadline time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithMaxFailures sets how many consecutive failures trigger a lockout.
func WithMaxFailures(n int) Option {
	return func(g *Guard) {
		if n > 0 {
			g.maxFailures = n
		}
	}
}

// WithLockout sets the lockout window.
func WithLockout(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.lockout = d
		}
	}
}

// WithTickInterval sets the countdown tick.
func WithTickInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.tick = d
		}
	}
}

// NewGuard loads the guard's state from store. A nil store, or one that
// fails on read, leaves the guard Idle and tracking in memory only.
func NewGuard(store Storage, opts ...Option) *Guard {
	g := &Guard{
		store:       store,
		now:         time.Now,
		logger:      slog.Default(),
		maxFailures: DefaultMaxFailures,
		lockout:     DefaultLockout,
		tick:        TickInterval,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.load()
	return g
}

func (g *Guard) load() {
	if g.store == nil {
		return
	}

	rawFailures, _, err := g.store.Get(failuresKey)
	if err != nil {
		g.degrade(err)
		return
	}
	rawDeadline, hasDeadline, err := g.store.Get(deadlineKey)
	if err != nil {
		g.degrade(err)
		return
	}

	g.failures = DecodeValue(rawFailures)

	if !hasDeadline {
		return
	}
	deadline := time.UnixMilli(DecodeValue(rawDeadline))
	if g.now().Before(deadline) {
		g.deadline = deadline
		return
	}

	g.logger.Debug("stored login lockout has expired")
	g.clearLocked()
}

// degrade drops the store after an error. Callers hold g.mu or are in
// construction.
func (g *Guard) degrade(err error) {
	g.logger.Warn("login throttle storage unavailable, tracking in memory only", slog.Any("error", err))
	g.store = nil
}

// Degraded reports whether the guard has fallen back to memory-only tracking.
func (g *Guard) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store == nil
}

// State returns the current state. A lockout whose deadline has passed is
// cleared here, so the guard never reports Locked after the deadline.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

func (g *Guard) stateLocked() State {
	if !g.deadline.IsZero() {
		if g.now().Before(g.deadline) {
			return Locked
		}
		g.clearLocked()
		return Idle
	}
	if g.failures > 0 {
		return Accumulating
	}
	return Idle
}

// Failures returns the number of consecutive failures recorded.
func (g *Guard) Failures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stateLocked()
	return int(g.failures)
}

// Remaining returns how long the lockout still lasts, or 0 when not locked.
func (g *Guard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked()
}

func (g *Guard) remainingLocked() time.Duration {
	if g.stateLocked() != Locked {
		return 0
	}
	return g.deadline.Sub(g.now())
}

// CheckSubmit must be called before sending credentials. While locked it
// returns a *LockedError and the caller must not contact the server.
func (g *Guard) CheckSubmit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if remaining := g.remainingLocked(); remaining > 0 {
		return &LockedError{Remaining: remaining}
	}
	return nil
}

// RecordFailure counts a rejected login and returns the resulting state.
// Reaching the limit starts the lockout window.
func (g *Guard) RecordFailure() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stateLocked() == Locked {
		return Locked
	}

	g.failures++
	g.persist(failuresKey, g.failures)

	if g.failures < int64(g.maxFailures) {
		return Accumulating
	}

	g.deadline = g.now().Add(g.lockout)
	g.persist(deadlineKey, g.deadline.UnixMilli())
	g.logger.Warn("login locked after repeated failures",
		slog.Int64("failures", g.failures),
		slog.Time("locked_until", g.deadline))
	return Locked
}

// RecordSuccess forgets all failures and any lockout.
func (g *Guard) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

// Countdown reports the remaining lockout seconds once immediately and then
// on every tick. When the lockout ends it clears the guard, reports 0 and
// returns nil. It returns ctx.Err() if ctx ends first, and nil straight
// away when the guard is not locked.
func (g *Guard) Countdown(ctx context.Context, onTick func(seconds int)) error {
	remaining := g.Remaining()
	if remaining <= 0 {
		return nil
	}
	if onTick != nil {
		onTick(ceilSeconds(remaining))
	}

	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			remaining = g.Remaining()
			if onTick != nil {
				onTick(ceilSeconds(remaining))
			}
			if remaining <= 0 {
				g.RecordSuccess()
				return nil
			}
		}
	}
}

func (g *Guard) clearLocked() {
	g.failures = 0
	g.deadline = time.Time{}
	if g.store == nil {
		return
	}
	for _, key := range []string{failuresKey, deadlineKey} {
		if err := g.store.Remove(key); err != nil {
			g.degrade(err)
			return
		}
	}
}

func (g *Guard) persist(key string, value int64) {
	if g.store == nil {
		return
	}
	if err := g.store.Set(key, EncodeValue(value), EntryTTL); err != nil {
		g.degrade(err)
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
