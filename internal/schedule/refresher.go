package schedule

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CycleFunc runs one fetch-and-normalize cycle for topic.
type CycleFunc func(ctx context.Context, topic string)

// DefaultCycleTimeout bounds a single auto-refresh cycle.
const DefaultCycleTimeout = 2 * time.Minute

// Refresher re-runs a fetch cycle on the cadence of the current Mode.
// It is Idle when the mode is Off and Armed otherwise.
type Refresher struct {
	ctx   context.Context
	scan  *ScanState
	topic func() string
	cycle CycleFunc

	now          func() time.Time
	intervals    map[Mode]time.Duration
	cycleTimeout time.Duration
	log          logrus.FieldLogger

	slot    Slot
	release func() bool

	mu   sync.Mutex
	mode Mode
	next time.Time
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// WithIntervals overrides the tick interval of individual modes.
func WithIntervals(intervals map[Mode]time.Duration) Option {
	return func(r *Refresher) {
		for m, d := range intervals {
			r.intervals[m] = d
		}
	}
}

// WithCycleTimeout bounds each cycle started by a tick. A provider call
// that outlives d sees its context canceled. d <= 0 disables the bound.
func WithCycleTimeout(d time.Duration) Option {
	return func(r *Refresher) { r.cycleTimeout = d }
}

// WithLogger sets the logger used for tick diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Refresher) { r.log = log }
}

// NewRefresher returns an idle Refresher. topic is read at fire time, so
// topic changes apply to the next tick without re-arming. Cycles run with
// a child of ctx bounded by the cycle timeout, and canceling ctx stops an
// armed refresher.
func NewRefresher(ctx context.Context, scan *ScanState, topic func() string, cycle CycleFunc, opts ...Option) *Refresher {
	r := &Refresher{
		ctx:          ctx,
		scan:         scan,
		topic:        topic,
		cycle:        cycle,
		now:          time.Now,
		intervals:    map[Mode]time.Duration{},
		cycleTimeout: DefaultCycleTimeout,
		log:          logrus.StandardLogger(),
		mode:         Off,
	}
	for _, m := range Modes() {
		r.intervals[m] = m.Interval()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetMode cancels any pending tick and, for a timed mode, arms a new one.
func (r *Refresher) SetMode(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mode = m
	interval := r.intervals[m]
	if m == Off || interval <= 0 {
		r.slot.Stop()
		r.next = time.Time{}
		r.log.WithField("mode", m).Debug("auto-refresh disabled")
		return
	}

	// Registered while armed only, so nothing outlives Stop.
	if r.release == nil {
		r.release = context.AfterFunc(r.ctx, r.Stop)
	}
	r.next = r.now().Add(interval)
	r.slot.Arm(interval, r.fire)
	r.log.WithFields(logrus.Fields{"mode": m, "interval": interval}).Debug("auto-refresh armed")
}

// Mode returns the current mode.
func (r *Refresher) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// NextFire returns the next scheduled tick, or false when idle.
func (r *Refresher) NextFire() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next, !r.next.IsZero()
}

// Remaining returns the whole seconds until the next tick, rounded up, or
// 0 when idle.
func (r *Refresher) Remaining() int {
	next, ok := r.NextFire()
	if !ok {
		return 0
	}
	return RemainingAt(next, r.now())
}

// RemainingAt returns max(0, ceil((next-now)/1s)).
func RemainingAt(next, now time.Time) int {
	d := next.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Tick handles one timer fire. It starts a cycle in the background and
// returns true, or returns false when idle or when a cycle is already in
// flight. A skipped tick is not retried.
func (r *Refresher) Tick() bool {
	return r.tick(nil)
}

func (r *Refresher) fire(h *Handle) {
	r.tick(h)
}

// tick runs one fire of h. A fire from a handle canceled by SetMode or
// Stop is dropped, checked under r.mu so it cannot run under a newer mode.
func (r *Refresher) tick(h *Handle) bool {
	r.mu.Lock()
	if h != nil && h.Canceled() {
		r.mu.Unlock()
		return false
	}
	mode := r.mode
	interval := r.intervals[mode]
	if mode == Off || interval <= 0 {
		r.mu.Unlock()
		return false
	}
	r.next = r.now().Add(interval)
	r.mu.Unlock()

	if r.scan.InFlight() {
		r.log.WithField("mode", mode).Debug("auto-refresh tick skipped, fetch in flight")
		return false
	}
	if r.ctx.Err() != nil {
		return false
	}

	topic := r.topic()
	r.log.WithFields(logrus.Fields{"mode": mode, "topic": topic}).Info("auto-refresh tick")
	go r.run(topic)
	return true
}

func (r *Refresher) run(topic string) {
	ctx := r.ctx
	if r.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cycleTimeout)
		defer cancel()
	}
	r.cycle(ctx, topic)
}

// Stop cancels any pending tick and detaches from the parent context. The
// mode is left unchanged.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slot.Stop()
	r.next = time.Time{}
	if r.release != nil {
		r.release()
		r.release = nil
	}
}
