package schedule

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeCycle struct {
	mu     sync.Mutex
	topics []string
	calls  chan string
}

func newFakeCycle() *fakeCycle {
	return &fakeCycle{calls: make(chan string, 100)}
}

func (f *fakeCycle) run(_ context.Context, topic string) {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	f.calls <- topic
}

func (f *fakeCycle) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

func waitCall(t *testing.T, f *fakeCycle) string {
	t.Helper()
	select {
	case topic := <-f.calls:
		return topic
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle")
		return ""
	}
}

func TestModeIntervals(t *testing.T) {
	tests := []struct {
		mode Mode
		want time.Duration
	}{
		{Off, 0},
		{Fast, 2 * time.Minute},
		{Hourly, time.Hour},
		{Daily, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := tt.mode.Interval(); got != tt.want {
			t.Errorf("%s.Interval() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestModeNextCycles(t *testing.T) {
	m := Off
	seen := []Mode{}
	for i := 0; i < 4; i++ {
		m = m.Next()
		seen = append(seen, m)
	}
	want := []Mode{Fast, Hourly, Daily, Off}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("step %d: got %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Hourly "); err != nil || m != Hourly {
		t.Errorf("ParseMode(Hourly) = %s, %v", m, err)
	}
	if _, err := ParseMode("weekly"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRemainingAt(t *testing.T) {
	base := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		next time.Time
		want int
	}{
		{base.Add(2 * time.Minute), 120},
		{base.Add(1500 * time.Millisecond), 2},
		{base.Add(time.Millisecond), 1},
		{base, 0},
		{base.Add(-time.Minute), 0},
	}
	for _, tt := range tests {
		if got := RemainingAt(tt.next, base); got != tt.want {
			t.Errorf("RemainingAt(%v) = %d, want %d", tt.next.Sub(base), got, tt.want)
		}
	}
}

func TestScanStateTryBegin(t *testing.T) {
	s := NewScanState("idle")
	if !s.TryBegin("scanning") {
		t.Fatal("expected first TryBegin to succeed")
	}
	if s.TryBegin("again") {
		t.Fatal("expected second TryBegin to be dropped")
	}
	if got := s.Snapshot().Status; got != "scanning" {
		t.Errorf("dropped TryBegin changed status to %q", got)
	}

	at := time.Now()
	s.End(false, "failed", at)
	snap := s.Snapshot()
	if snap.InFlight {
		t.Error("expected in-flight cleared after failed End")
	}
	if !snap.LastSuccess.IsZero() {
		t.Error("failed End must not set last success")
	}

	s.TryBegin("scanning")
	s.End(true, "done", at)
	if !s.Snapshot().LastSuccess.Equal(at) {
		t.Error("expected last success set")
	}
}

func TestSlotArmReplacesPrevious(t *testing.T) {
	var slot Slot
	var first, second atomic.Int32

	h1 := slot.Arm(5*time.Millisecond, func(*Handle) { first.Add(1) })
	h2 := slot.Arm(5*time.Millisecond, func(*Handle) { second.Add(1) })
	if !h1.Canceled() {
		t.Error("expected first handle canceled by re-arm")
	}
	if h2.Canceled() {
		t.Error("second handle should be active")
	}

	time.Sleep(40 * time.Millisecond)
	slot.Stop()
	if second.Load() == 0 {
		t.Error("expected second task to fire")
	}
	if first.Load() > 1 {
		t.Errorf("first task kept firing after re-arm: %d", first.Load())
	}
	if slot.Active() {
		t.Error("expected slot inactive after Stop")
	}
}

func TestHandleCancelIdempotent(t *testing.T) {
	var slot Slot
	h := slot.Arm(time.Hour, func(*Handle) {})
	h.Cancel()
	h.Cancel()
	if !h.Canceled() {
		t.Error("expected canceled")
	}
}

func TestRefresherArmSetsNextFire(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, newFakeCycle().run,
		WithClock(func() time.Time { return now }), WithLogger(quietLogger()))

	if _, ok := r.NextFire(); ok {
		t.Fatal("expected idle refresher to have no next fire")
	}
	if r.Remaining() != 0 {
		t.Error("expected 0 remaining when idle")
	}

	r.SetMode(Fast)
	defer r.Stop()
	next, ok := r.NextFire()
	if !ok || !next.Equal(now.Add(2*time.Minute)) {
		t.Errorf("unexpected next fire %v", next)
	}
	if got := r.Remaining(); got != 120 {
		t.Errorf("expected 120s remaining, got %d", got)
	}

	r.SetMode(Off)
	if _, ok := r.NextFire(); ok {
		t.Error("expected next fire cleared by Off")
	}
}

func TestRefresherSkipsTickWhileInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scan := NewScanState("")
	cycle := newFakeCycle()
	r := NewRefresher(ctx, scan, func() string { return "markets" }, cycle.run, WithLogger(quietLogger()))
	r.SetMode(Fast)
	defer r.Stop()

	scan.TryBegin("manual search")
	if r.Tick() {
		t.Error("expected tick to be skipped while in flight")
	}
	time.Sleep(20 * time.Millisecond)
	if n := cycle.count(); n != 0 {
		t.Fatalf("expected 0 cycles while in flight, got %d", n)
	}

	scan.End(true, "done", time.Now())
	if !r.Tick() {
		t.Fatal("expected tick to run after in-flight cycle completed")
	}
	if topic := waitCall(t, cycle); topic != "markets" {
		t.Errorf("unexpected topic %q", topic)
	}
}

func TestRefresherReadsTopicAtFireTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	topic := "elections"
	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string {
		mu.Lock()
		defer mu.Unlock()
		return topic
	}, cycle.run, WithLogger(quietLogger()))
	r.SetMode(Hourly)
	defer r.Stop()

	mu.Lock()
	topic = "space"
	mu.Unlock()

	r.Tick()
	if got := waitCall(t, cycle); got != "space" {
		t.Errorf("expected topic read at fire time, got %q", got)
	}
}

func TestRefresherTickIdleDoesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, cycle.run, WithLogger(quietLogger()))
	if r.Tick() {
		t.Error("expected idle tick to be ignored")
	}
}

func TestRefresherTimerFires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, cycle.run,
		WithLogger(quietLogger()), WithIntervals(map[Mode]time.Duration{Fast: 10 * time.Millisecond}))
	r.SetMode(Fast)
	defer r.Stop()

	waitCall(t, cycle)
}

func TestRefresherOffCancelsPendingTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hourly := 15 * time.Millisecond
	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, cycle.run,
		WithLogger(quietLogger()), WithIntervals(map[Mode]time.Duration{Hourly: hourly}))

	r.SetMode(Hourly)
	r.SetMode(Off)
	time.Sleep(3 * hourly)

	if n := cycle.count(); n != 0 {
		t.Errorf("expected no cycles after switching off, got %d", n)
	}
	if r.Mode() != Off {
		t.Errorf("expected mode off, got %s", r.Mode())
	}
}

func TestRefresherStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, cycle.run,
		WithLogger(quietLogger()), WithIntervals(map[Mode]time.Duration{Fast: 10 * time.Millisecond}))
	r.SetMode(Fast)
	cancel()

	time.Sleep(20 * time.Millisecond)
	before := cycle.count()
	time.Sleep(40 * time.Millisecond)
	if after := cycle.count(); after != before {
		t.Errorf("cycles kept running after cancel: %d -> %d", before, after)
	}
}

func TestRefresherDropsFireFromReplacedHandle(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := newFakeCycle()
	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, cycle.run,
		WithClock(func() time.Time { return now }), WithLogger(quietLogger()))
	defer r.Stop()

	r.SetMode(Fast)
	r.slot.mu.Lock()
	old := r.slot.current
	r.slot.mu.Unlock()

	r.SetMode(Daily)
	want, _ := r.NextFire()

	// A fire that passed the ticker's own cancel check before the re-arm.
	if r.tick(old) {
		t.Fatal("expected fire from replaced handle to be dropped")
	}
	if got, _ := r.NextFire(); !got.Equal(want) {
		t.Errorf("next fire moved by stale handle: %v, want %v", got, want)
	}
	time.Sleep(20 * time.Millisecond)
	if n := cycle.count(); n != 0 {
		t.Errorf("expected no cycles, got %d", n)
	}
}

func TestRefresherCycleTimeoutClearsInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scan := NewScanState("")
	done := make(chan error, 1)
	hung := func(ctx context.Context, topic string) {
		if !scan.TryBegin("refreshing " + topic) {
			done <- nil
			return
		}
		<-ctx.Done()
		scan.End(false, "timed out", time.Now())
		done <- ctx.Err()
	}
	r := NewRefresher(ctx, scan, func() string { return "x" }, hung,
		WithLogger(quietLogger()), WithCycleTimeout(30*time.Millisecond))
	r.SetMode(Fast)
	defer r.Stop()

	if !r.Tick() {
		t.Fatal("expected tick to start a cycle")
	}
	select {
	case err := <-done:
		if err != context.DeadlineExceeded {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cycle never saw its deadline")
	}
	if scan.InFlight() {
		t.Fatal("expected scan state cleared after timeout")
	}
	if !r.Tick() {
		t.Error("expected next tick to run once the hung cycle gave up")
	}
}

func TestRefresherFailedCycleKeepsCadence(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scan := NewScanState("")
	ended := make(chan struct{}, 2)
	failing := func(_ context.Context, topic string) {
		if scan.TryBegin("refreshing " + topic) {
			scan.End(false, "provider error", clock())
		}
		ended <- struct{}{}
	}
	r := NewRefresher(ctx, scan, func() string { return "x" }, failing,
		WithClock(clock), WithLogger(quietLogger()))
	r.SetMode(Hourly)
	defer r.Stop()

	for i := 0; i < 2; i++ {
		advance(time.Hour)
		if !r.Tick() {
			t.Fatalf("tick %d: expected cycle to start after a failed one", i)
		}
		select {
		case <-ended:
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d: cycle did not finish", i)
		}
		if scan.InFlight() {
			t.Fatalf("tick %d: failed cycle left scan in flight", i)
		}
		next, ok := r.NextFire()
		if !ok || !next.Equal(clock().Add(time.Hour)) {
			t.Errorf("tick %d: next fire %v, want %v", i, next, clock().Add(time.Hour))
		}
	}
}

func TestRefresherStopDetachesFromContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRefresher(ctx, NewScanState(""), func() string { return "x" }, newFakeCycle().run,
		WithLogger(quietLogger()))
	if r.release != nil {
		t.Fatal("idle refresher should not watch its context")
	}
	r.SetMode(Fast)
	release := r.release
	if release == nil {
		t.Fatal("expected armed refresher to watch its context")
	}
	r.Stop()
	if release() {
		t.Error("expected Stop to unregister the context watch")
	}
	if r.release != nil {
		t.Error("expected release cleared after Stop")
	}
}
