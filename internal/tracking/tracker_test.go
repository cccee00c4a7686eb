package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amanmaurya7/f1-map/internal/geo"
)

var trackBounds = geo.Bounds{
	North: 34.854529,
	South: 34.839992,
	East:  136.544621,
	West:  136.521328,
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	errs   []error
}

func (r *recorder) HandleLocation(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) HandleError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.errs)
}

// manualClock fires scheduled functions only when Advance is called.
type manualClock struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	d       time.Duration
	f       func()
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	tm := &manualTimer{clock: c, d: d, f: f}
	c.pending = append(c.pending, tm)
	return tm
}

func (tm *manualTimer) Stop() bool {
	tm.clock.mu.Lock()
	defer tm.clock.mu.Unlock()
	was := !tm.stopped
	tm.stopped = true
	return was
}

// FireAll runs every pending, unstopped timer and returns how many ran.
func (c *manualClock) FireAll() int {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	n := 0
	for _, tm := range pending {
		c.mu.Lock()
		stopped := tm.stopped
		tm.stopped = true
		c.mu.Unlock()
		if !stopped {
			tm.f()
			n++
		}
	}
	return n
}

func (c *manualClock) Pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, tm := range c.pending {
		if !tm.stopped {
			out = append(out, tm)
		}
	}
	return out
}

// countingProvider wraps a PushProvider and counts Watch calls.
type countingProvider struct {
	*PushProvider
	mu      sync.Mutex
	watches int
}

func (p *countingProvider) Watch(opts WatchOptions, onSample func(RawSample), onError func(error)) (Subscription, error) {
	p.mu.Lock()
	p.watches++
	p.mu.Unlock()
	return p.PushProvider.Watch(opts, onSample, onError)
}

func (p *countingProvider) Watches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watches
}

func newTestTracker(t *testing.T) (*Tracker, *countingProvider, *recorder, *manualClock) {
	t.Helper()
	provider := &countingProvider{PushProvider: NewPushProvider()}
	rec := &recorder{}
	clock := &manualClock{}
	tr := NewTracker(provider, rec, Options{
		Filter: DefaultFilterConfig,
		Bounds: trackBounds,
		Clock:  clock,
	})
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return tr, provider, rec, clock
}

func mustPush(t *testing.T, p *countingProvider, s RawSample) {
	t.Helper()
	if err := p.Push(s); err != nil {
		t.Fatalf("Push: %v", err)
	}
}

func TestTrackerEmitsAcceptedSamples(t *testing.T) {
	tr, p, rec, _ := newTestTracker(t)

	mustPush(t, p, sample(origin, 5, 1_000))
	mustPush(t, p, sample(geo.Offset(origin, 15, 0), 5, 1_100)) // too soon
	mustPush(t, p, sample(geo.Offset(origin, 15, 0), 5, 2_000))

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if rec.events[0].Timestamp > rec.events[1].Timestamp {
		t.Fatal("events must be emitted in timestamp order")
	}
	if rec.events[0].OutOfBounds {
		t.Fatal("origin is inside the track")
	}
	last, ok := tr.LastEvent()
	if !ok || last.Timestamp != 2_000 {
		t.Fatalf("LastEvent = %+v, %v", last, ok)
	}
}

func TestTrackerFlagsOutOfBounds(t *testing.T) {
	_, p, rec, _ := newTestTracker(t)
	mustPush(t, p, sample(geo.Coordinate{Lat: 35.0, Lng: 136.6}, 5, 1_000))
	if len(rec.events) != 1 || !rec.events[0].OutOfBounds {
		t.Fatalf("events = %+v, want one out-of-bounds event", rec.events)
	}
}

func TestTrackerSessionReset(t *testing.T) {
	tr, p, rec, _ := newTestTracker(t)

	mustPush(t, p, sample(origin, 5, 1_000))
	tr.Suspend()
	if got := tr.State(); got != StateSuspended {
		t.Fatalf("state = %s, want suspended", got)
	}
	if err := p.Push(sample(geo.Offset(origin, 50, 0), 5, 5_000)); !errors.Is(err, ErrNoWatcher) {
		t.Fatalf("push while suspended = %v, want ErrNoWatcher", err)
	}

	if err := tr.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	// 2m from the pre-suspend fix and only 100ms later: still accepted
	// because nothing carried over.
	mustPush(t, p, sample(geo.Offset(origin, 2, 0), 5, 1_100))

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	if snap := tr.Snapshot(); snap.Window != 1 {
		t.Fatalf("window after resume = %d, want 1", snap.Window)
	}
}

func TestTrackerIgnoresLateCallbacks(t *testing.T) {
	provider := NewPushProvider()
	rec := &recorder{}
	tr := NewTracker(provider, rec, Options{Bounds: trackBounds, Clock: &manualClock{}})
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Capture the session's callbacks as a provider would, then suspend.
	w := provider.watcher()
	tr.Suspend()

	w.onSample(sample(origin, 5, 1_000))
	w.onError(ErrPositionUnavailable)

	if n, e := rec.counts(); n != 0 || e != 0 {
		t.Fatalf("dead session delivered %d events and %d errors", n, e)
	}
}

func TestTrackerStartCancelsPreviousSession(t *testing.T) {
	tr, p, rec, _ := newTestTracker(t)
	mustPush(t, p, sample(origin, 5, 1_000))

	old := p.watcher()
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	old.onSample(sample(geo.Offset(origin, 40, 0), 5, 9_000))
	if len(rec.events) != 1 {
		t.Fatalf("old session still delivering: %d events", len(rec.events))
	}
	if p.Watches() != 2 {
		t.Fatalf("watches = %d, want 2", p.Watches())
	}
}

func TestTrackerTimeoutRetriesOnce(t *testing.T) {
	tr, p, rec, clock := newTestTracker(t)
	mustPush(t, p, sample(origin, 5, 1_000))

	if err := p.Fail(ErrTimeout); err != nil {
		t.Fatal(err)
	}
	if err := p.Fail(ErrTimeout); err != nil {
		t.Fatal(err)
	}
	if _, errs := rec.counts(); errs != 2 {
		t.Fatalf("surfaced %d timeouts, want 2", errs)
	}
	pending := clock.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending retries = %d, want 1", len(pending))
	}
	if pending[0].d != DefaultRetryDelay {
		t.Fatalf("retry delay = %v, want %v", pending[0].d, DefaultRetryDelay)
	}

	if n := clock.FireAll(); n != 1 {
		t.Fatalf("fired %d timers", n)
	}
	if p.Watches() != 2 {
		t.Fatalf("watches = %d, want 2 after retry", p.Watches())
	}
	if tr.State() != StateTracking {
		t.Fatalf("state = %s", tr.State())
	}

	// Filter state survived the retry: a 3m move is still rejected.
	mustPush(t, p, sample(geo.Offset(origin, 3, 0), 5, 9_000))
	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}

	// A fresh timeout after the retry schedules another one.
	if err := p.Fail(ErrTimeout); err != nil {
		t.Fatal(err)
	}
	if len(clock.Pending()) != 1 {
		t.Fatal("second timeout should schedule a new retry")
	}
}

func TestTrackerSuspendCancelsPendingRetry(t *testing.T) {
	tr, p, _, clock := newTestTracker(t)
	if err := p.Fail(ErrTimeout); err != nil {
		t.Fatal(err)
	}
	tr.Suspend()
	if n := clock.FireAll(); n != 0 {
		t.Fatalf("retry fired after suspend: %d", n)
	}
	if p.Watches() != 1 {
		t.Fatalf("watches = %d, want 1", p.Watches())
	}
}

func TestTrackerPermissionDeniedIsTerminal(t *testing.T) {
	tr, p, rec, clock := newTestTracker(t)
	mustPush(t, p, sample(origin, 5, 1_000))

	if err := p.Fail(ErrPermissionDenied); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateIdle {
		t.Fatalf("state = %s, want idle", tr.State())
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], ErrPermissionDenied) {
		t.Fatalf("errs = %v", rec.errs)
	}
	if len(clock.Pending()) != 0 {
		t.Fatal("permission denied must not retry")
	}
	if _, ok := tr.LastEvent(); !ok {
		t.Fatal("last good position must survive a provider failure")
	}
	if err := p.Push(sample(origin, 5, 2_000)); !errors.Is(err, ErrNoWatcher) {
		t.Fatalf("push after denial = %v, want ErrNoWatcher", err)
	}
}

func TestTrackerUnavailableKeepsSubscription(t *testing.T) {
	tr, p, rec, clock := newTestTracker(t)
	mustPush(t, p, sample(origin, 5, 1_000))

	if err := p.Fail(ErrPositionUnavailable); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateTracking {
		t.Fatalf("state = %s", tr.State())
	}
	if len(clock.Pending()) != 0 {
		t.Fatal("unavailable must not schedule a retry")
	}
	mustPush(t, p, sample(geo.Offset(origin, 20, 0), 5, 3_000))
	if len(rec.events) != 2 {
		t.Fatalf("events = %d, want 2", len(rec.events))
	}
}

func TestTrackerUnsupportedEnvironment(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(nil, rec, Options{Bounds: trackBounds})
	if err := tr.Start(context.Background()); !errors.Is(err, ErrUnsupportedEnvironment) {
		t.Fatalf("Start = %v, want ErrUnsupportedEnvironment", err)
	}
	if len(rec.errs) != 1 {
		t.Fatal("unsupported environment must be surfaced to the consumer")
	}
	if tr.State() != StateIdle {
		t.Fatalf("state = %s", tr.State())
	}
}

func TestTrackerNetworkTuning(t *testing.T) {
	tr, p, _, _ := newTestTracker(t)
	tr.SetNetworkStatus(NetworkStatus{Type: "cellular", Online: true, EffectiveType: "2g"})
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	opts, ok := p.Options()
	if !ok {
		t.Fatal("no active watcher")
	}
	if opts.Timeout != 20*time.Second || opts.MaximumAge != 30*time.Second || !opts.HighAccuracy {
		t.Fatalf("options = %+v", opts)
	}
}

func TestTrackerStopAndResumeFromIdle(t *testing.T) {
	tr, p, _, _ := newTestTracker(t)
	tr.Stop()
	if tr.State() != StateIdle {
		t.Fatalf("state = %s", tr.State())
	}
	if err := tr.Resume(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.State() != StateIdle {
		t.Fatal("resume from idle should be a no-op")
	}
	if _, ok := p.Options(); ok {
		t.Fatal("stopped tracker still subscribed")
	}
}
