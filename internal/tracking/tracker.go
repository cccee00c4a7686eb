package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amanmaurya7/f1-map/internal/geo"
	"github.com/amanmaurya7/f1-map/internal/metrics"
)

// State is the tracking session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateTracking  State = "tracking"
	StateSuspended State = "suspended"
)

// DefaultRetryDelay is how long the tracker waits before re-subscribing after
// a provider timeout.
const DefaultRetryDelay = 5 * time.Second

// Event is an accepted location, ready for projection and rendering.
type Event struct {
	geo.Coordinate
	Quality     Quality `json:"quality"`
	OutOfBounds bool    `json:"outOfBounds" doc:"The position lies outside the map bounds and must not be drawn"`
	Timestamp   int64   `json:"timestamp" doc:"Sample time in Unix milliseconds"`
}

// Consumer receives accepted locations and provider failures. Calls are made
// while the tracker is locked, in delivery order; implementations must not
// call back into the Tracker synchronously.
type Consumer interface {
	HandleLocation(Event)
	HandleError(error)
}

// Options configures a Tracker.
type Options struct {
	Filter     FilterConfig
	Bounds     geo.Bounds
	RetryDelay time.Duration
	Clock      Clock
	Logger     *slog.Logger
}

// Tracker owns one tracking session at a time. It subscribes a fresh Filter
// to the provider on Start or Resume and discards it on Suspend or Stop.
type Tracker struct {
	provider Provider
	consumer Consumer
	opts     Options
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	sess    *session
	network NetworkStatus
	last    *Event
	nextID  uint64
}

// session is the state of one subscription. alive is cleared before the
// subscription is dropped so late callbacks are ignored.
type session struct {
	id     uint64
	alive  bool
	filter *Filter
	sub    Subscription
	retry  Timer
}

// NewTracker creates an idle tracker. A nil provider is allowed; Start then
// reports ErrUnsupportedEnvironment.
func NewTracker(provider Provider, consumer Consumer, opts Options) *Tracker {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Filter == (FilterConfig{}) {
		opts.Filter = DefaultFilterConfig
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		provider: provider,
		consumer: consumer,
		opts:     opts,
		log:      log.With("component", "tracker"),
		state:    StateIdle,
		network:  UnknownNetwork,
	}
}

// Start begins a new session, cancelling any previous one first.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.provider == nil {
		t.consumer.HandleError(ErrUnsupportedEnvironment)
		return ErrUnsupportedEnvironment
	}
	t.teardown()
	return t.begin(ctx)
}

// Suspend drops the session when the viewer goes to the background. Nothing
// of the filter state survives; Resume starts over.
func (t *Tracker) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateTracking {
		return
	}
	t.teardown()
	t.setState(StateSuspended)
}

// Resume starts a fresh session after Suspend. It is a no-op in other states.
func (t *Tracker) Resume(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateSuspended {
		return nil
	}
	return t.begin(ctx)
}

// Stop ends the session and returns to idle.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.teardown()
	if t.state != StateIdle {
		t.setState(StateIdle)
	}
}

// SetNetworkStatus records the latest connectivity hint. It applies to the
// next subscription.
func (t *Tracker) SetNetworkStatus(n NetworkStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.network = n
}

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	State     State         `json:"state" enum:"idle,tracking,suspended"`
	Network   NetworkStatus `json:"network"`
	Watch     WatchOptions  `json:"watch"`
	Window    int           `json:"window" doc:"Samples held in the rolling window"`
	LastEvent *Event        `json:"lastEvent,omitempty"`
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		State:   t.state,
		Network: t.network,
		Watch:   TuneWatchOptions(t.network),
	}
	if t.sess != nil {
		s.Window = len(t.sess.filter.window)
	}
	if t.last != nil {
		ev := *t.last
		s.LastEvent = &ev
	}
	return s
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LastEvent returns the last accepted location. Provider failures never clear it.
func (t *Tracker) LastEvent() (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return Event{}, false
	}
	return *t.last, true
}

// begin creates and subscribes a new session. Caller holds mu.
func (t *Tracker) begin(ctx context.Context) error {
	t.nextID++
	sess := &session{
		id:     t.nextID,
		alive:  true,
		filter: NewFilter(t.opts.Filter, t.network),
	}
	if err := t.subscribe(sess); err != nil {
		t.setState(StateIdle)
		return fmt.Errorf("start tracking: %w", err)
	}
	t.sess = sess
	t.setState(StateTracking)
	t.log.InfoContext(ctx, "tracking session started", "session", sess.id, "network", t.network.Type)
	return nil
}

func (t *Tracker) subscribe(sess *session) error {
	sub, err := t.provider.Watch(
		TuneWatchOptions(t.network),
		func(s RawSample) { t.onSample(sess, s) },
		func(err error) { t.onError(sess, err) },
	)
	if err != nil {
		return err
	}
	sess.sub = sub
	return nil
}

// teardown kills the current session. Caller holds mu.
func (t *Tracker) teardown() {
	sess := t.sess
	if sess == nil {
		return
	}
	sess.alive = false
	if sess.retry != nil {
		sess.retry.Stop()
		sess.retry = nil
	}
	if sess.sub != nil {
		sess.sub.Unsubscribe()
	}
	t.sess = nil
	t.log.Debug("tracking session ended", "session", sess.id)
}

func (t *Tracker) setState(s State) {
	t.state = s
	metrics.SessionTransitions.WithLabelValues(string(s)).Inc()
}

func (t *Tracker) live(sess *session) bool {
	return sess.alive && t.sess == sess
}

func (t *Tracker) onSample(sess *session, s RawSample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.live(sess) {
		return
	}

	q, verdict := sess.filter.Offer(s)
	metrics.SamplesTotal.WithLabelValues(string(verdict)).Inc()
	if verdict != Accepted {
		t.log.Debug("sample rejected", "verdict", verdict, "accuracy", s.AccuracyMeters)
		return
	}

	ev := Event{
		Coordinate:  s.Coordinate,
		Quality:     q,
		OutOfBounds: !t.opts.Bounds.Contains(s.Coordinate),
		Timestamp:   s.Timestamp,
	}
	if ev.OutOfBounds {
		metrics.OutOfBounds.Inc()
	}
	t.last = &ev
	t.consumer.HandleLocation(ev)
}

func (t *Tracker) onError(sess *session, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.live(sess) {
		return
	}

	code := ErrorCode(err)
	metrics.ProviderErrors.WithLabelValues(code).Inc()
	t.log.Warn("location provider error", "session", sess.id, "code", code, "error", err)
	t.consumer.HandleError(err)

	switch {
	case errors.Is(err, ErrTimeout):
		if sess.retry == nil {
			sess.retry = t.opts.Clock.AfterFunc(t.opts.RetryDelay, func() { t.retry(sess) })
		}
	case errors.Is(err, ErrPermissionDenied):
		t.teardown()
		t.setState(StateIdle)
	}
}

// retry re-subscribes a session after a timeout. The filter is kept; only
// the provider subscription is restarted.
func (t *Tracker) retry(sess *session) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.live(sess) {
		return
	}
	sess.retry = nil
	if sess.sub != nil {
		sess.sub.Unsubscribe()
		sess.sub = nil
	}
	metrics.TimeoutRetries.Inc()

	if err := t.subscribe(sess); err != nil {
		t.log.Error("re-subscribe after timeout failed", "session", sess.id, "error", err)
		t.consumer.HandleError(err)
		t.teardown()
		t.setState(StateIdle)
	}
}
