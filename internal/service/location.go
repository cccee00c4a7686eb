package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amanmaurya7/f1-map/internal/tracking"
)

// Session actions accepted by LocationService.Session.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionSuspend = "suspend"
	ActionResume  = "resume"
)

var (
	// ErrUnknownAction is returned by Session for an unrecognised action.
	ErrUnknownAction = errors.New("unknown session action")
	// ErrInvalidSample is returned by Push for a fix outside the coordinate
	// or accuracy ranges.
	ErrInvalidSample = errors.New("invalid sample")
)

var sampleValidator = validator.New()

// LocationService runs the live-location session for the track. Samples
// pushed over HTTP or WebSocket go through the tracker; accepted locations
// and failures are published on the bus.
type LocationService struct {
	track    *TrackService
	provider *tracking.PushProvider
	tracker  *tracking.Tracker
	bus      *EventBus
	now      func() time.Time
	log      *slog.Logger

	mu      sync.Mutex
	failure string // wire code of the last unrecoverable failure
}

// NewLocationService creates an idle location service.
func NewLocationService(track *TrackService, opts tracking.Options) *LocationService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &LocationService{
		track:    track,
		provider: tracking.NewPushProvider(),
		bus:      NewEventBus(),
		now:      time.Now,
		log:      opts.Logger.With("component", "location"),
	}
	s.tracker = tracking.NewTracker(s.provider, s, opts)
	return s
}

// Bus returns the event bus stream handlers subscribe to.
func (s *LocationService) Bus() *EventBus { return s.bus }

// HandleLocation implements tracking.Consumer.
func (s *LocationService) HandleLocation(ev tracking.Event) {
	u := s.place(ev)
	s.bus.Publish(Event{Kind: KindLocation, Location: &u, Hide: !u.Visible})
}

// HandleError implements tracking.Consumer.
func (s *LocationService) HandleError(err error) {
	terminal := errors.Is(err, tracking.ErrPermissionDenied) || errors.Is(err, tracking.ErrUnsupportedEnvironment)
	code := tracking.ErrorCode(err)
	if terminal {
		s.mu.Lock()
		s.failure = code
		s.mu.Unlock()
	}
	s.bus.Publish(Event{
		Kind:    KindError,
		Code:    code,
		Message: err.Error(),
		Hide:    terminal,
	})
}

func (s *LocationService) place(ev tracking.Event) LocationUpdate {
	return LocationUpdate{
		Event:    ev,
		Position: s.track.Place(ev.Coordinate),
		Visible:  !ev.OutOfBounds,
	}
}

// Session applies a lifecycle action and returns the resulting snapshot.
func (s *LocationService) Session(ctx context.Context, action string) (tracking.Snapshot, error) {
	var err error
	switch action {
	case ActionStart:
		err = s.tracker.Start(ctx)
	case ActionStop:
		s.tracker.Stop()
	case ActionSuspend:
		s.tracker.Suspend()
	case ActionResume:
		err = s.tracker.Resume(ctx)
	default:
		return tracking.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	snap := s.tracker.Snapshot()
	if err == nil && snap.State == tracking.StateTracking {
		s.mu.Lock()
		s.failure = ""
		s.mu.Unlock()
	}
	s.bus.Publish(Event{Kind: KindState, State: snap.State, Hide: snap.State == tracking.StateIdle})
	s.log.InfoContext(ctx, "session action", "action", action, "state", snap.State, "error", err)
	return snap, err
}

// Push feeds a device sample into the running session. It returns
// ErrInvalidSample for an out-of-range fix and tracking.ErrNoWatcher when
// no session is active.
func (s *LocationService) Push(in SampleInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.provider.Push(in.RawSample(s.now().UnixMilli()))
}

// Fail reports a device-side failure by its wire code.
func (s *LocationService) Fail(code string) error {
	return s.provider.Fail(tracking.ProviderError(code))
}

// SetNetwork records the device connectivity hint for the next subscription.
func (s *LocationService) SetNetwork(n tracking.NetworkStatus) tracking.WatchOptions {
	s.tracker.SetNetworkStatus(n)
	return tracking.TuneWatchOptions(n)
}

// Snapshot returns the tracker state.
func (s *LocationService) Snapshot() tracking.Snapshot {
	return s.tracker.Snapshot()
}

// Current returns the last accepted location placed on the canvas.
func (s *LocationService) Current() (LocationUpdate, bool) {
	ev, ok := s.tracker.LastEvent()
	if !ok {
		return LocationUpdate{}, false
	}
	return s.place(ev), true
}

// Live returns the location a viewer should be shown. Outside an active
// tracking session, including after an unrecoverable failure, the marker
// stays hidden even though the last accepted location is kept.
func (s *LocationService) Live() (LocationUpdate, bool) {
	if s.tracker.State() != tracking.StateTracking {
		return LocationUpdate{}, false
	}
	return s.Current()
}

// Failure returns the wire code of the last unrecoverable failure, or ""
// once a new session has started.
func (s *LocationService) Failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Close stops the session.
func (s *LocationService) Close() {
	s.tracker.Stop()
}
