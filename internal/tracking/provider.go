package tracking

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Provider is a push-based source of location samples. Watch registers the
// callbacks and returns a Subscription that stops delivery. Callbacks must be
// invoked asynchronously, never from inside Watch itself.
type Provider interface {
	Watch(opts WatchOptions, onSample func(RawSample), onError func(error)) (Subscription, error)
}

// Subscription is an active Watch registration.
type Subscription interface {
	Unsubscribe()
}

// ErrNoWatcher is returned by PushProvider when nothing is subscribed.
var ErrNoWatcher = errors.New("no active location watcher")

// PushProvider is fed by external producers (HTTP requests, WebSocket
// connections). It supports a single watcher; a new Watch replaces the old one.
type PushProvider struct {
	mu      sync.Mutex
	current *pushWatch
	opts    WatchOptions
}

type pushWatch struct {
	p        *PushProvider
	onSample func(RawSample)
	onError  func(error)
}

// NewPushProvider creates an idle push provider.
func NewPushProvider() *PushProvider {
	return &PushProvider{}
}

// Watch implements Provider.
func (p *PushProvider) Watch(opts WatchOptions, onSample func(RawSample), onError func(error)) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := &pushWatch{p: p, onSample: onSample, onError: onError}
	p.current = w
	p.opts = opts
	return w, nil
}

func (w *pushWatch) Unsubscribe() {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if w.p.current == w {
		w.p.current = nil
	}
}

// Options returns the options requested by the current watcher.
func (p *PushProvider) Options() (WatchOptions, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts, p.current != nil
}

// Push delivers a sample to the current watcher.
func (p *PushProvider) Push(s RawSample) error {
	w := p.watcher()
	if w == nil {
		return ErrNoWatcher
	}
	w.onSample(s)
	return nil
}

// Fail delivers a provider error to the current watcher.
func (p *PushProvider) Fail(err error) error {
	w := p.watcher()
	if w == nil {
		return ErrNoWatcher
	}
	w.onError(err)
	return nil
}

func (p *PushProvider) watcher() *pushWatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// ReplayRecord is one line of a replay file: either a sample or an error code.
type ReplayRecord struct {
	RawSample
	Error string `json:"error,omitempty"`
}

// ReadReplay parses a JSON-lines stream of ReplayRecords. Blank lines and
// lines starting with # are skipped.
func ReadReplay(r io.Reader) ([]ReplayRecord, error) {
	var records []ReplayRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec ReplayRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}
	return records, nil
}

// ReplayProvider delivers a fixed list of records on its own goroutine, then
// closes Done. Each Watch starts from the first record not yet delivered, so
// a re-subscription after a timeout carries on where the last one stopped.
type ReplayProvider struct {
	deliver sync.Mutex // held while a record is handed to a watcher
	mu      sync.Mutex
	records []ReplayRecord
	next    int
	done    chan struct{}
	closed  bool
}

// NewReplayProvider creates a provider over records.
func NewReplayProvider(records []ReplayRecord) *ReplayProvider {
	return &ReplayProvider{records: records, done: make(chan struct{})}
}

// Done is closed once every record has been delivered.
func (p *ReplayProvider) Done() <-chan struct{} {
	return p.done
}

// Watch implements Provider. Only one goroutine delivers at a time, so a
// re-subscription after a timeout continues from the next record in order.
func (p *ReplayProvider) Watch(_ WatchOptions, onSample func(RawSample), onError func(error)) (Subscription, error) {
	stop := make(chan struct{})
	sub := &replaySub{stop: stop}

	go func() {
		for p.deliverNext(stop, onSample, onError) {
		}
	}()
	return sub, nil
}

// deliverNext hands the next record to the callbacks unless stop is closed.
// It reports whether the caller should continue.
func (p *ReplayProvider) deliverNext(stop <-chan struct{}, onSample func(RawSample), onError func(error)) bool {
	p.deliver.Lock()
	defer p.deliver.Unlock()

	if stopped(stop) {
		return false
	}
	rec, ok := p.take()
	if !ok {
		return false
	}
	if stopped(stop) {
		p.untake()
		return false
	}
	if rec.Error != "" {
		onError(ProviderError(rec.Error))
	} else {
		onSample(rec.RawSample)
	}
	return true
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

func (p *ReplayProvider) take() (ReplayRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.records) {
		if !p.closed {
			p.closed = true
			close(p.done)
		}
		return ReplayRecord{}, false
	}
	rec := p.records[p.next]
	p.next++
	return rec, true
}

// untake returns the last taken record to the front of the queue.
func (p *ReplayProvider) untake() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next--
}

type replaySub struct {
	once sync.Once
	stop chan struct{}
}

func (s *replaySub) Unsubscribe() {
	s.once.Do(func() { close(s.stop) })
}
