// Package session runs one dashboard per browser session.
//
// Each session owns a national and a detail controller and a single goroutine
// that applies events to them one at a time. Fetches run in their own
// goroutines and post their completions back to that loop, so controller
// state is never touched concurrently.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/pkg/metrics"
)

// ErrClosed is returned when posting to a session that has shut down.
var ErrClosed = errors.New("session closed")

// View names the controller an event is for.
type View int

const (
	ViewNational View = iota
	ViewDetail
)

func (v View) String() string {
	if v == ViewDetail {
		return "detail"
	}
	return "national"
}

type envelope struct {
	view    View
	ev      page.Event
	applied chan struct{}
}

// Session is one browser's dashboard state and event loop.
type Session struct {
	ID string

	exec *Executor
	sink Sink
	log  *slog.Logger
	reg  *metrics.Registry

	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan envelope
	done   chan struct{}

	mu       sync.RWMutex
	national page.National
	detail   page.Detail
	version  uint64
	subs     map[int]chan uint64
	nextSub  int

	lastSeen atomic.Int64
}

func newSession(id string, national page.National, exec *Executor, sink Sink, log *slog.Logger, reg *metrics.Registry) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		exec:     exec,
		sink:     sink,
		log:      log.With("session", id),
		reg:      reg,
		ctx:      ctx,
		cancel:   cancel,
		inbox:    make(chan envelope, 32),
		done:     make(chan struct{}),
		national: national,
		subs:     make(map[int]chan uint64),
	}
	s.touch(time.Now())
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case env := <-s.inbox:
			s.apply(env)
			if env.applied != nil {
				close(env.applied)
			}
		}
	}
}

func (s *Session) apply(env envelope) {
	var (
		cmds  []page.Command
		stale bool
	)
	s.mu.Lock()
	switch env.view {
	case ViewNational:
		stale = s.national.Stale(env.ev)
		s.national, cmds = s.national.Reduce(env.ev)
	case ViewDetail:
		stale = s.detail.Stale(env.ev)
		s.detail, cmds = s.detail.Reduce(env.ev)
	}
	if !stale {
		s.version++
	}
	version := s.version
	subs := make([]chan uint64, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	if stale {
		s.log.Debug("stale result dropped", "view", env.view, "event", env.ev.EventName())
		if s.reg != nil {
			s.reg.Counter("farsdash_stale_results_total", "Fetch results discarded because a newer request superseded them").Inc()
		}
		return
	}
	for _, ch := range subs {
		notify(ch, version)
	}
	for _, c := range cmds {
		go s.run(env.view, c)
	}
}

// notify delivers the latest version, replacing one the subscriber has not
// read yet.
func notify(ch chan uint64, v uint64) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (s *Session) run(view View, cmd page.Command) {
	ev := s.exec.Run(s.ctx, s.ID, cmd)
	if err := page.Failure(ev); err != nil {
		s.log.Warn("fetch failed", "view", view, "command", cmd.Name(), "err", err)
	}
	select {
	case s.inbox <- envelope{view: view, ev: ev}:
	case <-s.ctx.Done():
	}
}

// Post applies a user input to the view's controller and returns once the
// controller has processed it. Fetches it triggers complete later.
func (s *Session) Post(ctx context.Context, view View, ev page.Event) error {
	s.touch(time.Now())
	env := envelope{view: view, ev: ev, applied: make(chan struct{})}
	select {
	case s.inbox <- env:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-env.applied:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.reg != nil {
		s.reg.Counter(metrics.WithLabels("farsdash_events_total", "type", ev.EventName()),
			"User inputs by event type").Inc()
	}
	in := Interaction{SessionID: s.ID, View: view.String(), Event: ev.EventName(), Data: ev, At: time.Now().UTC()}
	if view == ViewDetail {
		in.StateID = int(s.Detail().StateID)
	}
	if err := s.sink.Record(ctx, in); err != nil {
		s.log.Warn("record interaction", "event", in.Event, "err", err)
	}
	return nil
}

// Open ensures the detail controller is showing id.
func (s *Session) Open(ctx context.Context, id domain.StateID) error {
	return s.Post(ctx, ViewDetail, page.Init{StateID: id})
}

// National returns a snapshot of the dashboard controller.
func (s *Session) National() page.National {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.national
}

// Detail returns a snapshot of the detail controller.
func (s *Session) Detail() page.Detail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

// Version increases after every state change.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel that receives the version after each change
// and a function that ends the subscription.
func (s *Session) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Session) touch(t time.Time) { s.lastSeen.Store(t.UnixNano()) }

// Touch marks the session as in use.
func (s *Session) Touch() { s.touch(time.Now()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Close stops the event loop. In-flight fetches are cancelled.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}
