package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/pkg/metrics"
)

// Options configures a Store.
type Options struct {
	Backend     page.Backend
	Sink        Sink
	Years       []int
	DefaultYear int
	// Idle is how long an unused session survives. Sessions with a live
	// subscriber are kept regardless.
	Idle    time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// Store holds the live sessions keyed by id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
	exec     *Executor
	now      func() time.Time // for testing
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Idle <= 0 {
		opts.Idle = 30 * time.Minute
	}
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		exec:     NewExecutor(opts.Backend),
		now:      time.Now,
	}
}

// Get returns the session for id, creating it when missing. An empty id gets
// a fresh random one.
func (st *Store) Get(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		s.touch(st.now())
		return s
	}
	s := newSession(id, page.NewNational(st.opts.Years, st.opts.DefaultYear), st.exec, st.opts.Sink, st.opts.Logger, st.opts.Metrics)
	s.touch(st.now())
	st.sessions[id] = s
	st.gauge()
	st.opts.Logger.Debug("session created", "session", id)
	return s
}

// Lookup returns an existing session.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep closes sessions idle for longer than Options.Idle and returns how
// many were removed.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.opts.Idle)
	var expired []*Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.subscribers() == 0 && s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.gauge()
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
		st.opts.Logger.Debug("session expired", "session", s.ID)
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (st *Store) Run(ctx context.Context) {
	every := max(st.opts.Idle/2, time.Second)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st.Sweep()
		}
	}
}

// Close shuts down every session.
func (st *Store) Close() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.gauge()
	st.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// gauge must be called with mu held.
func (st *Store) gauge() {
	if st.opts.Metrics == nil {
		return
	}
	st.opts.Metrics.Gauge("farsdash_sessions_active", "Live dashboard sessions").Set(int64(len(st.sessions)))
}
