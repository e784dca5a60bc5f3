package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"note-taker/internal/credentials"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout bounds one persistence call when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second
	// DefaultEventBuffer is the per-subscriber buffer when Options.EventBuffer is zero.
	DefaultEventBuffer = 64
)

// Options configures a Session.
type Options struct {
	Persistence Persistence
	Credentials credentials.Store
	Logger      *slog.Logger
	// Bus is created with EventBuffer slots per subscriber when nil.
	Bus         *Bus
	EventBuffer int
	Timeout     time.Duration
	Clock       func() time.Time
}

// Session owns the workspace of one signed-in user: the note and category
// stores, the deletion coordinator and the event bus they publish to.
type Session struct {
	c           *core
	creds       credentials.Store
	notes       *NoteStore
	categories  *CategoryStore
	coordinator *Coordinator

	mu          sync.Mutex
	initialized bool
}

// NewSession wires a session; nothing is loaded until Initialize.
func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	bus := opts.Bus
	if bus == nil {
		size := opts.EventBuffer
		if size <= 0 {
			size = DefaultEventBuffer
		}
		bus = NewBus(size, log)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	c := &core{
		st:      newState(),
		persist: opts.Persistence,
		bus:     bus,
		log:     log,
		timeout: timeout,
		now:     clock,
	}
	c.base, c.cancel = context.WithCancel(context.Background())

	coord := &Coordinator{c: c}
	return &Session{
		c:           c,
		creds:       opts.Credentials,
		notes:       &NoteStore{c: c},
		categories:  &CategoryStore{c: c, coord: coord},
		coordinator: coord,
	}
}

// Initialize loads categories and notes, provided a credential is present.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds != nil {
		if _, ok := s.creds.Current(); !ok {
			return ErrNoCredential
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.categories.Load(gctx) })
	g.Go(func() error { return s.notes.Load(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	s.initialized = true
	s.c.log.Debug("session initialized",
		"notes", len(s.notes.List()),
		"categories", len(s.categories.List()))
	return nil
}

// Initialized reports whether Initialize succeeded since the last Teardown.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Flush waits for every persistence call issued so far.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Teardown waits for in-flight persistence (until ctx ends, after which the
// remaining calls are cancelled), then drops all local state.
func (s *Session) Teardown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Flush(ctx)
	if err != nil {
		s.c.log.Warn("teardown with persistence still in flight", "error", err)
		s.c.cancel()
		s.c.wg.Wait()
	}

	s.c.st.mu.Lock()
	s.c.st.reset()
	s.c.st.mu.Unlock()

	// fresh base context for a later Initialize
	s.c.cancel()
	s.c.base, s.c.cancel = context.WithCancel(context.Background())
	s.initialized = false
	return err
}

// Snapshot returns notes and categories from one consistent read.
func (s *Session) Snapshot() ([]Note, []Category) {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()
	return append([]Note(nil), s.c.st.notes...), append([]Category(nil), s.c.st.categories...)
}

// Notes returns the note store.
func (s *Session) Notes() *NoteStore { return s.notes }

// Categories returns the category store.
func (s *Session) Categories() *CategoryStore { return s.categories }

// Coordinator returns the category deletion coordinator.
func (s *Session) Coordinator() *Coordinator { return s.coordinator }

// Bus returns the event bus of the session.
func (s *Session) Bus() *Bus { return s.c.bus }
