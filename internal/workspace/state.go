package workspace

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// state is the single mutable model of the session. Both stores and the
// coordinator mutate it under mu, which is what makes a category deletion and
// its note resolution one atomic step for every reader.
type state struct {
	mu         sync.RWMutex
	notes      []Note
	categories []Category
	filter     string

	// provisional id -> durable id, kept for the lifetime of the session
	aliases map[string]string
	// provisional id -> handle of its create call
	inflight map[string]*Pending
	// entity id -> revision, bumped by every local mutation
	revs map[string]uint64
	// entity id -> handle of the last persistence call queued for it
	tails map[string]*Pending
}

func newState() *state {
	return &state{
		aliases:  make(map[string]string),
		inflight: make(map[string]*Pending),
		revs:     make(map[string]uint64),
		tails:    make(map[string]*Pending),
	}
}

func (s *state) reset() {
	s.notes = nil
	s.categories = nil
	s.filter = ""
	s.aliases = make(map[string]string)
	s.inflight = make(map[string]*Pending)
	s.revs = make(map[string]uint64)
	s.tails = make(map[string]*Pending)
}

func (s *state) resolve(id string) string {
	if d, ok := s.aliases[id]; ok {
		return d
	}
	return id
}

func (s *state) bump(id string) uint64 {
	s.revs[id]++
	return s.revs[id]
}

// unchanged reports whether id was not mutated after the revision rev was taken.
func (s *state) unchanged(id string, rev uint64) bool {
	return s.revs[s.resolve(id)] == rev
}

func (s *state) noteIndex(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *state) categoryIndex(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *state) hasCategory(id string) bool {
	return s.categoryIndex(id) >= 0
}

func (s *state) removeNoteAt(i int) {
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
}

func (s *state) insertNoteAt(i int, n Note) {
	if i > len(s.notes) {
		i = len(s.notes)
	}
	s.notes = append(s.notes, Note{})
	copy(s.notes[i+1:], s.notes[i:])
	s.notes[i] = n
}

func (s *state) insertCategoryAt(i int, c Category) {
	if i > len(s.categories) {
		i = len(s.categories)
	}
	s.categories = append(s.categories, Category{})
	copy(s.categories[i+1:], s.categories[i:])
	s.categories[i] = c
}

// reconcile records the durable id of a provisional entity and migrates its key.
func (s *state) reconcile(tmp, durable string) {
	s.aliases[tmp] = durable
	delete(s.inflight, tmp)
	if rev, ok := s.revs[tmp]; ok {
		s.revs[durable] = rev
		delete(s.revs, tmp)
	}
	if p, ok := s.tails[tmp]; ok {
		s.tails[durable] = p
		delete(s.tails, tmp)
	}
}

// enqueue makes p the last persistence call of every id and returns the calls
// p has to wait for. Callers hold mu.
func (s *state) enqueue(p *Pending, ids ...string) []*Pending {
	var prior []*Pending
	for _, id := range ids {
		if q, ok := s.tails[id]; ok {
			prior = append(prior, q)
		}
		s.tails[id] = p
	}
	return prior
}

// dequeue forgets p once it resolved, unless a later call is queued behind it.
func (s *state) dequeue(p *Pending, ids ...string) {
	for _, id := range ids {
		id = s.resolve(id)
		if s.tails[id] == p {
			delete(s.tails, id)
		}
	}
}

// core carries what every component of a session shares.
type core struct {
	st      *state
	persist Persistence
	bus     *Bus
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// goPersist runs fn on its own goroutine with a bounded context.
func (c *core) goPersist(fn func(ctx context.Context)) {
	c.goPersistAfter(nil, fn)
}

// goPersistAfter is goPersist for a call that must reach the persistence
// service after the prior ones, whatever their outcome. The timeout starts
// once they resolved.
func (c *core) goPersistAfter(prior []*Pending, fn func(ctx context.Context)) {
	base := c.base
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, q := range prior {
			select {
			case <-q.Done():
			case <-base.Done():
			}
		}
		ctx, cancel := context.WithTimeout(base, c.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// ordered runs fn after prior, the calls returned by state.enqueue when p was
// queued for ids, and forgets p afterwards. fn must resolve p.
func (c *core) ordered(p *Pending, prior []*Pending, ids []string, fn func(ctx context.Context)) {
	c.goPersistAfter(prior, func(ctx context.Context) {
		defer func() {
			c.st.mu.Lock()
			c.st.dequeue(p, ids...)
			c.st.mu.Unlock()
		}()
		fn(ctx)
	})
}

// durableID maps id to the id the persistence service knows, waiting for the
// create call of a provisional entity when it is still in flight.
func (c *core) durableID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}

	c.st.mu.RLock()
	resolvedID := c.st.resolve(id)
	p := c.st.inflight[resolvedID]
	c.st.mu.RUnlock()

	if p != nil {
		return p.Wait(ctx)
	}
	if IsProvisional(resolvedID) {
		return "", &NotFoundError{Kind: "entity", ID: id}
	}
	return resolvedID, nil
}

func (c *core) failed(op, id string, err error) error {
	perr := persistErr(op, id, err)
	c.log.Warn("persistence failed, local change reverted", "op", op, "id", id, "error", err)
	c.bus.Publish(Event{Type: EventPersistenceFailed, ID: id, Op: op, Err: perr})
	return perr
}
