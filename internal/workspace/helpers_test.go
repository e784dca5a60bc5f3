package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"note-taker/internal/credentials"

	"github.com/stretchr/testify/require"
)

var (
	silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	errBoom      = errors.New("boom")
)

// fakePersistence records calls and assigns durable ids. Hooks run outside
// the lock so a test can block or fail individual calls.
type fakePersistence struct {
	mu    sync.Mutex
	seq   int
	notes []Note
	cats  []Category
	calls []string

	saveNoteHook       func(n Note) error
	saveCategoryHook   func(c Category) error
	deleteNoteHook     func(id string) error
	deleteCategoryHook func(id string) error
	bulkHook           func(ids []string, target string) error
}

func (f *fakePersistence) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakePersistence) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePersistence) ListNotes(context.Context) ([]Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Note(nil), f.notes...), nil
}

func (f *fakePersistence) SaveNote(_ context.Context, n Note) (Note, error) {
	f.record("SaveNote:" + n.ID)
	if f.saveNoteHook != nil {
		if err := f.saveNoteHook(n); err != nil {
			return Note{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if IsProvisional(n.ID) {
		f.seq++
		n.ID = fmt.Sprintf("note-%d", f.seq)
		f.notes = append([]Note{n}, f.notes...)
		return n, nil
	}
	for i := range f.notes {
		if f.notes[i].ID == n.ID {
			f.notes[i] = n
			return n, nil
		}
	}
	return Note{}, &NotFoundError{Kind: "note", ID: n.ID}
}

func (f *fakePersistence) DeleteNote(_ context.Context, id string) error {
	f.record("DeleteNote:" + id)
	if f.deleteNoteHook != nil {
		if err := f.deleteNoteHook(id); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Kind: "note", ID: id}
}

func (f *fakePersistence) ListCategories(context.Context) ([]Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Category(nil), f.cats...), nil
}

func (f *fakePersistence) SaveCategory(_ context.Context, c Category) (Category, error) {
	f.record("SaveCategory:" + c.ID)
	if f.saveCategoryHook != nil {
		if err := f.saveCategoryHook(c); err != nil {
			return Category{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if IsProvisional(c.ID) {
		f.seq++
		c.ID = fmt.Sprintf("cat-%d", f.seq)
		f.cats = append(f.cats, c)
		return c, nil
	}
	for i := range f.cats {
		if f.cats[i].ID == c.ID {
			f.cats[i] = c
			return c, nil
		}
	}
	return Category{}, &NotFoundError{Kind: "category", ID: c.ID}
}

func (f *fakePersistence) DeleteCategory(_ context.Context, id string) error {
	f.record("DeleteCategory:" + id)
	if f.deleteCategoryHook != nil {
		if err := f.deleteCategoryHook(id); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.cats {
		if f.cats[i].ID == id {
			f.cats = append(f.cats[:i], f.cats[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{Kind: "category", ID: id}
}

func (f *fakePersistence) BulkReassignNotes(_ context.Context, ids []string, target string) error {
	f.record("BulkReassignNotes:" + strings.Join(ids, ",") + "->" + target)
	if f.bulkHook != nil {
		if err := f.bulkHook(ids, target); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for i := range f.notes {
		if set[f.notes[i].ID] {
			f.notes[i].CategoryID = target
		}
	}
	return nil
}

var testEpoch = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

// workHome is the two-category, three-note fixture used across the package.
func workHome() *fakePersistence {
	return &fakePersistence{
		cats: []Category{
			{ID: "c1", Name: "Work", ThemeID: ThemeBlue},
			{ID: "c2", Name: "Home", ThemeID: ThemeGreen},
		},
		notes: []Note{
			{ID: "n1", Title: "standup", CategoryID: "c1", CreatedAt: testEpoch, UpdatedAt: testEpoch},
			{ID: "n2", Title: "roadmap", CategoryID: "c1", CreatedAt: testEpoch, UpdatedAt: testEpoch},
			{ID: "n3", Title: "groceries", CategoryID: "c2", CreatedAt: testEpoch, UpdatedAt: testEpoch},
		},
	}
}

func signedIn(t *testing.T) credentials.Store {
	t.Helper()
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(credentials.Credential{Token: "token", Email: "ada@example.com"}))
	return store
}

func newTestSession(t *testing.T, fp *fakePersistence) *Session {
	t.Helper()

	s := NewSession(Options{
		Persistence: fp,
		Credentials: signedIn(t),
		Logger:      silentLogger,
		EventBuffer: 64,
		Timeout:     2 * time.Second,
	})
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { _ = s.Teardown(context.Background()) })
	return s
}

func wait(t *testing.T, p *Pending) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	id, err := p.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "pending never resolved")
	return id, err
}

func flush(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func ids(notes []Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func categoryIDs(cats []Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.ID)
	}
	return out
}

// drain collects events already buffered on sub.
func drain(sub *Subscriber) []Event {
	var out []Event
	for {
		select {
		case ev := <-sub.Ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []Event) []EventType {
	out := make([]EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}
