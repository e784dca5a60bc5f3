package autosave

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"note-taker/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiet = 50 * time.Millisecond

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// recorder is a Persistence keeping every SaveNote call.
type recorder struct {
	mu    sync.Mutex
	notes []workspace.Note
	cats  []workspace.Category
	saves []workspace.Note
}

func (r *recorder) Saves() []workspace.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workspace.Note(nil), r.saves...)
}

func (r *recorder) ListNotes(context.Context) ([]workspace.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]workspace.Note(nil), r.notes...), nil
}

func (r *recorder) SaveNote(_ context.Context, n workspace.Note) (workspace.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, n)
	if workspace.IsProvisional(n.ID) {
		n.ID = "durable-" + n.ID[len(workspace.ProvisionalPrefix):]
	}
	return n, nil
}

func (r *recorder) DeleteNote(context.Context, string) error { return nil }

func (r *recorder) ListCategories(context.Context) ([]workspace.Category, error) {
	return append([]workspace.Category(nil), r.cats...), nil
}

func (r *recorder) SaveCategory(_ context.Context, c workspace.Category) (workspace.Category, error) {
	return c, nil
}

func (r *recorder) DeleteCategory(context.Context, string) error { return nil }

func (r *recorder) BulkReassignNotes(context.Context, []string, string) error { return nil }

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*workspace.Session, *Editor, *recorder) {
	t.Helper()

	rec := &recorder{
		cats: []workspace.Category{{ID: "c1", Name: "Work"}, {ID: "c2", Name: "Home"}},
		notes: []workspace.Note{
			{ID: "n1", Title: "title", Content: "body", CategoryID: "c1"},
			{ID: "n2", Title: "other", CategoryID: "c2"},
		},
	}
	s := workspace.NewSession(workspace.Options{Persistence: rec, Logger: silentLogger})
	require.NoError(t, s.Initialize(context.Background()))

	ed := NewEditor(s.Notes(), s.Bus(), Config{
		Quiet:  quiet,
		Clock:  func() time.Time { return fixedNow },
		Logger: silentLogger,
	})
	t.Cleanup(func() {
		ed.Stop()
		_ = s.Teardown(context.Background())
	})
	return s, ed, rec
}

func open(t *testing.T, s *workspace.Session, ed *Editor, id string) {
	t.Helper()
	n, ok := s.Notes().Get(id)
	require.True(t, ok)
	ed.Open(n)
}

func TestEditor_BurstProducesOneSave(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")

	require.NoError(t, ed.SetContent("b"))
	require.NoError(t, ed.SetContent("bo"))
	require.NoError(t, ed.SetContent("bod"))

	assert.Eventually(t, func() bool { return len(rec.Saves()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * quiet)

	saves := rec.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "bod", saves[0].Content)
	assert.Equal(t, "title", saves[0].Title)
	assert.Equal(t, fixedNow, saves[0].UpdatedAt)
	assert.False(t, ed.Dirty())
}

func TestEditor_CloseFlushesImmediately(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")

	require.NoError(t, ed.SetTitle("renamed"))
	require.NoError(t, ed.Close(context.Background()))

	saves := rec.Saves()
	require.Len(t, saves, 1, "saved before Close returned")
	assert.Equal(t, "renamed", saves[0].Title)

	time.Sleep(3 * quiet)
	assert.Len(t, rec.Saves(), 1, "the cancelled timer does not save again")

	n, _ := s.Notes().Get("n1")
	assert.Equal(t, "renamed", n.Title)
}

func TestEditor_NoSaveWithoutDifference(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")

	require.NoError(t, ed.SetTitle("temp"))
	require.NoError(t, ed.SetTitle("title"))
	time.Sleep(3 * quiet)
	require.NoError(t, ed.Close(context.Background()))

	assert.Empty(t, rec.Saves())
}

func TestEditor_CategoryChangeDebounces(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")

	require.NoError(t, ed.SetCategory("c2"))
	require.NoError(t, ed.SetCategory("c1"))
	require.NoError(t, ed.SetCategory("c2"))
	assert.Empty(t, rec.Saves(), "no immediate save")

	assert.Eventually(t, func() bool { return len(rec.Saves()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "c2", rec.Saves()[0].CategoryID)
}

func TestEditor_ReopenSameNoteKeepsLocalCopies(t *testing.T) {
	s, ed, _ := setup(t)
	open(t, s, ed, "n1")
	require.NoError(t, ed.SetTitle("typing"))

	open(t, s, ed, "n1")
	title, _, _ := ed.Values()
	assert.Equal(t, "typing", title)
}

func TestEditor_SwitchingNotesFlushesPrevious(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")
	require.NoError(t, ed.SetContent("unsaved"))

	open(t, s, ed, "n2")
	saves := rec.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "n1", saves[0].ID)
	assert.Equal(t, "unsaved", saves[0].Content)

	title, content, cat := ed.Values()
	assert.Equal(t, "other", title)
	assert.Empty(t, content)
	assert.Equal(t, "c2", cat)
	assert.Equal(t, "n2", ed.NoteID())
}

func TestEditor_TerminatedOnDelete(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n1")
	require.NoError(t, ed.SetTitle("doomed"))

	_, err := s.Notes().Delete("n1").Wait(context.Background())
	require.NoError(t, err)

	select {
	case <-ed.Terminated():
	case <-time.After(time.Second):
		t.Fatal("editor not terminated")
	}
	assert.ErrorIs(t, ed.SetTitle("again"), ErrNotOpen)

	time.Sleep(3 * quiet)
	assert.Empty(t, rec.Saves(), "pending save of a deleted note is dropped")
}

func TestEditor_FollowsReconciledID(t *testing.T) {
	s, ed, rec := setup(t)

	n, p := s.Notes().Create()
	ed.Open(n)
	durable, err := p.Wait(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return ed.NoteID() == durable }, time.Second, 5*time.Millisecond)

	require.NoError(t, ed.SetTitle("fresh"))
	require.NoError(t, ed.Close(context.Background()))

	saves := rec.Saves()
	require.Len(t, saves, 2)
	assert.Equal(t, durable, saves[1].ID)
	assert.Equal(t, "fresh", saves[1].Title)
}

func TestEditor_FollowsExternalCategoryMove(t *testing.T) {
	s, ed, _ := setup(t)
	open(t, s, ed, "n1")

	_, err := s.Notes().MoveNotes([]string{"n1"}, "c2").Wait(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, _, cat := ed.Values()
		return cat == "c2"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, ed.Dirty())
}

func TestEditor_EditWithoutOpen(t *testing.T) {
	ed := NewEditor(nil, nil, Config{Logger: silentLogger})
	assert.ErrorIs(t, ed.SetContent("x"), ErrNotOpen)
	assert.NoError(t, ed.Close(context.Background()))

	select {
	case <-ed.Terminated():
	default:
		t.Fatal("a never-opened editor reports terminated")
	}
}

func TestEditor_TerminatedWhenDeleteEventsOverflowTheBus(t *testing.T) {
	rec := &recorder{cats: []workspace.Category{{ID: "c1", Name: "Work"}, {ID: "c2", Name: "Home"}}}
	for i := 0; i < 100; i++ {
		rec.notes = append(rec.notes, workspace.Note{ID: fmt.Sprintf("n%d", i), CategoryID: "c1"})
	}
	s := workspace.NewSession(workspace.Options{Persistence: rec, Logger: silentLogger, EventBuffer: 4})
	require.NoError(t, s.Initialize(context.Background()))
	ed := NewEditor(s.Notes(), s.Bus(), Config{Quiet: quiet, Logger: silentLogger})
	t.Cleanup(func() {
		ed.Stop()
		_ = s.Teardown(context.Background())
	})
	open(t, s, ed, "n99")

	p := s.Coordinator().Delete(workspace.DeleteCategoryRequest{CategoryID: "c1", Mode: workspace.ModeDeleteAll})
	_, err := p.Wait(context.Background())
	require.NoError(t, err)
	_, ok := s.Notes().Get("n99")
	require.False(t, ok)

	select {
	case <-ed.Terminated():
	case <-time.After(time.Second):
		t.Fatal("editor not terminated")
	}
	assert.Empty(t, ed.NoteID())
}

func TestEditor_CloseWaitsForSaveStartedByTimer(t *testing.T) {
	s, _, rec := setup(t)
	ed := NewEditor(s.Notes(), s.Bus(), Config{Quiet: time.Millisecond, Logger: silentLogger})
	t.Cleanup(ed.Stop)

	for i := 0; i < 200; i++ {
		open(t, s, ed, "n1")
		title := fmt.Sprintf("take %d", i)
		require.NoError(t, ed.SetTitle(title))
		time.Sleep(time.Duration(i%3) * 500 * time.Microsecond)
		require.NoError(t, ed.Close(context.Background()))

		saves := rec.Saves()
		require.NotEmpty(t, saves)
		require.Equal(t, title, saves[len(saves)-1].Title, "iteration %d", i)
	}
}

func TestEditor_RejectedSaveKeepsTheDifference(t *testing.T) {
	s, ed, rec := setup(t)
	open(t, s, ed, "n2")

	require.NoError(t, ed.SetTitle("kept"))
	require.NoError(t, ed.SetCategory("c1"))
	_, err := s.Coordinator().Delete(workspace.DeleteCategoryRequest{
		CategoryID: "c1", Mode: workspace.ModeDeleteAll,
	}).Wait(context.Background())
	require.NoError(t, err)

	time.Sleep(3 * quiet)
	assert.Empty(t, rec.Saves())
	assert.True(t, ed.Dirty(), "the rejected values are still unsaved")

	require.NoError(t, ed.SetCategory("c2"))
	require.NoError(t, ed.Close(context.Background()))

	saves := rec.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, "kept", saves[0].Title)
	n, _ := s.Notes().Get("n2")
	assert.Equal(t, "kept", n.Title)
}
