package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"note-taker/internal/workspace"
)

// DefaultQuiet is the quiet period after the last edit before a save.
const DefaultQuiet = 800 * time.Millisecond

// ErrNotOpen is returned for edits while no note is open.
var ErrNotOpen = errors.New("no note open in the editor")

// NoteStore is what the editor needs from the workspace.
type NoteStore interface {
	Get(id string) (workspace.Note, bool)
	Update(n workspace.Note) *workspace.Pending
}

// Config tunes an Editor.
type Config struct {
	Quiet  time.Duration
	Clock  func() time.Time
	Logger *slog.Logger
}

// Editor holds local copies of the open note's title, content and category
// and saves them once edits pause. Edits only ever touch the local copies.
type Editor struct {
	store NoteStore
	quiet time.Duration
	now   func() time.Time
	log   *slog.Logger
	deb   Debouncer
	unsub func()

	mu         sync.Mutex
	open       bool
	noteID     string
	aliasID    string
	base       workspace.Note
	title      string
	content    string
	categoryID string
	lastSave   *workspace.Pending
	terminated chan struct{}
}

// NewEditor returns an editor saving through store. When bus is not nil the
// editor follows id reconciliation and ends its session when the open note
// is deleted.
func NewEditor(store NoteStore, bus *workspace.Bus, cfg Config) *Editor {
	if cfg.Quiet <= 0 {
		cfg.Quiet = DefaultQuiet
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	closed := make(chan struct{})
	close(closed)

	e := &Editor{
		store:      store,
		quiet:      cfg.Quiet,
		now:        cfg.Clock,
		log:        cfg.Logger,
		terminated: closed,
	}
	if bus != nil {
		sub, cancel := bus.Subscribe()
		e.unsub = cancel
		go e.watch(sub)
	}
	return e
}

// Open starts editing n. Opening the note that is already open keeps the
// local copies; opening another one first saves the pending difference of
// the current note.
func (e *Editor) Open(n workspace.Note) {
	e.mu.Lock()
	if e.open && e.isCurrent(n.ID) {
		e.mu.Unlock()
		return
	}
	wasOpen := e.open
	e.mu.Unlock()

	if wasOpen {
		e.deb.Cancel()
		e.save()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = true
	e.noteID = n.ID
	e.aliasID = ""
	e.base = n
	e.title, e.content, e.categoryID = n.Title, n.Content, n.CategoryID
	e.lastSave = nil
	e.terminated = make(chan struct{})
}

// NoteID returns the id of the open note, "" when closed.
func (e *Editor) NoteID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		return ""
	}
	return e.noteID
}

// Values returns the local copies.
func (e *Editor) Values() (title, content, categoryID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title, e.content, e.categoryID
}

// Dirty reports whether the local copies differ from the last saved note.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open && e.dirty()
}

// SetTitle edits the title.
func (e *Editor) SetTitle(s string) error {
	return e.edit(func() { e.title = s })
}

// SetContent edits the content.
func (e *Editor) SetContent(s string) error {
	return e.edit(func() { e.content = s })
}

// SetCategory changes the category; it debounces like a text edit.
func (e *Editor) SetCategory(id string) error {
	return e.edit(func() { e.categoryID = id })
}

func (e *Editor) edit(apply func()) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrNotOpen
	}
	apply()
	e.mu.Unlock()

	e.deb.Arm(e.quiet, func() { e.save() })
	return nil
}

// Close saves any pending difference right away and waits for that save (or
// the last one still running) to reach the persistence service.
func (e *Editor) Close(ctx context.Context) error {
	e.deb.Cancel()
	e.save()

	e.mu.Lock()
	e.open = false
	last := e.lastSave
	e.lastSave = nil
	e.mu.Unlock()

	if last == nil {
		return nil
	}
	_, err := last.Wait(ctx)
	return err
}

// Terminated is closed when the open note is deleted from under the editor.
func (e *Editor) Terminated() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminated
}

// Stop detaches the editor from the event bus. Unsaved edits are dropped,
// call Close first.
func (e *Editor) Stop() {
	e.deb.Cancel()
	if e.unsub != nil {
		e.unsub()
	}
}

// save issues an update when the local copies differ from the last saved
// note. The update is issued under mu, so Close always sees the save a
// concurrent timer started.
func (e *Editor) save() *workspace.Pending {
	e.mu.Lock()
	if !e.open || !e.dirty() {
		e.mu.Unlock()
		return nil
	}
	base := e.base
	n := e.base
	n.ID = e.noteID
	n.Title, n.Content, n.CategoryID = e.title, e.content, e.categoryID
	n.UpdatedAt = e.now()
	e.base = n

	p := e.store.Update(n)
	e.lastSave = p

	var err error
	select {
	case <-p.Done():
		_, err = p.Wait(context.Background())
		if errors.Is(err, workspace.ErrValidation) {
			// nothing was saved: keep the difference so the next edit retries it
			e.base = base
		}
	default:
	}
	e.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, workspace.ErrNotFound):
		e.terminate(n.ID)
	default:
		e.log.Warn("autosave rejected", "note_id", n.ID, "error", err)
	}
	return p
}

func (e *Editor) dirty() bool {
	return e.title != e.base.Title || e.content != e.base.Content || e.categoryID != e.base.CategoryID
}

func (e *Editor) isCurrent(id string) bool {
	return id != "" && (id == e.noteID || id == e.aliasID)
}

func (e *Editor) terminate(id string) {
	e.mu.Lock()
	if !e.open || !e.isCurrent(id) {
		e.mu.Unlock()
		return
	}
	e.open = false
	close(e.terminated)
	e.mu.Unlock()

	e.deb.Cancel()
	e.log.Debug("edit session terminated, note deleted", "note_id", id)
}

func (e *Editor) watch(sub *workspace.Subscriber) {
	for {
		select {
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			e.handle(ev)
		case <-sub.Lagged:
			e.resync()
		}
	}
}

func (e *Editor) handle(ev workspace.Event) {
	switch ev.Type {
	case workspace.EventNoteReconciled:
		e.mu.Lock()
		if e.open && ev.PrevID == e.noteID {
			e.aliasID, e.noteID = e.noteID, ev.ID
			e.base.ID = ev.ID
		}
		e.mu.Unlock()
	case workspace.EventNoteDeleted:
		e.mu.Lock()
		hit := e.open && (e.isCurrent(ev.ID) || e.isCurrent(ev.PrevID))
		e.mu.Unlock()
		if hit {
			e.terminate(e.NoteID())
		}
	case workspace.EventNoteUpdated:
		e.followCategory(ev)
	}
}

// resync re-reads the open note after the bus dropped events for the editor,
// catching a deletion, a reconciled id or a category change it missed.
func (e *Editor) resync() {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return
	}
	id := e.noteID
	e.mu.Unlock()

	cur, ok := e.store.Get(id)
	if !ok {
		e.terminate(id)
		return
	}
	if cur.ID != id {
		e.handle(workspace.Event{Type: workspace.EventNoteReconciled, ID: cur.ID, PrevID: id})
	}
	e.followCategory(workspace.Event{Type: workspace.EventNoteUpdated, ID: cur.ID})
}

// followCategory adopts a category change made outside the editor (a bulk
// move or a category deletion) unless the user picked a category meanwhile.
func (e *Editor) followCategory(ev workspace.Event) {
	e.mu.Lock()
	if !e.open || !(e.isCurrent(ev.ID) || e.isCurrent(ev.PrevID)) {
		e.mu.Unlock()
		return
	}
	id := e.noteID
	e.mu.Unlock()

	cur, ok := e.store.Get(id)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open && e.categoryID == e.base.CategoryID && cur.CategoryID != e.base.CategoryID {
		e.categoryID = cur.CategoryID
		e.base.CategoryID = cur.CategoryID
	}
}
