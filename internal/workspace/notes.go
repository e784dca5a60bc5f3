package workspace

import (
	"context"
	"errors"
)

// NoteStore is the ordered, most-recent-first list of notes of the session.
// Mutations apply locally at once and persist asynchronously.
type NoteStore struct {
	c *core
}

// Load replaces the local notes with the persisted ones.
func (s *NoteStore) Load(ctx context.Context) error {
	notes, err := s.c.persist.ListNotes(ctx)
	if err != nil {
		return persistErr("list notes", "", err)
	}

	s.c.st.mu.Lock()
	s.c.st.notes = append([]Note(nil), notes...)
	s.c.st.mu.Unlock()
	return nil
}

// List returns a copy of every note in display order.
func (s *NoteStore) List() []Note {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()
	return append([]Note(nil), s.c.st.notes...)
}

// Visible returns the notes passing the active category filter.
func (s *NoteStore) Visible() []Note {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()

	if s.c.st.filter == "" {
		return append([]Note(nil), s.c.st.notes...)
	}
	out := make([]Note, 0, len(s.c.st.notes))
	for _, n := range s.c.st.notes {
		if n.CategoryID == s.c.st.filter {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the note known as id (provisional ids are followed).
func (s *NoteStore) Get(id string) (Note, bool) {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()

	i := s.c.st.noteIndex(s.c.st.resolve(id))
	if i < 0 {
		return Note{}, false
	}
	return s.c.st.notes[i], true
}

// Orphans returns notes whose category no longer exists.
func (s *NoteStore) Orphans() []Note {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()

	var out []Note
	for _, n := range s.c.st.notes {
		if n.CategoryID != "" && !s.c.st.hasCategory(n.CategoryID) {
			out = append(out, n)
		}
	}
	return out
}

// Filter returns the active category filter, "" meaning all notes.
func (s *NoteStore) Filter() string {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()
	return s.c.st.filter
}

// SetFilter restricts Visible to one category; "" shows all notes.
func (s *NoteStore) SetFilter(categoryID string) error {
	s.c.st.mu.Lock()
	defer s.c.st.mu.Unlock()

	if categoryID == "" {
		s.c.st.filter = ""
		return nil
	}
	id := s.c.st.resolve(categoryID)
	if !s.c.st.hasCategory(id) {
		return &NotFoundError{Kind: "category", ID: categoryID}
	}
	s.c.st.filter = id
	return nil
}

// Create inserts an empty note at the head, in the first category if any, and
// returns it for immediate editing. The handle resolves to the durable id.
func (s *NoteStore) Create() (Note, *Pending) {
	now := s.c.now()
	n := Note{ID: NewProvisionalID(), CreatedAt: now, UpdatedAt: now}
	p := newPending()

	s.c.st.mu.Lock()
	if len(s.c.st.categories) > 0 {
		n.CategoryID = s.c.st.categories[0].ID
	}
	s.c.st.notes = append([]Note{n}, s.c.st.notes...)
	s.c.st.inflight[n.ID] = p
	s.c.st.bump(n.ID)
	s.c.st.mu.Unlock()

	s.c.bus.Publish(Event{Type: EventNoteCreated, ID: n.ID})
	s.c.goPersist(func(ctx context.Context) { s.persistCreate(ctx, n, p) })

	return n, p
}

func (s *NoteStore) persistCreate(ctx context.Context, n Note, p *Pending) {
	const op = "create note"

	// send the freshest local copy; later edits wait for this call anyway
	if cur, ok := s.Get(n.ID); ok {
		n = cur
	}
	catID, err := s.c.durableID(ctx, n.CategoryID)
	if err == nil {
		n.CategoryID = catID
		var saved Note
		saved, err = s.c.persist.SaveNote(ctx, n)
		if err == nil {
			s.reconcile(n.ID, saved.ID)
			p.resolve(saved.ID, nil)
			return
		}
	}

	// Nothing exists remotely, so the provisional note goes away whatever
	// happened to it locally since.
	s.c.st.mu.Lock()
	delete(s.c.st.inflight, n.ID)
	removed := false
	if i := s.c.st.noteIndex(n.ID); i >= 0 {
		s.c.st.removeNoteAt(i)
		removed = true
	}
	s.c.st.mu.Unlock()

	perr := s.c.failed(op, n.ID, err)
	if removed {
		s.c.bus.Publish(Event{Type: EventNoteDeleted, ID: n.ID})
	}
	p.resolve("", perr)
}

func (s *NoteStore) reconcile(tmp, durable string) {
	s.c.st.mu.Lock()
	s.c.st.reconcile(tmp, durable)
	present := false
	if i := s.c.st.noteIndex(tmp); i >= 0 {
		s.c.st.notes[i].ID = durable
		present = true
	}
	s.c.st.mu.Unlock()

	if present {
		s.c.bus.Publish(Event{Type: EventNoteReconciled, ID: durable, PrevID: tmp})
	}
}

// Update replaces the note with the same id in place, keeping its position.
// UpdatedAt is refreshed when title, content or category changed.
func (s *NoteStore) Update(note Note) *Pending {
	const op = "update note"

	requested := note.ID

	s.c.st.mu.Lock()
	id := s.c.st.resolve(note.ID)
	i := s.c.st.noteIndex(id)
	if i < 0 {
		s.c.st.mu.Unlock()
		return resolved("", &NotFoundError{Kind: "note", ID: note.ID})
	}
	if note.CategoryID != "" {
		note.CategoryID = s.c.st.resolve(note.CategoryID)
		if !s.c.st.hasCategory(note.CategoryID) {
			s.c.st.mu.Unlock()
			return resolved("", invalid("category", "category "+note.CategoryID+" does not exist"))
		}
	}

	prev := s.c.st.notes[i]
	note.ID = id
	note.CreatedAt = prev.CreatedAt
	if contentChanged(prev, note) && !note.UpdatedAt.After(prev.UpdatedAt) {
		note.UpdatedAt = s.c.now()
	}
	s.c.st.notes[i] = note
	rev := s.c.st.bump(id)
	p := newPending()
	prior := s.c.st.enqueue(p, id)
	s.c.st.mu.Unlock()

	s.c.bus.Publish(Event{Type: EventNoteUpdated, ID: id, PrevID: prevID(requested, id)})

	// saves of one note reach the service in the order they were made
	s.c.ordered(p, prior, []string{id}, func(ctx context.Context) {
		durable, err := s.save(ctx, note)
		if err == nil {
			p.resolve(durable, nil)
			return
		}

		s.c.st.mu.Lock()
		if s.c.st.unchanged(id, rev) {
			if j := s.c.st.noteIndex(s.c.st.resolve(id)); j >= 0 {
				prev.ID = s.c.st.notes[j].ID
				prev.CategoryID = s.c.st.resolve(prev.CategoryID)
				s.c.st.notes[j] = prev
			}
		}
		s.c.st.mu.Unlock()
		p.resolve("", s.c.failed(op, id, err))
	})
	return p
}

func (s *NoteStore) save(ctx context.Context, n Note) (string, error) {
	id, err := s.c.durableID(ctx, n.ID)
	if err != nil {
		return "", err
	}
	catID, err := s.c.durableID(ctx, n.CategoryID)
	if err != nil {
		return "", err
	}
	n.ID, n.CategoryID = id, catID
	saved, err := s.c.persist.SaveNote(ctx, n)
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

// Delete removes the note. Editors open on it are told through EventNoteDeleted.
// A note still being created is deleted remotely once its durable id exists.
func (s *NoteStore) Delete(id string) *Pending {
	const op = "delete note"

	s.c.st.mu.Lock()
	cur := s.c.st.resolve(id)
	i := s.c.st.noteIndex(cur)
	if i < 0 {
		s.c.st.mu.Unlock()
		return resolved("", &NotFoundError{Kind: "note", ID: id})
	}
	prev := s.c.st.notes[i]
	s.c.st.removeNoteAt(i)
	rev := s.c.st.bump(cur)
	p := newPending()
	prior := s.c.st.enqueue(p, cur)
	s.c.st.mu.Unlock()

	s.c.bus.Publish(Event{Type: EventNoteDeleted, ID: cur, PrevID: prevID(id, cur)})

	s.c.ordered(p, prior, []string{cur}, func(ctx context.Context) {
		durable, err := s.c.durableID(ctx, cur)
		if err != nil && IsProvisional(cur) && ctx.Err() == nil {
			// the create failed: nothing to delete remotely
			p.resolve("", nil)
			return
		}
		if err == nil {
			err = s.c.persist.DeleteNote(ctx, durable)
			if err == nil || errors.Is(err, ErrNotFound) {
				p.resolve(durable, nil)
				return
			}
		}

		s.c.st.mu.Lock()
		if s.c.st.unchanged(cur, rev) {
			prev.ID = s.c.st.resolve(cur)
			prev.CategoryID = s.c.st.resolve(prev.CategoryID)
			s.c.st.insertNoteAt(i, prev)
		}
		s.c.st.mu.Unlock()
		p.resolve("", s.c.failed(op, cur, err))
	})
	return p
}

// MoveNotes reassigns the given notes to target without deleting any category.
func (s *NoteStore) MoveNotes(ids []string, target string) *Pending {
	const op = "move notes"

	if len(ids) == 0 {
		return resolved("", invalid("notes", "no notes selected"))
	}

	s.c.st.mu.Lock()
	target = s.c.st.resolve(target)
	if target == "" || !s.c.st.hasCategory(target) {
		s.c.st.mu.Unlock()
		return resolved("", invalid("target", "target category does not exist"))
	}

	type snap struct {
		note Note
		rev  uint64
	}
	var moved []snap
	seen := make(map[string]bool, len(ids))
	now := s.c.now()
	for _, raw := range ids {
		i := s.c.st.noteIndex(s.c.st.resolve(raw))
		if i < 0 {
			s.c.st.mu.Unlock()
			return resolved("", &NotFoundError{Kind: "note", ID: raw})
		}
		n := s.c.st.notes[i]
		if n.CategoryID == target || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		moved = append(moved, snap{note: n})
	}
	movedIDs := make([]string, 0, len(moved))
	for k := range moved {
		i := s.c.st.noteIndex(moved[k].note.ID)
		s.c.st.notes[i].CategoryID = target
		s.c.st.notes[i].UpdatedAt = now
		moved[k].rev = s.c.st.bump(moved[k].note.ID)
		movedIDs = append(movedIDs, moved[k].note.ID)
	}
	if len(moved) == 0 {
		s.c.st.mu.Unlock()
		return resolved(target, nil)
	}
	p := newPending()
	prior := s.c.st.enqueue(p, movedIDs...)
	s.c.st.mu.Unlock()

	for _, m := range moved {
		s.c.bus.Publish(Event{Type: EventNoteUpdated, ID: m.note.ID})
	}

	s.c.ordered(p, prior, movedIDs, func(ctx context.Context) {
		err := s.c.reassign(ctx, movedIDs, target)
		if err == nil {
			p.resolve(s.c.resolveID(target), nil)
			return
		}

		s.c.st.mu.Lock()
		for _, m := range moved {
			if !s.c.st.unchanged(m.note.ID, m.rev) {
				continue
			}
			if j := s.c.st.noteIndex(s.c.st.resolve(m.note.ID)); j >= 0 {
				s.c.st.notes[j].CategoryID = s.c.st.resolve(m.note.CategoryID)
				s.c.st.notes[j].UpdatedAt = m.note.UpdatedAt
			}
		}
		s.c.st.mu.Unlock()
		p.resolve("", s.c.failed(op, target, err))
	})
	return p
}

// reassign maps every id to its durable form and issues one bulk call.
func (c *core) reassign(ctx context.Context, ids []string, target string) error {
	durable := make([]string, 0, len(ids))
	for _, id := range ids {
		d, err := c.durableID(ctx, id)
		if err != nil {
			return err
		}
		durable = append(durable, d)
	}
	t, err := c.durableID(ctx, target)
	if err != nil {
		return err
	}
	return c.persist.BulkReassignNotes(ctx, durable, t)
}

func (c *core) resolveID(id string) string {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.resolve(id)
}

func contentChanged(a, b Note) bool {
	return a.Title != b.Title || a.Content != b.Content || a.CategoryID != b.CategoryID
}

func prevID(requested, current string) string {
	if requested == current {
		return ""
	}
	return requested
}
