package workspace

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DeleteMode selects how the notes of a deleted category are resolved.
type DeleteMode string

const (
	// ModeDeleteAll deletes every note of the category with it.
	ModeDeleteAll DeleteMode = "delete_all"
	// ModeMove reassigns the selected notes of the category to another one.
	ModeMove DeleteMode = "move"
)

// DeleteCategoryRequest describes one category deletion. A nil SelectedNoteIDs
// selects every note of the category; an empty non-nil one is rejected.
type DeleteCategoryRequest struct {
	CategoryID       string
	Mode             DeleteMode
	TargetCategoryID string
	SelectedNoteIDs  []string
}

// Coordinator deletes categories without leaving the notes it touches pointing
// at a category that no longer exists.
type Coordinator struct {
	c *core
}

type noteSnap struct {
	note Note
	pos  int
	rev  uint64
}

// MoveAvailable reports whether move mode can be offered for categoryID, i.e.
// another category exists to receive its notes.
func (co *Coordinator) MoveAvailable(categoryID string) bool {
	co.c.st.mu.RLock()
	defer co.c.st.mu.RUnlock()

	id := co.c.st.resolve(categoryID)
	for _, cat := range co.c.st.categories {
		if cat.ID != id {
			return true
		}
	}
	return false
}

// Affected returns the notes currently referencing categoryID.
func (co *Coordinator) Affected(categoryID string) []Note {
	co.c.st.mu.RLock()
	defer co.c.st.mu.RUnlock()

	id := co.c.st.resolve(categoryID)
	var out []Note
	for _, n := range co.c.st.notes {
		if n.CategoryID == id {
			out = append(out, n)
		}
	}
	return out
}

// Delete removes the category and resolves its notes in one step under the
// workspace lock, then persists: move issues the bulk reassign before the
// category delete, delete_all deletes the notes before the category. Only the
// parts that failed to persist are reverted.
func (co *Coordinator) Delete(req DeleteCategoryRequest) *Pending {
	st := co.c.st

	st.mu.Lock()
	catID := st.resolve(req.CategoryID)
	ci := st.categoryIndex(catID)
	if ci < 0 {
		st.mu.Unlock()
		return resolved("", &NotFoundError{Kind: "category", ID: req.CategoryID})
	}

	target, err := co.validate(req, catID)
	if err != nil {
		st.mu.Unlock()
		return resolved("", err)
	}

	var selected map[string]bool
	if req.Mode == ModeMove && req.SelectedNoteIDs != nil {
		selected = make(map[string]bool, len(req.SelectedNoteIDs))
		for _, id := range req.SelectedNoteIDs {
			selected[st.resolve(id)] = true
		}
	}

	// one read decides the affected set
	var touched []noteSnap
	for i, n := range st.notes {
		if n.CategoryID != catID {
			continue
		}
		if selected != nil && !selected[n.ID] {
			continue
		}
		touched = append(touched, noteSnap{note: n, pos: i})
	}

	catSnap := st.categories[ci]
	st.categories = append(st.categories[:ci], st.categories[ci+1:]...)
	catRev := st.bump(catID)

	now := co.c.now()
	switch req.Mode {
	case ModeDeleteAll:
		for k := len(touched) - 1; k >= 0; k-- {
			st.removeNoteAt(touched[k].pos)
			touched[k].rev = st.bump(touched[k].note.ID)
		}
	case ModeMove:
		for k := range touched {
			st.notes[touched[k].pos].CategoryID = target
			st.notes[touched[k].pos].UpdatedAt = now
			touched[k].rev = st.bump(touched[k].note.ID)
		}
	}

	filterReset := st.filter == catID
	if filterReset {
		st.filter = ""
	}

	// queued behind pending saves of the category and of every touched note
	queued := make([]string, 0, len(touched)+1)
	queued = append(queued, catID)
	for _, t := range touched {
		queued = append(queued, t.note.ID)
	}
	p := newPending()
	prior := st.enqueue(p, queued...)
	st.mu.Unlock()

	co.publish(req.Mode, catID, req.CategoryID, touched, filterReset)

	co.c.ordered(p, prior, queued, func(ctx context.Context) {
		switch req.Mode {
		case ModeMove:
			co.persistMove(ctx, p, catSnap, ci, catRev, touched, target)
		case ModeDeleteAll:
			co.persistDeleteAll(ctx, p, catSnap, ci, catRev, touched)
		}
	})
	return p
}

// validate runs with the lock held and returns the resolved move target.
func (co *Coordinator) validate(req DeleteCategoryRequest, catID string) (string, error) {
	st := co.c.st

	switch req.Mode {
	case ModeDeleteAll:
		return "", nil
	case ModeMove:
	default:
		return "", invalid("mode", "must be delete_all or move")
	}

	if len(st.categories) < 2 {
		return "", invalid("mode", "move is unavailable when deleting the only category")
	}
	target := strings.TrimSpace(req.TargetCategoryID)
	if target == "" {
		return "", invalid("target", "move requires a target category")
	}
	target = st.resolve(target)
	if target == catID {
		return "", invalid("target", "target must differ from the deleted category")
	}
	if !st.hasCategory(target) {
		return "", invalid("target", "target category does not exist")
	}
	if req.SelectedNoteIDs != nil && len(req.SelectedNoteIDs) == 0 {
		return "", invalid("notes", "no notes selected")
	}
	return target, nil
}

func (co *Coordinator) publish(mode DeleteMode, catID, requested string, touched []noteSnap, filterReset bool) {
	noteEvent := EventNoteUpdated
	if mode == ModeDeleteAll {
		noteEvent = EventNoteDeleted
	}
	for _, t := range touched {
		co.c.bus.Publish(Event{Type: noteEvent, ID: t.note.ID})
	}
	co.c.bus.Publish(Event{Type: EventCategoryDeleted, ID: catID, PrevID: prevID(requested, catID)})
	if filterReset {
		co.c.bus.Publish(Event{Type: EventFilterReset, ID: catID})
	}
}

func (co *Coordinator) persistMove(ctx context.Context, p *Pending, cat Category, pos int, catRev uint64, touched []noteSnap, target string) {
	const op = "move notes and delete category"

	if len(touched) > 0 {
		ids := make([]string, 0, len(touched))
		for _, t := range touched {
			ids = append(ids, t.note.ID)
		}
		if err := co.c.reassign(ctx, ids, target); err != nil {
			co.revertCategory(cat, pos, catRev)
			co.revertNotes(touched, nil)
			p.resolve("", co.c.failed(op, cat.ID, err))
			return
		}
	}

	// the reassignment persisted: from here on only the category can revert
	durable, err := co.deleteCategory(ctx, cat.ID)
	if err != nil {
		co.revertCategory(cat, pos, catRev)
		p.resolve("", co.c.failed(op, cat.ID, err))
		return
	}
	p.resolve(durable, nil)
}

func (co *Coordinator) persistDeleteAll(ctx context.Context, p *Pending, cat Category, pos int, catRev uint64, touched []noteSnap) {
	const op = "delete category with notes"

	var (
		mu     sync.Mutex
		failed []noteSnap
	)
	var g errgroup.Group
	for _, t := range touched {
		t := t
		g.Go(func() error {
			err := co.deleteNote(ctx, t.note.ID)
			if err != nil {
				mu.Lock()
				failed = append(failed, t)
				mu.Unlock()
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		// the category still has notes remotely, keep it
		co.revertCategory(cat, pos, catRev)
		co.revertNotes(failed, touched)
		p.resolve("", co.c.failed(op, cat.ID, err))
		return
	}

	durable, err := co.deleteCategory(ctx, cat.ID)
	if err != nil {
		co.revertCategory(cat, pos, catRev)
		p.resolve("", co.c.failed(op, cat.ID, err))
		return
	}
	p.resolve(durable, nil)
}

func (co *Coordinator) deleteNote(ctx context.Context, id string) error {
	durable, err := co.c.durableID(ctx, id)
	if err != nil {
		if IsProvisional(id) && ctx.Err() == nil {
			return nil
		}
		return err
	}
	if err := co.c.persist.DeleteNote(ctx, durable); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (co *Coordinator) deleteCategory(ctx context.Context, id string) (string, error) {
	durable, err := co.c.durableID(ctx, id)
	if err != nil {
		if IsProvisional(id) && ctx.Err() == nil {
			return "", nil
		}
		return "", err
	}
	if err := co.c.persist.DeleteCategory(ctx, durable); err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	return durable, nil
}

func (co *Coordinator) revertCategory(cat Category, pos int, rev uint64) {
	st := co.c.st

	st.mu.Lock()
	restored := false
	if st.unchanged(cat.ID, rev) {
		cat.ID = st.resolve(cat.ID)
		if !st.hasCategory(cat.ID) {
			st.insertCategoryAt(pos, cat)
			restored = true
		}
	}
	st.mu.Unlock()

	if restored {
		co.c.bus.Publish(Event{Type: EventCategoryCreated, ID: cat.ID})
	}
}

// revertNotes restores the snapshots whose notes were not mutated since. With
// removed set, the snapshots are notes taken out of the list and are put back
// where they were among the removed ones that stay deleted.
func (co *Coordinator) revertNotes(snaps []noteSnap, removed []noteSnap) {
	st := co.c.st
	reinsert := removed != nil

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].pos < snaps[j].pos })
	back := make(map[string]bool, len(snaps))
	for _, s := range snaps {
		back[s.note.ID] = true
	}

	st.mu.Lock()
	var restored []string
	for _, s := range snaps {
		if !st.unchanged(s.note.ID, s.rev) {
			continue
		}
		n := s.note
		n.ID = st.resolve(n.ID)
		n.CategoryID = st.resolve(n.CategoryID)

		if reinsert {
			if st.noteIndex(n.ID) >= 0 {
				continue
			}
			pos := s.pos
			for _, r := range removed {
				if r.pos < s.pos && !back[r.note.ID] {
					pos--
				}
			}
			st.insertNoteAt(pos, n)
			restored = append(restored, n.ID)
			continue
		}
		if j := st.noteIndex(n.ID); j >= 0 {
			st.notes[j].CategoryID = n.CategoryID
			st.notes[j].UpdatedAt = n.UpdatedAt
			restored = append(restored, n.ID)
		}
	}
	st.mu.Unlock()

	evType := EventNoteUpdated
	if reinsert {
		evType = EventNoteCreated
	}
	for _, id := range restored {
		co.c.bus.Publish(Event{Type: evType, ID: id})
	}
}
