package workspace

import (
	"context"
	"strings"
)

// CategoryStore holds the categories of the session in creation order.
type CategoryStore struct {
	c     *core
	coord *Coordinator
}

// Load replaces the local categories with the persisted ones.
func (s *CategoryStore) Load(ctx context.Context) error {
	cats, err := s.c.persist.ListCategories(ctx)
	if err != nil {
		return persistErr("list categories", "", err)
	}

	s.c.st.mu.Lock()
	s.c.st.categories = append([]Category(nil), cats...)
	if s.c.st.filter != "" && !s.c.st.hasCategory(s.c.st.filter) {
		s.c.st.filter = ""
	}
	s.c.st.mu.Unlock()
	return nil
}

// List returns a copy of every category.
func (s *CategoryStore) List() []Category {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()
	return append([]Category(nil), s.c.st.categories...)
}

// Get returns the category known as id.
func (s *CategoryStore) Get(id string) (Category, bool) {
	s.c.st.mu.RLock()
	defer s.c.st.mu.RUnlock()

	i := s.c.st.categoryIndex(s.c.st.resolve(id))
	if i < 0 {
		return Category{}, false
	}
	return s.c.st.categories[i], true
}

// Theme returns the theme category id renders with; unknown categories and
// unknown theme ids render with DefaultTheme.
func (s *CategoryStore) Theme(id string) string {
	c, ok := s.Get(id)
	if !ok {
		return DefaultTheme
	}
	return ResolveTheme(c.ThemeID)
}

// Create appends a category named NewCategoryName with the default theme.
// Callers are expected to follow up with Rename.
func (s *CategoryStore) Create() (Category, *Pending) {
	cat := Category{ID: NewProvisionalID(), Name: NewCategoryName, ThemeID: DefaultTheme}
	p := newPending()

	s.c.st.mu.Lock()
	s.c.st.categories = append(s.c.st.categories, cat)
	s.c.st.inflight[cat.ID] = p
	s.c.st.bump(cat.ID)
	s.c.st.mu.Unlock()

	s.c.bus.Publish(Event{Type: EventCategoryCreated, ID: cat.ID})
	s.c.goPersist(func(ctx context.Context) { s.persistCreate(ctx, cat, p) })

	return cat, p
}

func (s *CategoryStore) persistCreate(ctx context.Context, cat Category, p *Pending) {
	if cur, ok := s.Get(cat.ID); ok {
		cat = cur
	}

	saved, err := s.c.persist.SaveCategory(ctx, cat)
	if err == nil {
		s.reconcile(cat.ID, saved.ID)
		p.resolve(saved.ID, nil)
		return
	}

	s.c.st.mu.Lock()
	delete(s.c.st.inflight, cat.ID)
	removed := false
	if i := s.c.st.categoryIndex(cat.ID); i >= 0 {
		s.c.st.categories = append(s.c.st.categories[:i], s.c.st.categories[i+1:]...)
		removed = true
	}
	var detached []string
	for i := range s.c.st.notes {
		if s.c.st.notes[i].CategoryID == cat.ID {
			s.c.st.notes[i].CategoryID = ""
			detached = append(detached, s.c.st.notes[i].ID)
		}
	}
	if s.c.st.filter == cat.ID {
		s.c.st.filter = ""
	}
	s.c.st.mu.Unlock()

	perr := s.c.failed("create category", cat.ID, err)
	if removed {
		s.c.bus.Publish(Event{Type: EventCategoryDeleted, ID: cat.ID})
	}
	for _, id := range detached {
		s.c.bus.Publish(Event{Type: EventNoteUpdated, ID: id})
	}
	p.resolve("", perr)
}

// reconcile swaps the provisional id in place and migrates every reference.
func (s *CategoryStore) reconcile(tmp, durable string) {
	s.c.st.mu.Lock()
	s.c.st.reconcile(tmp, durable)
	present := false
	if i := s.c.st.categoryIndex(tmp); i >= 0 {
		s.c.st.categories[i].ID = durable
		present = true
	}
	for i := range s.c.st.notes {
		if s.c.st.notes[i].CategoryID == tmp {
			s.c.st.notes[i].CategoryID = durable
		}
	}
	if s.c.st.filter == tmp {
		s.c.st.filter = durable
	}
	s.c.st.mu.Unlock()

	if present {
		s.c.bus.Publish(Event{Type: EventCategoryReconciled, ID: durable, PrevID: tmp})
	}
}

// Rename sets the display name. Blank names are rejected and change nothing.
func (s *CategoryStore) Rename(id, name string) *Pending {
	name = strings.TrimSpace(name)
	if name == "" {
		return resolved("", invalid("name", "category name cannot be empty"))
	}
	return s.mutate("rename category", id, func(c *Category) { c.Name = name })
}

// Recolor sets the theme. Theme ids outside Themes are stored as given.
func (s *CategoryStore) Recolor(id, themeID string) *Pending {
	return s.mutate("recolor category", id, func(c *Category) { c.ThemeID = themeID })
}

// Delete is the entry point of the deletion protocol, see Coordinator.Delete.
func (s *CategoryStore) Delete(req DeleteCategoryRequest) *Pending {
	return s.coord.Delete(req)
}

func (s *CategoryStore) mutate(op, id string, apply func(*Category)) *Pending {
	s.c.st.mu.Lock()
	cur := s.c.st.resolve(id)
	i := s.c.st.categoryIndex(cur)
	if i < 0 {
		s.c.st.mu.Unlock()
		return resolved("", &NotFoundError{Kind: "category", ID: id})
	}
	prev := s.c.st.categories[i]
	apply(&s.c.st.categories[i])
	next := s.c.st.categories[i]
	rev := s.c.st.bump(cur)
	p := newPending()
	prior := s.c.st.enqueue(p, cur)
	s.c.st.mu.Unlock()

	s.c.bus.Publish(Event{Type: EventCategoryUpdated, ID: cur, PrevID: prevID(id, cur)})

	s.c.ordered(p, prior, []string{cur}, func(ctx context.Context) {
		durable, err := s.c.durableID(ctx, next.ID)
		if err == nil {
			next.ID = durable
			var saved Category
			if saved, err = s.c.persist.SaveCategory(ctx, next); err == nil {
				p.resolve(saved.ID, nil)
				return
			}
		}

		s.c.st.mu.Lock()
		if s.c.st.unchanged(cur, rev) {
			if j := s.c.st.categoryIndex(s.c.st.resolve(cur)); j >= 0 {
				prev.ID = s.c.st.categories[j].ID
				s.c.st.categories[j] = prev
			}
		}
		s.c.st.mu.Unlock()
		p.resolve("", s.c.failed(op, cur, err))
	})
	return p
}
