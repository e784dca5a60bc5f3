// Package localstore is a single-user workspace.Persistence backed by one
// YAML document on disk. It needs no server and no credential.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"note-taker/internal/workspace"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

var _ workspace.Persistence = (*Store)(nil)

type document struct {
	Categories []workspace.Category `yaml:"categories"`
	Notes      []workspace.Note     `yaml:"notes"`
}

// Store keeps the document in memory and rewrites the file on every mutation.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
	log  *slog.Logger
	now  func() time.Time
}

// Open reads path, seeding a fresh document when the file does not exist yet.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{path: path, log: log, now: func() time.Time { return time.Now().UTC() }}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.doc = seed(s.now())
		if err := s.flush(); err != nil {
			return nil, err
		}
		log.Info("seeded local store", "path", path)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read local store: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse local store %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func seed(now time.Time) document {
	var doc document
	for _, c := range workspace.DefaultCategories() {
		c.ID = newID()
		doc.Categories = append(doc.Categories, c)
	}

	samples := []struct{ title, content string }{
		{"Grocery List", "Milk\nEggs\nBread\nBananas\nSpinach"},
		{"Meeting with Team", "Discuss project timeline and milestones.\nReview budget and resource allocation.\nAssign tasks."},
		{"Vacation Ideas", "Visit Japan during cherry blossom season.\nExplore the national parks.\nTake a road trip along the coast."},
	}
	for i, sample := range samples {
		at := now.Add(-time.Duration(i) * time.Hour)
		doc.Notes = append(doc.Notes, workspace.Note{
			ID:         newID(),
			Title:      sample.title,
			Content:    sample.content,
			CategoryID: doc.Categories[i%len(doc.Categories)].ID,
			CreatedAt:  at,
			UpdatedAt:  at,
		})
	}
	return doc
}

func newID() string {
	return strings.ToLower(ulid.Make().String())
}

// flush writes the document; callers hold mu.
func (s *Store) flush() error {
	data, err := yaml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("marshal local store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create local store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write local store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace local store: %w", err)
	}
	return nil
}

// commit flushes and restores prev when the write fails.
func (s *Store) commit(prev document) error {
	if err := s.flush(); err != nil {
		s.doc = prev
		s.log.Error("failed to write local store", "path", s.path, "error", err)
		return err
	}
	return nil
}

func (s *Store) snapshot() document {
	return document{
		Categories: append([]workspace.Category(nil), s.doc.Categories...),
		Notes:      append([]workspace.Note(nil), s.doc.Notes...),
	}
}

func (s *Store) hasCategory(id string) bool {
	for _, c := range s.doc.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ListNotes returns the notes, most recently updated first.
func (s *Store) ListNotes(ctx context.Context) ([]workspace.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	notes := append([]workspace.Note(nil), s.doc.Notes...)
	s.mu.Unlock()

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

// SaveNote inserts a provisional note at the head or replaces the stored one.
func (s *Store) SaveNote(ctx context.Context, n workspace.Note) (workspace.Note, error) {
	if err := ctx.Err(); err != nil {
		return workspace.Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CategoryID != "" && !s.hasCategory(n.CategoryID) {
		return workspace.Note{}, &workspace.NotFoundError{Kind: "category", ID: n.CategoryID}
	}

	prev := s.snapshot()
	now := s.now()

	if workspace.IsProvisional(n.ID) {
		n.ID = newID()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		n.UpdatedAt = now
		s.doc.Notes = append([]workspace.Note{n}, s.doc.Notes...)
		return n, s.commit(prev)
	}

	for i := range s.doc.Notes {
		if s.doc.Notes[i].ID != n.ID {
			continue
		}
		n.CreatedAt = s.doc.Notes[i].CreatedAt
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = now
		}
		s.doc.Notes[i] = n
		return n, s.commit(prev)
	}
	return workspace.Note{}, &workspace.NotFoundError{Kind: "note", ID: n.ID}
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Notes {
		if s.doc.Notes[i].ID == id {
			prev := s.snapshot()
			s.doc.Notes = append(s.doc.Notes[:i], s.doc.Notes[i+1:]...)
			return s.commit(prev)
		}
	}
	return &workspace.NotFoundError{Kind: "note", ID: id}
}

// ListCategories returns the categories in creation order.
func (s *Store) ListCategories(ctx context.Context) ([]workspace.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]workspace.Category(nil), s.doc.Categories...), nil
}

func (s *Store) SaveCategory(ctx context.Context, c workspace.Category) (workspace.Category, error) {
	if err := ctx.Err(); err != nil {
		return workspace.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.snapshot()

	if workspace.IsProvisional(c.ID) {
		c.ID = newID()
		s.doc.Categories = append(s.doc.Categories, c)
		return c, s.commit(prev)
	}

	for i := range s.doc.Categories {
		if s.doc.Categories[i].ID == c.ID {
			s.doc.Categories[i] = c
			return c, s.commit(prev)
		}
	}
	return workspace.Category{}, &workspace.NotFoundError{Kind: "category", ID: c.ID}
}

// DeleteCategory removes the category; its notes become uncategorized.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Categories {
		if s.doc.Categories[i].ID != id {
			continue
		}
		prev := s.snapshot()
		s.doc.Categories = append(s.doc.Categories[:i], s.doc.Categories[i+1:]...)
		for j := range s.doc.Notes {
			if s.doc.Notes[j].CategoryID == id {
				s.doc.Notes[j].CategoryID = ""
			}
		}
		return s.commit(prev)
	}
	return &workspace.NotFoundError{Kind: "category", ID: id}
}

// BulkReassignNotes moves every listed note to target. Unknown note ids are ignored.
func (s *Store) BulkReassignNotes(ctx context.Context, noteIDs []string, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCategory(target) {
		return &workspace.NotFoundError{Kind: "category", ID: target}
	}

	set := make(map[string]struct{}, len(noteIDs))
	for _, id := range noteIDs {
		set[id] = struct{}{}
	}

	prev := s.snapshot()
	now := s.now()
	for i := range s.doc.Notes {
		if _, ok := set[s.doc.Notes[i].ID]; ok {
			s.doc.Notes[i].CategoryID = target
			s.doc.Notes[i].UpdatedAt = now
		}
	}
	return s.commit(prev)
}
