package main

import (
	"fmt"
	"strings"

	"note-taker/internal/workspace"
)

// findNote accepts a full id or an unambiguous prefix of one.
func findNote(s *workspace.Session, ref string) (workspace.Note, error) {
	if n, found := s.Notes().Get(ref); found {
		return n, nil
	}
	var matches []workspace.Note
	for _, n := range s.Notes().List() {
		if strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return workspace.Note{}, &workspace.NotFoundError{Kind: "note", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return workspace.Note{}, fmt.Errorf("note %q is ambiguous, %d notes match", ref, len(matches))
	}
}

func findNotes(s *workspace.Session, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		n, err := findNote(s, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, n.ID)
	}
	return ids, nil
}

// findCategory accepts an id, an id prefix or a case-insensitive name.
func findCategory(s *workspace.Session, ref string) (workspace.Category, error) {
	if c, found := s.Categories().Get(ref); found {
		return c, nil
	}
	var matches []workspace.Category
	for _, c := range s.Categories().List() {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return workspace.Category{}, &workspace.NotFoundError{Kind: "category", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return workspace.Category{}, fmt.Errorf("category %q is ambiguous, %d categories match", ref, len(matches))
	}
}
