package notes

import "errors"

// ErrNoteNotFound is returned when the note does not exist or belongs to someone else.
var ErrNoteNotFound = errors.New("note not found")

// ErrCategoryNotFound is returned when a referenced category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// ErrInvalidID is returned for ids that are not ObjectIDs.
var ErrInvalidID = errors.New("invalid id")

// ErrCreateNote is returned when note creation fails.
var ErrCreateNote = errors.New("failed to create note")

// ErrUpdateNote is returned when note update fails.
var ErrUpdateNote = errors.New("failed to update note")

// ErrDeleteNote is returned when note deletion fails.
var ErrDeleteNote = errors.New("failed to delete note")

// ErrListNotes is returned when notes listing fails.
var ErrListNotes = errors.New("failed to list notes")

// ErrBulkMove is returned when a bulk move fails.
var ErrBulkMove = errors.New("failed to move notes")

// ErrCreateNotesRepo is returned when notes repository creation fails.
var ErrCreateNotesRepo = errors.New("failed to create notes repository")
