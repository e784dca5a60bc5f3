package notes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"note-taker/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles notes business logic
type Service struct {
	repo       Repository
	categories Categories
	log        *slog.Logger
	now        func() time.Time
}

// NewService creates a new notes service
func NewService(repo Repository, categories Categories, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		log:        log,
		now:        time.Now,
	}
}

// CreateNoteRequest represents a note creation request. Title and content may be empty.
type CreateNoteRequest struct {
	Title      string  `json:"title" validate:"max=255" example:"Meeting Notes"`
	Content    string  `json:"content" example:"Remember to discuss the quarterly targets"`
	CategoryID *string `json:"category_id" example:"683cdb8aa96ad71e8e075bd2"`
}

// UpdateNoteRequest represents a note update request. An empty category_id uncategorizes the note.
type UpdateNoteRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255" example:"Updated Meeting Notes"`
	Content    *string `json:"content,omitempty" example:"Updated content for the meeting"`
	CategoryID *string `json:"category_id,omitempty" example:"683cdb8aa96ad71e8e075bd2"`
}

// ListNotesRequest represents a list notes request
type ListNotesRequest struct {
	CategoryID string `query:"category_id" example:"683cdb8aa96ad71e8e075bd2"`
}

// BulkMoveRequest moves the listed notes to one category.
type BulkMoveRequest struct {
	NoteIDs    []string `json:"note_ids" validate:"required,min=1,dive,required"`
	CategoryID string   `json:"category_id" validate:"required" example:"683cdb8aa96ad71e8e075bd2"`
}

// NoteResponse represents a single note response
type NoteResponse struct {
	Note *Note `json:"note"`
}

// ListNotesResponse represents a list of notes response
type ListNotesResponse struct {
	Notes []*Note `json:"notes"`
}

// AffectedResponse reports how many notes an operation touched.
type AffectedResponse struct {
	Affected int64 `json:"affected" example:"3"`
}

func parseID(s string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.ObjectID{}, ErrInvalidID
	}
	return id, nil
}

// resolveCategory parses raw and checks it belongs to userID. Nil or empty raw means uncategorized.
func (s *Service) resolveCategory(ctx context.Context, userID bson.ObjectID, raw *string) (*bson.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := bson.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	ok, err := s.categories.Exists(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}
	return &id, nil
}

// Create creates a new note
func (s *Service) Create(ctx context.Context, userID bson.ObjectID, req CreateNoteRequest) (*NoteResponse, error) {
	categoryID, err := s.resolveCategory(ctx, userID, req.CategoryID)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateNote
	}

	now := s.now().UTC()
	note := &Note{
		ID:         bson.NewObjectID(),
		UserID:     userID,
		Title:      sanitize.Line(req.Title),
		Content:    sanitize.Content(req.Content),
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateNote
	}

	return &NoteResponse{Note: note}, nil
}

// List returns the user's notes, most recently updated first.
func (s *Service) List(ctx context.Context, userID bson.ObjectID, req ListNotesRequest) (*ListNotesResponse, error) {
	var categoryID *bson.ObjectID
	if req.CategoryID != "" {
		id, err := parseID(req.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryID = &id
	}

	list, err := s.repo.List(ctx, userID, categoryID)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrListNotes
	}
	if list == nil {
		list = []*Note{}
	}
	return &ListNotesResponse{Notes: list}, nil
}

// Update updates a note belonging to the user
func (s *Service) Update(ctx context.Context, userID, noteID bson.ObjectID, req UpdateNoteRequest) (*NoteResponse, error) {
	var patch UpdateNote
	if req.Title != nil {
		title := sanitize.Line(*req.Title)
		patch.Title = &title
	}
	if req.Content != nil {
		content := sanitize.Content(*req.Content)
		patch.Content = &content
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, userID, req.CategoryID)
		if err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return nil, err
			}
			s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", userID.Hex())
			return nil, ErrUpdateNote
		}
		patch.CategoryID = categoryID
		patch.ClearCategory = categoryID == nil
	}

	updatedNote, err := s.repo.Update(ctx, userID, noteID, patch)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found for update", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrUpdateNote
	}

	return &NoteResponse{Note: updatedNote}, nil
}

// Delete deletes a note belonging to the user
func (s *Service) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found for delete", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return ErrNoteNotFound
		}
		s.log.Error(ErrDeleteNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return ErrDeleteNote
	}
	return nil
}

// BulkMove reassigns the user's listed notes to the target category.
// Ids of notes the user does not own are ignored.
func (s *Service) BulkMove(ctx context.Context, userID bson.ObjectID, req BulkMoveRequest) (*AffectedResponse, error) {
	noteIDs := make([]bson.ObjectID, 0, len(req.NoteIDs))
	for _, raw := range req.NoteIDs {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		noteIDs = append(noteIDs, id)
	}

	target, err := s.resolveCategory(ctx, userID, &req.CategoryID)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		s.log.Error(ErrBulkMove.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrBulkMove
	}
	if target == nil {
		return nil, ErrCategoryNotFound
	}

	moved, err := s.repo.BulkMove(ctx, userID, noteIDs, *target)
	if err != nil {
		s.log.Error(ErrBulkMove.Error(), "error", err, "user_id", userID.Hex(), "category_id", target.Hex())
		return nil, ErrBulkMove
	}

	s.log.Debug("notes moved", "user_id", userID.Hex(), "category_id", target.Hex(), "moved", moved)
	return &AffectedResponse{Affected: moved}, nil
}
