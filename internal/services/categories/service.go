package categories

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"note-taker/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles categories business logic
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewService creates a new categories service
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// CreateCategoryRequest represents a category creation request
type CreateCategoryRequest struct {
	Name    string `json:"name" validate:"max=100" example:"New Category"`
	ThemeID string `json:"theme_id" validate:"omitempty,oneof=orange yellow green teal peach blue pink" example:"orange"`
}

// UpdateCategoryRequest represents a rename and/or recolor
type UpdateCategoryRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=100" example:"Work"`
	ThemeID *string `json:"theme_id,omitempty" validate:"omitempty,oneof=orange yellow green teal peach blue pink" example:"blue"`
}

// MoveNotesAndDeleteRequest names the category receiving the notes.
type MoveNotesAndDeleteRequest struct {
	TargetCategoryID string `json:"target_category_id" validate:"required" example:"683cdb8aa96ad71e8e075bd3"`
}

// CategoryResponse represents a single category response
type CategoryResponse struct {
	Category *Category `json:"category"`
}

// ListCategoriesResponse represents a list of categories response
type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

// AffectedResponse reports how many notes an operation touched.
type AffectedResponse struct {
	Affected int64 `json:"affected" example:"3"`
}

// List returns the user's categories in creation order.
func (s *Service) List(ctx context.Context, userID bson.ObjectID) (*ListCategoriesResponse, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		s.log.Error(ErrListCategories.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrListCategories
	}
	if list == nil {
		list = []*Category{}
	}
	return &ListCategoriesResponse{Categories: list}, nil
}

// Create creates a category, defaulting the name and theme.
func (s *Service) Create(ctx context.Context, userID bson.ObjectID, req CreateCategoryRequest) (*CategoryResponse, error) {
	name := sanitize.Line(req.Name)
	if name == "" {
		name = DefaultName
	}
	theme := req.ThemeID
	if theme == "" {
		theme = DefaultTheme
	}

	now := s.now().UTC()
	c := &Category{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Name:      name,
		ThemeID:   theme,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.log.Error(ErrCreateCategory.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateCategory
	}
	return &CategoryResponse{Category: c}, nil
}

// Update renames and/or recolors a category.
func (s *Service) Update(ctx context.Context, userID, id bson.ObjectID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	var patch UpdateCategory
	if req.Name != nil {
		name := sanitize.Line(*req.Name)
		if strings.TrimSpace(name) == "" {
			return nil, ErrBlankName
		}
		patch.Name = &name
	}
	patch.ThemeID = req.ThemeID

	c, err := s.repo.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		s.log.Error(ErrUpdateCategory.Error(), "error", err, "user_id", userID.Hex(), "category_id", id.Hex())
		return nil, ErrUpdateCategory
	}
	return &CategoryResponse{Category: c}, nil
}

// Delete removes the category; its notes become uncategorized.
func (s *Service) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.deleteErr(err, userID, id)
	}
	return nil
}

// DeleteWithNotes removes the category together with all of its notes.
func (s *Service) DeleteWithNotes(ctx context.Context, userID, id bson.ObjectID) (*AffectedResponse, error) {
	n, err := s.repo.DeleteWithNotes(ctx, userID, id)
	if err != nil {
		return nil, s.deleteErr(err, userID, id)
	}
	s.log.Info("category deleted with notes", "user_id", userID.Hex(), "category_id", id.Hex(), "notes", n)
	return &AffectedResponse{Affected: n}, nil
}

// MoveNotesAndDelete moves every note of the category to the target, then removes the category.
func (s *Service) MoveNotesAndDelete(ctx context.Context, userID, id bson.ObjectID, req MoveNotesAndDeleteRequest) (*AffectedResponse, error) {
	target, err := bson.ObjectIDFromHex(req.TargetCategoryID)
	if err != nil {
		return nil, ErrTargetNotFound
	}
	if target == id {
		return nil, ErrSameTarget
	}

	if _, err := s.repo.FindByID(ctx, userID, target); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrTargetNotFound
		}
		return nil, s.deleteErr(err, userID, id)
	}

	n, err := s.repo.MoveNotesAndDelete(ctx, userID, id, target)
	if err != nil {
		return nil, s.deleteErr(err, userID, id)
	}
	s.log.Info("category deleted after moving notes", "user_id", userID.Hex(), "category_id", id.Hex(), "target", target.Hex(), "notes", n)
	return &AffectedResponse{Affected: n}, nil
}

func (s *Service) deleteErr(err error, userID, id bson.ObjectID) error {
	if errors.Is(err, ErrCategoryNotFound) {
		s.log.Info("category not found for delete", "user_id", userID.Hex(), "category_id", id.Hex())
		return ErrCategoryNotFound
	}
	s.log.Error(ErrDeleteCategory.Error(), "error", err, "user_id", userID.Hex(), "category_id", id.Hex())
	return ErrDeleteCategory
}

// SeedDefaults creates the starter categories of a new account.
func (s *Service) SeedDefaults(ctx context.Context, userID bson.ObjectID) error {
	now := s.now().UTC()
	cs := make([]*Category, 0, len(Defaults))
	for i, d := range Defaults {
		// Distinct timestamps keep the creation order stable.
		at := now.Add(time.Duration(i) * time.Millisecond)
		cs = append(cs, &Category{
			ID:        bson.NewObjectID(),
			UserID:    userID,
			Name:      d.Name,
			ThemeID:   d.ThemeID,
			CreatedAt: at,
			UpdatedAt: at,
		})
	}
	return s.repo.CreateMany(ctx, cs)
}

// Exists reports whether id is one of userID's categories.
func (s *Service) Exists(ctx context.Context, userID, id bson.ObjectID) (bool, error) {
	_, err := s.repo.FindByID(ctx, userID, id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrCategoryNotFound) {
		return false, nil
	}
	return false, err
}
