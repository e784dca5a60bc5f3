package categories

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for categories repository operations.
// Deletes touch the notes collection too and must leave no note pointing
// at a deleted category.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	CreateMany(ctx context.Context, cs []*Category) error
	// List returns the categories of userID in creation order with NotesCount filled.
	List(ctx context.Context, userID bson.ObjectID) ([]*Category, error)
	FindByID(ctx context.Context, userID, id bson.ObjectID) (*Category, error)
	Update(ctx context.Context, userID, id bson.ObjectID, patch UpdateCategory) (*Category, error)
	// Delete removes the category and uncategorizes its notes.
	Delete(ctx context.Context, userID, id bson.ObjectID) error
	// DeleteWithNotes removes the category and its notes, returning the number of notes removed.
	DeleteWithNotes(ctx context.Context, userID, id bson.ObjectID) (int64, error)
	// MoveNotesAndDelete reassigns the category's notes to target, then removes it.
	MoveNotesAndDelete(ctx context.Context, userID, id, target bson.ObjectID) (int64, error)
}
