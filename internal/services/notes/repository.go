package notes

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for notes repository operations
type Repository interface {
	Create(ctx context.Context, n *Note) error
	// List returns the notes of userID, most recently updated first,
	// restricted to categoryID when it is not nil.
	List(ctx context.Context, userID bson.ObjectID, categoryID *bson.ObjectID) ([]*Note, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, patch UpdateNote) (*Note, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
	BulkMove(ctx context.Context, userID bson.ObjectID, noteIDs []bson.ObjectID, categoryID bson.ObjectID) (int64, error)
}

// Categories answers whether a category id may be referenced by userID's notes.
type Categories interface {
	Exists(ctx context.Context, userID, categoryID bson.ObjectID) (bool, error)
}
