package workspace

import "context"

// Persistence is the contract of the remote (or local file) service the
// workspace mirrors. SaveNote and SaveCategory create the entity when its id is
// provisional and return it with the durable id.
type Persistence interface {
	ListNotes(ctx context.Context) ([]Note, error)
	SaveNote(ctx context.Context, n Note) (Note, error)
	DeleteNote(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]Category, error)
	SaveCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
	BulkReassignNotes(ctx context.Context, noteIDs []string, targetCategoryID string) error
}
