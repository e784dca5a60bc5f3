package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-taker/internal/logger"
	"note-taker/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotesRepo implements the notes.Repository interface for MongoDB
type NotesRepo struct {
	collection *mongo.Collection
}

// translateNotFound maps the driver ErrNoDocuments to the domain-level ErrNoteNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notes.ErrNoteNotFound
	}
	return err
}

// NewNotesRepo creates a new notes repository
func NewNotesRepo(parentCtx context.Context, db *mongo.Database) (*NotesRepo, error) {
	collection := db.Collection("notes")

	indexes := []mongo.IndexModel{
		// Default listing order
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
				{Key: "_id", Value: -1},
			},
		},
		// Category filter, counts and cascades
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "category_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
	}

	ctx, cancel := opContext(parentCtx)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.L().Error("failed to create index", "collection", "notes", "error", err)
		return nil, fmt.Errorf("%w: %w", notes.ErrCreateNotesRepo, err)
	}

	return &NotesRepo{collection: collection}, nil
}

// Create creates a new note in the database
func (r *NotesRepo) Create(ctx context.Context, note *notes.Note) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, note)
	return err
}

// listFilter builds the filter of List.
func listFilter(userID bson.ObjectID, categoryID *bson.ObjectID) bson.M {
	filter := bson.M{"user_id": userID}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	return filter
}

// List retrieves the notes of a user, most recently updated first.
func (r *NotesRepo) List(ctx context.Context, userID bson.ObjectID, categoryID *bson.ObjectID) ([]*notes.Note, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, listFilter(userID, categoryID), opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	var notesList []*notes.Note
	if err := cursor.All(ctx, &notesList); err != nil {
		return nil, err
	}
	return notesList, nil
}

// updateDoc builds the $set/$unset document of Update.
func updateDoc(patch notes.UpdateNote, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	switch {
	case patch.ClearCategory:
		set["category_id"] = nil
	case patch.CategoryID != nil:
		set["category_id"] = *patch.CategoryID
	}
	return bson.M{"$set": set}
}

// Update updates a note belonging to the specified user
func (r *NotesRepo) Update(ctx context.Context, userID, noteID bson.ObjectID, patch notes.UpdateNote) (*notes.Note, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	filter := bson.M{
		"_id":     noteID,
		"user_id": userID,
	}

	// Nothing to change: return the stored note without bumping updated_at.
	if patch.Empty() {
		var existing notes.Note
		if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
			return nil, translateNotFound(err)
		}
		return &existing, nil
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updatedNote notes.Note
	err := r.collection.FindOneAndUpdate(ctx, filter, updateDoc(patch, time.Now().UTC()), opts).Decode(&updatedNote)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &updatedNote, nil
}

// Delete deletes a note belonging to the specified user
func (r *NotesRepo) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": noteID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return notes.ErrNoteNotFound
	}
	return nil
}

// BulkMove reassigns the user's listed notes to categoryID.
func (r *NotesRepo) BulkMove(ctx context.Context, userID bson.ObjectID, noteIDs []bson.ObjectID, categoryID bson.ObjectID) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	filter := bson.M{
		"user_id": userID,
		"_id":     bson.M{"$in": noteIDs},
	}
	update := bson.M{"$set": bson.M{"category_id": categoryID, "updated_at": time.Now().UTC()}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
