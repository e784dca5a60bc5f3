package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-taker/internal/logger"
	"note-taker/internal/services/categories"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CategoriesRepo implements the categories.Repository interface for MongoDB.
// Deletes cascade into the notes collection inside a transaction when the
// deployment is a replica set, and in a fixed order otherwise.
type CategoriesRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	notes      *mongo.Collection
}

// NewCategoriesRepo creates a new categories repository
func NewCategoriesRepo(parentCtx context.Context, db *mongo.Database) (*CategoriesRepo, error) {
	collection := db.Collection("categories")

	ctx, cancel := opContext(parentCtx)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		logger.L().Error("failed to create index", "collection", "categories", "error", err)
		return nil, fmt.Errorf("failed to create categories collection index: %w", err)
	}

	return &CategoriesRepo{
		client:     db.Client(),
		collection: collection,
		notes:      db.Collection("notes"),
	}, nil
}

func translateCategoryNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return categories.ErrCategoryNotFound
	}
	return err
}

// Create inserts one category.
func (r *CategoriesRepo) Create(ctx context.Context, c *categories.Category) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, c)
	return err
}

// CreateMany inserts the categories in order.
func (r *CategoriesRepo) CreateMany(ctx context.Context, cs []*categories.Category) error {
	if len(cs) == 0 {
		return nil
	}
	ctx, cancel := opContext(ctx)
	defer cancel()

	docs := make([]any, 0, len(cs))
	for _, c := range cs {
		docs = append(docs, c)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// countPipeline groups the user's categorized notes by category.
func countPipeline(userID bson.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "category_id": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$category_id", "count": bson.M{"$sum": 1}}}},
	}
}

// List returns the user's categories in creation order with their note counts.
func (r *CategoriesRepo) List(ctx context.Context, userID bson.ObjectID) ([]*categories.Category, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	var list []*categories.Category
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}

	countCursor, err := r.notes.Aggregate(ctx, countPipeline(userID))
	if err != nil {
		return nil, err
	}
	var counts []struct {
		ID    bson.ObjectID `bson:"_id"`
		Count int64         `bson:"count"`
	}
	if err := countCursor.All(ctx, &counts); err != nil {
		return nil, err
	}

	byID := make(map[bson.ObjectID]int64, len(counts))
	for _, c := range counts {
		byID[c.ID] = c.Count
	}
	for _, c := range list {
		c.NotesCount = byID[c.ID]
	}
	return list, nil
}

// FindByID returns one of the user's categories.
func (r *CategoriesRepo) FindByID(ctx context.Context, userID, id bson.ObjectID) (*categories.Category, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var c categories.Category
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&c); err != nil {
		return nil, translateCategoryNotFound(err)
	}
	return &c, nil
}

// Update renames and/or recolors a category.
func (r *CategoriesRepo) Update(ctx context.Context, userID, id bson.ObjectID, patch categories.UpdateCategory) (*categories.Category, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.ThemeID != nil {
		set["theme_id"] = *patch.ThemeID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c categories.Category
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": set}, opts).Decode(&c)
	if err != nil {
		return nil, translateCategoryNotFound(err)
	}
	return &c, nil
}

// Delete removes the category and uncategorizes its notes.
func (r *CategoriesRepo) Delete(ctx context.Context, userID, id bson.ObjectID) error {
	_, err := r.cascade(ctx, userID, id, func(ctx context.Context, filter bson.M) (int64, error) {
		res, err := r.notes.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"category_id": nil}})
		if err != nil {
			return 0, err
		}
		return res.ModifiedCount, nil
	})
	return err
}

// DeleteWithNotes removes the category and its notes.
func (r *CategoriesRepo) DeleteWithNotes(ctx context.Context, userID, id bson.ObjectID) (int64, error) {
	return r.cascade(ctx, userID, id, func(ctx context.Context, filter bson.M) (int64, error) {
		res, err := r.notes.DeleteMany(ctx, filter)
		if err != nil {
			return 0, err
		}
		return res.DeletedCount, nil
	})
}

// MoveNotesAndDelete reassigns the category's notes to target, then removes it.
func (r *CategoriesRepo) MoveNotesAndDelete(ctx context.Context, userID, id, target bson.ObjectID) (int64, error) {
	return r.cascade(ctx, userID, id, func(ctx context.Context, filter bson.M) (int64, error) {
		update := bson.M{"$set": bson.M{"category_id": target, "updated_at": time.Now().UTC()}}
		res, err := r.notes.UpdateMany(ctx, filter, update)
		if err != nil {
			return 0, err
		}
		return res.ModifiedCount, nil
	})
}

type notesStep func(ctx context.Context, filter bson.M) (int64, error)

// cascade checks the category exists, applies step to its notes and removes it.
// Without a replica set the notes step runs first so a failure never leaves
// notes pointing at a deleted category.
func (r *CategoriesRepo) cascade(ctx context.Context, userID, id bson.ObjectID, step notesStep) (int64, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	run := func(ctx context.Context) (int64, error) {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID})
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, categories.ErrCategoryNotFound
		}

		affected, err := step(ctx, bson.M{"user_id": userID, "category_id": id})
		if err != nil {
			return 0, err
		}

		res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
		if err != nil {
			return 0, err
		}
		if res.DeletedCount == 0 {
			return 0, categories.ErrCategoryNotFound
		}
		return affected, nil
	}

	if !IsReplicaSet() || r.client == nil {
		return run(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return run(sc)
	})
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}
