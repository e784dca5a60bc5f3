package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo stores accounts. Create returns ErrDuplicate for a taken email;
// the finders return ErrUserNotFound.
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
}

// CategorySeeder creates the starter categories of a new account.
type CategorySeeder interface {
	SeedDefaults(ctx context.Context, userID bson.ObjectID) error
}
