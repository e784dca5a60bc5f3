package categories

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Category groups notes under a name and a color theme.
type Category struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id" example:"683cdb8aa96ad71e8e075bd2"`
	UserID     bson.ObjectID `bson:"user_id" json:"user_id" example:"683cdb8aa96ad71e8e075bd0"`
	Name       string        `bson:"name" json:"name" example:"School"`
	ThemeID    string        `bson:"theme_id" json:"theme_id" example:"yellow"`
	NotesCount int64         `bson:"-" json:"notes_count" example:"4"`
	CreatedAt  time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// UpdateCategory represents the fields that can be updated in a category
type UpdateCategory struct {
	Name    *string
	ThemeID *string
}

// DefaultTheme is used when a category is created without theme.
const DefaultTheme = "orange"

// DefaultName is used when a category is created without name.
const DefaultName = "New Category"

// Defaults are the categories every new account starts with.
var Defaults = []struct{ Name, ThemeID string }{
	{"Random Thoughts", "orange"},
	{"School", "yellow"},
	{"Personal", "teal"},
}
