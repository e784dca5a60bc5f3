package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Note is a note of one user. A nil CategoryID means uncategorized.
type Note struct {
	ID         bson.ObjectID  `bson:"_id,omitempty" json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	UserID     bson.ObjectID  `bson:"user_id" json:"user_id" example:"683cdb8aa96ad71e8e075bd0"`
	Title      string         `bson:"title" json:"title" example:"Meeting Notes"`
	Content    string         `bson:"content" json:"content" example:"Remember to discuss the quarterly targets"`
	CategoryID *bson.ObjectID `bson:"category_id" json:"category_id" swaggertype:"string" example:"683cdb8aa96ad71e8e075bd2"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// UpdateNote represents the fields that can be updated in a note.
// ClearCategory wins over CategoryID.
type UpdateNote struct {
	Title         *string
	Content       *string
	CategoryID    *bson.ObjectID
	ClearCategory bool
}

// Empty reports whether the patch changes nothing.
func (u UpdateNote) Empty() bool {
	return u.Title == nil && u.Content == nil && u.CategoryID == nil && !u.ClearCategory
}
