package workspace

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ProvisionalPrefix marks ids generated locally before the persistence service
// has acknowledged the entity.
const ProvisionalPrefix = "tmp_"

// Note is a single note of the session. An empty CategoryID means uncategorized.
type Note struct {
	ID         string    `yaml:"id" json:"id"`
	Title      string    `yaml:"title" json:"title"`
	Content    string    `yaml:"content" json:"content"`
	CategoryID string    `yaml:"category_id,omitempty" json:"category_id,omitempty"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt  time.Time `yaml:"updated_at" json:"updated_at"`
}

// Category groups notes under a name and a color theme.
type Category struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	ThemeID string `yaml:"theme_id" json:"theme_id"`
}

// Theme identifiers known to the renderer.
const (
	ThemeOrange = "orange"
	ThemeYellow = "yellow"
	ThemeGreen  = "green"
	ThemeTeal   = "teal"
	ThemePeach  = "peach"
	ThemeBlue   = "blue"
	ThemePink   = "pink"

	DefaultTheme = ThemeOrange
)

// Themes lists the closed theme set in picker order.
var Themes = []string{ThemeOrange, ThemeYellow, ThemeGreen, ThemeTeal, ThemePeach, ThemeBlue, ThemePink}

// NewCategoryName is the placeholder name of a freshly created category.
const NewCategoryName = "New Category"

// KnownTheme reports whether id belongs to the theme set.
func KnownTheme(id string) bool {
	for _, t := range Themes {
		if t == id {
			return true
		}
	}
	return false
}

// ResolveTheme returns the theme used to render id; unknown ids render as DefaultTheme.
func ResolveTheme(id string) string {
	if KnownTheme(id) {
		return id
	}
	return DefaultTheme
}

// DefaultCategories are seeded into a fresh account or local store.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Random Thoughts", ThemeID: ThemeOrange},
		{Name: "School", ThemeID: ThemeYellow},
		{Name: "Personal", ThemeID: ThemeTeal},
	}
}

// NewProvisionalID returns a fresh locally generated id.
func NewProvisionalID() string {
	return ProvisionalPrefix + ulid.Make().String()
}

// IsProvisional reports whether id was generated locally and never acknowledged.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}
