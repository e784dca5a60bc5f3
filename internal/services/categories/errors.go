package categories

import "errors"

// ErrCategoryNotFound is returned when the category does not exist or belongs to someone else.
var ErrCategoryNotFound = errors.New("category not found")

// ErrTargetNotFound is returned when the move target does not exist.
var ErrTargetNotFound = errors.New("target category not found")

// ErrSameTarget is returned when notes would be moved into the category being deleted.
var ErrSameTarget = errors.New("target category must differ from the deleted category")

// ErrBlankName is returned when a rename trims to nothing.
var ErrBlankName = errors.New("category name cannot be blank")

// ErrInvalidID is returned for ids that are not ObjectIDs.
var ErrInvalidID = errors.New("invalid id")

// ErrCreateCategory is returned when category creation fails.
var ErrCreateCategory = errors.New("failed to create category")

// ErrUpdateCategory is returned when category update fails.
var ErrUpdateCategory = errors.New("failed to update category")

// ErrDeleteCategory is returned when category deletion fails.
var ErrDeleteCategory = errors.New("failed to delete category")

// ErrListCategories is returned when categories listing fails.
var ErrListCategories = errors.New("failed to list categories")
