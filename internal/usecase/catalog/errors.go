package catalog

import (
	"fmt"

	apperrors "library-service/pkg/errors"
)

// UnknownCategoryError is returned when a book references a category that does not exist.
// Categories lists every existing category so the caller can pick a valid id.
type UnknownCategoryError struct {
	CategoryID int64
	Categories []Category
}

// Error implements the error interface
func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category: category with id %d does not exist", e.CategoryID)
}

// Unwrap exposes the not-found kind to errors.As.
func (e *UnknownCategoryError) Unwrap() error {
	return apperrors.NewNotFoundError("category", e.Error())
}
