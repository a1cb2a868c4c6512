package service

import (
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/validation"
)

var (
	// ErrCascadeIncomplete means products still reference a deleted category.
	ErrCascadeIncomplete = errors.New("category cascade left products behind")
	// ErrInvalidProductID marks a malformed product id met while working on a
	// category, where a bare repository.ErrInvalidID would be ambiguous.
	ErrInvalidProductID = fmt.Errorf("%w: product", repository.ErrInvalidID)
)

// ProductNotInCategoryError reports a product that does not exist under the
// given category.
type ProductNotInCategoryError struct {
	ProductID     string
	CategoryTitle string
}

func (e *ProductNotInCategoryError) Error() string {
	return fmt.Sprintf("No product found with ID %s in '%s' category.", e.ProductID, e.CategoryTitle)
}

// categoryWriteError converts unique index violations raised by storage into
// the same validation error the pre-flight check produces.
func categoryWriteError(err error, title string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.NewValidationError("title", validation.DuplicateTitleMessage(title))
	}
	return err
}

func productWriteError(err error, category string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return domain.NewValidationError("name", validation.DuplicateNameMessage)
	case errors.Is(err, repository.ErrCategoryReference):
		return domain.NewValidationError("category", validation.MissingCategoryMessage(category))
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
