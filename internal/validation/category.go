package validation

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
)

var (
	categoryTitleRule = rule{
		field: "title",
		tag:   "notblank,max=100",
		messages: map[string]string{
			"missing":  "Title is required.",
			"notblank": "Title cannot be empty.",
			"max":      "Title must be at most 100 characters long.",
		},
	}
	categoryDescriptionRule = rule{
		field: "description",
		tag:   "notblank",
		messages: map[string]string{
			"missing":  "Description is required.",
			"notblank": "Description cannot be empty.",
		},
	}

	categoryFields = map[string]bool{
		"id":          true,
		"title":       true,
		"description": true,
		"created_at":  true,
		"updated_at":  true,
	}
)

// CategoryValidator checks category input, including title uniqueness.
type CategoryValidator struct {
	categories repository.CategoryRepository
}

// NewCategoryValidator creates a validator backed by the category repository
func NewCategoryValidator(categories repository.CategoryRepository) *CategoryValidator {
	return &CategoryValidator{categories: categories}
}

// Validate checks in against the category rules. existing is nil on create,
// where every writable field is required; on update only supplied fields are
// checked and the title may match existing's own.
//
// Violations are returned together as *domain.ValidationError; any other
// error is a storage failure.
func (v *CategoryValidator) Validate(ctx context.Context, in Input, existing *domain.Category) (domain.CategoryPatch, error) {
	var patch domain.CategoryPatch
	errs := &domain.FieldErrors{}
	required := existing == nil

	if title, ok := stringField(in, categoryTitleRule, required, errs); ok {
		taken, err := v.titleTaken(ctx, title, existing)
		if err != nil {
			return domain.CategoryPatch{}, err
		}
		if taken {
			errs.Add("title", DuplicateTitleMessage(title))
		} else {
			patch.Title = &title
		}
	}

	if description, ok := stringField(in, categoryDescriptionRule, required, errs); ok {
		patch.Description = &description
	}

	addUnexpected(in, categoryFields, errs)

	if !errs.Empty() {
		return domain.CategoryPatch{}, &domain.ValidationError{Fields: errs}
	}
	return patch, nil
}

func (v *CategoryValidator) titleTaken(ctx context.Context, title string, existing *domain.Category) (bool, error) {
	found, err := v.categories.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check category title: %w", err)
	}
	return existing == nil || found.ID != existing.ID, nil
}

// DuplicateTitleMessage is reported when a category title is already used.
func DuplicateTitleMessage(title string) string {
	return fmt.Sprintf("A category with title '%s' already exists.", title)
}
