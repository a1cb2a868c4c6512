package repository

import (
	"context"
	"errors"
	"time"

	"catalog-api/internal/domain"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidID         = errors.New("invalid identifier")
	ErrDuplicate         = errors.New("duplicate value violates unique constraint")
	ErrCategoryReference = errors.New("referenced category does not exist")
)

// Sortable fields shared by every backend.
const (
	FieldTitle     = "title"
	FieldName      = "name"
	FieldBrand     = "brand"
	FieldPrice     = "price"
	FieldQuantity  = "quantity"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Query describes a filtered, ordered and windowed listing.
// After bounds are inclusive and Before bounds are exclusive.
type Query struct {
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time

	// Products only.
	PriceMin *float64
	PriceMax *float64

	// When RestrictCategories is set only products whose category id is
	// in CategoryIDs match; an empty list matches nothing.
	CategoryIDs        []string
	RestrictCategories bool

	OrderBy    string
	Descending bool

	// Limit 0 means no limit.
	Limit  int
	Offset int
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// Create assigns ID and timestamps to category and stores it.
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context, q Query) ([]*domain.Category, error)
	Count(ctx context.Context, q Query) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error)
	FindByTitle(ctx context.Context, title string) (*domain.Category, error)
	FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error)
	// Update merges patch into the stored category and refreshes updated_at.
	// It returns the number of matched records.
	Update(ctx context.Context, id string, patch domain.CategoryPatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	Ping(ctx context.Context) error
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, q Query) ([]*domain.Product, error)
	Count(ctx context.Context, q Query) (int, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByCategory(ctx context.Context, categoryID string) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	// FindOrphans returns products whose category reference does not resolve.
	FindOrphans(ctx context.Context) ([]*domain.Product, error)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// touch returns a timestamp strictly after prev.
func touch(prev time.Time) time.Time {
	ts := now()
	if !ts.After(prev) {
		ts = prev.Add(time.Millisecond)
	}
	return ts
}

func sortField(field string, allowed map[string]bool) string {
	if allowed[field] {
		return field
	}
	return FieldCreatedAt
}

var categorySortFields = map[string]bool{
	FieldTitle:     true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}

var productSortFields = map[string]bool{
	FieldName:      true,
	FieldBrand:     true,
	FieldPrice:     true,
	FieldQuantity:  true,
	FieldCreatedAt: true,
	FieldUpdatedAt: true,
}
