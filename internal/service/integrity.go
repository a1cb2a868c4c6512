package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/query"
	"catalog-api/internal/repository"
)

// Integrity keeps product category references consistent. It resolves
// category titles, cascades category deletion to products and repairs
// products whose category has disappeared.
//
// The store offers no multi-record transactions, so a cascade interrupted
// midway can leave orphans; MigrateOrphans repairs them.
type Integrity struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

// NewIntegrity creates the coordinator over both repositories
func NewIntegrity(categories repository.CategoryRepository, products repository.ProductRepository) *Integrity {
	return &Integrity{categories: categories, products: products}
}

// ResolveCategory looks up a category by its exact title.
func (c *Integrity) ResolveCategory(ctx context.Context, title string) (*domain.Category, error) {
	category, err := c.categories.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve category %q: %w", title, err)
	}
	return category, nil
}

// ResolveFilter converts the filter's category references into ids. Each
// reference matches a category by title, or failing that by id; references
// matching nothing are dropped, so a filter naming only unknown categories
// matches no products.
func (c *Integrity) ResolveFilter(ctx context.Context, f *query.Filter) error {
	if !f.HasCategories {
		return nil
	}

	byTitle, err := c.categories.FindByTitles(ctx, f.Categories)
	if err != nil {
		return fmt.Errorf("failed to resolve category filter: %w", err)
	}
	byID, err := c.categories.FindByIDs(ctx, f.Categories)
	if err != nil {
		return fmt.Errorf("failed to resolve category filter: %w", err)
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, category := range append(byTitle, byID...) {
		if !seen[category.ID] {
			seen[category.ID] = true
			ids = append(ids, category.ID)
		}
	}

	f.Query.CategoryIDs = ids
	f.Query.RestrictCategories = true
	return nil
}

// AttachTitles fills CategoryTitle on each product with one batched lookup.
func (c *Integrity) AttachTitles(ctx context.Context, products ...*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}

	categories, err := c.categories.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}

	titles := make(map[string]string, len(categories))
	for _, category := range categories {
		titles[category.ID] = category.Title
	}
	for _, p := range products {
		p.CategoryTitle = titles[p.CategoryID]
	}
	return nil
}

// CascadeResult summarizes a category deletion.
type CascadeResult struct {
	ProductsDeleted int64
}

// DeleteCategory removes the category and every product referencing it.
// Products are deleted first, then the category, then products created in
// between are swept; the call fails if any reference survives.
func (c *Integrity) DeleteCategory(ctx context.Context, category *domain.Category) (CascadeResult, error) {
	var result CascadeResult

	removed, err := c.products.DeleteByCategory(ctx, category.ID)
	if err != nil {
		return result, fmt.Errorf("failed to delete products of category: %w", err)
	}
	result.ProductsDeleted += removed

	deleted, err := c.categories.Delete(ctx, category.ID)
	if err != nil {
		return result, fmt.Errorf("failed to delete category: %w", err)
	}
	if deleted == 0 {
		return result, repository.ErrCategoryNotFound
	}

	swept, err := c.products.DeleteByCategory(ctx, category.ID)
	if err != nil {
		return result, fmt.Errorf("failed to sweep products of category: %w", err)
	}
	result.ProductsDeleted += swept

	remaining, err := c.products.CountByCategory(ctx, category.ID)
	if err != nil {
		return result, fmt.Errorf("failed to verify category cascade: %w", err)
	}
	if remaining > 0 {
		return result, fmt.Errorf("%w: %d products still reference category %s", ErrCascadeIncomplete, remaining, category.ID)
	}
	return result, nil
}

// ProductsInCategory returns one page of the products under categoryID.
func (c *Integrity) ProductsInCategory(ctx context.Context, categoryID string, page query.Page) (*ProductPage, error) {
	q := repository.Query{CategoryIDs: []string{categoryID}, RestrictCategories: true}
	return listProducts(ctx, c.products, q, page)
}

// MigrateOrphans moves every product whose category no longer resolves to
// the category titled fallbackTitle, creating it when absent. It returns the
// number of products moved.
func (c *Integrity) MigrateOrphans(ctx context.Context, fallbackTitle, fallbackDescription string) (int, error) {
	orphans, err := c.products.FindOrphans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to find orphaned products: %w", err)
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	fallback, err := c.categories.FindByTitle(ctx, fallbackTitle)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		fallback = &domain.Category{Title: fallbackTitle, Description: fallbackDescription}
		err = c.categories.Create(ctx, fallback)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fallback category: %w", err)
	}

	moved := 0
	for _, product := range orphans {
		matched, err := c.products.Update(ctx, product.ID, domain.ProductPatch{CategoryID: &fallback.ID})
		if err != nil {
			return moved, fmt.Errorf("failed to move product %s: %w", product.ID, err)
		}
		moved += int(matched)
	}
	return moved, nil
}

func listProducts(ctx context.Context, products repository.ProductRepository, q repository.Query, page query.Page) (*ProductPage, error) {
	total, err := products.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	q.Limit, q.Offset, err = page.Resolve(total)
	if err != nil {
		return nil, err
	}

	items, err := products.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &ProductPage{Items: items, Total: total, Page: page}, nil
}
