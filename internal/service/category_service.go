package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/query"
	"catalog-api/internal/repository"
	"catalog-api/internal/validation"
)

// CategoryPage is one page of a category listing.
type CategoryPage struct {
	Items []*domain.Category
	Total int
	Page  query.Page
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, in validation.Input) (*domain.Category, error)
	List(ctx context.Context, f query.Filter, page query.Page) (*CategoryPage, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Update(ctx context.Context, id string, in validation.Input) (*domain.Category, error)
	// Delete removes the category together with its products.
	Delete(ctx context.Context, id string) (*domain.Category, error)
	Products(ctx context.Context, id string, page query.Page) (*domain.Category, *ProductPage, error)
	// AddProduct creates a product whose category is forced to this one.
	AddProduct(ctx context.Context, id string, in validation.Input) (*domain.Product, error)
	// RemoveProduct deletes a product only if it belongs to this category.
	RemoveProduct(ctx context.Context, id, productID string) (*domain.Product, error)
}

type categoryService struct {
	categories repository.CategoryRepository
	products   ProductService
	integrity  *Integrity
	validator  *validation.CategoryValidator
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categories repository.CategoryRepository, products ProductService, integrity *Integrity) CategoryService {
	return &categoryService{
		categories: categories,
		products:   products,
		integrity:  integrity,
		validator:  validation.NewCategoryValidator(categories),
	}
}

// Create validates the input and stores a new category
func (s *categoryService) Create(ctx context.Context, in validation.Input) (*domain.Category, error) {
	patch, err := s.validator.Validate(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	category := &domain.Category{}
	category.Apply(patch)
	if err := s.categories.Create(ctx, category); err != nil {
		if mapped := categoryWriteError(err, category.Title); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// List returns a page of categories matching the filter
func (s *categoryService) List(ctx context.Context, f query.Filter, page query.Page) (*CategoryPage, error) {
	total, err := s.categories.Count(ctx, f.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	q := f.Query
	q.Limit, q.Offset, err = page.Resolve(total)
	if err != nil {
		return nil, err
	}

	items, err := s.categories.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return &CategoryPage{Items: items, Total: total, Page: page}, nil
}

// Get retrieves a category by id
func (s *categoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// Update merges the supplied fields into the category
func (s *categoryService) Update(ctx context.Context, id string, in validation.Input) (*domain.Category, error) {
	existing, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := s.validator.Validate(ctx, in, existing)
	if err != nil {
		return nil, err
	}

	matched, err := s.categories.Update(ctx, id, patch)
	if err != nil {
		if mapped := categoryWriteError(err, deref(patch.Title)); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if matched == 0 {
		return nil, repository.ErrCategoryNotFound
	}

	return s.categories.FindByID(ctx, id)
}

func (s *categoryService) Delete(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.integrity.DeleteCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Products returns the category and one page of its products
func (s *categoryService) Products(ctx context.Context, id string, page query.Page) (*domain.Category, *ProductPage, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.integrity.ProductsInCategory(ctx, category.ID, page)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range result.Items {
		p.CategoryTitle = category.Title
	}
	return category, result, nil
}

func (s *categoryService) AddProduct(ctx context.Context, id string, in validation.Input) (*domain.Product, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.products.Create(ctx, in.With("category", category.Title))
}

func (s *categoryService) RemoveProduct(ctx context.Context, id, productID string) (*domain.Product, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, &ProductNotInCategoryError{ProductID: productID, CategoryTitle: category.Title}
		case errors.Is(err, repository.ErrInvalidID):
			return nil, ErrInvalidProductID
		}
		return nil, err
	}
	if product.CategoryID != category.ID {
		return nil, &ProductNotInCategoryError{ProductID: productID, CategoryTitle: category.Title}
	}

	return s.products.Delete(ctx, productID)
}
