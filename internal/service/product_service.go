package service

import (
	"context"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/query"
	"catalog-api/internal/repository"
	"catalog-api/internal/validation"
)

// ProductPage is one page of a product listing. Total counts every match.
type ProductPage struct {
	Items []*domain.Product
	Total int
	Page  query.Page
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, in validation.Input) (*domain.Product, error)
	List(ctx context.Context, f query.Filter, page query.Page) (*ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, in validation.Input) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*domain.Product, error)
}

type productService struct {
	products  repository.ProductRepository
	integrity *Integrity
	validator *validation.ProductValidator
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, integrity *Integrity) ProductService {
	return &productService{
		products:  products,
		integrity: integrity,
		validator: validation.NewProductValidator(products, integrity),
	}
}

// Create validates the input and stores a new product under its category
func (s *productService) Create(ctx context.Context, in validation.Input) (*domain.Product, error) {
	result, err := s.validator.Validate(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{}
	product.Apply(result.Patch)
	if err := s.products.Create(ctx, product); err != nil {
		if mapped := productWriteError(err, result.Category.Title); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	product.CategoryTitle = result.Category.Title
	return product, nil
}

// List returns a page of products matching the filter
func (s *productService) List(ctx context.Context, f query.Filter, page query.Page) (*ProductPage, error) {
	if err := s.integrity.ResolveFilter(ctx, &f); err != nil {
		return nil, err
	}

	result, err := listProducts(ctx, s.products, f.Query, page)
	if err != nil {
		return nil, err
	}

	if err := s.integrity.AttachTitles(ctx, result.Items...); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a product with its category title
func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.integrity.AttachTitles(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update merges the supplied fields into the product; updated_at always moves
func (s *productService) Update(ctx context.Context, id string, in validation.Input) (*domain.Product, error) {
	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.validator.Validate(ctx, in, existing)
	if err != nil {
		return nil, err
	}

	matched, err := s.products.Update(ctx, id, result.Patch)
	if err != nil {
		var title string
		if result.Category != nil {
			title = result.Category.Title
		}
		if mapped := productWriteError(err, title); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if matched == 0 {
		return nil, repository.ErrProductNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes a product and returns the removed record
func (s *productService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	if deleted == 0 {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}
