package validation

import (
	"context"
	"errors"
	"fmt"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
)

// DuplicateNameMessage is reported when a product name is already used.
const DuplicateNameMessage = "A product with this name already exists."

var (
	productNameRule = rule{
		field: "name",
		tag:   "notblank,max=100",
		messages: map[string]string{
			"missing":  "Name is required.",
			"notblank": "Name cannot be empty.",
			"max":      "Name must be at most 100 characters long.",
		},
	}
	productDescriptionRule = rule{
		field: "description",
		tag:   "notblank",
		messages: map[string]string{
			"missing":  "Description is required.",
			"notblank": "Description cannot be empty.",
		},
	}
	productPriceRule = rule{
		field: "price",
		tag:   "gte=0.01",
		messages: map[string]string{
			"missing": "Price is required.",
			"gte":     "Price cannot be less than 0.01",
		},
	}
	productBrandRule = rule{
		field: "brand",
		tag:   "notblank,max=100",
		messages: map[string]string{
			"missing":  "Brand is required.",
			"notblank": "Brand cannot be empty.",
			"max":      "Brand must be at most 100 characters long.",
		},
	}
	productQuantityRule = rule{
		field: "quantity",
		tag:   "gte=0",
		messages: map[string]string{
			"missing": "Quantity is required.",
			"gte":     "Quantity cannot be less than 0.",
		},
	}
	productCategoryRule = rule{
		field: "category",
		tag:   "notblank",
		messages: map[string]string{
			"missing":  "Category is required.",
			"notblank": "Category cannot be empty.",
		},
	}

	productFields = map[string]bool{
		"id":          true,
		"name":        true,
		"description": true,
		"price":       true,
		"brand":       true,
		"quantity":    true,
		"category":    true,
		"created_at":  true,
		"updated_at":  true,
	}
)

// CategoryResolver turns a category title into the stored category.
// It returns repository.ErrCategoryNotFound when no category has the title.
type CategoryResolver interface {
	ResolveCategory(ctx context.Context, title string) (*domain.Category, error)
}

// ProductResult is the outcome of a successful product validation.
// Category is set when the input named one.
type ProductResult struct {
	Patch    domain.ProductPatch
	Category *domain.Category
}

// ProductValidator checks product input, including name uniqueness and the
// category reference.
type ProductValidator struct {
	products repository.ProductRepository
	resolver CategoryResolver
}

// NewProductValidator creates a validator backed by the product repository
func NewProductValidator(products repository.ProductRepository, resolver CategoryResolver) *ProductValidator {
	return &ProductValidator{products: products, resolver: resolver}
}

// Validate checks in against the product rules; see CategoryValidator.Validate
// for the meaning of existing and the returned error.
func (v *ProductValidator) Validate(ctx context.Context, in Input, existing *domain.Product) (ProductResult, error) {
	var result ProductResult
	patch := &result.Patch
	errs := &domain.FieldErrors{}
	required := existing == nil

	if name, ok := stringField(in, productNameRule, required, errs); ok {
		taken, err := v.nameTaken(ctx, name, existing)
		if err != nil {
			return ProductResult{}, err
		}
		if taken {
			errs.Add("name", DuplicateNameMessage)
		} else {
			patch.Name = &name
		}
	}

	if description, ok := stringField(in, productDescriptionRule, required, errs); ok {
		patch.Description = &description
	}
	if price, ok := floatField(in, productPriceRule, required, errs); ok {
		patch.Price = &price
	}
	if brand, ok := stringField(in, productBrandRule, required, errs); ok {
		patch.Brand = &brand
	}
	if quantity, ok := intField(in, productQuantityRule, required, errs); ok {
		patch.Quantity = &quantity
	}

	if title, ok := stringField(in, productCategoryRule, required, errs); ok {
		category, err := v.resolver.ResolveCategory(ctx, title)
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			errs.Add("category", MissingCategoryMessage(title))
		case err != nil:
			return ProductResult{}, fmt.Errorf("failed to resolve category: %w", err)
		default:
			result.Category = category
			patch.CategoryID = &category.ID
		}
	}

	addUnexpected(in, productFields, errs)

	if !errs.Empty() {
		return ProductResult{}, &domain.ValidationError{Fields: errs}
	}
	return result, nil
}

func (v *ProductValidator) nameTaken(ctx context.Context, name string, existing *domain.Product) (bool, error) {
	found, err := v.products.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check product name: %w", err)
	}
	return existing == nil || found.ID != existing.ID, nil
}

// MissingCategoryMessage is reported when a product names an unknown category.
func MissingCategoryMessage(title string) string {
	return fmt.Sprintf("Category '%s' does not exist.", title)
}
