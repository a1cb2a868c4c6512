// Package seed loads the sample catalog used for local development.
package seed

import (
	"context"
	"fmt"

	"catalog-api/internal/query"
	"catalog-api/internal/service"
	"catalog-api/internal/validation"
)

// UncategorizedTitle names the category orphaned products are moved to.
const (
	UncategorizedTitle       = "Uncategorized"
	UncategorizedDescription = "Default category for old products"
)

// Category is a sample category definition.
type Category struct {
	Title       string
	Description string
}

// Product is a sample product; Category refers to a category title.
type Product struct {
	Name        string
	Description string
	Brand       string
	Price       float64
	Quantity    int
	Category    string
}

// Categories are created, in order, by every seed run.
var Categories = []Category{
	{Title: "Electronics", Description: "Devices, gadgets, and accessories"},
	{Title: "Clothing", Description: "Men's and women's fashion wear"},
	{Title: "Home Appliances", Description: "Kitchen and home use appliances"},
	{Title: "Books", Description: "All genres of books"},
}

// Products are created after Categories, one per category.
var Products = []Product{
	{Name: "iPhone 14", Description: "6.1-inch smartphone", Brand: "Apple", Price: 999.99, Quantity: 10, Category: "Electronics"},
	{Name: "T-shirt", Description: "Cotton crew neck t-shirt", Brand: "H&M", Price: 19.99, Quantity: 50, Category: "Clothing"},
	{Name: "Microwave Oven", Description: "20 litre countertop microwave", Brand: "LG", Price: 120.50, Quantity: 20, Category: "Home Appliances"},
	{Name: "Harry Potter", Description: "Harry Potter and the Philosopher's Stone", Brand: "Bloomsbury", Price: 29.99, Quantity: 100, Category: "Books"},
}

// Result counts what a seed run removed and created.
type Result struct {
	CategoriesDeleted int
	ProductsDeleted   int
	CategoriesCreated int
	ProductsCreated   int
}

const wipeBatch = 100

// Run wipes the catalog and loads the sample data through the services, so
// the records pass the same validation as API input.
func Run(ctx context.Context, categories service.CategoryService, products service.ProductService) (*Result, error) {
	result := &Result{}

	if err := wipe(ctx, categories, products, result); err != nil {
		return result, err
	}

	for _, c := range Categories {
		in := validation.Input{}.
			With("title", c.Title).
			With("description", c.Description)
		if _, err := categories.Create(ctx, in); err != nil {
			return result, fmt.Errorf("failed to seed category %q: %w", c.Title, err)
		}
		result.CategoriesCreated++
	}

	for _, p := range Products {
		in := validation.Input{}.
			With("name", p.Name).
			With("description", p.Description).
			With("brand", p.Brand).
			With("price", p.Price).
			With("quantity", p.Quantity).
			With("category", p.Category)
		if _, err := products.Create(ctx, in); err != nil {
			return result, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
		}
		result.ProductsCreated++
	}

	return result, nil
}

func wipe(ctx context.Context, categories service.CategoryService, products service.ProductService, result *Result) error {
	first := query.Page{Number: 1, Size: wipeBatch}

	for {
		page, err := categories.List(ctx, query.Filter{}, first)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, c := range page.Items {
			if _, err := categories.Delete(ctx, c.ID); err != nil {
				return fmt.Errorf("failed to delete category %q: %w", c.Title, err)
			}
			result.CategoriesDeleted++
		}
	}

	// Orphans survive the category cascade.
	for {
		page, err := products.List(ctx, query.Filter{}, first)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, p := range page.Items {
			if _, err := products.Delete(ctx, p.ID); err != nil {
				return fmt.Errorf("failed to delete product %q: %w", p.Name, err)
			}
			result.ProductsDeleted++
		}
	}

	return nil
}
