package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/domain"
)

const productColumns = "id, name, description, brand, price, quantity, category_id, created_at, updated_at"

type postgresProductRepository struct {
	db *sql.DB
}

// NewPostgresProductRepository creates a ProductRepository over PostgreSQL
func NewPostgresProductRepository(db *sql.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Brand,
		&product.Price,
		&product.Quantity,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = product.CreatedAt.UTC()
	product.UpdatedAt = product.UpdatedAt.UTC()
	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *postgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	categoryID, err := parsePgID(product.CategoryID)
	if err != nil {
		return ErrCategoryReference
	}

	query := `
		INSERT INTO products (name, description, brand, price, quantity, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	ts := now()
	err = r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Brand,
		product.Price,
		product.Quantity,
		categoryID,
		ts,
	).Scan(&product.ID)

	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	product.CreatedAt = ts
	product.UpdatedAt = ts
	return nil
}

func (r *postgresProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func productWhere(q Query) *whereBuilder {
	where := &whereBuilder{}
	where.applyTimestamps(q)
	if q.PriceMin != nil {
		where.add("price >= $%d", *q.PriceMin)
	}
	if q.PriceMax != nil {
		where.add("price <= $%d", *q.PriceMax)
	}
	if q.RestrictCategories {
		where.in("category_id", q.CategoryIDs)
	}
	return where
}

// List retrieves products matching q with pagination and sorting
func (r *postgresProductRepository) List(ctx context.Context, q Query) ([]*domain.Product, error) {
	where := productWhere(q)
	clause := where.String()
	order := where.window(sortField(q.OrderBy, productSortFields), q)

	query := fmt.Sprintf("SELECT %s FROM products %s%s", productColumns, clause, order)
	return r.queryProducts(ctx, query, where.args...)
}

// Count returns the number of products matching q, ignoring its window
func (r *postgresProductRepository) Count(ctx context.Context, q Query) (int, error) {
	where := productWhere(q)

	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM products %s", where.String())
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *postgresProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns)
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, parsed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByName retrieves a product by its exact name
func (r *postgresProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE name = $1", productColumns)
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return product, nil
}

// Update merges the patch into the stored row and refreshes updated_at
func (r *postgresProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (int64, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return 0, err
	}

	sets := []string{}
	args := []interface{}{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Brand != nil {
		set("brand", *patch.Brand)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Quantity != nil {
		set("quantity", *patch.Quantity)
	}
	if patch.CategoryID != nil {
		categoryID, err := parsePgID(*patch.CategoryID)
		if err != nil {
			return 0, ErrCategoryReference
		}
		set("category_id", categoryID)
	}
	args = append(args, now())
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST($%d, updated_at + interval '1 millisecond')", len(args)))
	args = append(args, parsed)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Delete removes a product from the database using parameterized queries
func (r *postgresProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *postgresProductRepository) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	parsed, err := parsePgID(categoryID)
	if err != nil {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE category_id = $1`, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products by category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *postgresProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	parsed, err := parsePgID(categoryID)
	if err != nil {
		return 0, nil
	}

	var total int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, parsed).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count products by category: %w", err)
	}
	return total, nil
}

func (r *postgresProductRepository) FindOrphans(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.brand, p.price, p.quantity, p.category_id, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE c.id IS NULL
		ORDER BY p.created_at ASC
	`
	return r.queryProducts(ctx, query)
}
