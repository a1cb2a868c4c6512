package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"catalog-api/internal/domain"
)

const categoryColumns = "id, title, description, created_at, updated_at"

type postgresCategoryRepository struct {
	db *sql.DB
}

// NewPostgresCategoryRepository creates a CategoryRepository over PostgreSQL
func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.Title,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	category.CreatedAt = category.CreatedAt.UTC()
	category.UpdatedAt = category.UpdatedAt.UTC()
	return category, nil
}

// Create inserts a new category; the database generates the id
func (r *postgresCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id
	`

	ts := now()
	err := r.db.QueryRowContext(ctx, query, category.Title, category.Description, ts).Scan(&category.ID)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	category.CreatedAt = ts
	category.UpdatedAt = ts
	return nil
}

func (r *postgresCategoryRepository) queryCategories(ctx context.Context, query string, args ...interface{}) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// List retrieves categories matching q
func (r *postgresCategoryRepository) List(ctx context.Context, q Query) ([]*domain.Category, error) {
	where := &whereBuilder{}
	where.applyTimestamps(q)
	clause := where.String()
	order := where.window(sortField(q.OrderBy, categorySortFields), q)

	query := fmt.Sprintf("SELECT %s FROM categories %s%s", categoryColumns, clause, order)
	return r.queryCategories(ctx, query, where.args...)
}

// Count returns the number of categories matching q, ignoring its window
func (r *postgresCategoryRepository) Count(ctx context.Context, q Query) (int, error) {
	where := &whereBuilder{}
	where.applyTimestamps(q)

	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM categories %s", where.String())
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return total, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *postgresCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM categories WHERE id = $1", categoryColumns)
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, parsed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if parsed, err := parsePgID(id); err == nil {
			valid = append(valid, parsed.String())
		}
	}
	if len(valid) == 0 {
		return []*domain.Category{}, nil
	}

	where := &whereBuilder{}
	where.in("id", valid)
	query := fmt.Sprintf("SELECT %s FROM categories %s", categoryColumns, where.String())
	return r.queryCategories(ctx, query, where.args...)
}

// FindByTitle retrieves a category by its exact title
func (r *postgresCategoryRepository) FindByTitle(ctx context.Context, title string) (*domain.Category, error) {
	query := fmt.Sprintf("SELECT %s FROM categories WHERE title = $1", categoryColumns)
	category, err := scanCategory(r.db.QueryRowContext(ctx, query, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by title: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if len(titles) == 0 {
		return []*domain.Category{}, nil
	}
	where := &whereBuilder{}
	where.in("title", titles)
	query := fmt.Sprintf("SELECT %s FROM categories %s", categoryColumns, where.String())
	return r.queryCategories(ctx, query, where.args...)
}

// Update merges the patch into the stored row and refreshes updated_at
func (r *postgresCategoryRepository) Update(ctx context.Context, id string, patch domain.CategoryPatch) (int64, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return 0, err
	}

	sets := []string{}
	args := []interface{}{}
	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	args = append(args, now())
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST($%d, updated_at + interval '1 millisecond')", len(args)))
	args = append(args, parsed)

	query := fmt.Sprintf("UPDATE categories SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if mapped := mapPgError(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Delete removes a category; products follow through ON DELETE CASCADE
func (r *postgresCategoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	parsed, err := parsePgID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, parsed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *postgresCategoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
