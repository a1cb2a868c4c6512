package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"catalog-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is one storage implementation under test, emptied before use.
type backend struct {
	categories CategoryRepository
	products   ProductRepository
	// missingID is well formed for the backend but never assigned.
	missingID string
	// foreignKeys is set when storage itself rejects dangling category
	// references and cascades category deletion.
	foreignKeys bool
}

func ptr[T any](v T) *T { return &v }

func (b backend) category(t *testing.T, title string) *domain.Category {
	t.Helper()
	c := &domain.Category{Title: title, Description: title + " description"}
	require.NoError(t, b.categories.Create(context.Background(), c))
	return c
}

func (b backend) product(t *testing.T, name string, price float64, categoryID string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:        name,
		Description: name + " description",
		Brand:       "Acme",
		Price:       price,
		Quantity:    7,
		CategoryID:  categoryID,
	}
	require.NoError(t, b.products.Create(context.Background(), p))
	return p
}

func productNames(products []*domain.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

// runContract checks the behaviour every backend must share.
func runContract(t *testing.T, open func(t *testing.T) backend) {
	ctx := context.Background()

	t.Run("category create and find", func(t *testing.T) {
		b := open(t)
		created := b.category(t, "Electronics")

		require.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		found, err := b.categories.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, found.Title)
		assert.Equal(t, created.Description, found.Description)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

		byTitle, err := b.categories.FindByTitle(ctx, "Electronics")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byTitle.ID)
	})

	t.Run("category title is unique", func(t *testing.T) {
		b := open(t)
		b.category(t, "Books")

		err := b.categories.Create(ctx, &domain.Category{Title: "Books", Description: "again"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("invalid and missing ids are distinct", func(t *testing.T) {
		b := open(t)

		_, err := b.categories.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = b.categories.FindByID(ctx, b.missingID)
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		_, err = b.products.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = b.products.FindByID(ctx, b.missingID)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("batch lookups skip unknown references", func(t *testing.T) {
		b := open(t)
		books := b.category(t, "Books")
		toys := b.category(t, "Toys")

		found, err := b.categories.FindByIDs(ctx, []string{books.ID, "garbage", b.missingID, toys.ID, books.ID})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = b.categories.FindByTitles(ctx, []string{"Toys", "Nope"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, toys.ID, found[0].ID)
	})

	t.Run("category update merges and refreshes updated_at", func(t *testing.T) {
		b := open(t)
		c := b.category(t, "Garden")

		matched, err := b.categories.Update(ctx, c.ID, domain.CategoryPatch{Description: ptr("Outdoor")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), matched)

		found, err := b.categories.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Garden", found.Title)
		assert.Equal(t, "Outdoor", found.Description)
		assert.True(t, found.CreatedAt.Equal(c.CreatedAt))
		assert.False(t, found.UpdatedAt.Before(c.UpdatedAt))

		matched, err = b.categories.Update(ctx, b.missingID, domain.CategoryPatch{Title: ptr("Ghost")})
		require.NoError(t, err)
		assert.Equal(t, int64(0), matched)

		other := b.category(t, "Kitchen")
		_, err = b.categories.Update(ctx, other.ID, domain.CategoryPatch{Title: ptr("Garden")})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("category list orders and windows", func(t *testing.T) {
		b := open(t)
		for _, title := range []string{"Delta", "Alpha", "Charlie", "Bravo"} {
			b.category(t, title)
		}

		list, err := b.categories.List(ctx, Query{OrderBy: FieldTitle, Descending: true, Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Charlie", list[0].Title)
		assert.Equal(t, "Bravo", list[1].Title)

		total, err := b.categories.Count(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		future := time.Now().Add(time.Hour)
		total, err = b.categories.Count(ctx, Query{CreatedAfter: &future})
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		total, err = b.categories.Count(ctx, Query{CreatedBefore: &future})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
	})

	t.Run("product name is unique", func(t *testing.T) {
		b := open(t)
		c := b.category(t, "Books")
		b.product(t, "Dune", 10, c.ID)

		err := b.products.Create(ctx, &domain.Product{Name: "Dune", Description: "d", Brand: "b", Price: 5, CategoryID: c.ID})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("product filters compose", func(t *testing.T) {
		b := open(t)
		electronics := b.category(t, "Electronics")
		books := b.category(t, "Books")
		b.product(t, "Cable", 50, electronics.ID)
		b.product(t, "Monitor", 150, electronics.ID)
		b.product(t, "Laptop", 500, electronics.ID)
		b.product(t, "Atlas", 120, books.ID)

		q := Query{PriceMin: ptr(100.0), PriceMax: ptr(1000.0), OrderBy: FieldPrice}
		list, err := b.products.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Atlas", "Monitor", "Laptop"}, productNames(list))

		q.CategoryIDs = []string{electronics.ID}
		q.RestrictCategories = true
		list, err = b.products.List(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"Monitor", "Laptop"}, productNames(list))

		total, err := b.products.Count(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		total, err = b.products.Count(ctx, Query{RestrictCategories: true})
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		list, err = b.products.List(ctx, Query{OrderBy: FieldName, Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop", "Monitor"}, productNames(list))
	})

	t.Run("product update", func(t *testing.T) {
		b := open(t)
		books := b.category(t, "Books")
		comics := b.category(t, "Comics")
		p := b.product(t, "Watchmen", 20, books.ID)

		matched, err := b.products.Update(ctx, p.ID, domain.ProductPatch{Price: ptr(25.5), CategoryID: &comics.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), matched)

		found, err := b.products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 25.5, found.Price)
		assert.Equal(t, comics.ID, found.CategoryID)
		assert.Equal(t, "Watchmen", found.Name)
		assert.Equal(t, 7, found.Quantity)

		byName, err := b.products.FindByName(ctx, "Watchmen")
		require.NoError(t, err)
		assert.Equal(t, p.ID, byName.ID)
	})

	t.Run("quantities beyond 32 bits round trip", func(t *testing.T) {
		b := open(t)
		c := b.category(t, "Warehouse")
		p := &domain.Product{Name: "Bolts", Description: "Bulk", Brand: "Acme", Price: 0.01, Quantity: 3000000000, CategoryID: c.ID}
		require.NoError(t, b.products.Create(ctx, p))

		found, err := b.products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3000000000, found.Quantity)

		matched, err := b.products.Update(ctx, p.ID, domain.ProductPatch{Quantity: ptr(4000000000)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), matched)

		found, err = b.products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4000000000, found.Quantity)
	})

	t.Run("identical updates still advance updated_at", func(t *testing.T) {
		b := open(t)
		c := b.category(t, "Stationery")
		p := b.product(t, "Pencil", 1, c.ID)

		for i := 0; i < 3; i++ {
			before, err := b.products.FindByID(ctx, p.ID)
			require.NoError(t, err)
			_, err = b.products.Update(ctx, p.ID, domain.ProductPatch{Name: ptr("Pencil")})
			require.NoError(t, err)
			after, err := b.products.FindByID(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "product updated_at did not advance")

			beforeCategory, err := b.categories.FindByID(ctx, c.ID)
			require.NoError(t, err)
			_, err = b.categories.Update(ctx, c.ID, domain.CategoryPatch{Title: ptr("Stationery")})
			require.NoError(t, err)
			afterCategory, err := b.categories.FindByID(ctx, c.ID)
			require.NoError(t, err)
			assert.True(t, afterCategory.UpdatedAt.After(beforeCategory.UpdatedAt), "category updated_at did not advance")
		}

		matched, err := b.products.Update(ctx, b.missingID, domain.ProductPatch{Name: ptr("Ghost")})
		require.NoError(t, err)
		assert.Equal(t, int64(0), matched)
	})

	t.Run("delete by category and verify", func(t *testing.T) {
		b := open(t)
		books := b.category(t, "Books")
		toys := b.category(t, "Toys")
		b.product(t, "Dune", 10, books.ID)
		b.product(t, "Emma", 12, books.ID)
		b.product(t, "Yo-yo", 3, toys.ID)

		count, err := b.products.CountByCategory(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		removed, err := b.products.DeleteByCategory(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		deleted, err := b.categories.Delete(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = b.categories.Delete(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		count, err = b.products.CountByCategory(ctx, books.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		total, err := b.products.Count(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("dangling category references", func(t *testing.T) {
		b := open(t)
		books := b.category(t, "Books")
		b.product(t, "Dune", 10, books.ID)

		if b.foreignKeys {
			err := b.products.Create(ctx, &domain.Product{Name: "Lost", Description: "d", Brand: "b", Price: 1, CategoryID: b.missingID})
			assert.ErrorIs(t, err, ErrCategoryReference)

			_, err = b.categories.Delete(ctx, books.ID)
			require.NoError(t, err)
			count, err := b.products.CountByCategory(ctx, books.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
			return
		}

		lost := b.product(t, "Lost", 1, b.missingID)
		orphans, err := b.products.FindOrphans(ctx)
		require.NoError(t, err)
		require.Len(t, orphans, 1)
		assert.Equal(t, lost.ID, orphans[0].ID)
	})

	t.Run("create then find preserves attributes", func(t *testing.T) {
		b := open(t)
		c := b.category(t, "Misc")
		n := 0

		parameters := gopter.DefaultTestParameters()
		parameters.MinSuccessfulTests = 25
		parameters.MaxSize = 40
		properties := gopter.NewProperties(parameters)
		properties.Property("stored products round trip", prop.ForAll(
			func(name string, price float64, quantity int) bool {
				n++
				p := &domain.Product{
					Name:        fmt.Sprintf("%s-%d", name, n),
					Description: "generated",
					Brand:       "Acme",
					Price:       price,
					Quantity:    quantity,
					CategoryID:  c.ID,
				}
				if err := b.products.Create(ctx, p); err != nil {
					return false
				}
				found, err := b.products.FindByID(ctx, p.ID)
				if err != nil {
					return false
				}
				return found.Name == p.Name && found.Price == p.Price &&
					found.Quantity == p.Quantity && found.CategoryID == c.ID &&
					found.CreatedAt.Equal(p.CreatedAt)
			},
			gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) <= 80 }),
			gen.Float64Range(0.01, 100000),
			gen.IntRange(0, 10000),
		))
		properties.TestingRun(t, gopter.ConsoleReporter(false))
	})
}
