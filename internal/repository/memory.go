package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-api/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps categories and products in process memory.
// Like the document store it enforces unique titles and names but has no
// foreign keys, so cascades are left to the caller.
type MemoryStore struct {
	mu         sync.RWMutex
	seq        int64
	categories map[string]*memoryCategory
	products   map[string]*memoryProduct
}

type memoryCategory struct {
	seq    int64
	record domain.Category
}

type memoryProduct struct {
	seq    int64
	record domain.Product
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]*memoryCategory),
		products:   make(map[string]*memoryProduct),
	}
}

// Categories returns a CategoryRepository backed by the store
func (s *MemoryStore) Categories() CategoryRepository {
	return &memoryCategoryRepository{store: s}
}

// Products returns a ProductRepository backed by the store
func (s *MemoryStore) Products() ProductRepository {
	return &memoryProductRepository{store: s}
}

func parseMemoryID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}

// compareSeq breaks ordering ties by insertion order, following the
// requested direction like the id tie-break of the other backends.
func compareSeq(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func inTimeRange(ts time.Time, after, before *time.Time) bool {
	if after != nil && ts.Before(*after) {
		return false
	}
	if before != nil && !ts.Before(*before) {
		return false
	}
	return true
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memoryCategoryRepository struct {
	store *MemoryStore
}

func (r *memoryCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.categories {
		if existing.record.Title == category.Title {
			return ErrDuplicate
		}
	}

	ts := now()
	category.ID = uuid.NewString()
	category.CreatedAt = ts
	category.UpdatedAt = ts

	r.store.seq++
	r.store.categories[category.ID] = &memoryCategory{seq: r.store.seq, record: *category}
	return nil
}

func (r *memoryCategoryRepository) matching(q Query) []*memoryCategory {
	out := []*memoryCategory{}
	for _, c := range r.store.categories {
		if !inTimeRange(c.record.CreatedAt, q.CreatedAfter, q.CreatedBefore) {
			continue
		}
		if !inTimeRange(c.record.UpdatedAt, q.UpdatedAfter, q.UpdatedBefore) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *memoryCategoryRepository) List(ctx context.Context, q Query) ([]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := r.matching(q)
	field := sortField(q.OrderBy, categorySortFields)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var cmp int
		switch field {
		case FieldTitle:
			cmp = strings.Compare(a.record.Title, b.record.Title)
		case FieldUpdatedAt:
			cmp = a.record.UpdatedAt.Compare(b.record.UpdatedAt)
		default:
			cmp = a.record.CreatedAt.Compare(b.record.CreatedAt)
		}
		if cmp == 0 {
			cmp = compareSeq(a.seq, b.seq)
		}
		if q.Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	matched = window(matched, q.Limit, q.Offset)
	categories := make([]*domain.Category, 0, len(matched))
	for _, c := range matched {
		record := c.record
		categories = append(categories, &record)
	}
	return categories, nil
}

func (r *memoryCategoryRepository) Count(ctx context.Context, q Query) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.matching(q)), nil
}

func (r *memoryCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.categories[key]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	record := c.record
	return &record, nil
}

func (r *memoryCategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	categories := []*domain.Category{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		key, err := parseMemoryID(id)
		if err != nil || seen[key] {
			continue
		}
		seen[key] = true
		if c, ok := r.store.categories[key]; ok {
			record := c.record
			categories = append(categories, &record)
		}
	}
	return categories, nil
}

func (r *memoryCategoryRepository) FindByTitle(ctx context.Context, title string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.categories {
		if c.record.Title == title {
			record := c.record
			return &record, nil
		}
	}
	return nil, ErrCategoryNotFound
}

func (r *memoryCategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}
	categories := []*domain.Category{}
	for _, c := range r.store.categories {
		if wanted[c.record.Title] {
			record := c.record
			categories = append(categories, &record)
		}
	}
	return categories, nil
}

func (r *memoryCategoryRepository) Update(ctx context.Context, id string, patch domain.CategoryPatch) (int64, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.categories[key]
	if !ok {
		return 0, nil
	}
	if patch.Title != nil {
		for otherID, other := range r.store.categories {
			if otherID != key && other.record.Title == *patch.Title {
				return 0, ErrDuplicate
			}
		}
	}

	c.record.Apply(patch)
	c.record.UpdatedAt = touch(c.record.UpdatedAt)
	return 1, nil
}

func (r *memoryCategoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.categories[key]; !ok {
		return 0, nil
	}
	delete(r.store.categories, key)
	return 1, nil
}

func (r *memoryCategoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memoryProductRepository struct {
	store *MemoryStore
}

func (r *memoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.products {
		if existing.record.Name == product.Name {
			return ErrDuplicate
		}
	}

	ts := now()
	product.ID = uuid.NewString()
	product.CreatedAt = ts
	product.UpdatedAt = ts

	record := *product
	record.CategoryTitle = ""
	r.store.seq++
	r.store.products[product.ID] = &memoryProduct{seq: r.store.seq, record: record}
	return nil
}

func (r *memoryProductRepository) matching(q Query) []*memoryProduct {
	var allowed map[string]bool
	if q.RestrictCategories {
		allowed = make(map[string]bool, len(q.CategoryIDs))
		for _, id := range q.CategoryIDs {
			allowed[id] = true
		}
	}

	out := []*memoryProduct{}
	for _, p := range r.store.products {
		rec := p.record
		if !inTimeRange(rec.CreatedAt, q.CreatedAfter, q.CreatedBefore) {
			continue
		}
		if !inTimeRange(rec.UpdatedAt, q.UpdatedAfter, q.UpdatedBefore) {
			continue
		}
		if q.PriceMin != nil && rec.Price < *q.PriceMin {
			continue
		}
		if q.PriceMax != nil && rec.Price > *q.PriceMax {
			continue
		}
		if allowed != nil && !allowed[rec.CategoryID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *memoryProductRepository) List(ctx context.Context, q Query) ([]*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := r.matching(q)
	field := sortField(q.OrderBy, productSortFields)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].record, matched[j].record
		var cmp int
		switch field {
		case FieldName:
			cmp = strings.Compare(a.Name, b.Name)
		case FieldBrand:
			cmp = strings.Compare(a.Brand, b.Brand)
		case FieldPrice:
			cmp = compareFloat(a.Price, b.Price)
		case FieldQuantity:
			cmp = a.Quantity - b.Quantity
		case FieldUpdatedAt:
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			cmp = compareSeq(matched[i].seq, matched[j].seq)
		}
		if q.Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	matched = window(matched, q.Limit, q.Offset)
	products := make([]*domain.Product, 0, len(matched))
	for _, p := range matched {
		record := p.record
		products = append(products, &record)
	}
	return products, nil
}

func (r *memoryProductRepository) Count(ctx context.Context, q Query) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.matching(q)), nil
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[key]
	if !ok {
		return nil, ErrProductNotFound
	}
	record := p.record
	return &record, nil
}

func (r *memoryProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.products {
		if p.record.Name == name {
			record := p.record
			return &record, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *memoryProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (int64, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.products[key]
	if !ok {
		return 0, nil
	}
	if patch.Name != nil {
		for otherID, other := range r.store.products {
			if otherID != key && other.record.Name == *patch.Name {
				return 0, ErrDuplicate
			}
		}
	}

	p.record.Apply(patch)
	p.record.UpdatedAt = touch(p.record.UpdatedAt)
	return 1, nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	key, err := parseMemoryID(id)
	if err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[key]; !ok {
		return 0, nil
	}
	delete(r.store.products, key)
	return 1, nil
}

func (r *memoryProductRepository) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, p := range r.store.products {
		if p.record.CategoryID == categoryID {
			delete(r.store.products, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, p := range r.store.products {
		if p.record.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (r *memoryProductRepository) FindOrphans(ctx context.Context) ([]*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orphans := []*memoryProduct{}
	for _, p := range r.store.products {
		if _, ok := r.store.categories[p.record.CategoryID]; !ok {
			orphans = append(orphans, p)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].seq < orphans[j].seq })

	products := make([]*domain.Product, 0, len(orphans))
	for _, p := range orphans {
		record := p.record
		products = append(products, &record)
	}
	return products, nil
}
