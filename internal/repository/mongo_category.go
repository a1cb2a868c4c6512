package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type categoryDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d categoryDocument) toDomain() *domain.Category {
	return &domain.Category{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type mongoCategoryRepository struct {
	collection *mongo.Collection
}

// NewMongoCategoryRepository creates a CategoryRepository over a mongo database
func NewMongoCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{collection: db.Collection(CategoryCollection)}
}

func (r *mongoCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	ts := now()
	doc := categoryDocument{
		Title:       category.Title,
		Description: category.Description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		category.ID = oid.Hex()
	}
	category.CreatedAt = ts
	category.UpdatedAt = ts
	return nil
}

func categoryFilter(q Query) bson.M {
	filter := bson.M{}
	timeRange(filter, "created_at", q.CreatedAfter, q.CreatedBefore)
	timeRange(filter, "updated_at", q.UpdatedAfter, q.UpdatedBefore)
	return filter
}

func (r *mongoCategoryRepository) find(ctx context.Context, filter bson.M, q Query) ([]*domain.Category, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions(sortField(q.OrderBy, categorySortFields), q))
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, doc.toDomain())
	}
	return categories, nil
}

func (r *mongoCategoryRepository) List(ctx context.Context, q Query) ([]*domain.Category, error) {
	return r.find(ctx, categoryFilter(q), q)
}

func (r *mongoCategoryRepository) Count(ctx context.Context, q Query) (int, error) {
	total, err := r.collection.CountDocuments(ctx, categoryFilter(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return int(total), nil
}

func (r *mongoCategoryRepository) findOne(ctx context.Context, filter bson.M) (*domain.Category, error) {
	var doc categoryDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoCategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoCategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Category, error) {
	oids := parseObjectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Category{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, Query{})
}

func (r *mongoCategoryRepository) FindByTitle(ctx context.Context, title string) (*domain.Category, error) {
	return r.findOne(ctx, bson.M{"title": title})
}

func (r *mongoCategoryRepository) FindByTitles(ctx context.Context, titles []string) ([]*domain.Category, error) {
	if len(titles) == 0 {
		return []*domain.Category{}, nil
	}
	return r.find(ctx, bson.M{"title": bson.M{"$in": titles}}, Query{})
}

func (r *mongoCategoryRepository) Update(ctx context.Context, id string, patch domain.CategoryPatch) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	updatedAt, found, err := touchedAt(ctx, r.collection, oid)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	set := bson.M{"updated_at": updatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to update category: %w", err)
	}
	return result.MatchedCount, nil
}

func (r *mongoCategoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoCategoryRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}
