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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Brand       string             `bson:"brand"`
	Price       float64            `bson:"price"`
	Quantity    int                `bson:"quantity"`
	CategoryID  primitive.ObjectID `bson:"category_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d productDocument) toDomain() *domain.Product {
	return &domain.Product{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Brand:       d.Brand,
		Price:       d.Price,
		Quantity:    d.Quantity,
		CategoryID:  d.CategoryID.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a ProductRepository over a mongo database
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{collection: db.Collection(ProductCollection)}
}

func (r *mongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	categoryID, err := parseObjectID(product.CategoryID)
	if err != nil {
		return ErrCategoryReference
	}

	ts := now()
	doc := productDocument{
		Name:        product.Name,
		Description: product.Description,
		Brand:       product.Brand,
		Price:       product.Price,
		Quantity:    product.Quantity,
		CategoryID:  categoryID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid.Hex()
	}
	product.CreatedAt = ts
	product.UpdatedAt = ts
	return nil
}

func productFilter(q Query) bson.M {
	filter := bson.M{}
	timeRange(filter, "created_at", q.CreatedAfter, q.CreatedBefore)
	timeRange(filter, "updated_at", q.UpdatedAfter, q.UpdatedBefore)
	if q.PriceMin != nil || q.PriceMax != nil {
		price := bson.M{}
		if q.PriceMin != nil {
			price["$gte"] = *q.PriceMin
		}
		if q.PriceMax != nil {
			price["$lte"] = *q.PriceMax
		}
		filter["price"] = price
	}
	if q.RestrictCategories {
		filter["category_id"] = bson.M{"$in": parseObjectIDs(q.CategoryIDs)}
	}
	return filter
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]*domain.Product, error) {
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.toDomain())
	}
	return products, nil
}

func (r *mongoProductRepository) List(ctx context.Context, q Query) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, productFilter(q), findOptions(sortField(q.OrderBy, productSortFields), q))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return decodeProducts(ctx, cursor)
}

func (r *mongoProductRepository) Count(ctx context.Context, q Query) (int, error) {
	total, err := r.collection.CountDocuments(ctx, productFilter(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return int(total), nil
}

func (r *mongoProductRepository) findOne(ctx context.Context, filter bson.M) (*domain.Product, error) {
	var doc productDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *mongoProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (int64, error) {
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
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Brand != nil {
		set["brand"] = *patch.Brand
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.CategoryID != nil {
		categoryID, err := parseObjectID(*patch.CategoryID)
		if err != nil {
			return 0, ErrCategoryReference
		}
		set["category_id"] = categoryID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to update product: %w", err)
	}
	return result.MatchedCount, nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete product: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoProductRepository) DeleteByCategory(ctx context.Context, categoryID string) (int64, error) {
	oid, err := parseObjectID(categoryID)
	if err != nil {
		return 0, nil
	}

	result, err := r.collection.DeleteMany(ctx, bson.M{"category_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete products by category: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	oid, err := parseObjectID(categoryID)
	if err != nil {
		return 0, nil
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{"category_id": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to count products by category: %w", err)
	}
	return int(total), nil
}

func (r *mongoProductRepository) FindOrphans(ctx context.Context) ([]*domain.Product, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         CategoryCollection,
			"localField":   "category_id",
			"foreignField": "_id",
			"as":           "category",
		}}},
		{{Key: "$match", Value: bson.M{"category": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"category": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, fmt.Errorf("failed to find orphaned products: %w", err)
	}
	return decodeProducts(ctx, cursor)
}
