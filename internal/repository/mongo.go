package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the mongo backend.
const (
	CategoryCollection = "categories"
	ProductCollection  = "products"
)

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func parseObjectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// touchedAt returns a timestamp strictly after the stored updated_at of the
// document. found is false when no document has the id.
func touchedAt(ctx context.Context, collection *mongo.Collection, oid primitive.ObjectID) (ts time.Time, found bool, err error) {
	var doc struct {
		UpdatedAt time.Time `bson:"updated_at"`
	}
	opts := options.FindOne().SetProjection(bson.M{"updated_at": 1})
	err = collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read updated_at: %w", err)
	}
	return touch(doc.UpdatedAt), true, nil
}

func timeRange(filter bson.M, field string, after, before *time.Time) {
	if after == nil && before == nil {
		return
	}
	cond := bson.M{}
	if after != nil {
		cond["$gte"] = *after
	}
	if before != nil {
		cond["$lt"] = *before
	}
	filter[field] = cond
}

func findOptions(field string, q Query) *options.FindOptions {
	direction := 1
	if q.Descending {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	return opts
}

// EnsureMongoIndexes creates the unique and lookup indexes the catalog relies on.
// Unique title and name indexes back the application-level uniqueness checks.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CategoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("categories_title_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create category title index: %w", err)
	}

	_, err = db.Collection(ProductCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("products_name_key"),
		},
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("idx_products_category_id"),
		},
		{
			Keys:    bson.D{{Key: "price", Value: 1}},
			Options: options.Index().SetName("idx_products_price"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}
