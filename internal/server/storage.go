package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Storage is the repository pair selected by DB_DRIVER together with the
// connections backing it.
type Storage struct {
	Categories repository.CategoryRepository
	Products   repository.ProductRepository

	// DB is set only for the postgres driver.
	DB          *sql.DB
	mongoClient *mongo.Client
}

// OpenStorage connects to the configured backend
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to postgres",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database),
		)
		return &Storage{
			Categories: repository.NewPostgresCategoryRepository(db),
			Products:   repository.NewPostgresProductRepository(db),
			DB:         db,
		}, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		return &Storage{
			Categories:  repository.NewMongoCategoryRepository(db),
			Products:    repository.NewMongoProductRepository(db),
			mongoClient: client,
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory storage; data is lost on exit")
		return NewMemoryStorage(), nil
	}

	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
}

// NewMemoryStorage returns storage backed by a fresh in-memory store
func NewMemoryStorage() *Storage {
	store := repository.NewMemoryStore()
	return &Storage{
		Categories: store.Categories(),
		Products:   store.Products(),
	}
}

// Ping reports whether the backend answers
func (s *Storage) Ping(ctx context.Context) error {
	return s.Categories.Ping(ctx)
}

// Close releases the backend connections
func (s *Storage) Close(ctx context.Context) error {
	var errs []error
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close postgres: %w", err))
		}
	}
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Catalog bundles the services built over a Storage
type Catalog struct {
	Integrity  *service.Integrity
	Products   service.ProductService
	Categories service.CategoryService
}

// NewCatalog wires the services over the storage repositories
func NewCatalog(s *Storage) *Catalog {
	integrity := service.NewIntegrity(s.Categories, s.Products)
	products := service.NewProductService(s.Products, integrity)
	return &Catalog{
		Integrity:  integrity,
		Products:   products,
		Categories: service.NewCategoryService(s.Categories, products, integrity),
	}
}
