package main

import (
	"context"
	"fmt"

	"catalog-api/internal/database"
	"catalog-api/internal/seed"
	"catalog-api/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withCatalog opens the configured storage, applying migrations on postgres,
// and runs fn against the services.
func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, catalog *server.Catalog, log *zap.Logger) error) error {
	cfg, log, err := boot()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	storage, err := server.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close(context.Background())

	if storage.DB != nil {
		if err := database.RunMigrations(storage.DB, cfg.Database.MigrationsDir, log); err != nil {
			return err
		}
	}

	return fn(ctx, server.NewCatalog(storage), log)
}

// catalog-api seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the catalog with the sample categories and products",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, catalog *server.Catalog, log *zap.Logger) error {
			result, err := seed.Run(ctx, catalog.Categories, catalog.Products)
			if err != nil {
				return err
			}

			log.Info("Catalog seeded",
				zap.Int("categories_deleted", result.CategoriesDeleted),
				zap.Int("products_deleted", result.ProductsDeleted),
				zap.Int("categories_created", result.CategoriesCreated),
				zap.Int("products_created", result.ProductsCreated),
			)
			return nil
		})
	},
}

// catalog-api migrate-uncategorized
var migrateUncategorizedCmd = &cobra.Command{
	Use:   "migrate-uncategorized",
	Short: "Move products without a valid category to the Uncategorized category",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, catalog *server.Catalog, log *zap.Logger) error {
			count, err := catalog.Integrity.MigrateOrphans(ctx, seed.UncategorizedTitle, seed.UncategorizedDescription)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d old products to '%s' category\n", count, seed.UncategorizedTitle)
			return nil
		})
	},
}
