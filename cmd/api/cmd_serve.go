package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"catalog-api/internal/database"
	"catalog-api/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipMigrations bool

// catalog-api serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		defer log.Sync()

		log.Info("Starting catalog API",
			zap.String("env", cfg.Server.Env),
			zap.String("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
		)

		storage, err := server.OpenStorage(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}

		if storage.DB != nil && !skipMigrations {
			if err := database.RunMigrations(storage.DB, cfg.Database.MigrationsDir, log); err != nil {
				storage.Close(context.Background())
				return err
			}
		}

		srv := server.NewServer(cfg, log, storage)

		// Create a done channel to signal when the shutdown is complete
		done := make(chan bool, 1)
		go gracefulShutdown(srv, log, done)

		log.Info("Server listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			srv.Close()
			return err
		}

		<-done
		log.Info("Graceful shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending postgres migrations on start")
}

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight requests get 30 seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}
