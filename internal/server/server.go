package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-api/internal/config"
	custommiddleware "catalog-api/internal/middleware"
	"catalog-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	storage *Storage
	redis   *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, storage *Storage) *Server {
	s := &Server{
		config:  cfg,
		logger:  logger,
		storage: storage,
	}

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	metrics := custommiddleware.NewMetrics()
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(metrics.Middleware)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins, cfg.Server.Env != "production"))
	router.Use(middleware.StripSlashes)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "Not found", "The requested resource was not found.")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed",
			fmt.Sprintf("Method %s is not allowed on %s.", r.Method, r.URL.Path))
	})

	router.Get("/health", s.health)
	router.Handle("/metrics", metrics.Handler())

	catalog := NewCatalog(storage)
	productHandler := transport.NewProductHandler(catalog.Products, cfg.Pagination, logger)
	categoryHandler := transport.NewCategoryHandler(catalog.Categories, cfg.Pagination, logger)

	router.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			s.redis = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr(),
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			r.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "catalog_rate_limit",
			}, logger))
			logger.Info("Rate limiting enabled",
				zap.Int("requests", cfg.RateLimit.Requests),
				zap.Duration("window", cfg.RateLimit.Window),
			)
		}

		productHandler.RegisterRoutes(r)
		categoryHandler.RegisterRoutes(r)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.storage.Ping(ctx); err != nil {
		s.logger.Error("Storage health check failed", zap.Error(err))
		custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"storage": "down",
		})
		return
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": "up",
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.storage.Close(ctx); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
