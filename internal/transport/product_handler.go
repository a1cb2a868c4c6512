package transport

import (
	"fmt"
	"net/http"

	"catalog-api/internal/config"
	"catalog-api/internal/middleware"
	"catalog-api/internal/query"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	pagination     config.PaginationConfig
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, pagination config.PaginationConfig, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		pagination:     pagination,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := query.Build(r.URL.Query(), query.ProductOptions)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, "")
		return
	}

	page, err := query.ParsePage(r.URL.Query(), h.pagination.DefaultSize, h.pagination.ProductMaxSize)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, "")
		return
	}

	result, err := h.productService.List(r.Context(), filter, page)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, "")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductPage(r, result, false))
}

// Create handles POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, "")
		return
	}

	product, err := h.productService.Create(r.Context(), in)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, "")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Product created successfully",
		"created_product": newProductResponse(product, false),
	})
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product, false))
}

// Update handles PUT /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	in, err := readInput(w, r)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, id)
		return
	}

	product, err := h.productService.Update(r.Context(), id, in)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, id)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Product updated successfully",
		"updated_product": newProductResponse(product, false),
	})
}

// Delete handles DELETE /products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.productService.Delete(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err, productEntity, id)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Product '%s' deleted successfully", product.Name),
	})
}
