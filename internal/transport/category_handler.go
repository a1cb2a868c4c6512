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

// CategoryHandler handles HTTP requests for categories and the products
// nested under them
type CategoryHandler struct {
	categoryService service.CategoryService
	pagination      config.PaginationConfig
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, pagination config.PaginationConfig, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		pagination:      pagination,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/products", h.Products)
			r.Post("/add_product", h.AddProduct)
			r.Delete("/remove_product/{product_id}", h.RemoveProduct)
		})
	})
}

// List handles GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := query.Build(r.URL.Query(), query.CategoryOptions)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, "")
		return
	}

	page, err := query.ParsePage(r.URL.Query(), h.pagination.DefaultSize, h.pagination.CategoryMaxSize)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, "")
		return
	}

	result, err := h.categoryService.List(r.Context(), filter, page)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, "")
		return
	}

	results := make([]CategoryResponse, 0, len(result.Items))
	for _, c := range result.Items {
		results = append(results, newCategoryResponse(c))
	}
	next, previous := result.Page.Links(requestURL(r), result.Total)

	middleware.RespondWithJSON(w, http.StatusOK, PageResponse{
		Count:    result.Total,
		Next:     next,
		Previous: previous,
		Results:  results,
	})
}

// Create handles POST /categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, "")
		return
	}

	category, err := h.categoryService.Create(r.Context(), in)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, "")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Category created successfully",
		"created_category": newCategoryResponse(category),
	})
}

// Get handles GET /categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newCategoryResponse(category))
}

// Update handles PUT /categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	in, err := readInput(w, r)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, in)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	h.logger.Info("Category updated", zap.String("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Category updated successfully",
		"updated_category": newCategoryResponse(category),
	})
}

// Delete handles DELETE /categories/{id}; the category's products go with it
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	category, err := h.categoryService.Delete(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", category.ID))
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Category '%s' deleted successfully", category.Title),
	})
}

// Products handles GET /categories/{id}/products
func (h *CategoryHandler) Products(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page, err := query.ParsePage(r.URL.Query(), h.pagination.DefaultSize, h.pagination.CategoryMaxSize)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	category, result, err := h.categoryService.Products(r.Context(), id, page)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CategoryProductsResponse{
		Category:     newCategoryResponse(category),
		PageResponse: newProductPage(r, result, true),
	})
}

// AddProduct handles POST /categories/{id}/add_product
func (h *CategoryHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	in, err := readInput(w, r)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	product, err := h.categoryService.AddProduct(r.Context(), id, in)
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	h.logger.Info("Product added to category",
		zap.String("category_id", id),
		zap.String("product_id", product.ID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Product created successfully",
		"created_product": newProductResponse(product, false),
	})
}

// RemoveProduct handles DELETE /categories/{id}/remove_product/{product_id}
func (h *CategoryHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.categoryService.RemoveProduct(r.Context(), id, chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(h.logger, w, r, err, categoryEntity, id)
		return
	}

	h.logger.Info("Product removed from category",
		zap.String("category_id", id),
		zap.String("product_id", product.ID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Product '%s' deleted successfully", product.Name),
	})
}
