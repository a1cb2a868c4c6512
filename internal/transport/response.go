package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/query"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/validation"

	"go.uber.org/zap"
)

// TimestampLayout is how created_at and updated_at are rendered.
const TimestampLayout = "2006-01-02 15:04:05"

const maxBodyBytes = 1 << 20

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ProductResponse represents a product in API responses. Category is the
// category title, empty for a product whose category no longer resolves,
// and is left out when the product is nested under it.
type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Category    *string `json:"category,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// PageResponse is the paginated list envelope
type PageResponse struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// CategoryProductsResponse is a category with one page of its products
type CategoryProductsResponse struct {
	Category CategoryResponse `json:"category"`
	PageResponse
}

// MessageResponse is the body of delete confirmations
type MessageResponse struct {
	Message string `json:"message"`
}

func newCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(TimestampLayout),
		UpdatedAt:   c.UpdatedAt.Format(TimestampLayout),
	}
}

func newProductResponse(p *domain.Product, nested bool) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Price:       p.Price,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt.Format(TimestampLayout),
		UpdatedAt:   p.UpdatedAt.Format(TimestampLayout),
	}
	if !nested {
		title := p.CategoryTitle
		resp.Category = &title
	}
	return resp
}

func newProductPage(r *http.Request, page *service.ProductPage, nested bool) PageResponse {
	results := make([]ProductResponse, 0, len(page.Items))
	for _, p := range page.Items {
		results = append(results, newProductResponse(p, nested))
	}
	next, previous := page.Page.Links(requestURL(r), page.Total)
	return PageResponse{Count: page.Total, Next: next, Previous: previous, Results: results}
}

// requestURL rebuilds the absolute URL the client called.
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
}

// readInput parses the request body as a JSON object
func readInput(w http.ResponseWriter, r *http.Request) (validation.Input, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, validation.ErrMalformedJSON
	}
	return validation.ParseInput(body)
}

// entity names the resource a handler serves, for error messages.
type entity struct {
	name  string
	label string
}

var (
	productEntity  = entity{name: "product", label: "Product"}
	categoryEntity = entity{name: "category", label: "Category"}
)

// respondError maps service errors to responses. Client errors are logged at
// Debug; anything unrecognised is a 500 logged at Error.
func respondError(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error, ent entity, id string) {
	var (
		paramErr    *query.ParamError
		validErr    *domain.ValidationError
		notInCatErr *service.ProductNotInCategoryError
	)

	switch {
	case errors.As(err, &paramErr):
		middleware.RespondWithError(w, http.StatusBadRequest, paramErr.Code, paramErr.Message)
	case errors.Is(err, query.ErrPageOutOfRange):
		middleware.RespondWithError(w, http.StatusNotFound, "Invalid page", "Requested page is out of range.")
	case errors.As(err, &validErr):
		middleware.RespondWithError(w, http.StatusBadRequest, "Validation error", validErr.Fields)
	case errors.Is(err, validation.ErrMalformedJSON):
		middleware.RespondWithError(w, http.StatusBadRequest, "Invalid JSON format", "Request body must be a JSON object.")
	case errors.As(err, &notInCatErr):
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found", notInCatErr.Error())
	case errors.Is(err, service.ErrInvalidProductID):
		respondInvalidID(w, productEntity)
	case errors.Is(err, repository.ErrInvalidID):
		respondInvalidID(w, ent)
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found", fmt.Sprintf("No product found with ID %s.", id))
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Category not found", fmt.Sprintf("No category found with ID %s.", id))
	default:
		logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		middleware.RespondWithUnexpectedError(w)
		return
	}

	logger.Debug("Request rejected", zap.Error(err), zap.String("path", r.URL.Path))
}

func respondInvalidID(w http.ResponseWriter, ent entity) {
	middleware.RespondWithError(w, http.StatusBadRequest,
		fmt.Sprintf("Invalid %s ID", ent.name),
		fmt.Sprintf("%s ID is not a valid identifier.", ent.label))
}
