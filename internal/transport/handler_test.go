package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-api/internal/config"
	"catalog-api/internal/domain"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testPagination = config.PaginationConfig{DefaultSize: 5, ProductMaxSize: 50, CategoryMaxSize: 20}

type testAPI struct {
	t      *testing.T
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	store := repository.NewMemoryStore()
	integrity := service.NewIntegrity(store.Categories(), store.Products())
	products := service.NewProductService(store.Products(), integrity)
	categories := service.NewCategoryService(store.Categories(), products, integrity)

	r := chi.NewRouter()
	NewProductHandler(products, testPagination, zap.NewNop()).RegisterRoutes(r)
	NewCategoryHandler(categories, testPagination, zap.NewNop()).RegisterRoutes(r)
	return &testAPI{t: t, router: r}
}

func (a *testAPI) do(method, target string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w.Code, decoded
}

func (a *testAPI) category(title string) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/categories", map[string]interface{}{
		"title":       title,
		"description": title + " goods",
	})
	require.Equal(a.t, http.StatusOK, status, body)
	return body["created_category"].(map[string]interface{})["id"].(string)
}

func productBody(name string, price float64, category string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"description": name + " description",
		"brand":       "Acme",
		"price":       price,
		"quantity":    3,
		"category":    category,
	}
}

func (a *testAPI) product(name string, price float64, category string) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/products", productBody(name, price, category))
	require.Equal(a.t, http.StatusOK, status, body)
	return body["created_product"].(map[string]interface{})["id"].(string)
}

func results(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	items, ok := body["results"].([]interface{})
	require.True(t, ok, "results must be a JSON array")
	return items
}

func TestCreateProduct_ReturnsCategoryTitle(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")

	status, body := api.do(http.MethodPost, "/products", productBody("iPhone 14", 999.99, "Electronics"))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product created successfully", body["message"])

	created := body["created_product"].(map[string]interface{})
	assert.Equal(t, "iPhone 14", created["name"])
	assert.Equal(t, "Electronics", created["category"])
	assert.Equal(t, 999.99, created["price"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, created["created_at"])

	status, fetched := api.do(http.MethodGet, "/products/"+created["id"].(string), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, fetched)
}

func TestCreateProduct_CollectsAllFieldErrors(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")

	body := productBody("", -10, "Electronics")
	status, resp := api.do(http.MethodPost, "/products", body)

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation error", resp["error"])

	fields := resp["message"].(map[string]interface{})
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
	assert.NotContains(t, fields, "category")
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	api := newTestAPI(t)

	status, resp := api.do(http.MethodPost, "/products", productBody("Kettle", 10, "Kitchen"))

	require.Equal(t, http.StatusBadRequest, status)
	fields := resp["message"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Category 'Kitchen' does not exist."}, fields["category"])
}

func TestCreateProduct_MalformedJSON(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`{"name":`, `[1,2]`, ``} {
		status, resp := api.do(http.MethodPost, "/products", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, "Invalid JSON format", resp["error"], body)
	}
}

func TestGetProduct_InvalidAndMissingIDs(t *testing.T) {
	api := newTestAPI(t)

	status, resp := api.do(http.MethodGet, "/products/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid product ID", resp["error"])

	missing := uuid.NewString()
	status, resp = api.do(http.MethodGet, "/products/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found", resp["error"])
	assert.Equal(t, fmt.Sprintf("No product found with ID %s.", missing), resp["message"])
}

func TestUpdateProduct_PartialMerge(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")
	api.category("Books")
	id := api.product("Kindle", 89.99, "Electronics")

	status, resp := api.do(http.MethodPut, "/products/"+id, map[string]interface{}{
		"price":    79.99,
		"category": "Books",
	})

	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "Product updated successfully", resp["message"])
	updated := resp["updated_product"].(map[string]interface{})
	assert.Equal(t, "Kindle", updated["name"])
	assert.Equal(t, 79.99, updated["price"])
	assert.Equal(t, "Books", updated["category"])
}

func TestDeleteProduct(t *testing.T) {
	api := newTestAPI(t)
	api.category("Books")
	id := api.product("Harry Potter", 29.99, "Books")

	status, resp := api.do(http.MethodDelete, "/products/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product 'Harry Potter' deleted successfully", resp["message"])

	status, _ = api.do(http.MethodDelete, "/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListProducts_Pagination(t *testing.T) {
	api := newTestAPI(t)
	api.category("Books")
	for i := 1; i <= 12; i++ {
		api.product(fmt.Sprintf("Book %02d", i), 10, "Books")
	}

	status, resp := api.do(http.MethodGet, "/products?page_size=5", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(12), resp["count"])
	assert.Len(t, results(t, resp), 5)
	assert.Equal(t, "http://example.com/products?page=2&page_size=5", resp["next"])
	assert.Nil(t, resp["previous"])

	status, resp = api.do(http.MethodGet, "/products?page_size=5&page=3", nil)
	require.Equal(t, http.StatusOK, status)
	items := results(t, resp)
	require.Len(t, items, 2)
	assert.Equal(t, "Book 11", items[0].(map[string]interface{})["name"])
	assert.Nil(t, resp["next"])
	assert.Equal(t, "http://example.com/products?page=2&page_size=5", resp["previous"])

	status, resp = api.do(http.MethodGet, "/products?page_size=5&page=2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "http://example.com/products?page_size=5", resp["previous"])

	status, resp = api.do(http.MethodGet, "/products?page_size=5&page=4", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Invalid page", resp["error"])
}

func TestListProducts_PageSizeErrors(t *testing.T) {
	api := newTestAPI(t)

	cases := map[string]string{
		"0":   "Page size cannot be less than or equal to 0.",
		"-3":  "Page size cannot be less than or equal to 0.",
		"51":  "Page size cannot exceed 50.",
		"abc": "Page size must be an integer.",
	}
	for size, message := range cases {
		status, resp := api.do(http.MethodGet, "/products?page_size="+size, nil)
		assert.Equal(t, http.StatusBadRequest, status, size)
		assert.Equal(t, message, resp["message"], size)
	}

	status, resp := api.do(http.MethodGet, "/categories?page_size=21", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Page size cannot exceed 20.", resp["message"])
}

func TestListProducts_EmptyFirstPage(t *testing.T) {
	api := newTestAPI(t)

	status, resp := api.do(http.MethodGet, "/products", nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), resp["count"])
	assert.Empty(t, results(t, resp))
}

func TestListProducts_Filters(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")
	api.category("Books")
	api.product("Cable", 50, "Electronics")
	api.product("Monitor", 150, "Electronics")
	api.product("Laptop", 500, "Electronics")
	api.product("Atlas", 120, "Books")

	status, resp := api.do(http.MethodGet, "/products?price_min=100&price_max=1000&categories=Electronics&ordering=-price", nil)
	require.Equal(t, http.StatusOK, status)

	var names []string
	for _, item := range results(t, resp) {
		names = append(names, item.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"Laptop", "Monitor"}, names)

	status, resp = api.do(http.MethodGet, "/products?created_after=2024-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid date format", resp["error"])
	assert.Equal(t, "Dates must be in format YYYY-MM-DD", resp["message"])

	status, resp = api.do(http.MethodGet, "/products?ordering=secret", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ordering", resp["error"])

	status, resp = api.do(http.MethodGet, "/products?price_min=NaN", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid price", resp["error"])

	status, resp = api.do(http.MethodGet, "/products?categories=", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(4), resp["count"])
}

func TestCategory_DuplicateTitle(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")

	status, resp := api.do(http.MethodPost, "/categories", map[string]interface{}{
		"title":       "Electronics",
		"description": "again",
	})

	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp["message"], "title")
}

func TestCategory_GetUpdateAndInvalidID(t *testing.T) {
	api := newTestAPI(t)
	id := api.category("Clothing")

	status, resp := api.do(http.MethodPut, "/categories/"+id, map[string]interface{}{"description": "Apparel"})
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "Category updated successfully", resp["message"])
	assert.Equal(t, "Apparel", resp["updated_category"].(map[string]interface{})["description"])

	status, resp = api.do(http.MethodGet, "/categories/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Clothing", resp["title"])

	status, resp = api.do(http.MethodGet, "/categories/42", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid category ID", resp["error"])
	assert.Equal(t, "Category ID is not a valid identifier.", resp["message"])

	missing := uuid.NewString()
	status, resp = api.do(http.MethodDelete, "/categories/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, fmt.Sprintf("No category found with ID %s.", missing), resp["message"])
}

func TestDeleteCategory_CascadesToProducts(t *testing.T) {
	api := newTestAPI(t)
	api.category("Electronics")
	api.category("Books")
	phone := api.product("Phone", 500, "Electronics")
	api.product("Tablet", 300, "Electronics")
	api.product("Novel", 15, "Books")

	id := api.category("Toys")
	api.product("Robot", 40, "Toys")

	status, resp := api.do(http.MethodDelete, "/categories/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Category 'Toys' deleted successfully", resp["message"])

	status, resp = api.do(http.MethodGet, "/products?categories=Toys", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), resp["count"])

	status, resp = api.do(http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), resp["count"])

	status, _ = api.do(http.MethodGet, "/products/"+phone, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCategoryProducts_NestsCategory(t *testing.T) {
	api := newTestAPI(t)
	id := api.category("Books")
	api.category("Electronics")
	api.product("Dune", 12.5, "Books")
	api.product("Radio", 25, "Electronics")

	status, resp := api.do(http.MethodGet, "/categories/"+id+"/products", nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Books", resp["category"].(map[string]interface{})["title"])
	assert.Equal(t, float64(1), resp["count"])

	items := results(t, resp)
	require.Len(t, items, 1)
	product := items[0].(map[string]interface{})
	assert.Equal(t, "Dune", product["name"])
	assert.NotContains(t, product, "category")
}

func TestProductResponse_CategoryKey(t *testing.T) {
	orphan := &domain.Product{ID: "p1", Name: "Lamp", Description: "Desk lamp", Brand: "Ikea", Price: 20, Quantity: 1}

	raw, err := json.Marshal(newProductResponse(orphan, false))
	require.NoError(t, err)
	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &flat))
	require.Contains(t, flat, "category")
	assert.Equal(t, "", flat["category"])

	raw, err = json.Marshal(newProductResponse(orphan, true))
	require.NoError(t, err)
	var nested map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &nested))
	assert.NotContains(t, nested, "category")
}

func TestAddProduct_ForcesCategory(t *testing.T) {
	api := newTestAPI(t)
	id := api.category("Books")
	api.category("Electronics")

	body := productBody("Encyclopedia", 99, "Electronics")
	status, resp := api.do(http.MethodPost, "/categories/"+id+"/add_product", body)

	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "Books", resp["created_product"].(map[string]interface{})["category"])
}

func TestRemoveProduct_FromOtherCategory(t *testing.T) {
	api := newTestAPI(t)
	books := api.category("Books")
	api.category("Electronics")
	radio := api.product("Radio", 25, "Electronics")

	status, resp := api.do(http.MethodDelete, "/categories/"+books+"/remove_product/"+radio, nil)

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found", resp["error"])
	assert.Equal(t, fmt.Sprintf("No product found with ID %s in 'Books' category.", radio), resp["message"])

	status, _ = api.do(http.MethodGet, "/products/"+radio, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRemoveProduct_FromOwnCategory(t *testing.T) {
	api := newTestAPI(t)
	books := api.category("Books")
	dune := api.product("Dune", 12.5, "Books")

	status, resp := api.do(http.MethodDelete, "/categories/"+books+"/remove_product/"+dune, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product 'Dune' deleted successfully", resp["message"])

	status, resp = api.do(http.MethodDelete, "/categories/"+books+"/remove_product/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid product ID", resp["error"])
}
