package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-catalog/internal/cache"
	"pharma-catalog/internal/imaging"
	"pharma-catalog/internal/logger"
	"pharma-catalog/internal/models"
	"pharma-catalog/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUploader struct {
	fail bool
}

func (s *stubUploader) Upload(_ context.Context, f imaging.File) (string, error) {
	if s.fail {
		return "", errors.New("cdn unavailable")
	}
	return "https://cdn.test/" + f.Name, nil
}

type productFixture struct {
	router *gin.Engine
	store  *repository.MemoryProductStore
	cache  *cache.Memory
	up     *stubUploader
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	f := &productFixture{
		store: repository.NewMemoryProductStore(),
		cache: cache.NewMemory(time.Minute, 0),
		up:    &stubUploader{},
	}
	t.Cleanup(func() { f.cache.Close() })

	h := NewProductHandler(f.store, f.cache, logger.NewNop(), ProductOptions{
		BaseURL:  "https://shop.test/",
		Uploader: f.up,
	})
	r := gin.New()
	r.POST("/products", h.CreateProduct)
	r.GET("/products", h.ListProducts)
	r.GET("/products/slug/:slug", h.GetProductBySlug)
	r.GET("/products/:id", h.GetProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
	r.POST("/products/:id/images", h.UploadImages)
	r.GET("/categories", h.ListCategories)
	f.router = r
	return f
}

func (f *productFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *productFixture) create(t *testing.T, body map[string]any) models.Product {
	t.Helper()
	w := f.do(t, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.Product](t, w)
}

func TestCreateProductAcceptsBothCases(t *testing.T) {
	f := newProductFixture(t)

	p := f.create(t, map[string]any{
		"name":                 "Crocin Advance",
		"price":                30,
		"consumptionType":      "oral",
		"consumption_type":     "topical",
		"prescriptionRequired": true,
		"shortDescription":     "Fast fever relief",
	})

	assert.Equal(t, "crocin-advance", p.Slug)
	assert.Equal(t, "topical", p.ConsumptionType, "snake_case wins")
	assert.True(t, p.PrescriptionRequired)
	assert.Equal(t, "Fast fever relief", p.ShortDescription)
	assert.Equal(t, 30.0, p.MRP)
	assert.Equal(t, models.PlaceholderImageURL, p.Images.Main)
	assert.Equal(t, []string{}, p.Images.Gallery)
	assert.Equal(t, "https://shop.test/products/crocin-advance", p.URL)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreateProductMintsUniqueSlugs(t *testing.T) {
	f := newProductFixture(t)
	first := f.create(t, map[string]any{"name": "Aspirin", "price": 5})
	second := f.create(t, map[string]any{"name": "Aspirin", "price": 6})
	third := f.create(t, map[string]any{"name": "ASPIRIN!", "price": 7})

	assert.Equal(t, "aspirin", first.Slug)
	assert.Equal(t, "aspirin-1", second.Slug)
	assert.Equal(t, "aspirin-2", third.Slug)
}

func TestCreateProductValidation(t *testing.T) {
	f := newProductFixture(t)

	w := f.do(t, http.MethodPost, "/products", map[string]any{"price": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decode[ErrorResponse](t, w).Field)

	w = f.do(t, http.MethodPost, "/products", map[string]any{"name": "Zinc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "price", decode[ErrorResponse](t, w).Field)

	w = f.do(t, http.MethodPost, "/products", map[string]any{"name": "Zinc", "price": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/products", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProductsNormalizesImages(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{
		"name":   "Dolo 650",
		"price":  25,
		"images": []any{"https://cdn/a.png", "", "https://cdn/a.png", "https://cdn/b.png"},
	})
	assert.Equal(t, "https://cdn/a.png", p.Images.Main)
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, p.Images.Gallery)

	w := f.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Product](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, p.Images, list[0].Images)
	assert.Equal(t, "https://shop.test/products/dolo-650", list[0].URL)
}

func TestListProductsFilters(t *testing.T) {
	f := newProductFixture(t)
	f.create(t, map[string]any{"name": "Amoxil", "price": 50, "category": "Antibiotics", "prescription_required": true})
	f.create(t, map[string]any{"name": "Brufen", "price": 20, "category": "Pain Relief"})
	f.create(t, map[string]any{"name": "Combiflam", "price": 35, "category": "Pain Relief", "composition": "Ibuprofen + Paracetamol"})

	list := decode[[]models.Product](t, f.do(t, http.MethodGet, "/products?category=Pain%20Relief&sort=price:asc", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Brufen", list[0].Name)

	list = decode[[]models.Product](t, f.do(t, http.MethodGet, "/products?prescription=true", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Amoxil", list[0].Name)

	list = decode[[]models.Product](t, f.do(t, http.MethodGet, "/products?q=ibuprofen", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Combiflam", list[0].Name)

	list = decode[[]models.Product](t, f.do(t, http.MethodGet, "/products?sort=name:asc&page=2&page_size=2", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Combiflam", list[0].Name)
}

func TestGetProduct(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{"name": "Pan 40", "price": 12})

	w := f.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pan 40", decode[models.Product](t, w).Name)

	w = f.do(t, http.MethodGet, "/products/slug/pan-40", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, p.ID, decode[models.Product](t, w).ID)

	w = f.do(t, http.MethodGet, "/products/000000000000000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/products/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/products/slug/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProductIsPartial(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{"name": "Shelcal", "price": 100, "manufacturer": "Torrent"})

	// warm the cache so the update has to invalidate it
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/products", nil).Code)

	w := f.do(t, http.MethodPut, "/products/"+p.ID.Hex(), map[string]any{"howItWorks": "Supplies calcium", "price": 120})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Product](t, w)
	assert.Equal(t, "Supplies calcium", updated.HowItWorks)
	assert.Equal(t, 120.0, updated.Price)
	assert.Equal(t, "Torrent", updated.Manufacturer)
	assert.True(t, p.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))

	got := decode[models.Product](t, f.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil))
	assert.Equal(t, 120.0, got.Price)
	list := decode[[]models.Product](t, f.do(t, http.MethodGet, "/products", nil))
	require.Len(t, list, 1)
	assert.Equal(t, 120.0, list[0].Price)

	w = f.do(t, http.MethodPut, "/products/"+p.ID.Hex(), map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/products/000000000000000000000000", map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{"name": "Cetzine", "price": 8})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/products/slug/cetzine", nil).Code)

	w := f.do(t, http.MethodDelete, "/products/"+p.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/products/slug/cetzine", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/products/"+p.ID.Hex(), nil).Code)
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, n := range names {
		part, err := w.CreateFormFile("files", n)
		require.NoError(t, err)
		_, _ = part.Write([]byte("image-bytes-" + n))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadImagesAppendsToGallery(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{"name": "Volini", "price": 90})

	body, contentType := multipartBody(t, "front view.png", "back.png")
	req := httptest.NewRequest(http.MethodPost, "/products/"+p.ID.Hex()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		URLs    []string       `json:"urls"`
		Product models.Product `json:"product"`
	}](t, w)
	assert.Equal(t, []string{"https://cdn.test/front_view.png", "https://cdn.test/back.png"}, resp.URLs)
	assert.Equal(t, "https://cdn.test/front_view.png", resp.Product.Images.Main)
	assert.Equal(t, resp.URLs, resp.Product.Images.Gallery)
}

func TestUploadImagesAllOrNothing(t *testing.T) {
	f := newProductFixture(t)
	p := f.create(t, map[string]any{"name": "Moov", "price": 80})
	f.up.fail = true

	body, contentType := multipartBody(t, "a.png", "b.png")
	req := httptest.NewRequest(http.MethodPost, "/products/"+p.ID.Hex()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	got := decode[models.Product](t, f.do(t, http.MethodGet, "/products/"+p.ID.Hex(), nil))
	assert.Equal(t, models.PlaceholderImageURL, got.Images.Main)
	assert.Empty(t, got.Images.Gallery)
}

func TestListCategories(t *testing.T) {
	f := newProductFixture(t)
	w := f.do(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Categories, decode[[]string](t, w))
}

type failingStore struct {
	*repository.MemoryProductStore
}

func (failingStore) Create(context.Context, *models.Product) error {
	return errors.New("E11000 write rejected by store")
}

func TestCreateProductStoreFailure(t *testing.T) {
	h := NewProductHandler(failingStore{repository.NewMemoryProductStore()}, cache.NewMemory(time.Minute, 0), logger.NewNop(), ProductOptions{})
	r := gin.New()
	r.POST("/products", h.CreateProduct)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewReader([]byte(`{"name":"X","price":1}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "failed to create product", resp.Error)
	assert.Contains(t, resp.Details, "E11000")
	assert.NotEmpty(t, resp.Hint)
}
