package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"golang.org/x/sync/singleflight"

	"pharma-catalog/internal/cache"
	"pharma-catalog/internal/imaging"
	"pharma-catalog/internal/logger"
	"pharma-catalog/internal/models"
	"pharma-catalog/internal/repository"
	"pharma-catalog/internal/slug"
	"pharma-catalog/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Límite de lectura por archivo antes de comprimir
	maxRawFileBytes = 32 << 20

	listCachePrefix = "products:list:"
)

type ProductOptions struct {
	BaseURL        string
	CacheTTL       time.Duration
	Uploader       storage.Uploader
	MaxUploadBytes int64
}

type ProductHandler struct {
	store repository.ProductStore
	cache cache.Store
	log   *logger.Logger
	opts  ProductOptions
	group singleflight.Group
	now   func() time.Time
}

func NewProductHandler(store repository.ProductStore, c cache.Store, log *logger.Logger, opts ProductOptions) *ProductHandler {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &ProductHandler{
		store: store,
		cache: c,
		log:   log,
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func productKey(id string) string    { return "product:" + id }
func productSlugKey(s string) string { return "product:slug:" + s }

// CreateProduct crea un producto a partir de un payload camelCase o snake_case
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}

	patch, err := models.ParseProductPatch(payload)
	if err != nil {
		badRequest(c, "invalid product", err)
		return
	}
	product, err := models.NewProduct(patch, h.now())
	if err != nil {
		badRequest(c, "invalid product", err)
		return
	}

	ctx := c.Request.Context()
	product.Slug, err = slug.Unique(ctx, slug.Make(product.Name), h.store.SlugExists)
	if err != nil {
		storeError(c, err, "product", "create product")
		return
	}

	if err := h.store.Create(ctx, product); err != nil {
		h.log.Error("create product failed", "slug", product.Slug, "error", err)
		storeError(c, err, "product", "create product")
		return
	}

	// Invalidar caché de listados
	h.invalidate(ctx, "", "")

	h.log.Info("product created", "id", product.ID.Hex(), "slug", product.Slug)
	c.JSON(http.StatusOK, h.present(product))
}

// ListProducts lista productos con filtros, orden y paginación opcional (con caché)
func (h *ProductHandler) ListProducts(c *gin.Context) {
	q := h.parseQuery(c)
	key := fmt.Sprintf(
		"%scat:%s_q:%s_rx:%s_sort:%s_%v_p%d_s%d",
		listCachePrefix, q.Category, q.Search, boolKey(q.Prescription), q.SortField(), q.SortDesc, q.Page, q.PageSize,
	)

	products, err := cachedLoad(c.Request.Context(), h, key, func(ctx context.Context) ([]*models.Product, error) {
		return h.store.FindAll(ctx, q)
	})
	if err != nil {
		storeError(c, err, "product", "list products")
		return
	}

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		out = append(out, h.present(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetProduct obtiene un producto por ID (con caché)
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	product, err := cachedLoad(c.Request.Context(), h, productKey(id), func(ctx context.Context) (*models.Product, error) {
		return h.store.FindByID(ctx, id)
	})
	if err != nil {
		storeError(c, err, "product", "get product")
		return
	}
	c.JSON(http.StatusOK, h.present(product))
}

// GetProductBySlug obtiene un producto por slug (con caché)
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	s := c.Param("slug")
	product, err := cachedLoad(c.Request.Context(), h, productSlugKey(s), func(ctx context.Context) (*models.Product, error) {
		return h.store.FindBySlug(ctx, s)
	})
	if err != nil {
		storeError(c, err, "product", "get product")
		return
	}
	c.JSON(http.StatusOK, h.present(product))
}

// UpdateProduct actualiza parcialmente un producto; solo se escriben las claves presentes
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}
	patch, err := models.ParseProductPatch(payload)
	if err != nil {
		badRequest(c, "invalid product", err)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		badRequest(c, "invalid product", &models.ValidationError{Field: "name", Message: "name cannot be empty"})
		return
	}

	product, err := h.store.Update(c.Request.Context(), id, patch, h.now())
	if err != nil {
		storeError(c, err, "product", "update product")
		return
	}

	// Invalidar caché relacionado
	h.invalidate(c.Request.Context(), id, product.Slug)

	c.JSON(http.StatusOK, h.present(product))
}

// DeleteProduct borra el producto de forma definitiva
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	product, err := h.store.FindByID(ctx, id)
	if err != nil {
		storeError(c, err, "product", "delete product")
		return
	}
	if err := h.store.Delete(ctx, id); err != nil {
		storeError(c, err, "product", "delete product")
		return
	}

	// Invalidar caché relacionado
	h.invalidate(ctx, id, product.Slug)

	h.log.Info("product deleted", "id", id, "slug", product.Slug)
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// UploadImages sube las imágenes del formulario y las agrega a la galería.
// Si una sola falla, no se guarda ninguna URL.
func (h *ProductHandler) UploadImages(c *gin.Context) {
	if h.opts.Uploader == nil {
		respondError(c, http.StatusServiceUnavailable, ErrorResponse{
			Error: "image storage is not configured",
			Hint:  "set CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET",
		})
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	product, err := h.store.FindByID(ctx, id)
	if err != nil {
		storeError(c, err, "product", "upload images")
		return
	}

	files, err := readFormFiles(c)
	if err != nil {
		badRequest(c, "invalid upload", err)
		return
	}

	urls, err := storage.UploadAll(ctx, h.opts.Uploader, files, h.opts.MaxUploadBytes)
	if err != nil {
		h.log.Error("image upload failed", "id", id, "files", len(files), "error", err)
		respondError(c, http.StatusBadGateway, ErrorResponse{
			Error:   "image upload failed",
			Details: err.Error(),
			Hint:    "no images were saved; retry the upload",
		})
		return
	}

	images := product.Images.Append(urls...)
	updated, err := h.store.Update(ctx, id, models.ProductPatch{Images: &images}, h.now())
	if err != nil {
		storeError(c, err, "product", "save images")
		return
	}
	h.invalidate(ctx, id, updated.Slug)

	c.JSON(http.StatusOK, gin.H{"urls": urls, "product": h.present(updated)})
}

// ListCategories devuelve las categorías disponibles
func (h *ProductHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, models.Categories)
}

// --- Métodos auxiliares ---

// present devuelve una copia con la URL pública; el original puede estar compartido por singleflight
func (h *ProductHandler) present(p *models.Product) models.Product {
	out := *p
	out.Images = out.Images.Ensure()
	ref := p.Slug
	if ref == "" {
		ref = p.ID.Hex()
	}
	out.URL = h.opts.BaseURL + "/products/" + url.PathEscape(ref)
	return out
}

func (h *ProductHandler) invalidate(ctx context.Context, id, s string) {
	keys := make([]string, 0, 2)
	if id != "" {
		keys = append(keys, productKey(id))
	}
	if s != "" {
		keys = append(keys, productSlugKey(s))
	}
	for _, k := range keys {
		if err := h.cache.Delete(ctx, k); err != nil {
			h.log.Warn("cache delete failed", "key", k, "error", err)
		}
	}
	if err := h.cache.DeleteByPrefix(ctx, listCachePrefix); err != nil {
		h.log.Warn("cache invalidation failed", "prefix", listCachePrefix, "error", err)
	}
}

// cachedLoad lee de la caché y, si falta, carga una sola vez por clave
func cachedLoad[T any](ctx context.Context, h *ProductHandler, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	found, err := h.cache.Get(ctx, key, &out)
	if err != nil {
		h.log.Warn("cache get failed", "key", key, "error", err)
	}
	if found {
		return out, nil
	}

	v, err, _ := h.group.Do(key, func() (interface{}, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := h.cache.Set(ctx, key, val, h.opts.CacheTTL); err != nil {
			h.log.Warn("cache set failed", "key", key, "error", err)
		}
		return val, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}

// parseQuery obtiene y valida filtros, orden y paginación
func (h *ProductHandler) parseQuery(c *gin.Context) repository.ProductQuery {
	q := repository.ProductQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("q")),
	}
	if rx := c.Query("prescription"); rx != "" {
		if b, err := cast.ToBoolE(rx); err == nil {
			q.Prescription = &b
		}
	}

	// sort=campo:asc|desc
	if sortQuery := strings.TrimSpace(c.Query("sort")); sortQuery != "" {
		fields := strings.SplitN(sortQuery, ":", 2)
		q.SortBy = strings.TrimSpace(fields[0])
		q.SortDesc = len(fields) > 1 && strings.EqualFold(strings.TrimSpace(fields[1]), "desc")
	} else {
		q.SortDesc = true
	}

	if c.Query("page") != "" || c.Query("page_size") != "" {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > maxPageSize {
			pageSize = defaultPageSize
		}
		q.Page, q.PageSize = page, pageSize
	}
	return q
}

func boolKey(b *bool) string {
	if b == nil {
		return "any"
	}
	return strconv.FormatBool(*b)
}

func readFormFiles(c *gin.Context) ([]imaging.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("no files in form field %q", "files")
	}

	files := make([]imaging.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxRawFileBytes {
			return nil, fmt.Errorf("%s exceeds %d MB", fh.Filename, maxRawFileBytes>>20)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxRawFileBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		if len(data) > maxRawFileBytes {
			return nil, fmt.Errorf("%s exceeds %d MB", fh.Filename, maxRawFileBytes>>20)
		}
		files = append(files, imaging.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
