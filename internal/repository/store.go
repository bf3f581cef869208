package repository

import (
	"context"
	"errors"
	"time"

	"pharma-catalog/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidID     = errors.New("invalid id")
	ErrDuplicateSlug = errors.New("slug already exists")
)

// ProductQuery filtra y ordena el listado de productos.
type ProductQuery struct {
	Category     string
	Search       string
	Prescription *bool
	SortBy       string
	SortDesc     bool
	Page         int
	PageSize     int
}

// sortFields lista las columnas permitidas para ordenar.
var sortFields = map[string]string{
	"name":       "name",
	"price":      "price",
	"category":   "category",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// SortField devuelve la columna de orden validada (created_at por defecto).
func (q ProductQuery) SortField() string {
	if f, ok := sortFields[q.SortBy]; ok {
		return f
	}
	return "created_at"
}

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindAll(ctx context.Context, q ProductQuery) ([]*models.Product, error)
	Update(ctx context.Context, id string, patch models.ProductPatch, now time.Time) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	Ping(ctx context.Context) error
}

type AnnouncementStore interface {
	List(ctx context.Context) ([]models.Announcement, error)
	ListVisible(ctx context.Context, now time.Time) ([]models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	Update(ctx context.Context, id string, patch models.AnnouncementPatch) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}
