package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pharma-catalog/internal/models"
)

// MemoryProductStore keeps products in process memory. It backs local runs
// without MONGO_URI and the handler tests.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]*models.Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[primitive.ObjectID]*models.Product)}
}

func cloneProduct(p *models.Product) *models.Product {
	c := *p
	c.Images.Gallery = append([]string{}, p.Images.Gallery...)
	return &c
}

func (s *MemoryProductStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Slug != "" {
		for _, p := range s.products {
			if p.Slug == product.Slug {
				return ErrDuplicateSlug
			}
		}
	}
	product.ID = primitive.NewObjectID()
	product.Images = product.Images.Ensure()
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (s *MemoryProductStore) FindByID(_ context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[objID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *MemoryProductStore) FindBySlug(_ context.Context, slug string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryProductStore) FindAll(_ context.Context, q ProductQuery) ([]*models.Product, error) {
	s.mu.RLock()
	out := make([]*models.Product, 0, len(s.products))
	search := strings.ToLower(q.Search)
	for _, p := range s.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Prescription != nil && p.PrescriptionRequired != *q.Prescription {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Composition), search) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	s.mu.RUnlock()

	field := q.SortField()
	sort.Slice(out, func(i, j int) bool {
		less, equal := compareProducts(out[i], out[j], field)
		if equal {
			less = out[i].ID.Hex() < out[j].ID.Hex()
		}
		if q.SortDesc {
			return !less
		}
		return less
	})

	if q.Page > 0 && q.PageSize > 0 {
		start := (q.Page - 1) * q.PageSize
		if start >= len(out) {
			return []*models.Product{}, nil
		}
		end := start + q.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func compareProducts(a, b *models.Product, field string) (less, equal bool) {
	switch field {
	case "name":
		return a.Name < b.Name, a.Name == b.Name
	case "price":
		return a.Price < b.Price, a.Price == b.Price
	case "category":
		return a.Category < b.Category, a.Category == b.Category
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	}
}

func (s *MemoryProductStore) Update(_ context.Context, id string, patch models.ProductPatch, now time.Time) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[objID]
	if !ok {
		return nil, ErrNotFound
	}
	updated := cloneProduct(p)
	patch.Apply(updated)
	updated.Images = updated.Images.Ensure()
	updated.UpdatedAt = now
	s.products[objID] = updated
	return cloneProduct(updated), nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[objID]; !ok {
		return ErrNotFound
	}
	delete(s.products, objID)
	return nil
}

func (s *MemoryProductStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryProductStore) Ping(context.Context) error { return nil }

// MemoryAnnouncementStore is the in-process counterpart of AnnouncementRepository.
type MemoryAnnouncementStore struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Announcement
}

func NewMemoryAnnouncementStore() *MemoryAnnouncementStore {
	return &MemoryAnnouncementStore{items: make(map[primitive.ObjectID]models.Announcement)}
}

func (s *MemoryAnnouncementStore) List(context.Context) ([]models.Announcement, error) {
	s.mu.RLock()
	out := make([]models.Announcement, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	s.mu.RUnlock()

	models.SortForDisplay(out)
	return out, nil
}

func (s *MemoryAnnouncementStore) ListVisible(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.VisibleAnnouncements(all, now), nil
}

func (s *MemoryAnnouncementStore) Create(_ context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = primitive.NewObjectID()
	s.items[a.ID] = *a
	return nil
}

func (s *MemoryAnnouncementStore) Update(_ context.Context, id string, patch models.AnnouncementPatch) (*models.Announcement, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[objID]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&a)
	s.items[objID] = a
	return &a, nil
}

func (s *MemoryAnnouncementStore) Delete(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[objID]; !ok {
		return ErrNotFound
	}
	delete(s.items, objID)
	return nil
}

var (
	_ ProductStore      = (*ProductRepository)(nil)
	_ ProductStore      = (*MemoryProductStore)(nil)
	_ AnnouncementStore = (*AnnouncementRepository)(nil)
	_ AnnouncementStore = (*MemoryAnnouncementStore)(nil)
)
