package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pharma-catalog/internal/models"
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// EnsureIndexes crea el índice único de slug, respaldo de la carrera check-then-insert
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"slug": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	return err
}

// Create inserta un producto ya validado; el slug lo asigna el llamador
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	product.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicateSlug, err)
		}
		return err
	}
	return nil
}

// FindByID obtiene un producto por ID
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

// FindBySlug obtiene un producto por slug
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, filter).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	product.Images = product.Images.Ensure()
	return &product, nil
}

// FindAll lista productos con filtros, orden y paginación opcional
func (r *ProductRepository) FindAll(ctx context.Context, q ProductQuery) ([]*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"name": pattern},
			{"composition": pattern},
		}
	}
	if q.Prescription != nil {
		filter["prescription_required"] = *q.Prescription
	}

	order := 1
	if q.SortDesc {
		order = -1
	}
	findOptions := options.Find().SetSort(bson.D{{Key: q.SortField(), Value: order}, {Key: "_id", Value: order}})
	if q.Page > 0 && q.PageSize > 0 {
		findOptions.SetSkip(int64((q.Page - 1) * q.PageSize))
		findOptions.SetLimit(int64(q.PageSize))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	for _, p := range products {
		p.Images = p.Images.Ensure()
	}
	return products, nil
}

// Update aplica solo los campos presentes y refresca updated_at
func (r *ProductRepository) Update(ctx context.Context, id string, patch models.ProductPatch, now time.Time) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	set := patch.SetDocument()
	set["updated_at"] = now

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	product.Images = product.Images.Ensure()
	return &product, nil
}

// Delete borra físicamente el producto
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

// BackfillImages reescribe cada campo images en la forma canónica.
// Devuelve cuántos documentos se revisaron y cuántos cambiaron.
func (r *ProductRepository) BackfillImages(ctx context.Context) (scanned, updated int, err error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"images": 1}))
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID     primitive.ObjectID `bson:"_id"`
			Images interface{}        `bson:"images"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return scanned, updated, err
		}
		scanned++

		canonical := models.NormalizeImages(doc.Images)
		if isCanonical(doc.Images, canonical) {
			continue
		}
		_, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": doc.ID},
			bson.M{"$set": bson.M{"images": canonical}},
		)
		if err != nil {
			return scanned, updated, fmt.Errorf("update %s: %w", doc.ID.Hex(), err)
		}
		updated++
	}
	return scanned, updated, cursor.Err()
}

// isCanonical indica si el valor guardado ya es exactamente {main, gallery}.
func isCanonical(raw interface{}, canonical models.ImageSet) bool {
	doc, ok := raw.(primitive.D)
	if !ok || len(doc) != 2 {
		return false
	}
	var main string
	var gallery primitive.A
	for _, e := range doc {
		switch e.Key {
		case "main":
			main, _ = e.Value.(string)
		case "gallery":
			gallery, _ = e.Value.(primitive.A)
		}
	}
	if main != canonical.Main || gallery == nil || len(gallery) != len(canonical.Gallery) {
		return false
	}
	for i, g := range gallery {
		if s, ok := g.(string); !ok || s != canonical.Gallery[i] {
			return false
		}
	}
	return true
}
