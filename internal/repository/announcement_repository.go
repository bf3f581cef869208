package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pharma-catalog/internal/models"
)

type AnnouncementRepository struct {
	collection *mongo.Collection
}

func NewAnnouncementRepository(collection *mongo.Collection) *AnnouncementRepository {
	return &AnnouncementRepository{collection: collection}
}

var displayOrder = bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: -1}}

// List devuelve todos los anuncios, sin filtrar, para el panel admin
func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	return r.find(ctx, bson.M{})
}

// ListVisible devuelve los anuncios activos y no expirados
func (r *AnnouncementRepository) ListVisible(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	return r.find(ctx, bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"expires_at": bson.M{"$exists": false}},
			{"expires_at": nil},
			{"expires_at": bson.M{"$gt": now}},
		},
	})
}

func (r *AnnouncementRepository) find(ctx context.Context, filter bson.M) ([]models.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(displayOrder))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	list := make([]models.Announcement, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, a)
	return err
}

func (r *AnnouncementRepository) Update(ctx context.Context, id string, patch models.AnnouncementPatch) (*models.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var a models.Announcement
	update := patch.UpdateDocument()
	if len(update) == 0 {
		err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&a)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&a)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
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
