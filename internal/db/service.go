package db

import (
	"context"
	"fmt"
	"time"

	"github.com/mkaydev/auto-shop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoServiceCollection implements ServiceCollection for MongoDB.
type MongoServiceCollection struct {
	Collection *mongo.Collection
}

// InsertService inserts a catalog entry into the collection.
func (c *MongoServiceCollection) InsertService(ctx context.Context, service *models.Service) error {
	service.CreatedAt = time.Now()
	service.UpdatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, service)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		service.ID = oid
	}
	return nil
}

// FindServiceByID finds a service by its ID.
func (c *MongoServiceCollection) FindServiceByID(ctx context.Context, id string) (*models.Service, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid service ID: %w", err)
	}

	var service models.Service
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&service)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &service, nil
}

// FindServicesByIDs resolves a set of service ids. The result length can be
// shorter than the input when ids do not resolve; callers check.
func (c *MongoServiceCollection) FindServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid service ID %q: %w", id, err)
		}
		objectIDs = append(objectIDs, oid)
	}

	cursor, err := c.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// FindActiveServices lists catalog entries currently offered.
func (c *MongoServiceCollection) FindActiveServices(ctx context.Context) ([]models.Service, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []models.Service
	if err := cursor.All(ctx, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// UpdateService updates a catalog entry by its ID.
func (c *MongoServiceCollection) UpdateService(ctx context.Context, id string, service models.Service) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid service ID: %w", err)
	}
	service.ID = objectID
	service.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, service)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
