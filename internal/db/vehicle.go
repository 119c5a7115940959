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

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	vehicle.VIN = models.NormalizeVIN(vehicle.VIN)
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()
	if vehicle.ServiceHistory == nil {
		vehicle.ServiceHistory = []models.ServiceRecord{}
	}
	if vehicle.DiagnosticHistory == nil {
		vehicle.DiagnosticHistory = []models.DiagnosticRecord{}
	}
	res, err := c.Collection.InsertOne(ctx, vehicle)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		vehicle.ID = oid
	}
	return nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &vehicle, nil
}

// FindVehicleByVIN finds a vehicle by its normalized VIN.
func (c *MongoVehicleCollection) FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := c.Collection.FindOne(ctx, bson.M{"vin": models.NormalizeVIN(vin)}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindVehiclesByOwner queries vehicles belonging to a customer.
func (c *MongoVehicleCollection) FindVehiclesByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateVehicle updates a vehicle by its ID. The stored VIN is immutable;
// the incoming value is discarded in favor of the existing one.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}

	vehicle.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"make":          vehicle.Make,
		"model":         vehicle.Model,
		"year":          vehicle.Year,
		"mileage":       vehicle.Mileage,
		"license_plate": vehicle.LicensePlate,
		"color":         vehicle.Color,
		"updated_at":    vehicle.UpdatedAt,
	}}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendServiceRecord pushes a completed-work entry onto the vehicle's
// service history. History logs are append-only.
func (c *MongoVehicleCollection) AppendServiceRecord(ctx context.Context, id string, rec models.ServiceRecord) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$push": bson.M{"service_history": rec},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendDiagnosticRecord pushes a scan entry onto the vehicle's diagnostic
// history.
func (c *MongoVehicleCollection) AppendDiagnosticRecord(ctx context.Context, id string, rec models.DiagnosticRecord) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$push": bson.M{"diagnostic_history": rec},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
