package db

import (
	"context"
	"fmt"
	"time"

	"github.com/mkaydev/auto-shop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentCollection implements AppointmentCollection for MongoDB.
type MongoAppointmentCollection struct {
	Collection *mongo.Collection
}

// InsertAppointment inserts an appointment into the collection.
func (c *MongoAppointmentCollection) InsertAppointment(ctx context.Context, appointment *models.Appointment) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, appointment)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid
	}
	return nil
}

// FindAppointmentByID finds an appointment by its ID.
func (c *MongoAppointmentCollection) FindAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment ID: %w", err)
	}

	var appointment models.Appointment
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

// FindAppointments queries appointments with an arbitrary filter, newest
// date first.
func (c *MongoAppointmentCollection) FindAppointments(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appointments []models.Appointment
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// CountActiveOnDate counts bay-holding appointments on a calendar date.
// Read-count-then-insert is not atomic: two concurrent bookings can both
// pass the capacity check, so the cap is advisory under contention.
func (c *MongoAppointmentCollection) CountActiveOnDate(ctx context.Context, date time.Time) (int64, error) {
	start, end := dayRange(date)
	return c.Collection.CountDocuments(ctx, bson.M{
		"date": bson.M{"$gte": start, "$lt": end},
		"status": bson.M{"$in": []models.AppointmentStatus{
			models.StatusScheduled,
			models.StatusConfirmed,
			models.StatusInProgress,
		}},
	})
}

// UpdateAppointment replaces an appointment by its ID.
func (c *MongoAppointmentCollection) UpdateAppointment(ctx context.Context, id string, appointment models.Appointment) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid appointment ID: %w", err)
	}
	appointment.ID = objectID
	appointment.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, appointment)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
