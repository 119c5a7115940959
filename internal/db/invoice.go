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

// MongoInvoiceCollection implements InvoiceCollection for MongoDB.
type MongoInvoiceCollection struct {
	Collection *mongo.Collection
}

// InsertInvoice inserts an invoice document into the collection.
func (c *MongoInvoiceCollection) InsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = time.Now()
	res, err := c.Collection.InsertOne(ctx, invoice)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		invoice.ID = oid
	}
	return nil
}

// FindInvoiceByID finds an invoice by its ID.
func (c *MongoInvoiceCollection) FindInvoiceByID(ctx context.Context, id string) (*models.Invoice, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice ID: %w", err)
	}

	var invoice models.Invoice
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&invoice)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindInvoiceByAppointment finds the invoice derived from an appointment.
func (c *MongoInvoiceCollection) FindInvoiceByAppointment(ctx context.Context, appointmentID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := c.Collection.FindOne(ctx, bson.M{"appointment_id": appointmentID}).Decode(&invoice)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// UpdateInvoice replaces an invoice by its ID.
func (c *MongoInvoiceCollection) UpdateInvoice(ctx context.Context, id string, invoice models.Invoice) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid invoice ID: %w", err)
	}
	invoice.ID = objectID
	invoice.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, invoice)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
