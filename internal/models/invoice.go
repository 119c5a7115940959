package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceStatus is the billing lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// LineItemType classifies an invoice line.
type LineItemType string

const (
	LineService LineItemType = "service"
	LinePart    LineItemType = "part"
	LineLabor   LineItemType = "labor"
)

// Invoice is a billing document derived from an appointment.
type Invoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number        string             `bson:"number" json:"number"`
	AppointmentID string             `bson:"appointment_id" json:"appointment_id"`
	CustomerID    string             `bson:"customer_id" json:"customer_id"`
	LineItems     []LineItem         `bson:"line_items" json:"line_items"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
	TaxRate       float64            `bson:"tax_rate" json:"tax_rate"`
	Tax           float64            `bson:"tax" json:"tax"`
	Discount      float64            `bson:"discount" json:"discount"`
	Total         float64            `bson:"total" json:"total"`
	Status        InvoiceStatus      `bson:"status" json:"status"`
	DueDate       *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	SentAt        *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	PaidAt        *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// LineItem is one billed line: quantity times unit price.
type LineItem struct {
	Type        LineItemType `bson:"type" json:"type"`
	Description string       `bson:"description" json:"description"`
	Quantity    float64      `bson:"quantity" json:"quantity"`
	UnitPrice   float64      `bson:"unit_price" json:"unit_price"`
	Total       float64      `bson:"total" json:"total"`
}

// Recalculate recomputes line totals, subtotal, tax and total in place.
func (inv *Invoice) Recalculate() {
	subtotal := 0.0
	for i := range inv.LineItems {
		inv.LineItems[i].Total = Round2(inv.LineItems[i].Quantity * inv.LineItems[i].UnitPrice)
		subtotal += inv.LineItems[i].Total
	}
	inv.Subtotal = Round2(subtotal)
	inv.Tax = Round2(inv.Subtotal * inv.TaxRate)
	inv.Total = Round2(inv.Subtotal - inv.Discount + inv.Tax)
}
