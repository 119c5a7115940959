package models

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service represents a catalog entry for work the shop offers.
type Service struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"` // "maintenance", "repair", "diagnostic", "inspection"
	BasePrice   float64            `bson:"base_price" json:"base_price"` // in USD
	Duration    int                `bson:"duration" json:"duration"`     // in minutes
	Parts       []Part             `bson:"parts" json:"parts"`
	Modifiers   []PriceModifier    `bson:"modifiers" json:"modifiers"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Part is a component consumed by a service.
type Part struct {
	Name          string  `bson:"name" json:"name"`
	PartNumber    string  `bson:"part_number" json:"part_number"`
	EstimatedCost float64 `bson:"estimated_cost" json:"estimated_cost"`
}

// PriceModifier adjusts a service price when its condition matches the
// vehicle's make. Modifiers compound in list order: multiply, then add.
type PriceModifier struct {
	Condition      string  `bson:"condition" json:"condition"`
	Multiplier     float64 `bson:"multiplier" json:"multiplier"`
	AdditionalCost float64 `bson:"additional_cost" json:"additional_cost"`
}

// Matches reports whether the modifier applies to the given vehicle make.
// Matching is a case-insensitive substring test against the make.
func (m PriceModifier) Matches(make string) bool {
	if m.Condition == "" {
		return false
	}
	return strings.Contains(strings.ToLower(make), strings.ToLower(m.Condition))
}

// TotalCost computes the service price for a vehicle: base price plus parts,
// then every matching modifier applied in order. Modifiers are not mutually
// exclusive.
func (s *Service) TotalCost(vehicle *Vehicle) float64 {
	total := s.BasePrice
	for _, p := range s.Parts {
		total += p.EstimatedCost
	}
	if vehicle != nil {
		for _, m := range s.Modifiers {
			if !m.Matches(vehicle.Make) {
				continue
			}
			if m.Multiplier > 0 {
				total *= m.Multiplier
			}
			total += m.AdditionalCost
		}
	}
	return Round2(total)
}

// Round2 rounds a dollar amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
