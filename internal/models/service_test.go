package models

import "testing"

func TestPriceModifier_Matches(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		make      string
		expected  bool
	}{
		{"exact match", "bmw", "BMW", true},
		{"substring match", "mercedes", "Mercedes-Benz", true},
		{"case insensitive", "AUDI", "audi", true},
		{"no match", "bmw", "Toyota", false},
		{"empty condition never matches", "", "BMW", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := PriceModifier{Condition: tt.condition}
			if got := m.Matches(tt.make); got != tt.expected {
				t.Errorf("Matches(%q) with condition %q = %v, want %v", tt.make, tt.condition, got, tt.expected)
			}
		})
	}
}

func TestService_TotalCost(t *testing.T) {
	bmw := &Vehicle{Make: "BMW"}
	toyota := &Vehicle{Make: "Toyota"}

	t.Run("base price only", func(t *testing.T) {
		s := &Service{BasePrice: 89.99}
		if got := s.TotalCost(toyota); got != 89.99 {
			t.Errorf("TotalCost() = %v, want 89.99", got)
		}
	})

	t.Run("parts added before modifiers", func(t *testing.T) {
		s := &Service{
			BasePrice: 100,
			Parts:     []Part{{Name: "filter", EstimatedCost: 20}},
			Modifiers: []PriceModifier{{Condition: "bmw", Multiplier: 1.2, AdditionalCost: 10}},
		}
		// (100 + 20) * 1.2 + 10
		if got := s.TotalCost(bmw); got != 154.00 {
			t.Errorf("TotalCost() for BMW = %v, want 154.00", got)
		}
		if got := s.TotalCost(toyota); got != 120.00 {
			t.Errorf("TotalCost() for Toyota = %v, want 120.00", got)
		}
	})

	t.Run("zero multiplier is additive only", func(t *testing.T) {
		s := &Service{
			BasePrice: 100,
			Modifiers: []PriceModifier{{Condition: "bmw", Multiplier: 0, AdditionalCost: 25}},
		}
		if got := s.TotalCost(bmw); got != 125.00 {
			t.Errorf("TotalCost() = %v, want 125.00", got)
		}
	})

	t.Run("modifiers compound in order", func(t *testing.T) {
		s := &Service{
			BasePrice: 100,
			Modifiers: []PriceModifier{
				{Condition: "bmw", Multiplier: 1.5},
				{Condition: "bmw", AdditionalCost: 50},
			},
		}
		if got := s.TotalCost(bmw); got != 200.00 {
			t.Errorf("TotalCost() = %v, want 200.00", got)
		}
	})

	t.Run("nil vehicle skips modifiers", func(t *testing.T) {
		s := &Service{
			BasePrice: 100,
			Modifiers: []PriceModifier{{Condition: "bmw", Multiplier: 2}},
		}
		if got := s.TotalCost(nil); got != 100.00 {
			t.Errorf("TotalCost(nil) = %v, want 100.00", got)
		}
	})
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{1.005, 1.0},
		{1.015, 1.01},
		{89.999, 90.0},
		{154.0000001, 154.0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.expected {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
