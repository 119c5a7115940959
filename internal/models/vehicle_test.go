package models

import (
	"testing"
	"time"
)

func TestValidateVIN(t *testing.T) {
	tests := []struct {
		name    string
		vin     string
		wantErr bool
	}{
		{"valid vin", "1HGBH41JXMN109186", false},
		{"lowercase normalized", "1hgbh41jxmn109186", false},
		{"whitespace trimmed", "  1HGBH41JXMN109186  ", false},
		{"too short", "1HGBH41JXMN10918", true},
		{"too long", "1HGBH41JXMN1091867", true},
		{"special characters", "1HGBH41JXMN10918!", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVIN(tt.vin)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVIN(%q) error = %v, wantErr %v", tt.vin, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeVIN(t *testing.T) {
	if got := NormalizeVIN("  1hgbh41jxmn109186 "); got != "1HGBH41JXMN109186" {
		t.Errorf("NormalizeVIN() = %q, want 1HGBH41JXMN109186", got)
	}
}

func TestVehicle_Age(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		year     int
		expected int
	}{
		{2026, 0},
		{2016, 10},
		{2005, 21},
		{2030, 0}, // future model year clamps to zero
	}
	for _, tt := range tests {
		v := &Vehicle{Year: tt.year}
		if got := v.Age(now); got != tt.expected {
			t.Errorf("Age() for year %d = %d, want %d", tt.year, got, tt.expected)
		}
	}
}

func TestVehicle_IsLuxury(t *testing.T) {
	tests := []struct {
		make     string
		expected bool
	}{
		{"BMW", true},
		{"bmw", true},
		{"Mercedes-Benz", true},
		{"Audi", true},
		{"Porsche", true},
		{"Toyota", false},
		{"Lexus", false},
		{"", false},
	}
	for _, tt := range tests {
		v := &Vehicle{Make: tt.make}
		if got := v.IsLuxury(); got != tt.expected {
			t.Errorf("IsLuxury() for make %q = %v, want %v", tt.make, got, tt.expected)
		}
	}
}
