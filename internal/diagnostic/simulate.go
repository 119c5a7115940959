// Package diagnostic generates synthetic trouble-code scans standing in for
// real OBD hardware.
package diagnostic

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mkaydev/auto-shop/internal/models"
)

// codeTable is the fixed pool scans draw from.
var codeTable = []string{
	"P0300", // random/multiple cylinder misfire
	"P0171", // system too lean, bank 1
	"P0420", // catalyst efficiency below threshold
	"P0455", // EVAP large leak
	"P0401", // EGR insufficient flow
	"P0442", // EVAP small leak
	"P0506", // idle control RPM lower than expected
	"P0128", // coolant thermostat below regulating temp
	"B1318", // battery voltage low
	"U0100", // lost communication with ECM
}

// criticalCodes are always assessed high regardless of the vehicle.
var criticalCodes = map[string]bool{
	"P0300": true,
	"U0100": true,
	"B1318": true,
}

// Severity labels for generated codes.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ScanResult is the outcome of a simulated scan.
type ScanResult struct {
	VehicleID string                  `json:"vehicle_id"`
	Codes     []models.DiagnosticCode `json:"codes"`
	ScannedAt time.Time               `json:"scanned_at"`
}

// HasIssues reports whether the scan produced any codes.
func (r *ScanResult) HasIssues() bool {
	return len(r.Codes) > 0
}

// Simulator produces randomized scans. The random source is injectable so
// tests can pin outcomes.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator returns a simulator seeded from the clock.
func NewSimulator() *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSimulatorWithSource returns a simulator over a fixed source.
func NewSimulatorWithSource(src rand.Source) *Simulator {
	return &Simulator{rng: rand.New(src)}
}

// CodeProbability returns the chance a scan yields any codes at all. The
// bands are additive: base 10%, +20% past ten years, +30% past 100k miles,
// a further +20% past 200k.
func CodeProbability(age int, mileage float64) float64 {
	p := 0.10
	if age > 10 {
		p += 0.20
	}
	if mileage > 100000 {
		p += 0.30
	}
	if mileage > 200000 {
		p += 0.20
	}
	return p
}

// SeverityFor assesses a single code against the vehicle's age and mileage.
func SeverityFor(code string, age int, mileage float64) string {
	if criticalCodes[code] {
		return SeverityHigh
	}
	if strings.HasPrefix(code, "P04") || strings.HasPrefix(code, "P05") {
		return SeverityMedium
	}
	if age > 15 || mileage > 250000 {
		return SeverityHigh
	}
	if age > 10 || mileage > 150000 {
		return SeverityMedium
	}
	return SeverityLow
}

// Scan produces a synthetic scan for the vehicle: possibly no codes, or one
// to three distinct codes from the table, each with an assessed severity.
func (s *Simulator) Scan(vehicle *models.Vehicle) *ScanResult {
	result := &ScanResult{
		VehicleID: vehicle.ID.Hex(),
		Codes:     []models.DiagnosticCode{},
		ScannedAt: time.Now(),
	}

	age := vehicle.Age(time.Now())
	if s.rng.Float64() >= CodeProbability(age, vehicle.Mileage) {
		return result
	}

	count := 1 + s.rng.Intn(3)
	for _, i := range s.rng.Perm(len(codeTable))[:count] {
		code := codeTable[i]
		result.Codes = append(result.Codes, models.DiagnosticCode{
			Code:     code,
			Severity: SeverityFor(code, age, vehicle.Mileage),
		})
	}
	return result
}
