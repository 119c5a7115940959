package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mkaydev/auto-shop/internal/models"
)

// ErrInvalidCode is returned for strings that are not OBD trouble codes.
var ErrInvalidCode = errors.New("not a valid trouble code")

var codePattern = regexp.MustCompile(`(?i)^[PBU][0-9A-F]{4}$`)

// CodeExplanation is the structured answer to "what does this code mean".
type CodeExplanation struct {
	Code            string   `json:"code"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Symptoms        []string `json:"symptoms"`
	Causes          []string `json:"causes"`
	Urgency         string   `json:"urgency"` // "low", "medium", "high"
	CostMin         float64  `json:"cost_min"`
	CostMax         float64  `json:"cost_max"`
	Category        string   `json:"category"`
	Recommendations []string `json:"recommendations"`
}

// CostRange renders the repair estimate as a display string.
func (e *CodeExplanation) CostRange() string {
	return fmt.Sprintf("$%.0f - $%.0f", e.CostMin, e.CostMax)
}

// knownCodes is the hardcoded lookup table used when no language model is
// configured or the model's answer cannot be used.
var knownCodes = map[string]CodeExplanation{
	"P0300": {
		Title:       "Random/Multiple Cylinder Misfire Detected",
		Description: "The engine control module has detected misfires across multiple cylinders.",
		Symptoms:    []string{"Rough idle", "Loss of power", "Flashing check engine light", "Poor fuel economy"},
		Causes:      []string{"Worn spark plugs", "Failing ignition coils", "Vacuum leak", "Low fuel pressure"},
		Urgency:     "high", CostMin: 150, CostMax: 1200, Category: "Ignition",
		Recommendations: []string{"Stop driving if the light is flashing", "Book an engine diagnostic"},
	},
	"P0171": {
		Title:       "System Too Lean (Bank 1)",
		Description: "The air-fuel mixture on bank 1 has too much air or too little fuel.",
		Symptoms:    []string{"Rough idle", "Hesitation on acceleration", "Check engine light"},
		Causes:      []string{"Vacuum leak", "Dirty MAF sensor", "Weak fuel pump", "Clogged fuel filter"},
		Urgency:     "medium", CostMin: 100, CostMax: 600, Category: "Fuel & Air",
		Recommendations: []string{"Have the intake system smoke-tested", "Clean or replace the MAF sensor"},
	},
	"P0420": {
		Title:       "Catalyst System Efficiency Below Threshold (Bank 1)",
		Description: "The catalytic converter is not cleaning exhaust gases as efficiently as it should.",
		Symptoms:    []string{"Check engine light", "Sulfur smell", "Reduced performance"},
		Causes:      []string{"Aging catalytic converter", "Faulty oxygen sensor", "Exhaust leak"},
		Urgency:     "medium", CostMin: 300, CostMax: 2000, Category: "Emissions",
		Recommendations: []string{"Verify with an emissions diagnostic before replacing the converter"},
	},
	"P0455": {
		Title:       "Evaporative Emission System Leak Detected (Large)",
		Description: "A large leak was detected in the fuel vapor containment system.",
		Symptoms:    []string{"Check engine light", "Fuel smell"},
		Causes:      []string{"Loose or missing gas cap", "Cracked EVAP hose", "Faulty purge valve"},
		Urgency:     "low", CostMin: 20, CostMax: 400, Category: "Emissions",
		Recommendations: []string{"Check the gas cap first", "Book a smoke test if the light returns"},
	},
	"P0401": {
		Title:       "Exhaust Gas Recirculation Flow Insufficient",
		Description: "The EGR system is not recirculating enough exhaust gas.",
		Symptoms:    []string{"Engine knock", "Failed emissions test", "Check engine light"},
		Causes:      []string{"Clogged EGR passages", "Faulty EGR valve", "Bad vacuum supply"},
		Urgency:     "medium", CostMin: 150, CostMax: 500, Category: "Emissions",
		Recommendations: []string{"Have the EGR valve and passages inspected and cleaned"},
	},
	"P0442": {
		Title:       "Evaporative Emission System Leak Detected (Small)",
		Description: "A small leak was detected in the fuel vapor containment system.",
		Symptoms:    []string{"Check engine light", "Slight fuel smell"},
		Causes:      []string{"Worn gas cap seal", "Small crack in an EVAP line"},
		Urgency:     "low", CostMin: 20, CostMax: 350, Category: "Emissions",
		Recommendations: []string{"Replace the gas cap", "Smoke test if the code returns"},
	},
	"P0506": {
		Title:       "Idle Air Control System RPM Lower Than Expected",
		Description: "The engine idles below the target speed.",
		Symptoms:    []string{"Stalling at idle", "Rough idle"},
		Causes:      []string{"Carbon-fouled throttle body", "Vacuum leak", "Failing idle control valve"},
		Urgency:     "medium", CostMin: 80, CostMax: 400, Category: "Engine Management",
		Recommendations: []string{"Have the throttle body cleaned"},
	},
	"P0128": {
		Title:       "Coolant Thermostat Below Regulating Temperature",
		Description: "The engine is not reaching normal operating temperature.",
		Symptoms:    []string{"Poor heater output", "Reduced fuel economy", "Temperature gauge reads low"},
		Causes:      []string{"Stuck-open thermostat", "Faulty coolant temperature sensor", "Low coolant"},
		Urgency:     "low", CostMin: 100, CostMax: 450, Category: "Cooling",
		Recommendations: []string{"Replace the thermostat", "Check coolant level"},
	},
	"B1318": {
		Title:       "Battery Voltage Low",
		Description: "The control module has recorded battery voltage below the operating threshold.",
		Symptoms:    []string{"Hard starting", "Dim lights", "Electrical glitches"},
		Causes:      []string{"Aging battery", "Weak alternator", "Corroded terminals", "Parasitic drain"},
		Urgency:     "high", CostMin: 100, CostMax: 800, Category: "Electrical",
		Recommendations: []string{"Have the battery and charging system tested before it strands you"},
	},
	"U0100": {
		Title:       "Lost Communication With ECM/PCM",
		Description: "Other modules on the vehicle network cannot reach the engine control module.",
		Symptoms:    []string{"No-start condition", "Multiple warning lights", "Stalling"},
		Causes:      []string{"Damaged CAN bus wiring", "Failing ECM", "Poor ground connection"},
		Urgency:     "high", CostMin: 150, CostMax: 1500, Category: "Network/Electrical",
		Recommendations: []string{"Do not drive far; book diagnosis as soon as possible"},
	},
}

// genericExplanation is the template for unrecognized codes.
func genericExplanation(code string) CodeExplanation {
	category := "Powertrain"
	switch code[0] {
	case 'B':
		category = "Body"
	case 'U':
		category = "Network"
	}
	return CodeExplanation{
		Code:        code,
		Title:       "Diagnostic Trouble Code " + code,
		Description: "This code indicates a fault recorded by one of the vehicle's control modules. A full diagnostic can pinpoint the failing component.",
		Symptoms:    []string{"Check engine or warning light"},
		Causes:      []string{"Varies by vehicle; requires diagnosis"},
		Urgency:     "medium", CostMin: 100, CostMax: 500, Category: category,
		Recommendations: []string{"Book an engine diagnostic so a technician can trace the fault"},
	}
}

// luxury cost scaling: minimum ×1.3, maximum ×1.5, applied whenever the
// vehicle's make is in the luxury list regardless of which source produced
// the explanation.
func applyLuxuryScaling(e *CodeExplanation, vehicle *models.Vehicle) {
	if vehicle == nil || !vehicle.IsLuxury() {
		return
	}
	e.CostMin = models.Round2(e.CostMin * 1.3)
	e.CostMax = models.Round2(e.CostMax * 1.5)
}

// CodeExplainer is an optional completer capability. An adapter that can
// answer trouble-code questions directly implements it; everything else is
// asked through the regular completion call.
type CodeExplainer interface {
	ExplainCode(code string) CodeExplanation
}

// ExplainCode returns a structured explanation for a trouble code, from the
// completer's own explainer when it has one, otherwise from the language
// model with the lookup table as fallback.
func (p *Pipeline) ExplainCode(ctx context.Context, code string, vehicle *models.Vehicle) (*CodeExplanation, error) {
	if !codePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	code = strings.ToUpper(code)

	var explanation CodeExplanation
	if explainer, ok := p.completer.(CodeExplainer); ok {
		explanation = explainer.ExplainCode(code)
	} else {
		explanation = p.explainWithModel(ctx, code, vehicle)
	}
	explanation.Code = code
	applyLuxuryScaling(&explanation, vehicle)
	return &explanation, nil
}

func lookupCode(code string) CodeExplanation {
	if e, ok := knownCodes[code]; ok {
		e.Code = code
		return e
	}
	return genericExplanation(code)
}

func (p *Pipeline) explainWithModel(ctx context.Context, code string, vehicle *models.Vehicle) CodeExplanation {
	prompt := fmt.Sprintf("Explain OBD-II trouble code %s", code)
	if vehicle != nil {
		prompt += fmt.Sprintf(" for a %d %s %s", vehicle.Year, vehicle.Make, vehicle.Model)
	}
	prompt += `. Respond with JSON only, using keys: title, description, symptoms (array), causes (array), urgency (low|medium|high), cost_min (number), cost_max (number), category, recommendations (array).`

	text, err := p.completer.Complete(ctx, CompletionRequest{
		System:   "You are an automotive diagnostic expert. Answer with strict JSON.",
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil || text == "" {
		log.WithFields(log.Fields{"code": code}).WithError(err).
			Warn("Model explanation failed, using lookup table")
		return lookupCode(code)
	}

	var explanation CodeExplanation
	if err := json.Unmarshal([]byte(extractJSON(text)), &explanation); err == nil && explanation.Description != "" {
		if explanation.Urgency == "" {
			explanation.Urgency = "medium"
		}
		return explanation
	}

	// Parsing failed: fall back to naive line splitting of the free text.
	lines := strings.Split(strings.TrimSpace(text), "\n")
	explanation = genericExplanation(code)
	explanation.Title = strings.TrimSpace(lines[0])
	explanation.Description = strings.TrimSpace(text)
	return explanation
}

// extractJSON strips markdown fences and surrounding prose from a model
// answer, leaving the outermost JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// IsTroubleCode reports whether the input looks like an OBD trouble code.
func IsTroubleCode(s string) bool {
	return codePattern.MatchString(strings.TrimSpace(s))
}
