// Package divert implements the diversion decision engine: given an aircraft
// state and an emergency, it filters an airport registry to reachable
// candidates, computes flight-physics feasibility for each, ranks them under
// a weighted multi-criteria score, and assembles a structured recommendation.
//
// Every invocation is a pure function of its inputs plus the read-only
// registry and weather snapshots supplied by the caller. The engine holds no
// mutable shared state; concurrent ranking calls for different aircraft need
// no coordination.
package divert

import (
	"errors"
	"fmt"

	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/weather"
)

// Emergency categories.
type EmergencyCategory string

const (
	CategoryMedical   EmergencyCategory = "medical"
	CategoryTechnical EmergencyCategory = "technical"
	CategoryFuel      EmergencyCategory = "fuel"
	CategorySecurity  EmergencyCategory = "security"
	CategoryWeather   EmergencyCategory = "weather"
)

// Emergency severities.
type Severity string

const (
	SeverityRoutine  Severity = "routine"
	SeveritySerious  Severity = "serious"
	SeverityCritical Severity = "critical"
)

// EmergencyContext classifies the event that triggered the diversion
// request. Immutable per request.
type EmergencyContext struct {
	// Category is the broad class of emergency
	Category EmergencyCategory `json:"category"`

	// Severity grades the urgency
	Severity Severity `json:"severity"`

	// Condition is the specific condition for medical events (e.g.
	// "cardiac", "stroke", "trauma"); keys the compensation cost tier
	Condition string `json:"condition,omitempty"`

	// Reason is free text describing the event
	Reason string `json:"reason,omitempty"`
}

// AircraftState is an immutable snapshot of the aircraft at the moment the
// decision is requested. The engine never mutates it.
type AircraftState struct {
	// Position is the current geographic position
	Position geodesy.Position `json:"position"`

	// AltitudeFt is the current altitude in feet
	AltitudeFt float64 `json:"altitude_ft"`

	// GroundSpeedKt is the current ground speed in knots
	GroundSpeedKt float64 `json:"ground_speed_kt"`

	// HeadingDeg is the current heading in degrees
	HeadingDeg float64 `json:"heading_deg"`

	// AircraftType is the ICAO type designator (e.g., "B789")
	AircraftType string `json:"aircraft_type"`

	// FuelRemainingKg is the usable fuel on board in kilograms
	FuelRemainingKg float64 `json:"fuel_remaining_kg"`

	// FuelFlowKgHr is the current fuel flow in kilograms per hour
	FuelFlowKgHr float64 `json:"fuel_flow_kg_hr"`

	// Passengers is the number of souls on board excluding crew
	Passengers int `json:"passengers"`
}

// AirportCandidate is one airport registry entry, supplied externally and
// read-only to the engine.
type AirportCandidate struct {
	ICAO    string `json:"icao"`
	IATA    string `json:"iata,omitempty"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`

	// Position is the airport reference point
	Position geodesy.Position `json:"position"`

	// RunwayLengthFt is the longest available runway in feet
	RunwayLengthFt float64 `json:"runway_length_ft"`

	// HasFuel indicates fuel uplift is available
	HasFuel bool `json:"has_fuel"`

	// HasMedical indicates medical facilities on or adjacent to the field
	HasMedical bool `json:"has_medical"`

	// Operational24x7 indicates round-the-clock operations
	Operational24x7 bool `json:"operational_24_7"`

	// HasMaintenance indicates line maintenance capability
	HasMaintenance bool `json:"has_maintenance"`
}

// Runway compatibility grades, re-graded for display even though the
// generator has already excluded incompatible runways.
type RunwayCompatibility string

const (
	RunwayExcellent    RunwayCompatibility = "excellent"
	RunwayAdequate     RunwayCompatibility = "adequate"
	RunwayMarginal     RunwayCompatibility = "marginal"
	RunwayIncompatible RunwayCompatibility = "incompatible"
)

// Medical adequacy grades.
type MedicalAdequacy string

const (
	MedicalExcellent MedicalAdequacy = "excellent"
	MedicalGood      MedicalAdequacy = "good"
	MedicalBasic     MedicalAdequacy = "basic"
	MedicalNone      MedicalAdequacy = "none"
)

// FeasibilityRecord holds the derived per-candidate metrics. Computed fresh
// per request and never cached across requests, since the aircraft state
// changes continuously.
type FeasibilityRecord struct {
	// DistanceNM is the great-circle distance to the candidate
	DistanceNM float64 `json:"distance_nm"`

	// BearingDeg is the initial bearing to the candidate (informational)
	BearingDeg float64 `json:"bearing_deg"`

	// FlightTimeHr is the estimated time enroute at cruise speed
	FlightTimeHr float64 `json:"flight_time_hr"`

	// FuelRequiredKg is the estimated burn to reach the candidate
	FuelRequiredKg float64 `json:"fuel_required_kg"`

	// FuelMarginKg is fuel remaining minus fuel required; negative means
	// the candidate cannot be reached
	FuelMarginKg float64 `json:"fuel_margin_kg"`

	// Runway is the graded runway compatibility
	Runway RunwayCompatibility `json:"runway_compatibility"`

	// Medical is the graded medical adequacy
	Medical MedicalAdequacy `json:"medical_adequacy"`

	// Weather is the graded weather suitability
	Weather weather.Suitability `json:"weather_suitability"`

	// EstimatedCost is the estimated total diversion cost in currency units
	EstimatedCost float64 `json:"estimated_total_cost"`

	// RiskFactors lists the triggered risk rules, in rule-table order
	RiskFactors []string `json:"risk_factors"`

	// Advantages lists the triggered advantage rules, in rule-table order
	Advantages []string `json:"advantages"`
}

// Feasible reports whether the candidate can be reached with fuel to spare.
func (r FeasibilityRecord) Feasible() bool {
	return r.FuelMarginKg >= 0
}

// RankedEntry pairs a candidate with its feasibility record and score.
type RankedEntry struct {
	// Rank is 1-based; score is monotonically non-increasing by rank
	// within feasible entries
	Rank int `json:"rank"`

	Airport     AirportCandidate  `json:"airport"`
	Feasibility FeasibilityRecord `json:"feasibility"`

	// Score is the suitability score; comparable only within a single
	// ranking invocation
	Score float64 `json:"suitability_score"`

	// Feasible mirrors Feasibility.Feasible() for consumers of the
	// serialized payload
	Feasible bool `json:"feasible"`
}

// Result statuses.
type Status string

const (
	// StatusRecommended means a primary recommendation was produced
	StatusRecommended Status = "recommended"

	// StatusNoFeasibleDiversion means no candidate met the hard
	// constraints. This is an expected operational outcome crews must be
	// informed of, not an error.
	StatusNoFeasibleDiversion Status = "no_feasible_diversion"
)

// DiversionResult is the engine's output contract.
type DiversionResult struct {
	Status Status `json:"status"`

	// Primary is the top-ranked feasible candidate, or nil when none is
	// feasible (an explicitly reported state, never silently defaulted)
	Primary *RankedEntry `json:"primary,omitempty"`

	// Alternatives are the remaining top-N entries, including infeasible
	// candidates marked as such
	Alternatives []RankedEntry `json:"alternatives"`

	// Ranked is the full ranked list, retained for auditing
	Ranked []RankedEntry `json:"ranked"`

	// NearestOption is the minimum-distance candidate regardless of score
	NearestOption *RankedEntry `json:"nearest_option,omitempty"`

	// BestMedical is the top-ranked candidate with excellent medical
	// adequacy, if any
	BestMedical *RankedEntry `json:"best_medical,omitempty"`

	// LowestCost is the minimum estimated-cost candidate
	LowestCost *RankedEntry `json:"lowest_cost,omitempty"`

	// DecisionConfidence is derived from the score gap between rank 1 and
	// rank 2; 0 when there is no primary
	DecisionConfidence float64 `json:"decision_confidence"`

	// EvaluatedCount is the number of candidates that passed generation
	// and were evaluated
	EvaluatedCount int `json:"evaluated_count"`

	// Warnings carries degraded-confidence notes (e.g. unknown aircraft
	// type fell back to the default profile)
	Warnings []string `json:"warnings,omitempty"`
}

// ErrInvalidInput is the sentinel for malformed input: the only condition
// that prevents a result from being produced.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports which field was malformed. It matches
// ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
