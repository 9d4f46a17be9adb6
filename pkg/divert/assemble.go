package divert

import (
	"context"
	"fmt"

	"github.com/skyops/divert/pkg/performance"
	"github.com/skyops/divert/pkg/weather"
)

// DefaultTopN is the default number of entries in the recommendation
// payload (primary plus alternatives). The full ranked list is retained
// separately for auditing.
const DefaultTopN = 5

// Confidence bounds for the rank-1/rank-2 score-gap heuristic.
const (
	confidenceFloor = 0.5
	confidenceCeil  = 0.98

	// confidenceGapScale maps score gap to confidence: a 24-point gap
	// (roughly one full criterion bonus plus change) saturates the scale
	confidenceGapScale = 50.0

	// soleOptionConfidence applies when exactly one feasible candidate
	// exists: there is no runner-up to compare against
	soleOptionConfidence = 0.75
)

// Engine holds the immutable per-deployment configuration for ranking
// diversions. The zero value is not usable; construct with NewEngine.
// Engines are safe for concurrent use: every invocation is a pure function
// of its inputs.
type Engine struct {
	weights        ScoringWeights
	costs          CostModel
	searchRadiusNM float64
	topN           int
}

// EngineConfig configures an Engine. Zero fields fall back to defaults.
type EngineConfig struct {
	Weights        ScoringWeights
	Costs          CostModel
	SearchRadiusNM float64
	TopN           int
}

// NewEngine creates a diversion engine with the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Weights == (ScoringWeights{}) {
		cfg.Weights = DefaultScoringWeights()
	}
	if cfg.Costs.FuelPricePerNM == 0 && cfg.Costs.CompensationByCondition == nil {
		cfg.Costs = DefaultCostModel()
	}
	if cfg.SearchRadiusNM <= 0 {
		cfg.SearchRadiusNM = DefaultSearchRadiusNM
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}

	return &Engine{
		weights:        cfg.Weights,
		costs:          cfg.Costs,
		searchRadiusNM: cfg.SearchRadiusNM,
		topN:           cfg.TopN,
	}
}

// Weights returns the engine's scoring weights.
func (e *Engine) Weights() ScoringWeights { return e.weights }

// Costs returns the engine's cost model.
func (e *Engine) Costs() CostModel { return e.costs }

// SearchRadiusNM returns the engine's candidate search radius.
func (e *Engine) SearchRadiusNM() float64 { return e.searchRadiusNM }

// RankDiversions runs the full decision pipeline for one request:
// candidate generation, feasibility evaluation, ranking, and assembly.
//
// An empty registry or zero surviving candidates produces a
// StatusNoFeasibleDiversion result, never an error. The only failure modes
// are malformed input (ErrInvalidInput) and context cancellation.
func (e *Engine) RankDiversions(
	ctx context.Context,
	aircraft AircraftState,
	emergency EmergencyContext,
	registry []AirportCandidate,
	weatherByICAO map[string]weather.Snapshot,
) (*DiversionResult, error) {
	if err := validateInput(aircraft); err != nil {
		return nil, err
	}

	result := &DiversionResult{
		Status:       StatusNoFeasibleDiversion,
		Alternatives: []RankedEntry{},
		Ranked:       []RankedEntry{},
	}

	profile, known := performance.Lookup(aircraft.AircraftType)
	if !known {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown aircraft type %q: using default performance profile (%s class)",
				aircraft.AircraftType, performance.DefaultProfile.Type))
	}

	candidates := GenerateCandidates(aircraft.Position, registry, e.searchRadiusNM, profile)
	if len(candidates) == 0 {
		return result, nil
	}

	records, err := EvaluateCandidates(ctx, aircraft, candidates, emergency, weatherByICAO, profile, e.costs)
	if err != nil {
		return nil, err
	}

	// Cancellation point between evaluation and ranking: a superseded
	// request discards partial results here.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := Rank(candidates, records, e.weights)

	result.Ranked = ranked
	result.EvaluatedCount = len(ranked)
	e.assemble(result, ranked)

	return result, nil
}

// assemble fills the recommendation fields from the ranked list.
func (e *Engine) assemble(result *DiversionResult, ranked []RankedEntry) {
	// Hard gate: an infeasible candidate is never primary, even when it
	// is the only candidate generated.
	if ranked[0].Feasible {
		primary := ranked[0]
		result.Primary = &primary
		result.Status = StatusRecommended
		result.DecisionConfidence = e.confidence(ranked)
	}

	// The recommendation payload is the top-N slice of the ranked list;
	// primary (when present) is its head and alternatives the rest.
	payload := ranked
	if len(payload) > e.topN {
		payload = payload[:e.topN]
	}
	if result.Primary != nil {
		payload = payload[1:]
	}
	result.Alternatives = append([]RankedEntry{}, payload...)

	result.NearestOption = pickEntry(ranked, func(a, b RankedEntry) bool {
		return a.Feasibility.DistanceNM < b.Feasibility.DistanceNM
	})
	result.LowestCost = pickEntry(ranked, func(a, b RankedEntry) bool {
		return a.Feasibility.EstimatedCost < b.Feasibility.EstimatedCost
	})

	for i := range ranked {
		if ranked[i].Feasibility.Medical == MedicalExcellent {
			best := ranked[i]
			result.BestMedical = &best
			break
		}
	}
}

// confidence derives the decision confidence from the score gap between
// rank 1 and rank 2: a wider gap means the primary stands out more clearly.
// Clamped to [confidenceFloor, confidenceCeil]. With a single feasible
// candidate there is no runner-up to compare, so a fixed moderate value
// applies.
func (e *Engine) confidence(ranked []RankedEntry) float64 {
	if len(ranked) < 2 || !ranked[1].Feasible {
		return soleOptionConfidence
	}

	gap := ranked[0].Score - ranked[1].Score
	conf := confidenceFloor + gap/confidenceGapScale
	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	if conf > confidenceCeil {
		conf = confidenceCeil
	}
	return conf
}

// pickEntry returns a copy of the minimum entry under less, breaking ties by
// ICAO so the choice is deterministic.
func pickEntry(ranked []RankedEntry, less func(a, b RankedEntry) bool) *RankedEntry {
	if len(ranked) == 0 {
		return nil
	}

	best := ranked[0]
	for _, entry := range ranked[1:] {
		if less(entry, best) {
			best = entry
		} else if !less(best, entry) && entry.Airport.ICAO < best.Airport.ICAO {
			best = entry
		}
	}
	return &best
}

// validateInput rejects malformed requests before any computation. This is
// the only case that prevents a result from being produced; all business
// edge cases (empty registry, unknown types) degrade to inspectable result
// fields instead.
func validateInput(aircraft AircraftState) error {
	if !aircraft.Position.Valid() {
		return &InvalidInputError{Field: "position", Reason: "coordinates out of range or not finite"}
	}
	if aircraft.FuelRemainingKg < 0 {
		return &InvalidInputError{Field: "fuel_remaining_kg", Reason: "must not be negative"}
	}
	if aircraft.FuelFlowKgHr < 0 {
		return &InvalidInputError{Field: "fuel_flow_kg_hr", Reason: "must not be negative"}
	}
	if aircraft.Passengers < 0 {
		return &InvalidInputError{Field: "passengers", Reason: "must not be negative"}
	}
	return nil
}
