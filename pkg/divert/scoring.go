package divert

import "sort"

// Score computes the weighted suitability score for one evaluated candidate:
//
//	score = medical_weight(adequacy)
//	      - distance / distance_divisor
//	      + fuel bonus (margin above threshold)
//	      + ops bonus (24/7 operations)
//	      + runway bonus (excellent compatibility)
//
// Scores are comparable only within a single ranking invocation.
func Score(airport AirportCandidate, rec FeasibilityRecord, weights ScoringWeights) float64 {
	score := weights.medicalWeight(rec.Medical)

	if weights.DistanceDivisor > 0 {
		score -= rec.DistanceNM / weights.DistanceDivisor
	}

	if rec.FuelMarginKg > weights.FuelMarginThresholdKg {
		score += weights.FuelBonus
	}
	if airport.Operational24x7 {
		score += weights.OpsBonus
	}
	if rec.Runway == RunwayExcellent {
		score += weights.RunwayBonus
	}

	return score
}

// Rank scores every candidate and returns the ordered ranked list.
//
// Ordering rules, in precedence:
//  1. Hard gate: feasible candidates (fuel margin >= 0) always order before
//     infeasible ones, regardless of raw score.
//  2. Descending score.
//  3. Ascending distance.
//  4. ICAO lexical order.
//
// The tie-breaks make the ordering fully deterministic so identical inputs
// always rank identically. candidates and records must be index-aligned.
func Rank(candidates []AirportCandidate, records []FeasibilityRecord, weights ScoringWeights) []RankedEntry {
	entries := make([]RankedEntry, len(candidates))
	for i, airport := range candidates {
		entries[i] = RankedEntry{
			Airport:     airport,
			Feasibility: records[i],
			Score:       Score(airport, records[i], weights),
			Feasible:    records[i].Feasible(),
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if a.Feasible != b.Feasible {
			return a.Feasible
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Feasibility.DistanceNM != b.Feasibility.DistanceNM {
			return a.Feasibility.DistanceNM < b.Feasibility.DistanceNM
		}
		return a.Airport.ICAO < b.Airport.ICAO
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
