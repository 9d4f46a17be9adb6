package divert

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/performance"
	"github.com/skyops/divert/pkg/weather"
)

// criticalFuelMarginKg is the margin below which fuel reserves are flagged
// as a risk factor even though the candidate remains feasible.
const criticalFuelMarginKg = 2000

// EvaluateCandidate computes the full feasibility record for one candidate.
// snapshot may be nil when no weather observation is available for the
// airport; that grades as marginal with a risk factor, never a failure.
func EvaluateCandidate(
	aircraft AircraftState,
	airport AirportCandidate,
	emergency EmergencyContext,
	snapshot *weather.Snapshot,
	profile performance.Profile,
	costs CostModel,
) FeasibilityRecord {
	distance := geodesy.DistanceNM(aircraft.Position, airport.Position)
	flightTime := performance.FlightTimeHr(distance, profile)
	fuelRequired := performance.FuelRequiredKG(distance, profile)

	rec := FeasibilityRecord{
		DistanceNM:     distance,
		BearingDeg:     geodesy.BearingDeg(aircraft.Position, airport.Position),
		FlightTimeHr:   flightTime,
		FuelRequiredKg: fuelRequired,
		FuelMarginKg:   aircraft.FuelRemainingKg - fuelRequired,
		Runway:         gradeRunway(airport.RunwayLengthFt, profile.MinRunwayFt),
		Medical:        gradeMedical(airport, emergency),
		EstimatedCost:  costs.Estimate(distance, flightTime, aircraft.Passengers, emergency),
	}

	if snapshot != nil {
		rec.Weather = weather.Grade(*snapshot)
	} else {
		rec.Weather = weather.SuitabilityMarginal
	}

	rec.RiskFactors, rec.Advantages = applyRules(airport, emergency, rec, snapshot != nil)

	return rec
}

// gradeRunway grades runway length against the profile minimum.
// Incompatible candidates are already excluded by the generator but are
// re-graded here for display.
func gradeRunway(runwayFt, minRunwayFt float64) RunwayCompatibility {
	switch {
	case runwayFt >= minRunwayFt+2000:
		return RunwayExcellent
	case runwayFt >= minRunwayFt:
		return RunwayAdequate
	case runwayFt >= minRunwayFt-500:
		return RunwayMarginal
	default:
		return RunwayIncompatible
	}
}

// gradeMedical grades medical adequacy for the emergency at hand.
func gradeMedical(airport AirportCandidate, emergency EmergencyContext) MedicalAdequacy {
	switch {
	case airport.HasMedical && emergency.Category == CategoryMedical && airport.Operational24x7:
		return MedicalExcellent
	case airport.HasMedical:
		return MedicalGood
	default:
		return MedicalBasic
	}
}

// applyRules runs the deterministic risk/advantage rule table. Rules are
// additive and order-independent; output order is the insertion order of the
// table so results are reproducible.
func applyRules(airport AirportCandidate, emergency EmergencyContext, rec FeasibilityRecord, hasWeather bool) (risks, advantages []string) {
	risks = []string{}
	advantages = []string{}

	// Risk rules
	if rec.FuelMarginKg < 0 {
		risks = append(risks, "Insufficient fuel to reach airport")
	} else if rec.FuelMarginKg < criticalFuelMarginKg {
		risks = append(risks, "Critical fuel reserves")
	}
	if rec.Runway == RunwayMarginal {
		risks = append(risks, "Runway length marginal for aircraft type")
	}
	if rec.Weather == weather.SuitabilityPoor {
		risks = append(risks, "Severe weather conditions")
	}
	if !hasWeather {
		risks = append(risks, "No current weather data")
	}
	if emergency.Category == CategoryMedical && !airport.HasMedical {
		risks = append(risks, "No medical facilities for onboard emergency")
	}
	if !airport.Operational24x7 {
		risks = append(risks, "Airport not staffed around the clock")
	}

	// Advantage rules
	if rec.Runway == RunwayExcellent {
		advantages = append(advantages, "Long runway ensures safe operations")
	}
	if rec.Medical == MedicalExcellent {
		advantages = append(advantages, "Full medical support on field")
	}
	if rec.FuelMarginKg >= 0 && rec.Weather == weather.SuitabilityGood {
		advantages = append(advantages, "Favorable weather for approach")
	}
	if airport.HasFuel {
		advantages = append(advantages, "Fuel available for onward departure")
	}
	if emergency.Category == CategoryTechnical && airport.HasMaintenance {
		advantages = append(advantages, "Maintenance capability on field")
	}

	return risks, advantages
}

// EvaluateCandidates evaluates all candidates concurrently. Each candidate's
// record depends only on read-only inputs, so evaluation is embarrassingly
// parallel; the output slice is index-aligned with the input so ordering
// stays deterministic regardless of scheduling.
//
// A canceled context aborts the evaluation and discards partial results.
func EvaluateCandidates(
	ctx context.Context,
	aircraft AircraftState,
	candidates []AirportCandidate,
	emergency EmergencyContext,
	weatherByICAO map[string]weather.Snapshot,
	profile performance.Profile,
	costs CostModel,
) ([]FeasibilityRecord, error) {
	records := make([]FeasibilityRecord, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, airport := range candidates {
		i, airport := i, airport
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var snapshot *weather.Snapshot
			if snap, ok := weatherByICAO[airport.ICAO]; ok {
				snapshot = &snap
			}

			records[i] = EvaluateCandidate(aircraft, airport, emergency, snapshot, profile, costs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}
