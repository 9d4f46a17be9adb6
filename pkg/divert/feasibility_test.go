package divert

import (
	"context"
	"math"
	"testing"

	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/performance"
	"github.com/skyops/divert/pkg/weather"
)

// TestGradeRunway tests runway compatibility boundaries.
func TestGradeRunway(t *testing.T) {
	const minRunway = 7500.0

	cases := []struct {
		name   string
		runway float64
		want   RunwayCompatibility
	}{
		{"Well above minimum", 11000, RunwayExcellent},
		{"Exactly min plus 2000", 9500, RunwayExcellent},
		{"Just under excellent", 9499, RunwayAdequate},
		{"Exactly minimum", 7500, RunwayAdequate},
		{"Within 500 below", 7200, RunwayMarginal},
		{"Exactly 500 below", 7000, RunwayMarginal},
		{"Below marginal band", 6999, RunwayIncompatible},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := gradeRunway(c.runway, minRunway); got != c.want {
				t.Errorf("gradeRunway(%f): expected %s, got %s", c.runway, c.want, got)
			}
		})
	}
}

// TestGradeMedical tests medical adequacy grading.
func TestGradeMedical(t *testing.T) {
	t.Run("Excellent needs medical, medical emergency, and 24/7", func(t *testing.T) {
		airport := AirportCandidate{HasMedical: true, Operational24x7: true}
		emergency := EmergencyContext{Category: CategoryMedical}

		if got := gradeMedical(airport, emergency); got != MedicalExcellent {
			t.Errorf("Expected excellent, got %s", got)
		}
	})

	t.Run("Medical facility without medical emergency is good", func(t *testing.T) {
		airport := AirportCandidate{HasMedical: true, Operational24x7: true}
		emergency := EmergencyContext{Category: CategoryTechnical}

		if got := gradeMedical(airport, emergency); got != MedicalGood {
			t.Errorf("Expected good, got %s", got)
		}
	})

	t.Run("Medical facility without 24/7 is good", func(t *testing.T) {
		airport := AirportCandidate{HasMedical: true}
		emergency := EmergencyContext{Category: CategoryMedical}

		if got := gradeMedical(airport, emergency); got != MedicalGood {
			t.Errorf("Expected good, got %s", got)
		}
	})

	t.Run("No medical facility is basic", func(t *testing.T) {
		if got := gradeMedical(AirportCandidate{}, EmergencyContext{}); got != MedicalBasic {
			t.Errorf("Expected basic, got %s", got)
		}
	})
}

// TestEvaluateCandidate tests derived metrics for a single candidate.
func TestEvaluateCandidate(t *testing.T) {
	// Aircraft at the equator, airport one degree north (~60 nm)
	aircraft := AircraftState{
		Position:        geodesy.Position{Latitude: 0, Longitude: 0},
		FuelRemainingKg: 10000,
		Passengers:      200,
	}
	airport := AirportCandidate{
		ICAO:            "TEST",
		Position:        geodesy.Position{Latitude: 1, Longitude: 0},
		RunwayLengthFt:  10000,
		HasMedical:      true,
		Operational24x7: true,
		HasFuel:         true,
	}
	emergency := EmergencyContext{Category: CategoryMedical, Severity: SeverityCritical, Condition: "cardiac"}
	profile := performance.Profile{CruiseSpeedKt: 480, FuelFlowKgHr: 2400, MinRunwayFt: 7500}
	costs := DefaultCostModel()

	t.Run("Distance, time, and fuel", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		wantDist := geodesy.EarthRadiusNM * geodesy.DegreesToRadians
		if math.Abs(rec.DistanceNM-wantDist) > 0.01 {
			t.Errorf("Expected distance %f, got %f", wantDist, rec.DistanceNM)
		}

		wantTime := wantDist / 480
		if math.Abs(rec.FlightTimeHr-wantTime) > 0.0001 {
			t.Errorf("Expected flight time %f, got %f", wantTime, rec.FlightTimeHr)
		}

		wantFuel := wantTime * 2400
		if math.Abs(rec.FuelRequiredKg-wantFuel) > 0.01 {
			t.Errorf("Expected fuel %f, got %f", wantFuel, rec.FuelRequiredKg)
		}

		wantMargin := 10000 - wantFuel
		if math.Abs(rec.FuelMarginKg-wantMargin) > 0.01 {
			t.Errorf("Expected margin %f, got %f", wantMargin, rec.FuelMarginKg)
		}
	})

	t.Run("Grades", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if rec.Runway != RunwayExcellent {
			t.Errorf("Expected excellent runway (10000 vs 7500 min), got %s", rec.Runway)
		}
		if rec.Medical != MedicalExcellent {
			t.Errorf("Expected excellent medical, got %s", rec.Medical)
		}
	})

	t.Run("Missing weather grades marginal with risk factor", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if rec.Weather != weather.SuitabilityMarginal {
			t.Errorf("Expected marginal weather without snapshot, got %s", rec.Weather)
		}
		if !contains(rec.RiskFactors, "No current weather data") {
			t.Errorf("Expected missing-weather risk factor, got %v", rec.RiskFactors)
		}
	})

	t.Run("Good weather snapshot grades good", func(t *testing.T) {
		snap := &weather.Snapshot{VisibilitySM: 10, WindSpeedKt: 8}
		rec := EvaluateCandidate(aircraft, airport, emergency, snap, profile, costs)

		if rec.Weather != weather.SuitabilityGood {
			t.Errorf("Expected good weather, got %s", rec.Weather)
		}
		if !contains(rec.Advantages, "Favorable weather for approach") {
			t.Errorf("Expected weather advantage, got %v", rec.Advantages)
		}
	})

	t.Run("Cost estimate components", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		wantFuelCost := rec.DistanceNM * costs.FuelPricePerNM
		wantDelayCost := rec.FlightTimeHr * 60 * 200 * costs.DelayPerPassengerMinute
		want := wantFuelCost + wantDelayCost + 125000 /* cardiac */ + costs.CrewCost + costs.LandingFee

		if math.Abs(rec.EstimatedCost-want) > 0.01 {
			t.Errorf("Expected cost %f, got %f", want, rec.EstimatedCost)
		}
	})

	t.Run("Advantages include runway and medical and fuel", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if !contains(rec.Advantages, "Long runway ensures safe operations") {
			t.Errorf("Expected runway advantage, got %v", rec.Advantages)
		}
		if !contains(rec.Advantages, "Full medical support on field") {
			t.Errorf("Expected medical advantage, got %v", rec.Advantages)
		}
		if !contains(rec.Advantages, "Fuel available for onward departure") {
			t.Errorf("Expected fuel advantage, got %v", rec.Advantages)
		}
	})
}

// TestRiskRules tests the deterministic risk rule table.
func TestRiskRules(t *testing.T) {
	aircraft := AircraftState{
		Position:        geodesy.Position{Latitude: 0, Longitude: 0},
		FuelRemainingKg: 1000,
	}
	airport := AirportCandidate{
		ICAO:           "RISK",
		Position:       geodesy.Position{Latitude: 1, Longitude: 0},
		RunwayLengthFt: 7200,
	}
	emergency := EmergencyContext{Category: CategoryMedical, Severity: SeverityCritical}
	profile := performance.Profile{CruiseSpeedKt: 480, FuelFlowKgHr: 2400, MinRunwayFt: 7500}
	costs := DefaultCostModel()

	t.Run("Critical fuel reserves", func(t *testing.T) {
		// ~60 nm burns ~300 kg, leaving ~700 kg margin
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if rec.FuelMarginKg < 0 || rec.FuelMarginKg >= criticalFuelMarginKg {
			t.Fatalf("Test setup wrong: margin %f not in critical band", rec.FuelMarginKg)
		}
		if !contains(rec.RiskFactors, "Critical fuel reserves") {
			t.Errorf("Expected critical fuel risk, got %v", rec.RiskFactors)
		}
	})

	t.Run("Negative margin risk replaces critical fuel", func(t *testing.T) {
		dry := aircraft
		dry.FuelRemainingKg = 100
		rec := EvaluateCandidate(dry, airport, emergency, nil, profile, costs)

		if rec.FuelMarginKg >= 0 {
			t.Fatalf("Test setup wrong: expected negative margin, got %f", rec.FuelMarginKg)
		}
		if !contains(rec.RiskFactors, "Insufficient fuel to reach airport") {
			t.Errorf("Expected insufficient-fuel risk, got %v", rec.RiskFactors)
		}
		if contains(rec.RiskFactors, "Critical fuel reserves") {
			t.Errorf("Did not expect critical-fuel risk alongside insufficient fuel")
		}
	})

	t.Run("Marginal runway and no medical for medical emergency", func(t *testing.T) {
		rec := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if !contains(rec.RiskFactors, "Runway length marginal for aircraft type") {
			t.Errorf("Expected marginal runway risk, got %v", rec.RiskFactors)
		}
		if !contains(rec.RiskFactors, "No medical facilities for onboard emergency") {
			t.Errorf("Expected no-medical risk, got %v", rec.RiskFactors)
		}
		if !contains(rec.RiskFactors, "Airport not staffed around the clock") {
			t.Errorf("Expected staffing risk, got %v", rec.RiskFactors)
		}
	})

	t.Run("Severe weather", func(t *testing.T) {
		snap := &weather.Snapshot{VisibilitySM: 1, WindSpeedKt: 45}
		rec := EvaluateCandidate(aircraft, airport, emergency, snap, profile, costs)

		if !contains(rec.RiskFactors, "Severe weather conditions") {
			t.Errorf("Expected severe weather risk, got %v", rec.RiskFactors)
		}
	})

	t.Run("Rule output order is stable", func(t *testing.T) {
		a := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)
		b := EvaluateCandidate(aircraft, airport, emergency, nil, profile, costs)

		if len(a.RiskFactors) != len(b.RiskFactors) {
			t.Fatal("Expected identical risk lists")
		}
		for i := range a.RiskFactors {
			if a.RiskFactors[i] != b.RiskFactors[i] {
				t.Errorf("Risk order differs at %d: %s vs %s", i, a.RiskFactors[i], b.RiskFactors[i])
			}
		}
	})
}

// TestEvaluateCandidates tests the concurrent evaluation stage.
func TestEvaluateCandidates(t *testing.T) {
	aircraft := AircraftState{
		Position:        geodesy.Position{Latitude: 0, Longitude: 0},
		FuelRemainingKg: 50000,
	}
	emergency := EmergencyContext{Category: CategoryTechnical, Severity: SeveritySerious}
	profile := performance.DefaultProfile
	costs := DefaultCostModel()

	candidates := []AirportCandidate{
		{ICAO: "AAAA", Position: geodesy.Position{Latitude: 1, Longitude: 0}, RunwayLengthFt: 9000},
		{ICAO: "BBBB", Position: geodesy.Position{Latitude: 2, Longitude: 0}, RunwayLengthFt: 10000},
		{ICAO: "CCCC", Position: geodesy.Position{Latitude: 3, Longitude: 0}, RunwayLengthFt: 11000},
	}

	t.Run("Records are index-aligned with candidates", func(t *testing.T) {
		records, err := EvaluateCandidates(context.Background(), aircraft, candidates, emergency, nil, profile, costs)
		if err != nil {
			t.Fatalf("EvaluateCandidates failed: %v", err)
		}

		if len(records) != len(candidates) {
			t.Fatalf("Expected %d records, got %d", len(candidates), len(records))
		}

		// Distances must increase with latitude offset
		if !(records[0].DistanceNM < records[1].DistanceNM && records[1].DistanceNM < records[2].DistanceNM) {
			t.Errorf("Expected increasing distances, got %f %f %f",
				records[0].DistanceNM, records[1].DistanceNM, records[2].DistanceNM)
		}
	})

	t.Run("Weather map is matched by ICAO", func(t *testing.T) {
		wx := map[string]weather.Snapshot{
			"BBBB": {VisibilitySM: 10, WindSpeedKt: 5},
		}
		records, err := EvaluateCandidates(context.Background(), aircraft, candidates, emergency, wx, profile, costs)
		if err != nil {
			t.Fatalf("EvaluateCandidates failed: %v", err)
		}

		if records[1].Weather != weather.SuitabilityGood {
			t.Errorf("Expected good weather for BBBB, got %s", records[1].Weather)
		}
		if records[0].Weather != weather.SuitabilityMarginal {
			t.Errorf("Expected marginal weather for AAAA (no data), got %s", records[0].Weather)
		}
	})

	t.Run("Cancellation discards partial results", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		records, err := EvaluateCandidates(ctx, aircraft, candidates, emergency, nil, profile, costs)
		if err == nil {
			t.Error("Expected cancellation error")
		}
		if records != nil {
			t.Error("Expected nil records on cancellation")
		}
	})
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
