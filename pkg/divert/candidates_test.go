package divert

import (
	"testing"

	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/performance"
)

// testRegistry builds a small registry around a reference point.
// Latitude offsets are in degrees; one degree is roughly 60 nm.
func testRegistry() []AirportCandidate {
	return []AirportCandidate{
		{
			ICAO:           "KLAX",
			Name:           "Los Angeles Intl",
			Position:       geodesy.Position{Latitude: 33.9416, Longitude: -118.4085},
			RunwayLengthFt: 12091,
			HasFuel:        true,
			HasMedical:     true,
			Operational24x7: true,
		},
		{
			ICAO:           "KSBA",
			Name:           "Santa Barbara Muni",
			Position:       geodesy.Position{Latitude: 34.4262, Longitude: -119.8415},
			RunwayLengthFt: 6052,
			HasFuel:        true,
		},
		{
			ICAO:           "KDEN",
			Name:           "Denver Intl",
			Position:       geodesy.Position{Latitude: 39.8561, Longitude: -104.6737},
			RunwayLengthFt: 16000,
			HasFuel:        true,
			HasMedical:     true,
			Operational24x7: true,
		},
	}
}

// TestGenerateCandidates tests the hard filters.
func TestGenerateCandidates(t *testing.T) {
	position := geodesy.Position{Latitude: 34.0522, Longitude: -118.2437}
	profile := performance.Profile{CruiseSpeedKt: 485, FuelFlowKgHr: 2400, MinRunwayFt: 7500}

	t.Run("Radius filter excludes distant airports", func(t *testing.T) {
		// KDEN is ~750 nm from downtown LA
		candidates := GenerateCandidates(position, testRegistry(), 500, profile)

		for _, c := range candidates {
			if c.ICAO == "KDEN" {
				t.Error("Expected KDEN excluded by 500 nm radius")
			}
		}
	})

	t.Run("Runway filter is binary", func(t *testing.T) {
		// KSBA's 6052 ft runway is below the 7500 ft minimum
		candidates := GenerateCandidates(position, testRegistry(), 500, profile)

		for _, c := range candidates {
			if c.ICAO == "KSBA" {
				t.Error("Expected KSBA excluded by runway minimum")
			}
		}
	})

	t.Run("Qualifying airport survives", func(t *testing.T) {
		candidates := GenerateCandidates(position, testRegistry(), 500, profile)

		if len(candidates) != 1 {
			t.Fatalf("Expected 1 candidate, got %d", len(candidates))
		}
		if candidates[0].ICAO != "KLAX" {
			t.Errorf("Expected KLAX, got %s", candidates[0].ICAO)
		}
	})

	t.Run("Wider radius admits more", func(t *testing.T) {
		candidates := GenerateCandidates(position, testRegistry(), 1000, profile)

		if len(candidates) != 2 {
			t.Fatalf("Expected KLAX and KDEN within 1000 nm, got %d candidates", len(candidates))
		}
	})

	t.Run("No match returns empty slice not nil error", func(t *testing.T) {
		small := performance.Profile{MinRunwayFt: 20000}
		candidates := GenerateCandidates(position, testRegistry(), 500, small)

		if candidates == nil {
			t.Fatal("Expected empty slice, got nil")
		}
		if len(candidates) != 0 {
			t.Errorf("Expected 0 candidates, got %d", len(candidates))
		}
	})

	t.Run("Zero radius falls back to default", func(t *testing.T) {
		candidates := GenerateCandidates(position, testRegistry(), 0, profile)

		// Default 500 nm: same result as the explicit 500 nm case
		if len(candidates) != 1 || candidates[0].ICAO != "KLAX" {
			t.Errorf("Expected default radius to behave like 500 nm")
		}
	})

	t.Run("Empty registry yields empty result", func(t *testing.T) {
		candidates := GenerateCandidates(position, nil, 500, profile)
		if len(candidates) != 0 {
			t.Errorf("Expected 0 candidates from empty registry, got %d", len(candidates))
		}
	})
}
