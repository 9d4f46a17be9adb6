// Package weather provides airport weather snapshots and the fixed-threshold
// suitability grading the diversion engine uses. Snapshots come from the
// aviationweather.gov METAR API or from whatever feed the caller supplies;
// the grading itself is a pure function over the snapshot.
package weather

import "time"

// Turbulence levels as reported for the terminal area.
const (
	TurbulenceNone     = "none"
	TurbulenceLight    = "light"
	TurbulenceModerate = "moderate"
	TurbulenceSevere   = "severe"
)

// Suitability grades for diversion weather.
type Suitability string

const (
	// SuitabilityGood indicates benign conditions for an unplanned arrival
	SuitabilityGood Suitability = "good"

	// SuitabilityMarginal indicates workable but degraded conditions
	SuitabilityMarginal Suitability = "marginal"

	// SuitabilityPoor indicates conditions that add real approach risk
	SuitabilityPoor Suitability = "poor"
)

// Snapshot is a point-in-time weather observation for one airport.
// Staleness policy belongs to whoever supplies the snapshot; the engine
// grades whatever it is given.
type Snapshot struct {
	// ICAO is the reporting airport's ICAO identifier
	ICAO string `json:"icao"`

	// VisibilitySM is the surface visibility in statute miles
	VisibilitySM float64 `json:"visibility_sm"`

	// WindSpeedKt is the sustained surface wind in knots
	WindSpeedKt float64 `json:"wind_speed_kt"`

	// WindGustKt is the gust speed in knots (0 if no gusts reported)
	WindGustKt float64 `json:"wind_gust_kt"`

	// WindDirDeg is the wind direction in degrees true
	WindDirDeg float64 `json:"wind_dir_deg"`

	// TempC is the surface temperature in Celsius
	TempC float64 `json:"temp_c"`

	// Turbulence is the reported terminal-area turbulence level
	// ("none", "light", "moderate", "severe")
	Turbulence string `json:"turbulence,omitempty"`

	// FlightCategory is the reported category (VFR, MVFR, IFR, LIFR)
	FlightCategory string `json:"flight_category,omitempty"`

	// RawMETAR is the raw observation text, kept for display
	RawMETAR string `json:"raw_metar,omitempty"`

	// ObservedAt is the observation time (UTC)
	ObservedAt time.Time `json:"observed_at"`
}

// Grade applies the fixed suitability thresholds to a snapshot:
//   - good: visibility > 5 sm and wind < 25 kt
//   - marginal: visibility > 3 sm and wind < 35 kt
//   - poor: everything else
//
// Severe turbulence grades poor outright; moderate turbulence caps the grade
// at marginal. Thresholds are intentionally coarse: this feeds a ranking, not
// an approach briefing.
func Grade(s Snapshot) Suitability {
	if s.Turbulence == TurbulenceSevere {
		return SuitabilityPoor
	}

	grade := SuitabilityPoor
	switch {
	case s.VisibilitySM > 5 && s.WindSpeedKt < 25:
		grade = SuitabilityGood
	case s.VisibilitySM > 3 && s.WindSpeedKt < 35:
		grade = SuitabilityMarginal
	}

	if grade == SuitabilityGood && s.Turbulence == TurbulenceModerate {
		grade = SuitabilityMarginal
	}

	return grade
}
