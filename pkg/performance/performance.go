// Package performance provides per-type aircraft performance profiles used
// for diversion feasibility math: cruise speed, fuel flow, and minimum runway
// length.
//
// The fuel model is a deliberate simplification: constant cruise speed and
// fuel flow, ignoring climb and descent phases. Diversion ranking needs to be
// responsive rather than flight-plan accurate, and the error is small over
// typical diversion distances.
package performance

// Profile holds the performance numbers for one aircraft type.
type Profile struct {
	// Type is the ICAO aircraft type designator (e.g., "B789")
	Type string `json:"type"`

	// CruiseSpeedKt is the typical cruise ground speed in knots
	CruiseSpeedKt float64 `json:"cruise_speed_kt"`

	// FuelFlowKgHr is the typical cruise fuel flow in kilograms per hour
	FuelFlowKgHr float64 `json:"fuel_flow_kg_hr"`

	// MinRunwayFt is the minimum runway length in feet for a safe landing
	MinRunwayFt float64 `json:"min_runway_ft"`
}

// DefaultProfile is the fallback used for unknown aircraft types: a 787-9
// class widebody. A diversion decision must never hard-fail on a missing
// lookup during an emergency, so unknown types degrade to this profile and
// the caller surfaces a reduced-confidence warning instead.
var DefaultProfile = Profile{
	Type:          "B789",
	CruiseSpeedKt: 485,
	FuelFlowKgHr:  2400,
	MinRunwayFt:   7500,
}

// profiles maps ICAO type designators to performance profiles.
// Values are typical published cruise figures, not certified data.
var profiles = map[string]Profile{
	"B738": {Type: "B738", CruiseSpeedKt: 450, FuelFlowKgHr: 2600, MinRunwayFt: 6500},
	"B38M": {Type: "B38M", CruiseSpeedKt: 453, FuelFlowKgHr: 2350, MinRunwayFt: 6500},
	"B744": {Type: "B744", CruiseSpeedKt: 500, FuelFlowKgHr: 10500, MinRunwayFt: 9500},
	"B748": {Type: "B748", CruiseSpeedKt: 503, FuelFlowKgHr: 9800, MinRunwayFt: 9500},
	"B772": {Type: "B772", CruiseSpeedKt: 490, FuelFlowKgHr: 6800, MinRunwayFt: 8500},
	"B77W": {Type: "B77W", CruiseSpeedKt: 490, FuelFlowKgHr: 7500, MinRunwayFt: 9000},
	"B788": {Type: "B788", CruiseSpeedKt: 485, FuelFlowKgHr: 2200, MinRunwayFt: 7000},
	"B789": DefaultProfile,
	"A319": {Type: "A319", CruiseSpeedKt: 447, FuelFlowKgHr: 2300, MinRunwayFt: 6000},
	"A320": {Type: "A320", CruiseSpeedKt: 447, FuelFlowKgHr: 2500, MinRunwayFt: 6500},
	"A20N": {Type: "A20N", CruiseSpeedKt: 450, FuelFlowKgHr: 2200, MinRunwayFt: 6500},
	"A321": {Type: "A321", CruiseSpeedKt: 447, FuelFlowKgHr: 2800, MinRunwayFt: 7000},
	"A332": {Type: "A332", CruiseSpeedKt: 470, FuelFlowKgHr: 5600, MinRunwayFt: 8000},
	"A333": {Type: "A333", CruiseSpeedKt: 470, FuelFlowKgHr: 5900, MinRunwayFt: 8200},
	"A359": {Type: "A359", CruiseSpeedKt: 488, FuelFlowKgHr: 5800, MinRunwayFt: 8200},
	"A35K": {Type: "A35K", CruiseSpeedKt: 488, FuelFlowKgHr: 6500, MinRunwayFt: 8800},
	"A388": {Type: "A388", CruiseSpeedKt: 490, FuelFlowKgHr: 11500, MinRunwayFt: 9800},
	"E190": {Type: "E190", CruiseSpeedKt: 447, FuelFlowKgHr: 1700, MinRunwayFt: 5500},
}

// Lookup returns the performance profile for an aircraft type.
// Unknown types return DefaultProfile with known=false so the caller can
// flag reduced-confidence output; the lookup itself never fails.
func Lookup(aircraftType string) (profile Profile, known bool) {
	if p, ok := profiles[aircraftType]; ok {
		return p, true
	}
	return DefaultProfile, false
}

// KnownTypes returns the list of aircraft types with explicit profiles.
// Useful for config validation and TUI pickers; order is unspecified.
func KnownTypes() []string {
	types := make([]string, 0, len(profiles))
	for t := range profiles {
		types = append(types, t)
	}
	return types
}

// FuelRequiredKG estimates the fuel needed to fly a distance at cruise.
// fuel = (distance / cruise speed) * fuel flow
func FuelRequiredKG(distanceNM float64, profile Profile) float64 {
	if profile.CruiseSpeedKt <= 0 {
		return 0
	}
	return (distanceNM / profile.CruiseSpeedKt) * profile.FuelFlowKgHr
}

// FlightTimeHr estimates time enroute at cruise speed.
func FlightTimeHr(distanceNM float64, profile Profile) float64 {
	if profile.CruiseSpeedKt <= 0 {
		return 0
	}
	return distanceNM / profile.CruiseSpeedKt
}
