package divert

import (
	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/performance"
)

// DefaultSearchRadiusNM is the default candidate search radius, sized for a
// typical long-haul diversion search.
const DefaultSearchRadiusNM = 500.0

// GenerateCandidates filters the registry to airports meeting the hard
// constraints:
//   - great-circle distance from the aircraft position within radiusNM
//   - runway length at least the profile's minimum (binary at generation
//     time; fine-grained grading happens during feasibility evaluation)
//
// Output ordering is unspecified; the scoring stage sorts. An empty result
// signals "no feasible diversion" upstream and is never an error.
func GenerateCandidates(position geodesy.Position, registry []AirportCandidate, radiusNM float64, profile performance.Profile) []AirportCandidate {
	if radiusNM <= 0 {
		radiusNM = DefaultSearchRadiusNM
	}

	candidates := make([]AirportCandidate, 0, len(registry))
	for _, airport := range registry {
		if airport.RunwayLengthFt < profile.MinRunwayFt {
			continue
		}
		if geodesy.DistanceNM(position, airport.Position) > radiusNM {
			continue
		}
		candidates = append(candidates, airport)
	}

	return candidates
}
