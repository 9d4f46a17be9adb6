// Package registry loads and serves the airport registry the diversion
// engine searches. Registries load from CSV or JSON files maintained by the
// dispatch data team; the engine treats entries as read-only.
package registry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/geodesy"
)

// Registry is an in-memory airport registry with ICAO lookup.
type Registry struct {
	airports []divert.AirportCandidate
	byICAO   map[string]divert.AirportCandidate
}

// New builds a registry from a slice of airports. Later duplicates of an
// ICAO replace earlier ones.
func New(airports []divert.AirportCandidate) *Registry {
	byICAO := make(map[string]divert.AirportCandidate, len(airports))
	for _, a := range airports {
		byICAO[a.ICAO] = a
	}
	return &Registry{airports: airports, byICAO: byICAO}
}

// Airports returns all registry entries. Callers must treat the slice as
// read-only.
func (r *Registry) Airports() []divert.AirportCandidate {
	return r.airports
}

// ByICAO looks up one airport.
func (r *Registry) ByICAO(icao string) (divert.AirportCandidate, bool) {
	a, ok := r.byICAO[strings.ToUpper(strings.TrimSpace(icao))]
	return a, ok
}

// Len returns the number of airports loaded.
func (r *Registry) Len() int {
	return len(r.airports)
}

// ICAOCodes returns all ICAO identifiers, in registry order. Used to drive
// weather sweeps.
func (r *Registry) ICAOCodes() []string {
	codes := make([]string, len(r.airports))
	for i, a := range r.airports {
		codes[i] = a.ICAO
	}
	return codes
}

// LoadCSV reads a registry from a CSV file with a header row. Recognized
// columns: icao, iata, name, country, latitude_deg, longitude_deg,
// runway_length_ft, has_fuel, has_medical, operational_24_7,
// has_maintenance. Unknown columns are ignored; rows without a valid ICAO
// or coordinates are skipped rather than failing the whole load.
func LoadCSV(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read registry header: %w", err)
	}

	idx := func(name string) int {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	icaoIdx := idx("icao")
	iataIdx := idx("iata")
	nameIdx := idx("name")
	countryIdx := idx("country")
	latIdx := idx("latitude_deg")
	lonIdx := idx("longitude_deg")
	runwayIdx := idx("runway_length_ft")
	fuelIdx := idx("has_fuel")
	medicalIdx := idx("has_medical")
	opsIdx := idx("operational_24_7")
	maintIdx := idx("has_maintenance")

	if icaoIdx < 0 || latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("registry CSV missing required columns (icao, latitude_deg, longitude_deg)")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read registry rows: %w", err)
	}

	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	airports := make([]divert.AirportCandidate, 0, len(records))
	for _, row := range records {
		icao := strings.ToUpper(field(row, icaoIdx))
		if icao == "" {
			continue
		}

		lat, latErr := strconv.ParseFloat(field(row, latIdx), 64)
		lon, lonErr := strconv.ParseFloat(field(row, lonIdx), 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		pos := geodesy.Position{Latitude: lat, Longitude: lon}
		if !pos.Valid() {
			continue
		}

		runway, _ := strconv.ParseFloat(field(row, runwayIdx), 64)

		airports = append(airports, divert.AirportCandidate{
			ICAO:            icao,
			IATA:            field(row, iataIdx),
			Name:            field(row, nameIdx),
			Country:         field(row, countryIdx),
			Position:        pos,
			RunwayLengthFt:  runway,
			HasFuel:         parseBool(field(row, fuelIdx)),
			HasMedical:      parseBool(field(row, medicalIdx)),
			Operational24x7: parseBool(field(row, opsIdx)),
			HasMaintenance:  parseBool(field(row, maintIdx)),
		})
	}

	return New(airports), nil
}

// LoadJSON reads a registry from a JSON array of airport candidates.
func LoadJSON(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var airports []divert.AirportCandidate
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, fmt.Errorf("failed to parse registry JSON: %w", err)
	}

	valid := make([]divert.AirportCandidate, 0, len(airports))
	for _, a := range airports {
		if a.ICAO == "" || !a.Position.Valid() {
			continue
		}
		a.ICAO = strings.ToUpper(a.ICAO)
		valid = append(valid, a)
	}

	return New(valid), nil
}

// Load picks the loader from the file extension (.csv or .json).
func Load(path string) (*Registry, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return LoadJSON(path)
	case strings.HasSuffix(path, ".csv"):
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported registry format: %s", path)
	}
}

// parseBool accepts the spellings that show up in hand-maintained registry
// exports.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "t":
		return true
	default:
		return false
	}
}
