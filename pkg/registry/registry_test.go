package registry

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `icao,iata,name,country,latitude_deg,longitude_deg,runway_length_ft,has_fuel,has_medical,operational_24_7,has_maintenance
KLAX,LAX,Los Angeles Intl,US,33.9416,-118.4085,12091,true,true,true,true
KSBA,SBA,Santa Barbara Muni,US,34.4262,-119.8415,6052,yes,no,0,false
,XXX,Missing ICAO,US,10.0,10.0,5000,true,true,true,true
KBAD,BAD,Bad Coords,US,notanumber,-118.0,9000,true,true,true,true
KOOB,OOB,Out Of Range,US,95.0,-118.0,9000,true,true,true,true
`

const sampleJSON = `[
	{"icao": "klax", "iata": "LAX", "name": "Los Angeles Intl",
	 "position": {"latitude": 33.9416, "longitude": -118.4085},
	 "runway_length_ft": 12091, "has_fuel": true, "has_medical": true,
	 "operational_24_7": true, "has_maintenance": true},
	{"icao": "", "name": "Skipped",
	 "position": {"latitude": 0, "longitude": 0}}
]`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

// TestLoadCSV tests CSV parsing incl. skip rules for malformed rows.
func TestLoadCSV(t *testing.T) {
	reg, err := LoadCSV(writeTemp(t, "airports.csv", sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	t.Run("Valid rows loaded, malformed rows skipped", func(t *testing.T) {
		if reg.Len() != 2 {
			t.Fatalf("Expected 2 airports (3 malformed skipped), got %d", reg.Len())
		}
	})

	t.Run("Field mapping", func(t *testing.T) {
		lax, ok := reg.ByICAO("KLAX")
		if !ok {
			t.Fatal("Expected KLAX in registry")
		}
		if lax.Name != "Los Angeles Intl" {
			t.Errorf("Expected name mapped, got %q", lax.Name)
		}
		if lax.RunwayLengthFt != 12091 {
			t.Errorf("Expected runway 12091, got %f", lax.RunwayLengthFt)
		}
		if !lax.HasMedical || !lax.Operational24x7 {
			t.Error("Expected boolean flags mapped")
		}
	})

	t.Run("Boolean spellings", func(t *testing.T) {
		sba, ok := reg.ByICAO("KSBA")
		if !ok {
			t.Fatal("Expected KSBA in registry")
		}
		if !sba.HasFuel {
			t.Error("Expected 'yes' parsed as true")
		}
		if sba.HasMedical || sba.Operational24x7 || sba.HasMaintenance {
			t.Error("Expected 'no'/'0'/'false' parsed as false")
		}
	})

	t.Run("Lookup is case-insensitive", func(t *testing.T) {
		if _, ok := reg.ByICAO("klax"); !ok {
			t.Error("Expected lowercase lookup to succeed")
		}
	})

	t.Run("ICAOCodes preserves order", func(t *testing.T) {
		codes := reg.ICAOCodes()
		if len(codes) != 2 || codes[0] != "KLAX" || codes[1] != "KSBA" {
			t.Errorf("Expected [KLAX KSBA], got %v", codes)
		}
	})
}

// TestLoadCSVErrors tests failure modes.
func TestLoadCSVErrors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadCSV("/nonexistent/airports.csv"); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("Missing required columns", func(t *testing.T) {
		path := writeTemp(t, "bad.csv", "name,foo\nA,B\n")
		if _, err := LoadCSV(path); err == nil {
			t.Error("Expected error for missing icao column")
		}
	})
}

// TestLoadJSON tests the JSON loader.
func TestLoadJSON(t *testing.T) {
	reg, err := LoadJSON(writeTemp(t, "airports.json", sampleJSON))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	if reg.Len() != 1 {
		t.Fatalf("Expected 1 airport (empty ICAO skipped), got %d", reg.Len())
	}

	// ICAO is normalized to upper case
	if _, ok := reg.ByICAO("KLAX"); !ok {
		t.Error("Expected klax normalized to KLAX")
	}
}

// TestLoad tests extension dispatch.
func TestLoad(t *testing.T) {
	if _, err := Load("airports.xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}

	path := writeTemp(t, "airports.csv", sampleCSV)
	if _, err := Load(path); err != nil {
		t.Errorf("Expected CSV dispatch to work: %v", err)
	}
}
