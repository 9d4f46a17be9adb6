// Weights tuner
// Interactive editor for the diversion engine's scoring weights and cost
// coefficients, with a live re-ranking preview against a sample scenario.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skyops/divert/pkg/config"
	"github.com/skyops/divert/pkg/registry"
)

var (
	configPath   = flag.String("config", "configs/config.json", "Path to configuration file")
	registryPath = flag.String("registry", "", "Airport registry file (overrides config)")
	lat          = flag.Float64("lat", 34.0522, "Sample scenario latitude")
	lon          = flag.Float64("lon", -118.2437, "Sample scenario longitude")
	acType       = flag.String("type", "B789", "Sample scenario aircraft type")
	fuelKg       = flag.Float64("fuel", 25000, "Sample scenario fuel remaining (kg)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	path := cfg.Registry.Path
	if *registryPath != "" {
		path = *registryPath
	}

	airports, err := registry.Load(path)
	if err != nil {
		log.Fatalf("Failed to load airport registry: %v", err)
	}
	if airports.Len() == 0 {
		log.Fatalf("Airport registry %s is empty", path)
	}

	model := newTunerModel(cfg, *configPath, airports, sampleScenario{
		Latitude:     *lat,
		Longitude:    *lon,
		AircraftType: *acType,
		FuelKg:       *fuelKg,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Tuner failed: %v\n", err)
		os.Exit(1)
	}
}
