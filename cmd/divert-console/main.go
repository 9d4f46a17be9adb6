// Diversion console
// Terminal UI for dispatchers: enter an aircraft state and emergency, rank
// diversion candidates against the airport registry, and inspect the result.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/skyops/divert/pkg/config"
	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/registry"
	"github.com/skyops/divert/pkg/weather"
)

var (
	configPath   = flag.String("config", "configs/config.json", "Path to configuration file")
	registryPath = flag.String("registry", "", "Airport registry file (overrides config)")
	offline      = flag.Bool("offline", false, "Skip live METAR fetches")
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

	var wx *weather.Client
	if cfg.Weather.Enabled && !*offline {
		wx, err = weather.NewClient(weather.ClientConfig{
			BaseURL:           cfg.Weather.BaseURL,
			RequestsPerSecond: cfg.Weather.RequestsPerSecond,
			CacheSize:         cfg.Weather.CacheSize,
			CacheTTL:          time.Duration(cfg.Weather.CacheTTLMinutes) * time.Minute,
		})
		if err != nil {
			log.Fatalf("Failed to create weather client: %v", err)
		}
	}

	engine := divert.NewEngine(divert.EngineConfig{
		Weights:        cfg.Engine.Weights,
		Costs:          cfg.Engine.Costs,
		SearchRadiusNM: cfg.Engine.SearchRadiusNM,
		TopN:           cfg.Engine.TopN,
	})

	app := NewApp(&AppConfig{
		Registry: airports,
		Weather:  wx,
		Engine:   engine,
	})

	if err := app.Run(); err != nil {
		log.Fatalf("Console failed: %v", err)
	}
}
