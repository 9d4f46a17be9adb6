package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skyops/divert/pkg/divert"
)

// Config represents the complete application configuration.
// Configuration is loaded from a JSON file with environment overrides.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Registry RegistryConfig `json:"registry"`
	Weather  WeatherConfig  `json:"weather"`
	Engine   EngineConfig   `json:"engine"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// TLSEnabled determines if HTTPS should be used
	TLSEnabled bool `json:"tls_enabled"`

	// TLSCertFile is the path to the TLS certificate
	TLSCertFile string `json:"tls_cert_file"`

	// TLSKeyFile is the path to the TLS private key
	TLSKeyFile string `json:"tls_key_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// RegistryConfig locates the airport registry data.
type RegistryConfig struct {
	// Path is the registry file, either .csv or .json
	Path string `json:"path"`
}

// WeatherConfig contains METAR feed settings.
type WeatherConfig struct {
	// Enabled determines whether live weather is fetched. When disabled,
	// rankings run without snapshots and weather is graded marginal.
	Enabled bool `json:"enabled"`

	// BaseURL is the aviationweather.gov data API base URL
	BaseURL string `json:"base_url"`

	// RequestsPerSecond limits the upstream API call rate
	RequestsPerSecond float64 `json:"requests_per_second"`

	// CacheTTLMinutes is how long a fetched observation stays usable
	CacheTTLMinutes int `json:"cache_ttl_minutes"`

	// CacheSize bounds the per-ICAO snapshot cache
	CacheSize int `json:"cache_size"`
}

// EngineConfig contains the diversion engine tuning. The weights and cost
// coefficients are operational heuristics, kept in config rather than
// compiled in so dispatch can adjust them without a release.
type EngineConfig struct {
	// SearchRadiusNM is the candidate search radius in nautical miles
	SearchRadiusNM float64 `json:"search_radius_nm"`

	// TopN is the number of entries in the recommendation payload
	TopN int `json:"top_n"`

	// Weights are the multi-criteria scoring constants
	Weights divert.ScoringWeights `json:"weights"`

	// Costs are the diversion cost coefficients
	Costs divert.CostModel `json:"costs"`
}

// LoggingConfig contains structured logging settings for server processes.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `json:"level"`

	// Dir is the log directory (empty logs to the working directory)
	Dir string `json:"dir"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       "8080",
			Host:       "0.0.0.0",
			TLSEnabled: false,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "divert",
			Username:     "divert",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Registry: RegistryConfig{
			Path: "data/airports.csv",
		},
		Weather: WeatherConfig{
			Enabled:           true,
			BaseURL:           "https://aviationweather.gov/api/data",
			RequestsPerSecond: 2.0,
			CacheTTLMinutes:   10,
			CacheSize:         2048,
		},
		Engine: EngineConfig{
			SearchRadiusNM: divert.DefaultSearchRadiusNM,
			TopN:           divert.DefaultTopN,
			Weights:        divert.DefaultScoringWeights(),
			Costs:          divert.DefaultCostModel(),
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. This allows sensitive data like passwords to be kept out of
// config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("DIVERT_PORT"); port != "" {
		c.Server.Port = port
	}
	if dbPassword := os.Getenv("DIVERT_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if registryPath := os.Getenv("DIVERT_REGISTRY_PATH"); registryPath != "" {
		c.Registry.Path = registryPath
	}
	if wxURL := os.Getenv("DIVERT_WEATHER_URL"); wxURL != "" {
		c.Weather.BaseURL = wxURL
	}
}
