package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Server defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.TLSEnabled {
		t.Error("Expected TLS disabled by default")
	}

	// Database defaults
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("Expected max idle conns 5, got %d", cfg.Database.MaxIdleConns)
	}

	// Weather defaults
	if !cfg.Weather.Enabled {
		t.Error("Expected weather enabled by default")
	}
	if cfg.Weather.RequestsPerSecond != 2.0 {
		t.Errorf("Expected 2 requests/second, got %f", cfg.Weather.RequestsPerSecond)
	}
	if cfg.Weather.CacheTTLMinutes != 10 {
		t.Errorf("Expected 10 minute cache TTL, got %d", cfg.Weather.CacheTTLMinutes)
	}

	// Engine defaults
	if cfg.Engine.SearchRadiusNM != 500.0 {
		t.Errorf("Expected 500nm search radius, got %f", cfg.Engine.SearchRadiusNM)
	}
	if cfg.Engine.TopN != 5 {
		t.Errorf("Expected top 5 recommendations, got %d", cfg.Engine.TopN)
	}
	if cfg.Engine.Weights.MedicalExcellent != 50.0 {
		t.Errorf("Expected excellent medical weight 50, got %f", cfg.Engine.Weights.MedicalExcellent)
	}
	if cfg.Engine.Costs.CompensationByCondition["cardiac"] != 125000 {
		t.Errorf("Expected cardiac compensation 125000, got %f", cfg.Engine.Costs.CompensationByCondition["cardiac"])
	}
}

// TestLoadNonExistentFile tests that Load returns default config when file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	// Verify it's actually the default config
	if cfg.Server.Port != "8080" {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading a valid configuration file.
func TestLoadValidConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := DefaultConfig()
	testConfig.Server.Port = "9090"
	testConfig.Server.Host = "127.0.0.1"
	testConfig.Database.Host = "db.example.com"
	testConfig.Registry.Path = "data/test-airports.csv"
	testConfig.Engine.SearchRadiusNM = 350.0
	testConfig.Engine.Weights.DistanceDivisor = 10.0

	// Write config to file
	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
	if cfg.Registry.Path != "data/test-airports.csv" {
		t.Errorf("Expected test registry path, got %s", cfg.Registry.Path)
	}
	if cfg.Engine.SearchRadiusNM != 350.0 {
		t.Errorf("Expected search radius 350, got %f", cfg.Engine.SearchRadiusNM)
	}
	if cfg.Engine.Weights.DistanceDivisor != 10.0 {
		t.Errorf("Expected distance divisor 10, got %f", cfg.Engine.Weights.DistanceDivisor)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	// Write invalid JSON
	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration to file.
func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved-config.json")

	cfg := DefaultConfig()
	cfg.Server.Port = "9999"
	cfg.Engine.TopN = 3

	// Save config
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	// Load it back and verify
	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", loaded.Server.Port)
	}
	if loaded.Engine.TopN != 3 {
		t.Errorf("Expected top 3, got %d", loaded.Engine.TopN)
	}
}

// TestSaveConfigCreatesDirectory tests that Save creates missing directories.
func TestSaveConfigCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config with nested directory: %v", err)
	}

	// Verify directory was created
	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Directory was not created")
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("DIVERT_PORT", "7777")
	os.Setenv("DIVERT_DB_PASSWORD", "env-password")
	os.Setenv("DIVERT_REGISTRY_PATH", "/env/airports.csv")
	os.Setenv("DIVERT_WEATHER_URL", "https://env-weather.example.com")
	defer func() {
		os.Unsetenv("DIVERT_PORT")
		os.Unsetenv("DIVERT_DB_PASSWORD")
		os.Unsetenv("DIVERT_REGISTRY_PATH")
		os.Unsetenv("DIVERT_WEATHER_URL")
	}()

	// Create config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Server.Port = "8080"
	testCfg.Database.Password = "original-password"

	data, _ := json.Marshal(testCfg)
	os.WriteFile(configPath, data, 0644)

	// Load config (should apply env overrides)
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify overrides
	if cfg.Server.Port != "7777" {
		t.Errorf("Expected port 7777 from env, got %s", cfg.Server.Port)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Registry.Path != "/env/airports.csv" {
		t.Errorf("Expected registry path from env, got %s", cfg.Registry.Path)
	}
	if cfg.Weather.BaseURL != "https://env-weather.example.com" {
		t.Errorf("Expected weather URL from env, got %s", cfg.Weather.BaseURL)
	}
}

// TestConfigRoundTrip tests saving and loading config preserves data.
func TestConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "roundtrip.json")

	// Create a config with various values
	original := DefaultConfig()
	original.Server.Port = "3000"
	original.Server.TLSEnabled = true
	original.Engine.SearchRadiusNM = 650.0
	original.Engine.Weights.FuelBonus = 30.0
	original.Engine.Costs.CompensationByCondition["allergic"] = 50000

	// Save
	if err := original.Save(configPath); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	// Load
	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	// Compare
	if loaded.Server.Port != original.Server.Port {
		t.Error("Port not preserved in round trip")
	}
	if loaded.Server.TLSEnabled != original.Server.TLSEnabled {
		t.Error("TLS setting not preserved in round trip")
	}
	if loaded.Engine.SearchRadiusNM != original.Engine.SearchRadiusNM {
		t.Error("Search radius not preserved in round trip")
	}
	if loaded.Engine.Costs.CompensationByCondition["allergic"] != 50000 {
		t.Error("Compensation table not preserved in round trip")
	}
}
