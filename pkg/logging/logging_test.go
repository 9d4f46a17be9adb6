package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestWriterLoggerEmitsJSON verifies records are JSON with level and message.
func TestWriterLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")

	l.Info("decision ranked", "icao", "KLAX", "score", 72.5)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("Expected a log record, got nothing")
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("Record is not valid JSON: %v", err)
	}
	if rec["msg"] != "decision ranked" {
		t.Errorf("Expected msg 'decision ranked', got %v", rec["msg"])
	}
	if rec["icao"] != "KLAX" {
		t.Errorf("Expected icao KLAX, got %v", rec["icao"])
	}
	if rec["level"] != "INFO" {
		t.Errorf("Expected level INFO, got %v", rec["level"])
	}
}

// TestLevelFiltering verifies debug records are dropped at info level.
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")

	l.Debug("should be dropped")
	l.Info("should be dropped too")
	l.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("Expected filtered records, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Expected warn record, got: %s", out)
	}
}

// TestNilLoggerSafe verifies a nil logger does not panic.
func TestNilLoggerSafe(t *testing.T) {
	var l *Logger
	l.Debug("discarded")
	l.Info("discarded")
	l.Infof("discarded %d", 1)
	if l.With("k", "v") != nil {
		t.Error("Expected nil logger from nil With")
	}
}

// TestWithPropagatesAttributes verifies child loggers carry attributes.
func TestWithPropagatesAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With("aircraft", "N12345")

	l.Info("position update")

	if !strings.Contains(buf.String(), "N12345") {
		t.Errorf("Expected aircraft attribute in record, got: %s", buf.String())
	}
}
