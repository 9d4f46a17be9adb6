package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/logging"
	"github.com/skyops/divert/pkg/registry"
	"github.com/skyops/divert/pkg/weather"
)

// metarBackend serves a canned aviationweather.gov response for any station.
func metarBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		icao := r.URL.Query().Get("ids")
		fmt.Fprintf(w, `[{"icaoId":%q,"reportTime":"2026-08-30T17:00:00.000Z","temp":22,"wdir":250,"wspd":12,"wgst":0,"visib":"10+","rawOb":"%s 301700Z 25012KT 10SM FEW250 22/12 A2992","fltCat":"VFR"}]`, icao, icao)
	}))
}

func testWeatherClient(t *testing.T, baseURL string) *weather.Client {
	t.Helper()
	wx, err := weather.NewClient(weather.ClientConfig{
		BaseURL:           baseURL,
		RequestsPerSecond: 1000,
		Timeout:           2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create weather client: %v", err)
	}
	return wx
}

// weatherRequest builds a GET with the icao chi URL parameter populated.
func weatherRequest(icao string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/"+icao, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("icao", icao)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestHandleGetWeather tests the per-airport weather endpoint, including the
// suitability grade attached to the response.
func TestHandleGetWeather(t *testing.T) {
	backend := metarBackend(t)
	defer backend.Close()

	s := &Server{
		wx:  testWeatherClient(t, backend.URL),
		log: logging.NewWriter(io.Discard, "error"),
	}

	t.Run("Returns snapshot with suitability", func(t *testing.T) {
		rr := httptest.NewRecorder()
		s.handleGetWeather(rr, weatherRequest("KLAX"))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rr.Code)
		}

		var body struct {
			Snapshot    weather.Snapshot `json:"snapshot"`
			Suitability string           `json:"suitability"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.Snapshot.ICAO != "KLAX" {
			t.Errorf("Expected snapshot for KLAX, got %s", body.Snapshot.ICAO)
		}
		if body.Suitability != string(weather.Grade(body.Snapshot)) {
			t.Errorf("Expected suitability %s, got %s", weather.Grade(body.Snapshot), body.Suitability)
		}
		if body.Suitability != string(weather.SuitabilityGood) {
			t.Errorf("Expected good for 10 sm / 12 kt, got %s", body.Suitability)
		}
	})

	t.Run("Weather feed disabled", func(t *testing.T) {
		disabled := &Server{log: logging.NewWriter(io.Discard, "error")}
		rr := httptest.NewRecorder()
		disabled.handleGetWeather(rr, weatherRequest("KLAX"))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", rr.Code)
		}
	})
}

// TestWeatherStations tests the nearest-first station selection that feeds
// the per-request METAR sweep.
func TestWeatherStations(t *testing.T) {
	origin := geodesy.Position{Latitude: 34.0, Longitude: -118.0}

	t.Run("Nearest first, out of radius excluded", func(t *testing.T) {
		airports := registry.New([]divert.AirportCandidate{
			{ICAO: "KFAR", Position: geodesy.Position{Latitude: 38.0, Longitude: -118.0}},
			{ICAO: "KNEA", Position: geodesy.Position{Latitude: 34.2, Longitude: -118.0}},
			{ICAO: "KOUT", Position: geodesy.Position{Latitude: 50.0, Longitude: -118.0}},
			{ICAO: "KMID", Position: geodesy.Position{Latitude: 36.0, Longitude: -118.0}},
		})
		s := &Server{
			airports: airports,
			engine:   divert.NewEngine(divert.EngineConfig{SearchRadiusNM: 500}),
		}

		got := s.weatherStations(origin)
		want := []string{"KNEA", "KMID", "KFAR"}
		if len(got) != len(want) {
			t.Fatalf("Expected %d stations, got %d (%v)", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Expected station %d to be %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("Capped at maximum", func(t *testing.T) {
		var candidates []divert.AirportCandidate
		for i := 0; i < maxWeatherStations+10; i++ {
			candidates = append(candidates, divert.AirportCandidate{
				ICAO:     fmt.Sprintf("KA%02d", i),
				Position: geodesy.Position{Latitude: 34.0 + float64(i)*0.05, Longitude: -118.0},
			})
		}
		s := &Server{
			airports: registry.New(candidates),
			engine:   divert.NewEngine(divert.EngineConfig{SearchRadiusNM: 500}),
		}

		got := s.weatherStations(origin)
		if len(got) != maxWeatherStations {
			t.Errorf("Expected %d stations, got %d", maxWeatherStations, len(got))
		}
		// KA00 sits at the origin and must survive the cap
		if got[0] != "KA00" {
			t.Errorf("Expected nearest station KA00 first, got %s", got[0])
		}
	})
}
