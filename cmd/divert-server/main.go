// Diversion decision server
// Provides the REST API for ranking diversions plus a WebSocket stream of
// decision events for dispatch consoles.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skyops/divert/internal/alerts"
	"github.com/skyops/divert/internal/auth"
	"github.com/skyops/divert/internal/db"
	"github.com/skyops/divert/pkg/config"
	"github.com/skyops/divert/pkg/divert"
	"github.com/skyops/divert/pkg/geodesy"
	"github.com/skyops/divert/pkg/logging"
	"github.com/skyops/divert/pkg/registry"
	"github.com/skyops/divert/pkg/weather"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	port       = flag.Int("port", 0, "HTTP server port (overrides config)")
)

// Server holds the HTTP server and its dependencies
type Server struct {
	router       *chi.Mux
	database     *db.DB
	authSvc      *auth.Service
	userRepo     *db.UserRepository
	decisionRepo *db.DecisionRepository
	airports     *registry.Registry
	wx           *weather.Client
	engine       *divert.Engine
	hub          *alerts.Hub
	log          *logging.Logger
	cfg          *config.Config
}

func main() {
	flag.Parse()

	log.Println("🚀 Starting diversion decision server...")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Dir)
	log.Printf("📝 Structured log: %s", logger.LogFile)

	// Load airport registry
	airports, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		log.Fatalf("Failed to load airport registry: %v", err)
	}
	log.Printf("🛬 Loaded %d airports from %s", airports.Len(), cfg.Registry.Path)

	// Connect to database with retry
	database, err := db.ReconnectWithRetry(cfg.Database, 5, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.InitSchema(initCtx); err != nil {
		log.Printf("Warning: schema init failed: %v", err)
	}
	cancelInit()

	// Weather client (optional)
	var wx *weather.Client
	if cfg.Weather.Enabled {
		wx, err = weather.NewClient(weather.ClientConfig{
			BaseURL:           cfg.Weather.BaseURL,
			RequestsPerSecond: cfg.Weather.RequestsPerSecond,
			CacheSize:         cfg.Weather.CacheSize,
			CacheTTL:          time.Duration(cfg.Weather.CacheTTLMinutes) * time.Minute,
		})
		if err != nil {
			log.Fatalf("Failed to create weather client: %v", err)
		}
		log.Printf("🌦  Weather feed: %s", cfg.Weather.BaseURL)
	} else {
		log.Println("🌦  Weather feed disabled; candidates graded marginal")
	}

	// Initialize auth service
	authSvc := auth.NewService(auth.Config{
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "dev-secret-change-in-production"),
		TokenDuration: 24 * time.Hour,
	})

	// Decision engine
	engine := divert.NewEngine(divert.EngineConfig{
		Weights:        cfg.Engine.Weights,
		Costs:          cfg.Engine.Costs,
		SearchRadiusNM: cfg.Engine.SearchRadiusNM,
		TopN:           cfg.Engine.TopN,
	})

	// Event hub for dispatch consoles
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	hub := alerts.NewHub(logger)
	go hub.Run(hubCtx)

	// Create server
	srv := &Server{
		router:       chi.NewRouter(),
		database:     database,
		authSvc:      authSvc,
		userRepo:     db.NewUserRepository(database.DB),
		decisionRepo: db.NewDecisionRepository(database.DB),
		airports:     airports,
		wx:           wx,
		engine:       engine,
		hub:          hub,
		log:          logger,
		cfg:          cfg,
	}

	// Setup routes
	srv.setupRoutes()

	listenPort := cfg.Server.Port
	if *port != 0 {
		listenPort = strconv.Itoa(*port)
	}

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, listenPort),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("📡 Server listening on http://localhost:%s", listenPort)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n👋 Shutting down server...")

	cancelHub()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5))

	// CORS for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", s.handleLogin)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleGetCurrentUser)

			// Diversion endpoints
			r.With(s.requireRole(auth.RoleDispatcher)).
				Post("/diversions/rank", s.handleRankDiversions)
			r.Get("/diversions", s.handleListDecisions)
			r.Get("/diversions/{id}", s.handleGetDecision)
			r.Get("/diversions/airport/{icao}", s.handleListDecisionsByAirport)

			// Airport registry endpoints
			r.Get("/airports", s.handleGetAirports)
			r.Get("/airports/{icao}", s.handleGetAirportByICAO)

			// Weather endpoints
			r.Get("/weather/{icao}", s.handleGetWeather)

			// Engine configuration (read-only)
			r.Get("/engine/config", s.handleGetEngineConfig)

			// System endpoints
			r.Get("/system/status", s.handleGetSystemStatus)

			// Decision event stream
			r.Get("/ws", s.hub.ServeWS)
		})
	})
}

// Auth middleware
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		// Extract token (format: "Bearer <token>")
		var token string
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		} else {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := s.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "user_id", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)
		ctx = context.WithValue(ctx, "role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route on the role hierarchy.
func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole, _ := r.Context().Value("role").(string)
			if !auth.HasRole(userRole, role) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleLogin handles user login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.userRepo.GetByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := s.authSvc.ComparePassword(user.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !user.IsActive {
		http.Error(w, "Account is disabled", http.StatusForbidden)
		return
	}

	token, err := s.authSvc.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	_ = s.userRepo.UpdateLastLogin(r.Context(), user.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// handleLogout handles user logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens; nothing to invalidate server-side yet
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleGetCurrentUser returns the currently authenticated user
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(int)
	username := r.Context().Value("username").(string)
	role := r.Context().Value("role").(string)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":       userID,
		"username": username,
		"role":     role,
	})
}

// rankRequest is the body of POST /diversions/rank.
type rankRequest struct {
	Aircraft  divert.AircraftState    `json:"aircraft"`
	Emergency divert.EmergencyContext `json:"emergency"`
	Callsign  string                  `json:"callsign,omitempty"`
}

// handleRankDiversions runs the decision pipeline for one emergency.
func (s *Server) handleRankDiversions(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	wxByICAO := s.fetchWeather(r.Context(), req.Aircraft.Position)

	result, err := s.engine.RankDiversions(r.Context(), req.Aircraft, req.Emergency, s.airports.Airports(), wxByICAO)
	if err != nil {
		if errors.Is(err, divert.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("ranking failed", "error", err)
		http.Error(w, "Failed to rank diversions", http.StatusInternalServerError)
		return
	}

	// Persist and broadcast; neither failure blocks the response
	rec := db.NewRecord(req.Aircraft, req.Emergency, result)
	rec.Callsign = req.Callsign
	if userID, ok := r.Context().Value("user_id").(int); ok {
		rec.RequestedBy = &userID
	}
	if err := s.decisionRepo.Save(r.Context(), rec); err != nil {
		s.log.Error("failed to persist decision", "error", err)
	}

	s.hub.Publish("decision", rec)

	s.log.Info("diversion ranked",
		"status", string(result.Status),
		"primary", rec.PrimaryICAO,
		"evaluated", result.EvaluatedCount,
		"confidence", result.DecisionConfidence)

	respondJSON(w, http.StatusOK, result)
}

const (
	// maxWeatherStations caps how many in-radius airports get a METAR
	// lookup per ranking request. Nearest stations matter most to the
	// ranking; anything past the cap is graded as missing weather.
	maxWeatherStations = 25

	// weatherSweepBudget bounds the sweep so a cold cache cannot eat the
	// server's write timeout. Snapshots gathered before the deadline are
	// still used.
	weatherSweepBudget = 10 * time.Second
)

// fetchWeather gathers METAR snapshots for the nearest in-radius airports.
// Returns nil when the weather feed is disabled; the engine grades missing
// weather as marginal.
func (s *Server) fetchWeather(ctx context.Context, position geodesy.Position) map[string]weather.Snapshot {
	if s.wx == nil {
		return nil
	}

	icaos := s.weatherStations(position)

	sweepCtx, cancel := context.WithTimeout(ctx, weatherSweepBudget)
	defer cancel()

	snapshots, err := s.wx.SnapshotsByICAO(sweepCtx, icaos)
	if err != nil {
		s.log.Warn("weather sweep truncated",
			"stations", len(icaos),
			"gathered", len(snapshots),
			"error", err)
	}
	return snapshots
}

// weatherStations returns the ICAO codes of in-radius airports ordered
// nearest first, capped at maxWeatherStations.
func (s *Server) weatherStations(position geodesy.Position) []string {
	type station struct {
		icao string
		dist float64
	}

	var stations []station
	for _, apt := range s.airports.Airports() {
		d := geodesy.DistanceNM(position, apt.Position)
		if d <= s.engine.SearchRadiusNM() {
			stations = append(stations, station{icao: apt.ICAO, dist: d})
		}
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].dist < stations[j].dist
	})
	if len(stations) > maxWeatherStations {
		stations = stations[:maxWeatherStations]
	}

	icaos := make([]string, len(stations))
	for i, st := range stations {
		icaos[i] = st.icao
	}
	return icaos
}

// handleListDecisions returns decision history summaries.
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit > 500 {
		limit = 500
	}

	records, err := s.decisionRepo.ListRecent(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("failed to list decisions", "error", err)
		http.Error(w, "Failed to list decisions", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": records,
		"count":     len(records),
	})
}

// handleGetDecision returns one decision with its full result payload.
func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid decision ID", http.StatusBadRequest)
		return
	}

	rec, err := s.decisionRepo.GetByID(r.Context(), id)
	if err == db.ErrDecisionNotFound {
		http.Error(w, "Decision not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("failed to get decision", "id", id, "error", err)
		http.Error(w, "Failed to get decision", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// handleListDecisionsByAirport returns decisions that recommended an airport.
func (s *Server) handleListDecisionsByAirport(w http.ResponseWriter, r *http.Request) {
	icao := chi.URLParam(r, "icao")
	limit := queryInt(r, "limit", 50)

	records, err := s.decisionRepo.ListByAirport(r.Context(), icao, limit)
	if err != nil {
		s.log.Error("failed to list decisions by airport", "icao", icao, "error", err)
		http.Error(w, "Failed to list decisions", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"icao":      icao,
		"decisions": records,
		"count":     len(records),
	})
}

// handleGetAirports returns the loaded airport registry.
func (s *Server) handleGetAirports(w http.ResponseWriter, r *http.Request) {
	airports := s.airports.Airports()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"airports": airports,
		"count":    len(airports),
	})
}

func (s *Server) handleGetAirportByICAO(w http.ResponseWriter, r *http.Request) {
	icao := chi.URLParam(r, "icao")

	apt, ok := s.airports.ByICAO(icao)
	if !ok {
		http.Error(w, "Airport not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, apt)
}

// handleGetWeather returns the current METAR snapshot for one airport.
func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	if s.wx == nil {
		http.Error(w, "Weather feed disabled", http.StatusServiceUnavailable)
		return
	}

	icao := chi.URLParam(r, "icao")
	snap, err := s.wx.Snapshot(r.Context(), icao)
	if err != nil {
		http.Error(w, "No current observation", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot":    snap,
		"suitability": string(weather.Grade(snap)),
	})
}

// handleGetEngineConfig returns the active engine tuning.
func (s *Server) handleGetEngineConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"search_radius_nm": s.engine.SearchRadiusNM(),
		"weights":          s.engine.Weights(),
		"costs":            s.engine.Costs(),
	})
}

func (s *Server) handleGetSystemStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.database.GetStats(r.Context())
	if err != nil {
		s.log.Error("failed to get database stats", "error", err)
		stats = map[string]interface{}{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"database": db.HealthCheck(s.database),
		"weather":  s.wx != nil,
		"airports": s.airports.Len(),
		"stats":    stats,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
