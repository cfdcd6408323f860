package api

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"fleet-manager/internal/analytics"
	"fleet-manager/internal/config"
	"fleet-manager/internal/registry"
	"fleet-manager/internal/telemetry"
)

// Server represents the API server
type Server struct {
	registries *registry.Registries
	telemetry  *telemetry.Service
	analyzer   *analytics.Analyzer
	window     time.Duration
	origins    []string
	router     *mux.Router
	log        *log.Logger
}

// NewServer creates a new API server
func NewServer(regs *registry.Registries, svc *telemetry.Service, analyzer *analytics.Analyzer, cfg *config.Config) *Server {
	s := &Server{
		registries: regs,
		telemetry:  svc,
		analyzer:   analyzer,
		window:     cfg.AnalyticsWindow(),
		origins:    cfg.CORSOrigins,
		router:     mux.NewRouter(),
		log:        config.Logger(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Vehicles and their telemetry
	registerCRUD(s, "/vehicles", "vin", s.registries.Vehicles)
	s.router.HandleFunc("/vehicles/{vin}/telemetry", s.handleCreateTelemetry).Methods("POST")
	s.router.HandleFunc("/vehicles/{vin}/telemetry", s.handleVehicleTelemetry).Methods("GET")
	s.router.HandleFunc("/vehicles/{vin}/telemetry/latest", s.handleLatestTelemetry).Methods("GET")
	s.router.HandleFunc("/vehicles/{vin}/telemetry/history", s.handleTelemetryHistory).Methods("GET")
	s.router.HandleFunc("/vehicles/{vin}/telemetry/summary", s.handleTelemetrySummary).Methods("GET")

	s.router.HandleFunc("/telemetry", s.handleQueryTelemetry).Methods("GET")
	s.router.HandleFunc("/telemetry/batch", s.handleBatchTelemetry).Methods("POST")
	s.router.HandleFunc("/diagnostics", s.handleDiagnostics).Methods("GET")

	// Alerts are produced by ingestion only
	s.router.HandleFunc("/alerts", s.handleListAlerts).Methods("GET")
	s.router.HandleFunc("/alerts/{id}", s.handleGetAlert).Methods("GET")
	s.router.HandleFunc("/alerts/{id}", s.handleDeleteAlert).Methods("DELETE")

	registerCRUD(s, "/drivers", "driver_id", s.registries.Drivers)
	registerCRUD(s, "/trips", "trip_id", s.registries.Trips)
	registerCRUD(s, "/fleets", "fleet_id", s.registries.Fleets)
	registerCRUD(s, "/owners", "owner_id", s.registries.Owners)
	registerCRUD(s, "/maintenance", "record_id", s.registries.Maintenance)

	s.router.HandleFunc("/fleets/{fleet_id}/analytics", s.handleFleetAnalytics).Methods("GET")
	s.router.HandleFunc("/dashboard/stats", s.handleDashboardStats).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, NewAPIError(ErrorCodeNotFound, "no route for "+r.URL.Path, nil, http.StatusNotFound))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, NewAPIError(ErrorCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path, nil, http.StatusMethodNotAllowed))
	})

	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler wraps the router with CORS for the configured origins.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Middleware
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Printf("%s %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, p, debug.Stack())
				respondError(w, NewAPIError(ErrorCodeInternalServerError, "internal server error", nil, http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Response helpers
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *meta     `json:"meta,omitempty"`
}

type meta struct {
	Total   int   `json:"total"`
	Limit   int   `json:"limit,omitempty"`
	Offset  int   `json:"offset,omitempty"`
	QueryMs int64 `json:"query_ms"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		config.Logger().Printf("failed to encode response: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func respondWithMeta(w http.ResponseWriter, data any, m *meta) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data, Meta: m})
}

func respondError(w http.ResponseWriter, apiErr APIError) {
	writeJSON(w, apiErr.StatusCode, apiResponse{Success: false, Error: &apiErr})
}

// respondErr maps err and logs the ones the client did not cause.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	respondError(w, apiErr)
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// Handlers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := queryLimit(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	alerts, err := s.registries.Alerts.Recent(r.Context(), limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, alerts, &meta{Total: len(alerts), Limit: limit, QueryMs: since(start)})
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.registries.Alerts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.registries.Alerts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondNoContent(w)
}

// maxWindowHours keeps the analytics window within time.Duration.
var maxWindowHours = math.MaxInt64 / float64(time.Hour)

func (s *Server) handleFleetAnalytics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	window := s.window
	if v := r.URL.Query().Get("window_hours"); v != "" {
		hours, err := queryFloat(r, "window_hours")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if math.IsNaN(hours) || hours <= 0 || hours >= maxWindowHours {
			respondError(w, NewAPIError(ErrorCodeValidationFailed, "window_hours must be a positive number of hours", map[string]string{"field": "window_hours"}, http.StatusBadRequest))
			return
		}
		window = time.Duration(hours * float64(time.Hour))
	}

	stats, err := s.analyzer.Fleet(r.Context(), mux.Vars(r)["fleet_id"], window)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, stats, &meta{Total: stats.ActiveVehicles + stats.InactiveVehicles, QueryMs: since(start)})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analyzer.Dashboard(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
