package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fleet-manager/internal/models"
)

func (s *Server) handleCreateTelemetry(w http.ResponseWriter, r *http.Request) {
	var reading models.TelemetryReading
	if err := decodeBody(r, &reading); err != nil {
		s.respondErr(w, r, err)
		return
	}

	stored, err := s.telemetry.Ingest(r.Context(), mux.Vars(r)["vin"], reading)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleBatchTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var readings []models.TelemetryReading
	if err := decodeBody(r, &readings); err != nil {
		s.respondErr(w, r, err)
		return
	}

	stored, err := s.telemetry.IngestBatch(r.Context(), readings)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{
		Success: true,
		Data:    stored,
		Meta:    &meta{Total: len(stored), QueryMs: since(start)},
	})
}

func (s *Server) handleVehicleTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := queryLimit(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	readings, err := s.telemetry.ListForVehicle(r.Context(), mux.Vars(r)["vin"], limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, readings, &meta{Total: len(readings), Limit: limit, QueryMs: since(start)})
}

func (s *Server) handleLatestTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reading, err := s.telemetry.Latest(r.Context(), mux.Vars(r)["vin"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, reading, &meta{Total: 1, QueryMs: since(start)})
}

func (s *Server) handleTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	from, err := queryTime(r, "start_time")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	to, err := queryTime(r, "end_time")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		s.respondErr(w, r, &models.ValidationError{Field: "end_time", Message: "must not be before start_time"})
		return
	}

	readings, err := s.telemetry.History(r.Context(), mux.Vars(r)["vin"], from, to)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, readings, &meta{Total: len(readings), QueryMs: since(start)})
}

func (s *Server) handleTelemetrySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	summary, err := s.telemetry.Summary(r.Context(), mux.Vars(r)["vin"])
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, summary, &meta{Total: summary.TotalRecords, QueryMs: since(start)})
}

func (s *Server) handleQueryTelemetry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := models.TelemetryQuery{VINs: queryList(r, "vins")}
	if vin := r.URL.Query().Get("vin"); vin != "" {
		q.VINs = append(q.VINs, vin)
	}

	var err error
	if q.Limit, err = queryLimit(r); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if q.Offset, err = queryOffset(r); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if q.StartTime, err = queryTime(r, "start_time"); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if q.EndTime, err = queryTime(r, "end_time"); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if q.MinSpeed, err = queryFloat(r, "min_speed"); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if q.MaxSpeed, err = queryFloat(r, "max_speed"); err != nil {
		s.respondErr(w, r, err)
		return
	}

	results, err := s.telemetry.Query(r.Context(), q)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, results, &meta{
		Total:   len(results),
		Limit:   q.Limit,
		Offset:  q.Offset,
		QueryMs: since(start),
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, err := queryLimit(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	readings, err := s.telemetry.Diagnostics(r.Context(), r.URL.Query().Get("vin"), limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	respondWithMeta(w, readings, &meta{Total: len(readings), Limit: limit, QueryMs: since(start)})
}
