// Package http exposes the JSON REST API: category and entry CRUD,
// search, statistics, auto-create and exports.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"datatracker/internal/export"
	"datatracker/internal/log"
	"datatracker/internal/services"
)

// Deps bundles everything the server needs.
type Deps struct {
	Categories *services.CategoryService
	Entries    *services.EntryService
	Stats      *services.StatsService
	Auto       *services.AutoCreator
	Excel      *export.Excel
	// Sheets is optional; the mirror endpoint answers 503 without it.
	Sheets *export.Sheets
	Logger *log.Logger
}

type Server struct {
	http.Server

	categories *services.CategoryService
	entries    *services.EntryService
	stats      *services.StatsService
	auto       *services.AutoCreator
	excel      *export.Excel
	sheets     *export.Sheets
	logger     *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and timeouts, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		categories: deps.Categories,
		entries:    deps.Entries,
		stats:      deps.Stats,
		auto:       deps.Auto,
		excel:      deps.Excel,
		sheets:     deps.Sheets,
		logger:     deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /categories", s.withRequestLog(s.handleCreateCategory))
	mux.HandleFunc("GET /categories", s.withRequestLog(s.handleListCategories))
	mux.HandleFunc("PUT /categories/{id}", s.withRequestLog(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withRequestLog(s.handleDeleteCategory))
	mux.HandleFunc("POST /categories/{id}/duplicate", s.withRequestLog(s.handleDuplicateCategory))

	mux.HandleFunc("POST /categories/{id}/entries", s.withRequestLog(s.handleCreateEntry))
	mux.HandleFunc("GET /categories/{id}/entries", s.withRequestLog(s.handleListEntries))
	mux.HandleFunc("PUT /categories/{id}/entries/{entryID}", s.withRequestLog(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /categories/{id}/entries/{entryID}", s.withRequestLog(s.handleDeleteEntry))
	mux.HandleFunc("GET /entries", s.withRequestLog(s.handleSearchEntries))

	mux.HandleFunc("GET /categories/{id}/insights", s.withRequestLog(s.handleCategoryInsights))
	mux.HandleFunc("GET /stats/overview", s.withRequestLog(s.handleStatsOverview))
	mux.HandleFunc("GET /stats/monthly", s.withRequestLog(s.handleStatsMonthly))
	mux.HandleFunc("GET /dashboard/stats", s.withRequestLog(s.handleDashboardStats))
	mux.HandleFunc("GET /dashboard/timeseries", s.withRequestLog(s.handleDashboardTimeseries))

	mux.HandleFunc("POST /auto-create-current-month", s.withRequestLog(s.handleAutoCreate))

	mux.HandleFunc("GET /export", s.withRequestLog(s.handleExportAll))
	mux.HandleFunc("GET /export/category/{id}", s.withRequestLog(s.handleExportCategory))
	mux.HandleFunc("POST /export/sheets", s.withRequestLog(s.handleExportSheets))

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withRequestLog adds a request id, response headers and request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.Info("Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
