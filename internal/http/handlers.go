package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/trace"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks templates and the persistence backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if err := s.svc.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewHTMXResponse().Status(code).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.rateLimiter.GetMetrics()
	secMetrics := s.detector.GetMetrics()
	cacheStats := s.svc.ProjectionCache().Stats()
	ov := s.svc.Projection(r.Context())

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "Average response time", "gauge", traceMetrics.AverageResponseTime)
	metric("rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", limitMetrics.TotalHits)
	metric("rate_limit_active_clients", "Clients tracked by the rate limiter", "gauge", limitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "Requests flagged as suspicious", "counter", secMetrics.SuspiciousRequests)
	metric("projection_cache_hits_total", "Projection cache hits", "counter", cacheStats.Hits)
	metric("projection_cache_misses_total", "Projection cache misses", "counter", cacheStats.Misses)
	metric("ledger_revision", "Current in-process ledger revision", "gauge", ov.Revision)
	metric("ledger_movements", "Number of recorded movements", "gauge", len(ov.Ledger.Movements))
	metric("ledger_final_balance", "Projected final balance", "gauge", ov.Projection.Final.Fixed())
	metric("uptime_seconds", "Seconds since start", "gauge", int64(time.Since(s.started).Seconds()))
}

// handleIndex renders the table view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Página no encontrada").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ov := s.svc.Projection(r.Context())
	s.render(w, r, "index.html", newIndexView(ov, s.today()))
}

// handleCalendar renders one month of the projection.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	today := s.today()
	month, ok := ParseMonthParams(r.URL.Query(), today)
	if !ok {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Invalid month parameter",
			"raw_month", r.URL.Query().Get("month"),
			"corrected_to", month.Month)
	}

	ov := s.svc.Projection(r.Context())
	s.render(w, r, "calendar.html", newCalendarView(ov, month.Year, month.Month, today))
}

// handleAPIProjection returns the projection with its summary.
func (s *Server) handleAPIProjection(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ov := s.svc.Projection(r.Context())
	NewHTMXResponse().JSON(newProjectionJSON(ov)).Write(w)
}

// handleAPIMovements returns the movements in canonical order.
func (s *Server) handleAPIMovements(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	movements := s.svc.Projection(r.Context()).Projection.Sorted
	if movements == nil {
		movements = []core.Movement{}
	}
	NewHTMXResponse().JSON(movements).Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		InternalServerError("Plantillas no disponibles").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithRequestID(trace.RequestID(r)))
		InternalServerError("Error al mostrar la página").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
