package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
	appweb "saldo/web"
)

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.LedgerService
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	caches      *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. logger may be nil.
func NewServer(addr string, svc *services.LedgerService, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:         svc,
		logger:      logger,
		events:      applog.NewStructuredLogger(logger),
		now:         time.Now,
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, logger),
		caches:      cache.NewManager(),
		started:     time.Now(),
	}

	s.caches.Register(svc.ProjectionCache())
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Views
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/calendar", s.handleCalendar)

	// JSON API
	mux.HandleFunc("/api/projection", s.handleAPIProjection)
	mux.HandleFunc("/api/movements", s.handleAPIMovements)

	// Mutations
	mux.HandleFunc("/movements", s.handleCreateMovement)
	mux.HandleFunc("/movements/update", s.handleUpdateMovement)
	mux.HandleFunc("/movements/delete", s.handleDeleteMovement)
	mux.HandleFunc("/movements/toggle", s.handleToggleMovement)
	mux.HandleFunc("/ledger/clear", s.handleClearLedger)
	mux.HandleFunc("/ledger/balance", s.handleSetBalance)
	mux.HandleFunc("/ledger/currency", s.handleSetCurrency)
	mux.HandleFunc("/voice", s.handleVoice)

	s.Handler = s.middleware(mux)
	return s
}

// middleware wraps every route, outermost first: tracing, request logger,
// scan detection, security headers, then the mutation rate limit.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimit)(next)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(limited)
	detected := s.detector.Middleware(headers)
	logged := applog.Middleware(s.logger)(applog.RequestIDMiddleware(trace.RequestID)(detected))
	return s.tracer.Middleware(logged)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes. Inténtalo de nuevo en un minuto.").
		Header("Retry-After", "60").
		Write(w)
}

// today is the calendar day used for form defaults and voice dates.
func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
