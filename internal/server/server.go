// Package server provides the HTTP server and routing for Vantage.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/clients/tradier"
	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/analytics"
	analyticshandlers "github.com/aristath/vantage/internal/modules/analytics/handlers"
	"github.com/aristath/vantage/internal/modules/ledger"
	ledgerhandlers "github.com/aristath/vantage/internal/modules/ledger/handlers"
)

// Config holds server configuration.
type Config struct {
	Log                zerolog.Logger
	Host               string
	Port               int
	CORSAllowedOrigins []string
	DataDir            string
	Version            string

	Store        *ledger.Store
	Archive      *ledger.Repository
	Analytics    *analytics.Service
	EventManager *events.Manager
	Tradier      *tradier.Client // nil when no token is configured
}

// Server represents the HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	version string

	store     *ledger.Store
	archive   *ledger.Repository
	analytics *analytics.Service
	eventMgr  *events.Manager
	tradier   *tradier.Client

	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor

	corsOrigins []string
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Store,
		cfg.Archive,
		cfg.DataDir,
		cfg.Version,
		cfg.Log,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		version:        cfg.Version,
		store:          cfg.Store,
		archive:        cfg.Archive,
		analytics:      cfg.Analytics,
		eventMgr:       cfg.EventManager,
		tradier:        cfg.Tradier,
		systemHandlers: systemHandlers,
		corsOrigins:    cfg.CORSAllowedOrigins,
	}

	s.statusMonitor = NewStatusMonitor(cfg.EventManager, cfg.Store, cfg.Log)

	s.setupMiddleware()
	s.setupRoutes()

	// No ReadTimeout or WriteTimeout: the event stream holds its response
	// open for the life of the client.
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// The event stream stays open for the life of the client, so it
		// lives outside the timed group below.
		streamHandler := NewEventsStreamHandler(s.eventMgr.Bus(), s.log)
		r.Get("/events/stream", streamHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			ledgerHandler := ledgerhandlers.NewHandler(s.store, s.archive, s.eventMgr, s.log)
			ledgerHandler.RegisterRoutes(r)

			analyticsHandler := analyticshandlers.NewHandler(s.analytics, s.log)
			analyticsHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/info", s.systemHandlers.HandleSystemInfo)
			})

			r.Get("/tradier/status", s.handleTradierStatus)
		})
	})
}

// Start starts the HTTP server and background monitors
func (s *Server) Start() error {
	// Status updates every 60 seconds keep stream clients current
	if s.statusMonitor != nil {
		s.statusMonitor.Start(60 * time.Second)
		s.log.Info().Msg("Status monitor started")
	}

	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.statusMonitor != nil {
		s.statusMonitor.Stop()
	}

	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
