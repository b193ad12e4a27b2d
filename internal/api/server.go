// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/models"
	"github.com/trust-scanner/internal/service"
)

// AnalysisServiceInterface defines the operations handlers need; the concrete
// service satisfies it, tests substitute mocks.
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, address string) (*service.AnalysisResult, error)
	History(ctx context.Context, address string, limit int) ([]*models.AnalysisRecord, error)
	InvalidateCache(ctx context.Context, address string) error
	InvalidateAllCache(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	router          *mux.Router
	httpServer      *http.Server
	analysisService AnalysisServiceInterface
	historyEnabled  bool
	logger          *logging.Logger
	config          *ServerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int
	PaidTierRPS     int
}

// DefaultServerConfig returns sensible server timeouts. The write timeout is
// generous because a fresh analysis holds the connection through two
// upstream round-trips.
func DefaultServerConfig(host, port string) *ServerConfig {
	return &ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    5 * time.Minute,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		FreeTierRPS:     5,
		PaidTierRPS:     50,
	}
}

// NewServer creates a new API server instance
func NewServer(config *ServerConfig, analysisService AnalysisServiceInterface, historyEnabled bool, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:          mux.NewRouter(),
		analysisService: analysisService,
		historyEnabled:  historyEnabled,
		logger:          logger,
		config:          config,
	}

	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.PaidTierRPS)

	// Middleware order matters: logging wraps everything, recovery before
	// anything that can panic, rate limiting after CORS preflights.
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes registers all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/analyze/{address}", s.handleAnalyze).Methods(http.MethodGet)
	v1.HandleFunc("/history/{address}", s.handleHistory).Methods(http.MethodGet)
	v1.HandleFunc("/cache/{address}", s.handleEvictAddress).Methods(http.MethodDelete)
	v1.HandleFunc("/cache", s.handleEvictAll).Methods(http.MethodDelete)
}

// Router returns the underlying router; tests drive it directly
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start begins serving requests and blocks until the server stops
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"history": s.historyEnabled,
	})
}
