// Package http exposes the progress engine over a local REST interface for
// the UI shell: read models for progress, quiz, pet, and achievements, and
// the mutation endpoints that funnel into the engine.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/impranzal/brainBuddy-sub000/config"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/internal/engine"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr is the listen address (default: "127.0.0.1:8085").
	Addr string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8085",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Dependencies contains everything the handlers need.
type Dependencies struct {
	Engine   *engine.Engine
	Features *config.FeatureFlags
	Logger   *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the local HTTP interface.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *slog.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger.With("component", "http"),
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("GET /api/v1/progress", s.handleGetProgress)
	s.router.HandleFunc("GET /api/v1/progress/remote", s.handleGetRemoteStats)
	s.router.HandleFunc("POST /api/v1/progress/xp", s.handleCreditXP)

	s.router.HandleFunc("GET /api/v1/quiz", s.handleGetQuiz)
	s.router.HandleFunc("POST /api/v1/quiz/answer", s.handleSubmitAnswer)
	s.router.HandleFunc("POST /api/v1/quiz/reset", s.handleResetQuizzes)

	s.router.HandleFunc("GET /api/v1/pet", s.handleGetPet)
	s.router.HandleFunc("POST /api/v1/pet/select", s.handleSelectPet)
	s.router.HandleFunc("POST /api/v1/pet/feed", s.handleFeedPet)
	s.router.HandleFunc("POST /api/v1/pet/play", s.handlePlayPet)
	s.router.HandleFunc("POST /api/v1/pet/reset", s.handleResetPet)

	s.router.HandleFunc("GET /api/v1/achievements", s.handleGetAchievements)
	s.router.HandleFunc("GET /api/v1/badges", s.handleGetBadges)
}

// Start begins serving. Blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", s.config.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()

		next.ServeHTTP(w, r)

		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

// featureEnabled gates a handler on a feature flag.
func (s *Server) featureEnabled(w http.ResponseWriter, name string) bool {
	if s.deps.Features == nil || s.deps.Features.IsEnabled(name) {
		return true
	}
	writeError(w, http.StatusServiceUnavailable, "feature disabled: "+name)
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: status < 400, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: message})
}

// writeDomainError maps domain errors to HTTP status codes. Interaction
// rejections are conflicts: the request was understood, the state refused it.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsRejection(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrEmptyValue),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrValueOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
