package api

import (
	"context"
	"encoding/json"
	"net/http"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/health"
	"codeberg.org/mutker/deviceapi/internal/history"
	"codeberg.org/mutker/deviceapi/internal/logger"
	"codeberg.org/mutker/deviceapi/internal/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the device API over HTTP. Capability endpoints resolve
// their provider per request; an unbound contract answers 404, never 500.
type Server struct {
	cfg      Config
	logger   logger.Logger
	registry *registry.Registry
	service  *health.Service
	history  *history.Repository
	server   *http.Server
}

// Option adjusts server construction.
type Option func(*Server)

// WithHistory exposes the snapshot history endpoint backed by repo.
func WithHistory(repo *history.Repository) Option {
	return func(s *Server) {
		s.history = repo
	}
}

func NewServer(cfg Config, reg *registry.Registry, service *health.Service, log logger.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		service:  service,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Routes builds the request mux. Exposed so tests can drive handlers
// through httptest without binding a socket.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleLiveness)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/platform", s.handlePlatform)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/summary", s.handleHealthSummary)
	mux.HandleFunc("/cameras", s.handleCameras)
	mux.HandleFunc("/screenshot", s.handleScreenshot)
	mux.HandleFunc("/player", s.handlePlayerStatus)
	mux.HandleFunc("/player/restart", s.handlePlayerRestart)
	mux.HandleFunc("/actions/restart", s.handleActionRestart)
	mux.HandleFunc("/actions/reboot", s.handleActionReboot)

	if s.history != nil {
		mux.HandleFunc("/history", s.handleHistory)
	}

	return mux
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("address", s.cfg.ListenAddress).Msg("HTTP server listening")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New().Wrap(errors.ErrUnavailable, err)
	}

	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	s.logger.Info().Msg("HTTP server stopped")

	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain error codes to HTTP statuses. An unbound
// capability contract is an expected per-platform condition and maps to
// 404; provider failures surface as 502 so callers can tell the device
// API itself stayed healthy.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.ErrInternal
	var domainErr errors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code()
	}

	status := http.StatusInternalServerError
	switch {
	case errors.HasCode(err, registry.ErrUnresolvedDependency):
		code = errors.ErrCapabilityUnavailable
		status = http.StatusNotFound
	case errors.HasCode(err, errors.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.HasCode(err, errors.ErrProviderFailed),
		errors.HasCode(err, errors.ErrCapabilityFailed),
		errors.HasCode(err, errors.ErrCollectMetrics):
		status = http.StatusBadGateway
	case errors.HasCode(err, errors.ErrInvalidArgument):
		status = http.StatusBadRequest
	}

	s.logger.Error().Err(err).Int("status", status).Msg("Request failed")
	s.writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.GetErrorMessage(code),
	})
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Code:    string(errors.ErrInvalidOperation),
			Message: "method not allowed",
		})

		return false
	}

	return true
}
