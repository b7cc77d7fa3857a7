// Package api provides the HTTP API of the Beaver router.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/beaver/internal/app"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/felixgeelhaar/beaver/pkg/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CallerHeader carries the account address a request acts for.
const CallerHeader = "X-Caller"

// Server is the HTTP API server for the router.
type Server struct {
	router    *mux.Router
	server    *http.Server
	logger    *slog.Logger
	container *app.Container
	handler   *RouterHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new router API server.
func NewServer(cfg ServerConfig, container *app.Container, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		container: container,
		handler:   NewRouterHandler(container, logger),
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.router.Use(s.requestContext)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.container.MetricsRegistry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.container.MetricsRegistry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	h := s.handler
	s.router.HandleFunc("/router", h.RouterInfo).Methods(http.MethodGet)

	s.router.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	s.router.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	s.router.HandleFunc("/products/{hash}", h.GetProduct).Methods(http.MethodGet)

	s.router.HandleFunc("/subscriptions", h.StartSubscription).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions", h.ListSubscriptions).Methods(http.MethodGet)
	s.router.HandleFunc("/subscriptions/setup", h.SetupSubscription).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions/due", h.ListDue).Methods(http.MethodGet)
	s.router.HandleFunc("/subscriptions/initiator", h.ChangeInitiatorForAll).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions/{hash}", h.GetSubscription).Methods(http.MethodGet)
	s.router.HandleFunc("/subscriptions/{hash}/payments", h.MakePayment).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions/{hash}/payments", h.ListPayments).Methods(http.MethodGet)
	s.router.HandleFunc("/subscriptions/{hash}/terminate", h.TerminateSubscription).Methods(http.MethodPost)
	s.router.HandleFunc("/subscriptions/{hash}/initiator", h.ChangeInitiator).Methods(http.MethodPost)

	s.router.HandleFunc("/tokens/{token}/balances/{account}", h.GetBalance).Methods(http.MethodGet)
}

// requestContext attaches correlation and caller data to every request.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get("X-Correlation-ID"))
		if caller := r.Header.Get(CallerHeader); caller != "" {
			ctx = observability.WithCaller(ctx, caller)
		}
		w.Header().Set("X-Correlation-ID", observability.CorrelationIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleHealth reports the state of every registered dependency.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report := s.container.Health.Check(ctx)
	code := http.StatusOK
	if !report.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     report.Status,
		"backend":    s.container.Backend,
		"checks":     report.Checks,
		"checked_at": report.CheckedAt.Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting router API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down router API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, apiErr)
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrMissingCaller = &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "missing_caller",
		Message: CallerHeader + " header is required",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

// errorFor maps a domain error to its API error.
func errorFor(err error) *APIError {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, sharedDomain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sharedDomain.ErrUnauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, sharedDomain.ErrAlreadyTerminated):
		status, code = http.StatusConflict, "terminated"
	case errors.Is(err, sharedDomain.ErrNotDue):
		status, code = http.StatusConflict, "not_due"
	case errors.Is(err, sharedDomain.ErrExpired):
		status, code = http.StatusConflict, "expired"
	case errors.Is(err, sharedDomain.ErrInvalidCompensation):
		status, code = http.StatusUnprocessableEntity, "invalid_compensation"
	case errors.Is(err, sharedDomain.ErrTransferFailed):
		status, code = http.StatusPaymentRequired, "transfer_failed"
	case errors.Is(err, sharedDomain.ErrInvalidParameters):
		status, code = http.StatusBadRequest, "invalid_parameters"
	case errors.Is(err, sharedDomain.ErrInconsistentState):
		status, code = http.StatusConflict, "inconsistent_state"
	}
	if status == http.StatusInternalServerError {
		return ErrInternalServer
	}
	return &APIError{Status: status, Code: code, Message: err.Error()}
}
