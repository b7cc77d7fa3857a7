package application

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/beaver/pkg/observability"
)

type instrumentedHandler[C Command, R any] struct {
	next    CommandHandler[C, R]
	logger  *slog.Logger
	metrics observability.Metrics
}

// Instrument wraps a command handler so every call is timed, counted and logged
// under the command's name.
func Instrument[C Command, R any](next CommandHandler[C, R], logger *slog.Logger, metrics observability.Metrics) CommandHandler[C, R] {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &instrumentedHandler[C, R]{next: next, logger: logger, metrics: metrics}
}

func (h *instrumentedHandler[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	logger := h.logger
	if caller := observability.CallerFromContext(ctx); caller != "" {
		logger = logger.With("caller", caller)
	}
	return observability.TimeOperation(ctx, logger, h.metrics, cmd.CommandName(), func() (R, error) {
		return h.next.Handle(ctx, cmd)
	})
}
