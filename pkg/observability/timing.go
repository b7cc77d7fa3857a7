package observability

import (
	"context"
	"log/slog"
	"time"
)

// TimeOperation runs fn and records its duration, a call count and, on
// failure, an error count, all tagged with operation. Failures log at warn
// since most are domain rejections the caller reports.
func TimeOperation[R any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (R, error)) (R, error) {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)

	tag := T("operation", operation)
	metrics.Timing(MetricOperationDuration, elapsed, tag)
	metrics.Counter(MetricOperationTotal, 1, tag)

	attrs := []any{OperationKey, operation, DurationKey, elapsed.Milliseconds()}
	if err != nil {
		metrics.Counter(MetricOperationErrors, 1, tag)
		logger.WarnContext(ctx, "operation failed", append(attrs, ErrorKey, err.Error())...)
		return result, err
	}
	logger.DebugContext(ctx, "operation completed", attrs...)
	return result, nil
}
