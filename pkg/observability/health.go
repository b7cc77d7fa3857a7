package observability

import (
	"context"
	"sync"
	"time"
)

// HealthStatus is the state of one dependency or of the whole process.
// Statuses are ordered: healthy < degraded < unhealthy.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusHealthy:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// HealthCheckResult is one dependency's answer.
type HealthCheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// HealthReport is the outcome of running every registered check. Status is
// the worst individual status.
type HealthReport struct {
	Status    HealthStatus                 `json:"status"`
	CheckedAt time.Time                    `json:"checked_at"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// Ready reports whether no check is unhealthy. Degraded dependencies (cache,
// broker) do not make the router unready.
func (r HealthReport) Ready() bool {
	return r.Status != HealthStatusUnhealthy
}

// HealthChecker checks one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry holds the checks for the storage, cache and broker
// connections a process opened.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

// Register adds or replaces the check named name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs all checks concurrently. With nothing registered the report is
// healthy.
func (r *HealthRegistry) Check(ctx context.Context) HealthReport {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	report := HealthReport{
		Status: HealthStatusHealthy,
		Checks: make(map[string]HealthCheckResult, len(checkers)),
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res := check(ctx)
			res.Duration = time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = res
			if res.Status.rank() > report.Status.rank() {
				report.Status = res.Status
			}
		}()
	}
	wg.Wait()
	report.CheckedAt = time.Now().UTC()
	return report
}

// PingChecker turns a ping function into a check. A failed ping reports
// failStatus: unhealthy for storage, degraded for optional dependencies.
func PingChecker(component string, failStatus HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: failStatus, Message: component + ": " + err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " reachable"}
	}
}

// DatabaseHealthChecker fails unhealthy.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return PingChecker("database", HealthStatusUnhealthy, ping)
}

// RedisHealthChecker fails degraded; products fall back to the local cache.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return PingChecker("redis", HealthStatusDegraded, ping)
}

// RabbitMQHealthChecker fails degraded; events stay in the outbox.
func RabbitMQHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return PingChecker("rabbitmq", HealthStatusDegraded, ping)
}
