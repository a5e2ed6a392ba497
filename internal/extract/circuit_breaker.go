package extract

import (
	"fmt"

	"github.com/sony/gobreaker/v2"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// CircuitBreaker guards calls to a remote text extraction service.
// A nil *CircuitBreaker runs calls unguarded.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewCircuitBreaker returns nil when the breaker is disabled.
func NewCircuitBreaker(service string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("extract-%s", service),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker) Execute(fn func() (string, error)) (string, error) {
	if c == nil || c.cb == nil {
		return fn()
	}
	return c.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (c *CircuitBreaker) Stats() map[string]any {
	if c == nil || c.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    c.cb.Name(),
		"state":   c.cb.State().String(),
		"counts":  c.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed.
func (c *CircuitBreaker) IsHealthy() bool {
	if c == nil || c.cb == nil {
		return true
	}
	return c.cb.State() == gobreaker.StateClosed
}
