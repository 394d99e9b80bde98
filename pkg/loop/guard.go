package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// BreakerConfig holds the sensor circuit breaker settings
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MaxFailures is the consecutive read failures that open the breaker.
	MaxFailures uint32
}

// DefaultBreakerConfig returns a default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "sensors",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Second,
		MaxFailures: 3,
	}
}

func newBreaker(cfg BreakerConfig, onChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: onChange,
	})
}

// newLimiter paces cycles at hz per second; hz <= 0 disables pacing.
func newLimiter(hz float64) *rate.Limiter {
	if hz <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(hz), 1)
}

// readGuarded reads the sensors through the breaker
func readGuarded(ctx context.Context, cb *gobreaker.CircuitBreaker, s Sensors) (map[string]float64, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return s.Read(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}
	readings, _ := out.(map[string]float64)
	return readings, nil
}
