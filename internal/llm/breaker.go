package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable is returned while the circuit is open.
var ErrUnavailable = errors.New("generator unavailable")

// BreakerSettings holds configuration for the generator circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip when the failure ratio reaches FailureThreshold after at least
	// MinRequests requests in the current interval.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns settings tuned for a chat-completion API.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerGenerator guards another Generator with a circuit breaker, so a
// failing provider is not hammered by retry loops.
type BreakerGenerator struct {
	next   Generator
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerGenerator wraps next.
func NewBreakerGenerator(next Generator, settings BreakerSettings, logger *zap.Logger) *BreakerGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generator circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerGenerator{next: next, cb: cb, logger: logger}
}

// Generate implements Generator.
func (b *BreakerGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return Response{}, err
	}
	resp, _ := out.(Response)
	return resp, nil
}

// State returns the breaker state name ("closed", "half-open", "open").
func (b *BreakerGenerator) State() string {
	return b.cb.State().String()
}
