package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	appconfig "scholar-score/config"
	"scholar-score/observability"
)

// ErrCircuitOpen is returned when a breaker rejects a call without attempting it
var ErrCircuitOpen = errors.New("circuit breaker open")

// Circuit breaker names for completion providers
const (
	BreakerOpenAI  = "openai"
	BreakerBedrock = "bedrock"
)

// CircuitBreakerConfig controls when a completion provider is taken out of rotation.
// While a breaker is open every text report goes straight to pattern matching.
type CircuitBreakerConfig struct {
	MinRequests      uint32        // requests in the window before the failure ratio is considered
	FailureRatio     float64       // share of failed requests that trips the breaker
	Window           time.Duration // cyclic period of the closed state to clear counts
	OpenFor          time.Duration // period of the open state before a half-open trial call
	HalfOpenRequests uint32        // trial calls allowed through while half-open
}

// DefaultCircuitBreakerConfig matches the extraction defaults in config
var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MinRequests:      5,
	FailureRatio:     0.5,
	Window:           time.Minute,
	OpenFor:          30 * time.Second,
	HalfOpenRequests: 1,
}

// BreakerConfigFrom builds the breaker settings from the extraction configuration
func BreakerConfigFrom(cfg appconfig.ExtractionConfig) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MinRequests:      uint32(cfg.BreakerMinRequests),
		FailureRatio:     cfg.BreakerFailureRatio,
		Window:           time.Duration(cfg.BreakerWindowSeconds) * time.Second,
		OpenFor:          time.Duration(cfg.BreakerOpenSeconds) * time.Second,
		HalfOpenRequests: uint32(cfg.BreakerHalfOpenRequests),
	}
}

// CircuitBreakerRegistry holds one breaker per completion provider
type CircuitBreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[string]
	config   CircuitBreakerConfig
}

// NewCircuitBreakerRegistry creates a new registry with the given config
func NewCircuitBreakerRegistry(config CircuitBreakerConfig) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*gobreaker.CircuitBreaker[string]),
		config:   config,
	}
}

// Config returns the settings new breakers are created with
func (r *CircuitBreakerRegistry) Config() CircuitBreakerConfig {
	return r.config
}

func (r *CircuitBreakerRegistry) breaker(name string) *gobreaker.CircuitBreaker[string] {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok = r.breakers[name]; ok {
		return cb
	}

	cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:         name,
		MaxRequests:  r.config.HalfOpenRequests,
		Interval:     r.config.Window,
		Timeout:      r.config.OpenFor,
		ReadyToTrip:  r.readyToTrip,
		IsExcluded:   isCallerCancellation,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Warn("Completion provider breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())

			metrics := observability.GetMetrics()
			metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
		},
	})
	observability.GetMetrics().SetCircuitBreakerState(name, stateToInt(gobreaker.StateClosed))
	r.breakers[name] = cb
	return cb
}

func (r *CircuitBreakerRegistry) readyToTrip(counts gobreaker.Counts) bool {
	attempts := counted(counts)
	if attempts == 0 || attempts < r.config.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(attempts) >= r.config.FailureRatio
}

// counted is the number of requests not cancelled by their caller
func counted(counts gobreaker.Counts) uint32 {
	if counts.Requests < counts.TotalExclusions {
		return 0
	}
	return counts.Requests - counts.TotalExclusions
}

// isCallerCancellation keeps a caller's own cancellation out of the provider's counts.
// A deadline still counts: the provider was too slow to answer inside the extraction timeout.
func isCallerCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Call runs fn through the breaker for the named provider. A context that is already
// done never reaches the breaker.
func (r *CircuitBreakerRegistry) Call(ctx context.Context, name string, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := r.breaker(name).Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		observability.FromContext(ctx).Warn("Completion provider breaker open, skipping call",
			"breaker", name)
		return "", fmt.Errorf("%s unavailable: %w", name, ErrCircuitOpen)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.FromContext(ctx).Warn("Completion provider breaker half-open, trial call already in flight",
			"breaker", name)
		return "", fmt.Errorf("%s unavailable, trial call in flight: %w", name, ErrCircuitOpen)
	}
	return result, err
}

// BreakerStatus is the health view of one provider breaker
type BreakerStatus struct {
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	Failures            uint32 `json:"failures"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Status reports every breaker that has been used, keyed by provider name
func (r *CircuitBreakerRegistry) Status() map[string]BreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]BreakerStatus, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		status[name] = BreakerStatus{
			State:               cb.State().String(),
			Requests:            counted(counts),
			Failures:            counts.TotalFailures,
			ConsecutiveFailures: counts.ConsecutiveFailures,
		}
	}
	return status
}

var (
	globalMu       sync.Mutex
	globalRegistry *CircuitBreakerRegistry
)

// GetGlobalRegistry returns the process-wide registry, creating one with
// DefaultCircuitBreakerConfig if none has been set
func GetGlobalRegistry() *CircuitBreakerRegistry {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalRegistry == nil {
		globalRegistry = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return globalRegistry
}

// SetGlobalRegistry replaces the process-wide registry
func SetGlobalRegistry(r *CircuitBreakerRegistry) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalRegistry = r
}

// withBreaker runs a provider call through the process-wide registry
func withBreaker(ctx context.Context, name string, fn func() (string, error)) (string, error) {
	return GetGlobalRegistry().Call(ctx, name, fn)
}

// stateToInt converts a breaker state to the gauge value: 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
