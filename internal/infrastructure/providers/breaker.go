package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/veridex/riskengine/internal/domain/port"
)

// Breaker states reported on the health surface.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// ErrBreakerOpen short-circuits calls to a provider that keeps failing.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerConfig bounds the failure tolerance per provider.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the breaker.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before a trial call.
	ResetTimeout time.Duration
}

// DefaultBreakerConfig mirrors the deployed settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// Breaker wraps one signal provider with a consecutive-failure circuit
// breaker. An open breaker fails fast without burning request budget.
type Breaker struct {
	inner port.SignalProvider
	cfg   BreakerConfig
	now   func() time.Time

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
}

// NewBreaker wraps the provider. Zero-valued config fields take defaults.
func NewBreaker(inner port.SignalProvider, cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	return &Breaker{inner: inner, cfg: cfg, now: time.Now}
}

// ProviderID proxies the wrapped provider's identity.
func (b *Breaker) ProviderID() string { return b.inner.ProviderID() }

// Score proxies the call while the breaker admits it.
func (b *Breaker) Score(ctx context.Context, text string) (float64, error) {
	if !b.admit() {
		return 0, ErrBreakerOpen
	}

	score, err := b.inner.Score(ctx, text)
	b.record(err)
	if err != nil {
		return 0, err
	}
	return score, nil
}

// State reports the breaker position.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return StateClosed
	}
	if b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return StateOpen
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	// Half-open: one trial call after the reset window.
	return b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.open = false
		return
	}

	b.failures++
	if b.failures >= b.cfg.FailureThreshold {
		b.open = true
		b.openedAt = b.now()
	}
}

// BreakerGroup wraps a provider set and exposes the aggregated breaker
// states for the health endpoint.
type BreakerGroup struct {
	breakers []*Breaker
}

// NewBreakerGroup wraps every provider with its own breaker.
func NewBreakerGroup(providers []port.SignalProvider, cfg BreakerConfig) *BreakerGroup {
	breakers := make([]*Breaker, len(providers))
	for i, p := range providers {
		breakers[i] = NewBreaker(p, cfg)
	}
	return &BreakerGroup{breakers: breakers}
}

// Providers returns the wrapped providers in declaration order.
func (g *BreakerGroup) Providers() []port.SignalProvider {
	out := make([]port.SignalProvider, len(g.breakers))
	for i, b := range g.breakers {
		out[i] = b
	}
	return out
}

// BreakerStates implements port.BreakerStateReader.
func (g *BreakerGroup) BreakerStates() map[string]string {
	states := make(map[string]string, len(g.breakers))
	for _, b := range g.breakers {
		states[b.ProviderID()] = b.State()
	}
	return states
}
