package port

import (
	"context"
	"errors"

	"github.com/veridex/riskengine/internal/domain/model"
)

// ErrNoActiveVersion is returned when a domain has no admitted model version.
var ErrNoActiveVersion = errors.New("no active model version")

// ErrVersionNotFound is returned when a registry lookup misses.
var ErrVersionNotFound = errors.New("model version not found")

// SignalProvider is the single capability every ensemble member exposes.
// Implementations must be safe for concurrent use.
type SignalProvider interface {
	// ProviderID identifies the provider in signals, weights and flags.
	ProviderID() string

	// Score rates the text in [0,1]. The context carries the provider's
	// share of the per-request budget.
	Score(ctx context.Context, text string) (float64, error)
}

// BreakerStateReader exposes per-provider circuit breaker states for the
// health endpoint.
type BreakerStateReader interface {
	BreakerStates() map[string]string
}

// AuditChain is the append-only, hash-linked audit log. Append must be
// linearized per chain by the implementation.
type AuditChain interface {
	// Append seals the record against the current chain head and persists
	// it. The returned record carries its assigned sequence and hashes.
	Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error)

	// Page reads records with sequence greater than after, oldest first,
	// up to limit.
	Page(ctx context.Context, after uint64, limit int) ([]model.AuditRecord, error)

	// Head returns the most recent record, or nil for an empty chain.
	Head(ctx context.Context) (*model.AuditRecord, error)
}

// EventPublisher sends domain events to the messaging infrastructure.
type EventPublisher interface {
	Publish(ctx context.Context, events ...any) error
}

// ModelRegistry resolves and governs model versions. Exactly one version is
// active per domain; activation is an atomic swap.
type ModelRegistry interface {
	// Active returns the version currently serving the domain.
	Active(domain string) (model.ModelVersion, error)

	// Get looks up any registered version by its version string.
	Get(version string) (model.ModelVersion, error)

	// List returns all registered versions.
	List() []model.ModelVersion

	// Register adds an immutable candidate version.
	Register(v model.ModelVersion) error

	// Activate atomically makes the version active for its domain. The
	// caller is responsible for having passed the release gate first.
	Activate(domain, version string) error

	// ReleasePolicy returns the policy candidates are gated against.
	ReleasePolicy() model.ReleasePolicy
}
