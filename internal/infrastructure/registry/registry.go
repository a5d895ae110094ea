package registry

import (
	"fmt"
	"sync"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/port"
)

// ModelRegistry holds the immutable model versions and the single active
// version per domain. Activation is an atomic swap under the lock; readers
// on the request path never see a half-switched state.
type ModelRegistry struct {
	mu       sync.RWMutex
	versions map[string]model.ModelVersion
	active   map[string]string
	order    []string
	policy   model.ReleasePolicy
}

// NewModelRegistry creates a registry gated by the given release policy.
func NewModelRegistry(policy model.ReleasePolicy) *ModelRegistry {
	return &ModelRegistry{
		versions: make(map[string]model.ModelVersion),
		active:   make(map[string]string),
		policy:   policy,
	}
}

// Seed registers startup versions and activates the declared active ones.
// Seeding bypasses the release gate: these versions were gated offline.
func (r *ModelRegistry) Seed(versions []model.ModelVersion, active map[string]string) error {
	for _, v := range versions {
		if err := r.Register(v); err != nil {
			return err
		}
	}
	for domain, version := range active {
		if err := r.Activate(domain, version); err != nil {
			return err
		}
	}
	return nil
}

// Register adds an immutable candidate version.
func (r *ModelRegistry) Register(v model.ModelVersion) error {
	if err := v.Card.Validate(); err != nil {
		return fmt.Errorf("invalid model card: %w", err)
	}
	if v.Version == "" {
		return fmt.Errorf("model version string is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.versions[v.Version]; exists {
		return fmt.Errorf("version %s is already registered", v.Version)
	}
	r.versions[v.Version] = v
	r.order = append(r.order, v.Version)
	return nil
}

// Active returns the version currently serving the domain.
func (r *ModelRegistry) Active(domain string) (model.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	version, ok := r.active[domain]
	if !ok {
		// Domains without a dedicated model fall back to the general one.
		if version, ok = r.active["general"]; !ok {
			return model.ModelVersion{}, fmt.Errorf("%w for domain %s", port.ErrNoActiveVersion, domain)
		}
	}
	return r.versions[version], nil
}

// Get looks up any registered version.
func (r *ModelRegistry) Get(version string) (model.ModelVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.versions[version]
	if !ok {
		return model.ModelVersion{}, fmt.Errorf("%w: %s", port.ErrVersionNotFound, version)
	}
	return v, nil
}

// List returns all registered versions in registration order.
func (r *ModelRegistry) List() []model.ModelVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ModelVersion, 0, len(r.order))
	for _, version := range r.order {
		out = append(out, r.versions[version])
	}
	return out
}

// Activate atomically makes the version active for the domain.
func (r *ModelRegistry) Activate(domain, version string) error {
	if domain == "" {
		domain = "general"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.versions[version]; !ok {
		return fmt.Errorf("%w: %s", port.ErrVersionNotFound, version)
	}
	r.active[domain] = version
	return nil
}

// ReleasePolicy returns the policy candidates are gated against.
func (r *ModelRegistry) ReleasePolicy() model.ReleasePolicy {
	return r.policy
}
