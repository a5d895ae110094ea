package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veridex/riskengine/internal/domain/model"
	"github.com/veridex/riskengine/internal/domain/service"
)

// GovernanceConfig is the immutable governance artifact bundle loaded at
// startup: decision thresholds, ensemble weights, calibration mappings, the
// release policy and the seed model versions.
type GovernanceConfig struct {
	Thresholds    map[string]service.Thresholds  `yaml:"thresholds"`
	Weights       map[string]float64             `yaml:"weights"`
	DomainWeights map[string]map[string]float64  `yaml:"domain_weights"`
	MinQuorum     int                            `yaml:"min_quorum"`
	Calibration   []service.CalibrationArtifact  `yaml:"calibration"`
	ReleasePolicy model.ReleasePolicy            `yaml:"release_policy"`
	Models        []SeedModel                    `yaml:"models"`
	DriftBaseline map[string][]float64           `yaml:"drift_baseline"`
}

// SeedModel declares one model version registered at startup.
type SeedModel struct {
	Domain string          `yaml:"domain"`
	Active bool            `yaml:"active"`
	Card   model.ModelCard `yaml:"card"`
}

// LoadGovernance reads and validates the governance YAML.
func LoadGovernance(path string) (*GovernanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read governance config: %w", err)
	}

	var cfg GovernanceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse governance config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the bundle is complete and internally consistent.
func (c *GovernanceConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("governance config: at least one model is required")
	}

	activePerDomain := make(map[string]int)
	for i, m := range c.Models {
		if err := m.Card.Validate(); err != nil {
			return fmt.Errorf("governance config: model %d: %w", i, err)
		}
		if m.Active {
			activePerDomain[domainOrGeneral(m.Domain)]++
		}
	}
	for domain, n := range activePerDomain {
		if n > 1 {
			return fmt.Errorf("governance config: domain %s has %d active models, want 1", domain, n)
		}
	}

	for _, a := range c.Calibration {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("governance config: %w", err)
		}
	}

	for domain, t := range c.Thresholds {
		if t.LowMax <= 0 || t.MediumMax <= t.LowMax || t.MediumMax > 1 {
			return fmt.Errorf("governance config: domain %s: thresholds must satisfy 0 < low_max < medium_max <= 1", domain)
		}
	}

	return nil
}

// SeedVersions converts the declared models into registry entries.
func (c *GovernanceConfig) SeedVersions() []model.ModelVersion {
	versions := make([]model.ModelVersion, 0, len(c.Models))
	for _, m := range c.Models {
		versions = append(versions, model.ModelVersion{
			Domain:       domainOrGeneral(m.Domain),
			Version:      m.Card.Version,
			Hash:         model.ComputeModelHash(m.Card.Name, m.Card.Version),
			Card:         m.Card,
			RegisteredAt: time.Now().UTC(),
		})
	}
	return versions
}

// ActiveVersions maps each domain to its declared active version.
func (c *GovernanceConfig) ActiveVersions() map[string]string {
	active := make(map[string]string)
	for _, m := range c.Models {
		if m.Active {
			active[domainOrGeneral(m.Domain)] = m.Card.Version
		}
	}
	return active
}

// PolicyThresholds builds the per-domain decision thresholds, falling back to
// the deployed defaults for anything the bundle leaves unset.
func (c *GovernanceConfig) PolicyThresholds() (service.Thresholds, map[string]service.Thresholds) {
	defaults := service.DefaultThresholds()
	domains := map[string]service.Thresholds{
		"political": service.PoliticalThresholds(),
	}
	for domain, t := range c.Thresholds {
		if domain == "default" {
			defaults = t
			continue
		}
		domains[domain] = t
	}
	return defaults, domains
}

func domainOrGeneral(domain string) string {
	if domain == "" {
		return "general"
	}
	return domain
}
