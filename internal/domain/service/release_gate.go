package service

import (
	"fmt"

	"github.com/veridex/riskengine/internal/domain/model"
)

// GateCheck is one release-policy criterion and its outcome.
type GateCheck struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Measured  float64 `json:"measured"`
	Threshold float64 `json:"threshold"`
}

// ReleaseDecision is the full result of gating one candidate version.
type ReleaseDecision struct {
	Version        string      `json:"version"`
	Approved       bool        `json:"approved"`
	Checks         []GateCheck `json:"checks"`
	FailureReasons []string    `json:"failure_reasons,omitempty"`
}

// EvaluateRelease gates a candidate's card metrics against the release
// policy. It is a pure function: all metrics were measured offline and the
// decision depends on nothing else.
func EvaluateRelease(policy model.ReleasePolicy, card model.ModelCard) ReleaseDecision {
	m := card.Metrics
	checks := []GateCheck{
		atLeast("min_precision", m.Precision, policy.MinPrecision),
		atLeast("min_recall", m.Recall, policy.MinRecall),
		atMost("max_fp_political", m.FPRatePolitical, policy.MaxFPPolitical),
		atMost("max_avg_uncertainty", m.AverageUncertainty, policy.MaxUncertainty),
		atMost("max_ece", m.ECE, policy.MaxECE),
	}

	decision := ReleaseDecision{Version: card.Version, Approved: true, Checks: checks}
	for _, c := range checks {
		if c.Passed {
			continue
		}
		decision.Approved = false
		decision.FailureReasons = append(decision.FailureReasons,
			fmt.Sprintf("%s: measured %.4f vs threshold %.4f", c.Name, c.Measured, c.Threshold))
	}
	return decision
}

func atLeast(name string, measured, threshold float64) GateCheck {
	return GateCheck{Name: name, Passed: measured >= threshold, Measured: measured, Threshold: threshold}
}

func atMost(name string, measured, threshold float64) GateCheck {
	return GateCheck{Name: name, Passed: measured <= threshold, Measured: measured, Threshold: threshold}
}
