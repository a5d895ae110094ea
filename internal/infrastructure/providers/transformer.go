package providers

import (
	"context"
	"regexp"
	"strings"
)

// weightedPattern pairs a compiled pattern with the risk weight it asserts.
type weightedPattern struct {
	pattern *regexp.Regexp
	weight  float64
}

// riskPatterns are tiered keyword patterns emulating a fine-tuned risk
// classifier. The score is the strongest pattern that fires, so one
// high-confidence term dominates many weak ones.
var riskPatterns = []weightedPattern{
	// high risk
	{regexp.MustCompile(`\b(corruption|bribery|kickback|money laundering)\b`), 0.90},
	{regexp.MustCompile(`\b(fraud|embezzlement|overbilling)\b`), 0.85},
	{regexp.MustCompile(`\b(illicit enrichment|misappropriation)\b`), 0.88},
	{regexp.MustCompile(`\b(criminal (organization|enterprise|ring))\b`), 0.92},
	{regexp.MustCompile(`\b(extortion|racketeering)\b`), 0.87},
	// medium risk
	{regexp.MustCompile(`\b(investigation|indictment|accusation)\b`), 0.60},
	{regexp.MustCompile(`\b(suspicion|irregularity|infraction)\b`), 0.55},
	{regexp.MustCompile(`\b(conflict of interest|nepotism)\b`), 0.65},
	{regexp.MustCompile(`\b(public (contract|tender|procurement))\b`), 0.50},
	// low risk
	{regexp.MustCompile(`\b(proceeding|procedure|administrative)\b`), 0.30},
	{regexp.MustCompile(`\b(employee|official|position)\b`), 0.25},
	{regexp.MustCompile(`\b(agency|institution|entity)\b`), 0.20},
}

// baselineScore is returned when no pattern fires.
const baselineScore = 0.05

// TransformerProvider is the pattern-scoring stand-in for the transformer
// ensemble member. Deterministic and allocation-light.
type TransformerProvider struct{}

// NewTransformerProvider creates the provider.
func NewTransformerProvider() *TransformerProvider {
	return &TransformerProvider{}
}

// ProviderID identifies this member in signals and weights.
func (p *TransformerProvider) ProviderID() string { return "transformer" }

// Score rates the text by the strongest risk pattern present.
func (p *TransformerProvider) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lower := strings.ToLower(text)
	score := baselineScore
	for _, wp := range riskPatterns {
		if wp.weight <= score {
			continue
		}
		if wp.pattern.MatchString(lower) {
			score = wp.weight
		}
	}
	return score, nil
}
