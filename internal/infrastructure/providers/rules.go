package providers

import (
	"context"
	"regexp"
	"strings"
)

// detectionRule is one named heuristic with the score mass it contributes.
type detectionRule struct {
	name    string
	pattern *regexp.Regexp
	weight  float64
}

var detectionRules = []detectionRule{
	{"clickbait_hook", regexp.MustCompile(`(?i)\b(you won'?t believe|what happened next|doctors hate|this one trick|number \d+ will)\b`), 0.30},
	{"miracle_claim", regexp.MustCompile(`(?i)\b(miracle (cure|remedy)|cures? (cancer|everything)|100% (safe|effective|guaranteed))\b`), 0.35},
	{"unattributed_source", regexp.MustCompile(`(?i)\b(anonymous (sources?|insiders?)|people are saying|everyone knows)\b`), 0.20},
	{"conspiracy_framing", regexp.MustCompile(`(?i)\b(they don'?t want you to know|the truth about|wake up|cover[- ]?up|mainstream media (lies|hides))\b`), 0.30},
	{"urgency_pressure", regexp.MustCompile(`(?i)\b(share (this )?before|act now|before it'?s deleted|spread the word)\b`), 0.25},
	{"absolute_claim", regexp.MustCompile(`(?i)\b(proven fact|undeniable|irrefutable|definitive proof)\b`), 0.20},
}

// punctuationRun flags strings of stacked terminal punctuation.
var punctuationRun = regexp.MustCompile(`[!?]{3,}`)

// RulesProvider is the deterministic rule-based ensemble member. Rules
// accumulate: several weak signals together mark text that no single
// pattern would.
type RulesProvider struct{}

// NewRulesProvider creates the provider.
func NewRulesProvider() *RulesProvider {
	return &RulesProvider{}
}

// ProviderID identifies this member in signals and weights.
func (p *RulesProvider) ProviderID() string { return "rules" }

// Score sums the weights of every rule that fires, capped at 1.
func (p *RulesProvider) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	score := baselineScore
	for _, rule := range detectionRules {
		if rule.pattern.MatchString(text) {
			score += rule.weight
		}
	}
	if punctuationRun.MatchString(text) {
		score += 0.15
	}
	if isShouting(text) {
		score += 0.10
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

func isShouting(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 20 {
		return false
	}
	return trimmed == strings.ToUpper(trimmed) && trimmed != strings.ToLower(trimmed)
}

// TriggeredRules lists the rule names that fire for the text, for diagnostics.
func (p *RulesProvider) TriggeredRules(text string) []string {
	var names []string
	for _, rule := range detectionRules {
		if rule.pattern.MatchString(text) {
			names = append(names, rule.name)
		}
	}
	return names
}
