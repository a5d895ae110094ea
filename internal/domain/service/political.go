package service

import (
	"regexp"
	"strings"

	"github.com/veridex/riskengine/internal/domain/model"
)

// politicalTerms are keyword stems that mark politically sensitive content.
// Matching is deliberately coarse: the flag widens governance scrutiny, it
// never decides the verdict on its own.
var politicalTerms = []string{
	"election", "ballot", "vote", "voter", "poll",
	"president", "minister", "senator", "congress", "parliament",
	"government", "campaign", "candidate", "party",
	"impeach", "referendum", "coup", "regime",
	"legislation", "policy", "sanction",
}

// chargedPatterns raise the sensitive-content score beyond the keyword base.
var chargedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(rigged|stolen|fraud\w*)\s+(election|vote|ballot)`),
	regexp.MustCompile(`(?i)\b(election|vote|ballot)\w*\s+(rigged|stolen|fraud\w*)`),
	regexp.MustCompile(`(?i)\bdeep\s+state\b`),
	regexp.MustCompile(`(?i)\bfake\s+news\b`),
	regexp.MustCompile(`(?i)\b(overthrow|topple)\b.{0,40}\b(government|regime)\b`),
}

// PoliticalClassifier flags politically sensitive content so that the policy
// can apply the stricter domain and the release gate can slice FP metrics.
type PoliticalClassifier struct {
	// DetectionThreshold is the sensitive-content score at which the
	// political flag is raised.
	DetectionThreshold float64
}

// NewPoliticalClassifier uses the deployed default threshold when the given
// one is non-positive.
func NewPoliticalClassifier(threshold float64) *PoliticalClassifier {
	if threshold <= 0 {
		threshold = 0.3
	}
	return &PoliticalClassifier{DetectionThreshold: threshold}
}

// Classify scores the text for political sensitivity. DomainHint "political"
// always raises the flag.
func (c *PoliticalClassifier) Classify(text, domainHint string) model.GovernanceFlags {
	score := c.sensitiveScore(text)
	return model.GovernanceFlags{
		PoliticalRiskDetected: domainHint == "political" || score >= c.DetectionThreshold,
		SensitiveContentScore: score,
	}
}

func (c *PoliticalClassifier) sensitiveScore(text string) float64 {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return 0
	}

	hits := 0
	for _, term := range politicalTerms {
		hits += strings.Count(lower, term)
	}
	// Term density on a coarse scale: saturates at one hit per 20 words.
	density := float64(hits) / (float64(len(words)) / 20.0)

	score := density * 0.5
	for _, p := range chargedPatterns {
		if p.MatchString(text) {
			score += 0.25
		}
	}
	return clampUnit(score)
}
