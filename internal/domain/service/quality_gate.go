package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/veridex/riskengine/internal/domain/model"
)

// Issue severities used by the quality gate. A single high-severity issue
// makes the input unusable regardless of the numeric score.
const (
	severityHigh   = "HIGH"
	severityMedium = "MEDIUM"
	severityLow    = "LOW"
)

// QualityGateConfig bounds the pre-inference checks.
type QualityGateConfig struct {
	MinTextLength   int
	MaxTextLength   int
	MinQualityScore float64
}

// DefaultQualityGateConfig mirrors the deployed gate settings.
func DefaultQualityGateConfig() QualityGateConfig {
	return QualityGateConfig{
		MinTextLength:   10,
		MaxTextLength:   50000,
		MinQualityScore: 0.6,
	}
}

// stopwords is the detectability vocabulary; a usable text should contain a
// reasonable ratio of common function words.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "must": {}, "can": {}, "to": {}, "of": {}, "in": {}, "for": {},
	"on": {}, "with": {}, "at": {}, "by": {}, "from": {}, "as": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "it": {}, "he": {}, "she": {},
	"they": {}, "we": {}, "and": {}, "or": {}, "but": {}, "if": {}, "while": {},
	"because": {}, "so": {}, "not": {}, "all": {}, "no": {}, "its": {},
}

var (
	wordPattern       = regexp.MustCompile(`\b\w+\b`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	specialPattern    = regexp.MustCompile(`[!?@#$%&*]`)
	truncationSuffixes = []string{"...", "…", "[continued]", "[truncated]", "[...]"}
)

// DataQualityGate validates input usability before any inference. It is
// cheap and side-effect free apart from the bounded duplicate index.
type DataQualityGate struct {
	cfg QualityGateConfig

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDataQualityGate creates a gate with the given bounds.
func NewDataQualityGate(cfg QualityGateConfig) *DataQualityGate {
	return &DataQualityGate{
		cfg:  cfg,
		seen: make(map[string]struct{}),
	}
}

// Inspect runs all checks and produces the report that decides whether the
// request may reach the ensemble.
func (g *DataQualityGate) Inspect(text, sourceURL string) model.DataQualityReport {
	var (
		issues []model.QualityIssue
		passed []string
		failed []string
	)
	score := 1.0

	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		issues = append(issues, model.QualityIssue{
			Code:     "EMPTY_CONTENT",
			Severity: severityHigh,
			Message:  "text is empty or whitespace only",
		})
		failed = append(failed, "content_check")
		score = 0
	} else {
		passed = append(passed, "content_check")
	}

	if !utf8.ValidString(text) {
		issues = append(issues, model.QualityIssue{
			Code:     "INVALID_ENCODING",
			Severity: severityHigh,
			Message:  "text is not valid UTF-8",
		})
		failed = append(failed, "encoding_check")
		score -= 0.3
	} else {
		passed = append(passed, "encoding_check")
	}

	if n := len(trimmed); trimmed != "" && (n < g.cfg.MinTextLength || n > g.cfg.MaxTextLength) {
		severity := severityMedium
		if n < g.cfg.MinTextLength {
			severity = severityHigh
		}
		issues = append(issues, model.QualityIssue{
			Code:     "INVALID_LENGTH",
			Severity: severity,
			Message:  "text length outside accepted range",
		})
		failed = append(failed, "length_check")
		score -= 0.25
	} else if trimmed != "" {
		passed = append(passed, "length_check")
	}

	if trimmed != "" && !g.languageDetectable(trimmed) {
		issues = append(issues, model.QualityIssue{
			Code:     "LANGUAGE_UNDETECTABLE",
			Severity: severityHigh,
			Message:  "text does not resemble natural language",
		})
		failed = append(failed, "language_check")
		score -= 0.3
	} else if trimmed != "" {
		passed = append(passed, "language_check")
	}

	if g.looksTruncated(trimmed) {
		issues = append(issues, model.QualityIssue{
			Code:     "TRUNCATED_CONTENT",
			Severity: severityMedium,
			Message:  "text appears to be cut off",
		})
		failed = append(failed, "truncation_check")
		score -= 0.15
	} else {
		passed = append(passed, "truncation_check")
	}

	contentScore, contentIssues := g.contentQuality(trimmed)
	for _, code := range contentIssues {
		issues = append(issues, model.QualityIssue{
			Code:     code,
			Severity: severityLow,
			Message:  "content quality issue: " + strings.ToLower(code),
		})
		failed = append(failed, "content_"+strings.ToLower(code))
	}
	score *= contentScore

	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, model.QualityIssue{
				Code:     "UNRESOLVABLE_SOURCE",
				Severity: severityLow,
				Message:  "source URL is not a resolvable http(s) address",
			})
			failed = append(failed, "source_check")
			score -= 0.05
		} else {
			passed = append(passed, "source_check")
		}
	}

	// Duplicate submissions are flagged for reviewers but carry no score
	// penalty: re-running an identical request must stay deterministic.
	if trimmed != "" && g.isDuplicate(trimmed) {
		issues = append(issues, model.QualityIssue{
			Code:     "DUPLICATE_CONTENT",
			Severity: severityLow,
			Message:  "identical content was evaluated before",
		})
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	usable := score >= g.cfg.MinQualityScore
	for _, issue := range issues {
		if issue.Severity == severityHigh {
			usable = false
			break
		}
	}

	return model.DataQualityReport{
		Score:        score,
		Issues:       issues,
		Usable:       usable,
		ChecksPassed: passed,
		ChecksFailed: failed,
	}
}

func (g *DataQualityGate) languageDetectable(text string) bool {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return false
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	matches := 0
	for w := range unique {
		if _, ok := stopwords[w]; ok {
			matches++
		}
	}

	denom := len(unique)
	if denom > 50 {
		denom = 50
	}
	return float64(matches)/float64(denom) >= 0.1
}

func (g *DataQualityGate) looksTruncated(text string) bool {
	if text == "" {
		return false
	}
	for _, suffix := range truncationSuffixes {
		if strings.HasSuffix(text, suffix) {
			return true
		}
	}
	if len(text) > 100 && !strings.ContainsAny(text[len(text)-1:], ".!?\"'") {
		return true
	}
	return false
}

func (g *DataQualityGate) contentQuality(text string) (float64, []string) {
	if text == "" {
		return 1.0, nil
	}

	var issues []string
	score := 1.0

	if text == strings.ToUpper(text) && text != strings.ToLower(text) {
		issues = append(issues, "ALL_CAPS")
		score -= 0.1
	}

	if ratio := float64(len(specialPattern.FindAllString(text, -1))) / float64(len(text)); ratio > 0.1 {
		issues = append(issues, "EXCESSIVE_SPECIAL_CHARS")
		score -= 0.15
	}

	words := strings.Fields(text)
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) < 0.3 {
			issues = append(issues, "REPETITIVE_CONTENT")
			score -= 0.2
		}
	}

	if len(urlPattern.FindAllString(text, -1)) > 5 {
		issues = append(issues, "EXCESSIVE_URLS")
		score -= 0.1
	}

	if score < 0 {
		score = 0
	}
	return score, issues
}

func (g *DataQualityGate) isDuplicate(text string) bool {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	key := hex.EncodeToString(sum[:])

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[key]; ok {
		return true
	}
	// Bounded index: reset rather than grow without limit.
	if len(g.seen) >= 10000 {
		g.seen = make(map[string]struct{})
	}
	g.seen[key] = struct{}{}
	return false
}
