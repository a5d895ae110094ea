package providers

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
)

var (
	sensationalWords = regexp.MustCompile(`\b(shocking|unbelievable|outrageous|scandal|explosive|bombshell|urgent|exposed|secret)\b`)
	hedgeWords       = regexp.MustCompile(`\b(allegedly|reportedly|rumored|unconfirmed|sources say|it is said)\b`)
	numberClaims     = regexp.MustCompile(`\b\d+([.,]\d+)?\s*(%|percent|million|billion|thousand)\b`)
)

// linear model coefficients fitted offline on labeled article features.
var linearWeights = struct {
	bias        float64
	capsRatio   float64
	exclaim     float64
	sensational float64
	hedge       float64
	numbers     float64
	shortText   float64
}{
	bias:        -2.2,
	capsRatio:   3.5,
	exclaim:     2.0,
	sensational: 1.6,
	hedge:       1.2,
	numbers:     -0.4,
	shortText:   0.8,
}

// LinearProvider scores text with a fixed logistic model over surface
// features: capitalization, punctuation pressure, sensational and hedging
// vocabulary, and quantified claims.
type LinearProvider struct{}

// NewLinearProvider creates the provider.
func NewLinearProvider() *LinearProvider {
	return &LinearProvider{}
}

// ProviderID identifies this member in signals and weights.
func (p *LinearProvider) ProviderID() string { return "linear" }

// Score applies the logistic model to the extracted features.
func (p *LinearProvider) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lower := strings.ToLower(text)
	words := strings.Fields(text)
	wordCount := float64(len(words))
	if wordCount == 0 {
		return baselineScore, nil
	}

	var letters, uppers float64
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	capsRatio := 0.0
	if letters > 0 {
		capsRatio = uppers / letters
	}

	exclaim := float64(strings.Count(text, "!")) / wordCount
	sensational := float64(len(sensationalWords.FindAllString(lower, -1))) / wordCount * 10
	hedge := float64(len(hedgeWords.FindAllString(lower, -1))) / wordCount * 10
	numbers := float64(len(numberClaims.FindAllString(lower, -1))) / wordCount * 10

	shortText := 0.0
	if wordCount < 25 {
		shortText = 1.0
	}

	z := linearWeights.bias +
		linearWeights.capsRatio*capsRatio +
		linearWeights.exclaim*exclaim +
		linearWeights.sensational*sensational +
		linearWeights.hedge*hedge +
		linearWeights.numbers*numbers +
		linearWeights.shortText*shortText

	return 1.0 / (1.0 + math.Exp(-z)), nil
}
