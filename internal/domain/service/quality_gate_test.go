package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanArticle = "The city council approved the new budget on Tuesday after a long " +
	"debate about funding for public parks and local transit improvements."

func TestQualityGate_CleanTextIsUsable(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect(cleanArticle, "https://example.com/news/budget")

	assert.True(t, report.Usable)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 1.0, report.Score)
	assert.Contains(t, report.ChecksPassed, "language_check")
	assert.Contains(t, report.ChecksPassed, "source_check")
}

func TestQualityGate_EmptyTextIsUnusable(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	for _, text := range []string{"", "   ", "\n\t"} {
		report := gate.Inspect(text, "")

		assert.False(t, report.Usable, "input %q should be unusable", text)
		assert.Zero(t, report.Score)
		assert.Contains(t, report.IssueCodes(), "EMPTY_CONTENT")
	}
}

func TestQualityGate_ShortTextIsUnusable(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect("too short", "")

	assert.False(t, report.Usable)
	assert.Contains(t, report.IssueCodes(), "INVALID_LENGTH")
}

func TestQualityGate_OverlongTextIsFlaggedMedium(t *testing.T) {
	gate := NewDataQualityGate(QualityGateConfig{
		MinTextLength:   10,
		MaxTextLength:   100,
		MinQualityScore: 0.6,
	})

	long := strings.Repeat(cleanArticle+" ", 3)
	report := gate.Inspect(long, "")

	require.Contains(t, report.IssueCodes(), "INVALID_LENGTH")
	for _, issue := range report.Issues {
		if issue.Code == "INVALID_LENGTH" {
			assert.Equal(t, severityMedium, issue.Severity)
		}
	}
}

func TestQualityGate_GibberishFailsLanguageCheck(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect("xkcd qwerty zxcvb plmokn wsxedc rfvtgb yhnujm ikolp.", "")

	assert.False(t, report.Usable)
	assert.Contains(t, report.IssueCodes(), "LANGUAGE_UNDETECTABLE")
}

func TestQualityGate_TruncatedTextIsFlagged(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect("The minister said the new trade agreement would...", "")

	assert.Contains(t, report.IssueCodes(), "TRUNCATED_CONTENT")
}

func TestQualityGate_AllCapsLowersScore(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect(strings.ToUpper(cleanArticle), "")

	assert.Contains(t, report.IssueCodes(), "ALL_CAPS")
	assert.Less(t, report.Score, 1.0)
}

func TestQualityGate_BadSourceURLIsLowSeverity(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	report := gate.Inspect(cleanArticle, "ftp://files.example.com/article")

	assert.Contains(t, report.IssueCodes(), "UNRESOLVABLE_SOURCE")
	assert.True(t, report.Usable)
}

func TestQualityGate_DuplicateIsFlagOnly(t *testing.T) {
	gate := NewDataQualityGate(DefaultQualityGateConfig())

	first := gate.Inspect(cleanArticle, "")
	second := gate.Inspect(cleanArticle, "")

	assert.NotContains(t, first.IssueCodes(), "DUPLICATE_CONTENT")
	assert.Contains(t, second.IssueCodes(), "DUPLICATE_CONTENT")

	// Identical rerun must produce the identical score.
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Usable, second.Usable)
}
