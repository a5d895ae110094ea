package valueobject

import "fmt"

// Verdict is an immutable value object carrying the human-facing label that
// accompanies a Prediction.
type Verdict struct {
	value string
}

var (
	VerdictReal       = Verdict{value: "REAL"}
	VerdictUnverified = Verdict{value: "UNVERIFIED"}
	VerdictFake       = Verdict{value: "FAKE"}
	VerdictAbstain    = Verdict{value: "ABSTAIN"}
)

// VerdictFromString reconstructs a Verdict from its string representation.
func VerdictFromString(s string) (Verdict, error) {
	switch s {
	case "REAL":
		return VerdictReal, nil
	case "UNVERIFIED":
		return VerdictUnverified, nil
	case "FAKE":
		return VerdictFake, nil
	case "ABSTAIN":
		return VerdictAbstain, nil
	default:
		return Verdict{}, fmt.Errorf("invalid verdict: %s", s)
	}
}

// VerdictFromPrediction derives the label attached to each prediction class.
func VerdictFromPrediction(p Prediction) Verdict {
	switch p {
	case PredictionHighRisk:
		return VerdictFake
	case PredictionMediumRisk:
		return VerdictUnverified
	case PredictionLowRisk:
		return VerdictReal
	case PredictionHumanReview:
		return VerdictAbstain
	default:
		return VerdictUnverified
	}
}

// String returns the string representation.
func (v Verdict) String() string {
	return v.value
}

// IsZero returns true if the Verdict has not been set.
func (v Verdict) IsZero() bool {
	return v.value == ""
}

// Equal checks equality with another Verdict.
func (v Verdict) Equal(other Verdict) bool {
	return v.value == other.value
}
