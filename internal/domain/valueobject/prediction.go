package valueobject

import "fmt"

// Prediction is an immutable value object representing the risk class the
// engine assigns to a piece of text.
type Prediction struct {
	value string
}

var (
	PredictionLowRisk     = Prediction{value: "LOW_RISK"}
	PredictionMediumRisk  = Prediction{value: "MEDIUM_RISK"}
	PredictionHighRisk    = Prediction{value: "HIGH_RISK"}
	PredictionHumanReview = Prediction{value: "HUMAN_REVIEW"}
)

// PredictionFromString reconstructs a Prediction from its string representation.
func PredictionFromString(s string) (Prediction, error) {
	switch s {
	case "LOW_RISK":
		return PredictionLowRisk, nil
	case "MEDIUM_RISK":
		return PredictionMediumRisk, nil
	case "HIGH_RISK":
		return PredictionHighRisk, nil
	case "HUMAN_REVIEW":
		return PredictionHumanReview, nil
	default:
		return Prediction{}, fmt.Errorf("invalid prediction: %s", s)
	}
}

// String returns the string representation.
func (p Prediction) String() string {
	return p.value
}

// IsZero returns true if the Prediction has not been set.
func (p Prediction) IsZero() bool {
	return p.value == ""
}

// Equal checks equality with another Prediction.
func (p Prediction) Equal(other Prediction) bool {
	return p.value == other.value
}

// RequiresHuman returns true if the prediction escalates to mandatory review.
func (p Prediction) RequiresHuman() bool {
	return p.value == "HUMAN_REVIEW"
}
