package valueobject

import "fmt"

// DriftState classifies how far the live score distribution has moved from
// its reference distribution.
type DriftState struct {
	value string
}

var (
	DriftStable   = DriftState{value: "stable"}
	DriftWarning  = DriftState{value: "warning"}
	DriftCritical = DriftState{value: "critical"}
)

// DriftStateFromString reconstructs a DriftState from its string representation.
func DriftStateFromString(s string) (DriftState, error) {
	switch s {
	case "stable":
		return DriftStable, nil
	case "warning":
		return DriftWarning, nil
	case "critical":
		return DriftCritical, nil
	default:
		return DriftState{}, fmt.Errorf("invalid drift state: %s", s)
	}
}

// String returns the string representation.
func (d DriftState) String() string {
	return d.value
}

// IsZero returns true if the DriftState has not been set.
func (d DriftState) IsZero() bool {
	return d.value == ""
}

// Equal checks equality with another DriftState.
func (d DriftState) Equal(other DriftState) bool {
	return d.value == other.value
}

// Severity orders states for transition comparisons: stable < warning < critical.
func (d DriftState) Severity() int {
	switch d.value {
	case "warning":
		return 1
	case "critical":
		return 2
	default:
		return 0
	}
}
