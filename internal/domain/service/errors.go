package service

import "errors"

var (
	// ErrQuorumNotMet is returned when too few providers answered within
	// budget for the ensemble to aggregate. The pipeline fails open to
	// HUMAN_REVIEW rather than guessing.
	ErrQuorumNotMet = errors.New("signal quorum not met")

	// ErrCalibrationUnavailable is returned when no calibration mapping is
	// loaded for the active model version. This is a configuration fault;
	// the raw score is never served in its place.
	ErrCalibrationUnavailable = errors.New("calibration mapping unavailable")
)
