package models

import (
	"errors"
	"fmt"
)

// ErrModelNotLoaded is returned when the recommendation pipeline is
// invoked before a model bundle has been loaded.
var ErrModelNotLoaded = errors.New("model bundle not loaded")

// DisallowedFeatureError reports a required allow-listed feature that is
// absent from a raw feature mapping. Extra, non-allow-listed keys are
// silently ignored; only missing required features are an error.
type DisallowedFeatureError struct {
	Feature string
}

func (e *DisallowedFeatureError) Error() string {
	return fmt.Sprintf("required feature %q missing from input", e.Feature)
}

// InvalidCandidateError reports a candidate that is malformed or already
// present in one of the lineups.
type InvalidCandidateError struct {
	Candidate string
	Reason    string
}

func (e *InvalidCandidateError) Error() string {
	return fmt.Sprintf("invalid candidate %q: %s", e.Candidate, e.Reason)
}

// DegradedSignal identifies which signal fell back to a smoothed or
// floor value for a candidate. Degraded signals never abort a request;
// they are recorded on the recommendation so callers can see reduced
// confidence.
type DegradedSignal string

const (
	DegradedUnknownPlayer     DegradedSignal = "unknown_player"
	DegradedUnassignedCluster DegradedSignal = "unassigned_cluster"
	DegradedNoPattern         DegradedSignal = "no_pattern"
)
