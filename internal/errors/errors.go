package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrBadMeter       = errors.New("malformed meter string")
	ErrUnknownChord   = errors.New("unrecognized chord symbol")
	ErrSpecInvalid    = errors.New("song spec failed validation")
	ErrAssetMissing   = errors.New("instrument asset missing")
	ErrNoRegion       = errors.New("no sample region covers pitch")
	ErrEmptyBuffer    = errors.New("rendered buffer empty or non-finite")
	ErrStrategyFailed = errors.New("phrase strategy failed or timed out")
)

// StageError represents a failure in one pipeline stage for one instrument
type StageError struct {
	Stage      string // "generate", "arrange", "dynamics", "render", "mix"
	Instrument string // "drums", "bass", "keys", "pads", or "" for song-level stages
	Cause      error
}

func (e *StageError) Error() string {
	if e.Instrument != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Instrument, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// NewStageError creates a StageError
func NewStageError(stage, instrument string, cause error) *StageError {
	return &StageError{
		Stage:      stage,
		Instrument: instrument,
		Cause:      cause,
	}
}
