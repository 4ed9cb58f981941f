package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when Process is invoked without an audio source.
var ErrNoInput = errors.New("no audio input selected")

// ErrBusy is returned when a second Process call overlaps a live session.
var ErrBusy = errors.New("a processing session is already in flight")

// ProcessingError is a stage-aware failure that aborted a session.
type ProcessingError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
