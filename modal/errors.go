package modal

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration and lifecycle failures.
var (
	ErrInvalidFrequency  = errors.New("frequency must be positive and below Nyquist")
	ErrInvalidAmplitude  = errors.New("amplitude out of range")
	ErrInvalidDecay      = errors.New("decay must be positive")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrEmptyDataset      = errors.New("dataset has no modes")
	ErrInvalidBurst      = errors.New("burst duration must be positive")
	ErrAlreadyStarted    = errors.New("excitation already started")
	ErrTornDown          = errors.New("instance already torn down")
	ErrDisconnected      = errors.New("model disconnected")
)

// ModeError reports which mode parameter failed validation.
type ModeError struct {
	Index int    // position in the dataset, -1 when not part of one
	Field string // "frequency", "amplitude", "decay"
	Value float64
	Err   error
}

func (e *ModeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("mode %s=%g: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("mode %d %s=%g: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ModeError) Unwrap() error {
	return e.Err
}
