package modal

import (
	"fmt"
	"time"
)

type excitationState int

const (
	excitationUnstarted excitationState = iota
	excitationStarted
	excitationTornDown
)

// Excitation is a one-shot noise burst: a noise player into a gain stage
// that decays exponentially once started. It is not safe for concurrent use.
type Excitation struct {
	host   Host
	source SourceNode
	gain   GainNode
	burst  time.Duration
	state  excitationState
}

// NewExcitation prepares a burst with time constant burst.
func NewExcitation(host Host, noise *NoiseBuffer, burst time.Duration) (*Excitation, error) {
	if burst <= 0 {
		return nil, ErrInvalidBurst
	}
	source := noise.NewSource(host)
	gain := host.CreateGain(1)
	if err := source.Connect(gain); err != nil {
		source.Disconnect()
		gain.Disconnect()
		return nil, fmt.Errorf("connect noise source: %w", err)
	}
	return &Excitation{host: host, source: source, gain: gain, burst: burst}, nil
}

// Start plays the noise and starts the gain's approach to zero.
func (e *Excitation) Start() error {
	switch e.state {
	case excitationStarted:
		return ErrAlreadyStarted
	case excitationTornDown:
		return ErrTornDown
	}
	now := e.host.CurrentTime()
	if err := e.source.Start(now); err != nil {
		return fmt.Errorf("start noise source: %w", err)
	}
	e.gain.SetTargetAtTime(0, now, e.burst.Seconds())
	e.state = excitationStarted
	return nil
}

// Started reports whether Start has succeeded.
func (e *Excitation) Started() bool {
	return e.state == excitationStarted
}

// Burst returns the envelope time constant.
func (e *Excitation) Burst() time.Duration { return e.burst }

// Output is the enveloped noise.
func (e *Excitation) Output() Node { return e.gain }

// Teardown disconnects the player and the envelope stage, silencing the
// burst. It must be called exactly once.
func (e *Excitation) Teardown() {
	if e.state == excitationTornDown {
		panic("modal: excitation torn down twice")
	}
	e.state = excitationTornDown
	e.source.Disconnect()
	e.gain.Disconnect()
}
