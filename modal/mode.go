package modal

import "fmt"

// Mode is one resonant bandpass stage followed by an amplitude stage.
type Mode struct {
	params ModeParams
	filter Node
	gain   GainNode
	torn   bool
}

// NewMode builds a resonator at p.Frequency whose impulse response falls
// 60 dB over p.Decay seconds, scaled by p.Amplitude. p.Q is recomputed.
func NewMode(host Host, p ModeParams) (*Mode, error) {
	return newMode(host, -1, p)
}

func newMode(host Host, index int, p ModeParams) (*Mode, error) {
	sampleRate := host.SampleRate()
	if err := p.validate(index, sampleRate); err != nil {
		return nil, err
	}
	p.Q = QFromDecay(p.Frequency, p.Decay, sampleRate)

	filter := host.CreateBandpass(p.Frequency, p.Q)
	gain := host.CreateGain(p.Amplitude)
	if err := filter.Connect(gain); err != nil {
		filter.Disconnect()
		gain.Disconnect()
		return nil, fmt.Errorf("connect mode filter: %w", err)
	}
	return &Mode{params: p, filter: filter, gain: gain}, nil
}

// Params returns the resolved parameters including the derived Q.
func (m *Mode) Params() ModeParams { return m.params }

// Input is the resonator stage.
func (m *Mode) Input() Node { return m.filter }

// Output is the amplitude stage.
func (m *Mode) Output() Node { return m.gain }

// Teardown disconnects both stages. It must be called exactly once.
func (m *Mode) Teardown() {
	if m.torn {
		panic("modal: mode torn down twice")
	}
	m.torn = true
	m.filter.Disconnect()
	m.gain.Disconnect()
}
