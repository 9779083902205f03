package modal

import "math"

// ModeDescriptor describes one resonant mode of a struck object.
type ModeDescriptor struct {
	Frequency float64 `json:"frequency"` // center frequency in Hz
	Amplitude float64 `json:"amplitude"` // relative loudness in [0,1]
	Decay     float64 `json:"decay"`     // seconds to fall 60 dB
}

// Dataset is an ordered list of modes. Order matters only for per-index
// multipliers.
type Dataset []ModeDescriptor

// MaxDecay returns the longest decay in the dataset, 0 when empty.
func (d Dataset) MaxDecay() float64 {
	maxDecay := 0.0
	for _, m := range d {
		maxDecay = math.Max(maxDecay, m.Decay)
	}
	return maxDecay
}

// Validate checks every mode against the given sample rate.
func (d Dataset) Validate(sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return ErrInvalidSampleRate
	}
	if len(d) == 0 {
		return ErrEmptyDataset
	}
	for i, m := range d {
		if err := m.validate(i, sampleRate); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single descriptor against the given sample rate.
func (m ModeDescriptor) Validate(sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return ErrInvalidSampleRate
	}
	return m.validate(-1, sampleRate)
}

func (m ModeDescriptor) validate(index int, sampleRate float64) error {
	if err := checkFrequency(index, m.Frequency, sampleRate); err != nil {
		return err
	}
	if !isFinite(m.Amplitude) || m.Amplitude < 0 || m.Amplitude > 1 {
		return &ModeError{Index: index, Field: "amplitude", Value: m.Amplitude, Err: ErrInvalidAmplitude}
	}
	return checkDecay(index, m.Decay)
}

// ModeParams are the resolved parameters of one mode for one strike.
type ModeParams struct {
	Frequency float64
	Amplitude float64
	Decay     float64
	Q         float64
}

// Validate checks resolved parameters. Unlike a ModeDescriptor, resolved
// amplitude may exceed 1 once a multiplier has been applied.
func (p ModeParams) Validate(sampleRate float64) error {
	return p.validate(-1, sampleRate)
}

func (p ModeParams) validate(index int, sampleRate float64) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return ErrInvalidSampleRate
	}
	if err := checkFrequency(index, p.Frequency, sampleRate); err != nil {
		return err
	}
	if !isFinite(p.Amplitude) || p.Amplitude < 0 {
		return &ModeError{Index: index, Field: "amplitude", Value: p.Amplitude, Err: ErrInvalidAmplitude}
	}
	return checkDecay(index, p.Decay)
}

func checkFrequency(index int, freq, sampleRate float64) error {
	if !isFinite(freq) || freq <= 0 || freq >= sampleRate/2 {
		return &ModeError{Index: index, Field: "frequency", Value: freq, Err: ErrInvalidFrequency}
	}
	return nil
}

func checkDecay(index int, decay float64) error {
	if !isFinite(decay) || decay <= 0 {
		return &ModeError{Index: index, Field: "decay", Value: decay, Err: ErrInvalidDecay}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
