package dsp

import (
	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// BandpassCoefficients designs a resonant bandpass biquad with 0 dB gain at
// the center frequency (RBJ "constant peak gain" form).
//
// The algo-dsp design.Bandpass is the constant-skirt variant whose peak gain
// equals q; scaling the numerator by 1/q gives the unity-peak response.
func BandpassCoefficients(freq, q, sampleRate float64) biquad.Coefficients {
	c := design.Bandpass(freq, q, sampleRate)
	if q > 0 {
		c.B0 /= q
		c.B1 /= q
		c.B2 /= q
	}
	return c
}

// Resonator is a single bandpass section (no heap allocations in Process).
type Resonator struct {
	section   *biquad.Section
	frequency float64
	q         float64
}

// NewResonator creates a bandpass resonator centered at freq with quality q.
func NewResonator(freq, q, sampleRate float64) *Resonator {
	return &Resonator{
		section:   biquad.NewSection(BandpassCoefficients(freq, q, sampleRate)),
		frequency: freq,
		q:         q,
	}
}

// Frequency returns the center frequency in Hz.
func (r *Resonator) Frequency() float64 { return r.frequency }

// Q returns the quality factor.
func (r *Resonator) Q() float64 { return r.q }

// Coefficients returns the designed biquad coefficients.
func (r *Resonator) Coefficients() biquad.Coefficients { return r.section.Coefficients }

// ProcessBlock filters buf in place.
func (r *Resonator) ProcessBlock(buf []float64) {
	r.section.ProcessBlock(buf)
	state := r.section.State()
	state[0] = dspcore.FlushDenormals(state[0])
	state[1] = dspcore.FlushDenormals(state[1])
	r.section.SetState(state)
}

// Reset clears the filter state
func (r *Resonator) Reset() {
	r.section.Reset()
}

// TargetRamp approaches a target value exponentially, one sample at a time:
//
//	v(t) = target + (v0 - target) * exp(-t / tau)
//
// It is the per-sample form of a "set target at time" automation event.
type TargetRamp struct {
	value  float64
	target float64
	coeff  float64
}

// NewTargetRamp starts a ramp at value heading for target with time constant
// tau seconds. A non-positive tau jumps straight to the target.
func NewTargetRamp(value, target, tau, sampleRate float64) *TargetRamp {
	r := &TargetRamp{value: value, target: target}
	if tau <= 0 || sampleRate <= 0 {
		r.value = target
		return r
	}
	r.coeff = float64(approx.FastExp(float32(-1.0 / (tau * sampleRate))))
	return r
}

// Value returns the current ramp value without advancing.
func (r *TargetRamp) Value() float64 {
	return r.value
}

// Next returns the current value and advances by one sample.
func (r *TargetRamp) Next() float64 {
	v := r.value
	r.value = r.target + (r.value-r.target)*r.coeff
	r.value = dspcore.FlushDenormals(r.value)
	return v
}

// Advance skips n samples.
func (r *TargetRamp) Advance(n int) {
	for i := 0; i < n; i++ {
		r.Next()
	}
}
