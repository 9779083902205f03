package dsp

import (
	"math"
	"testing"
)

func TestBandpassCoefficientsUnityPeak(t *testing.T) {
	const sampleRate = 44100.0
	for _, tc := range []struct {
		freq float64
		q    float64
	}{
		{freq: 440, q: 0.7},
		{freq: 1000, q: 227},
		{freq: 5434, q: 700},
	} {
		c := BandpassCoefficients(tc.freq, tc.q, sampleRate)
		peak := c.MagnitudeDB(tc.freq, sampleRate)
		if math.Abs(peak) > 0.05 {
			t.Fatalf("f=%.1f q=%.1f: expected 0 dB peak, got %.4f dB", tc.freq, tc.q, peak)
		}
		off := c.MagnitudeDB(tc.freq*2, sampleRate)
		if off > -3 {
			t.Fatalf("f=%.1f q=%.1f: expected attenuation an octave above, got %.2f dB", tc.freq, tc.q, off)
		}
	}
}

func TestResonatorRingsAtCenter(t *testing.T) {
	const sampleRate = 48000.0
	r := NewResonator(1000, 50, sampleRate)
	buf := make([]float64, 4800)
	buf[0] = 1
	r.ProcessBlock(buf)

	crossings := 0
	for i := 1000; i < len(buf); i++ {
		if (buf[i-1] < 0) != (buf[i] < 0) {
			crossings++
		}
	}
	seconds := float64(len(buf)-1000) / sampleRate
	freq := float64(crossings) / (2 * seconds)
	if math.Abs(freq-1000) > 15 {
		t.Fatalf("expected ringing near 1000 Hz, measured %.1f Hz", freq)
	}
}

func TestResonatorResetClearsState(t *testing.T) {
	r := NewResonator(500, 10, 48000)
	buf := []float64{1, 0, 0, 0}
	r.ProcessBlock(buf)
	r.Reset()
	silent := make([]float64, 16)
	r.ProcessBlock(silent)
	for i, v := range silent {
		if v != 0 {
			t.Fatalf("expected silence after reset at %d, got %g", i, v)
		}
	}
}

func TestTargetRampDecaysTowardTarget(t *testing.T) {
	const sampleRate = 48000.0
	tau := 0.01
	r := NewTargetRamp(1, 0, tau, sampleRate)
	if r.Next() != 1 {
		t.Fatalf("expected first sample to equal the start value")
	}
	r.Advance(479)
	got := r.Value()
	if math.Abs(got-math.Exp(-1)) > 0.03 {
		t.Fatalf("expected ~1/e after one time constant, got %f", got)
	}

	prev := got
	for i := 0; i < 4000; i++ {
		v := r.Next()
		if v > prev {
			t.Fatalf("ramp not monotone at %d: %f > %f", i, v, prev)
		}
		prev = v
	}
	if r.Value() > 1e-3 {
		t.Fatalf("expected ramp near zero after many time constants, got %g", r.Value())
	}
}

func TestTargetRampNonPositiveTauJumps(t *testing.T) {
	r := NewTargetRamp(1, 0.25, 0, 48000)
	if r.Value() != 0.25 {
		t.Fatalf("expected immediate jump to target, got %f", r.Value())
	}
}
