// Package analysis measures rendered strikes: envelope decay, T60 and the
// level of each mode in the spectrum.
package analysis

import (
	"math"
)

// Default envelope framing used by MeasureDecay.
const (
	EnvelopeFrame = 256
	EnvelopeHop   = 128
)

// Decay summarizes how a signal dies away.
type Decay struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`

	PeakDB      float64 `json:"peak_db"`
	PeakSec     float64 `json:"peak_sec"`
	SlopeDBPerS float64 `json:"slope_db_per_s"`
	T60         float64 `json:"t60"`
}

// MeasureDecay fits a line to the RMS envelope in dB from its peak down to
// 60 dB below it. T60 is NaN when no decay can be measured.
func MeasureDecay(x []float64, sampleRate int) Decay {
	d := Decay{SampleRate: sampleRate, Frames: len(x), SlopeDBPerS: math.NaN(), T60: math.NaN()}
	if sampleRate <= 0 {
		return d
	}
	env := RMSEnvelope(x, EnvelopeFrame, EnvelopeHop)
	if len(env) == 0 {
		return d
	}
	hopSec := float64(EnvelopeHop) / float64(sampleRate)
	peakIdx := argmax(env)
	d.PeakDB = LinToDB(env[peakIdx])
	d.PeakSec = float64(peakIdx) * hopSec
	d.SlopeDBPerS = DecaySlopeDBPerS(env, hopSec)
	d.T60 = T60FromSlope(d.SlopeDBPerS)
	return d
}

// T60FromSlope converts a decay slope in dB/s to the time to fall 60 dB.
func T60FromSlope(slopeDBPerS float64) float64 {
	if !isFinite(slopeDBPerS) || slopeDBPerS >= 0 {
		return math.NaN()
	}
	return -60 / slopeDBPerS
}

// RMSEnvelope returns the RMS of consecutive frames of x, hop samples apart.
func RMSEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// DecaySlopeDBPerS regresses the envelope in dB against time, starting just
// after the peak and stopping 60 dB below it.
func DecaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peakIdx := argmax(env)
	peak := LinToDB(env[peakIdx])
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if LinToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := LinToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

// LinToDB converts an amplitude to dB, flooring at -240 dB.
func LinToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// Peak returns the largest absolute sample.
func Peak(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	return rms1(x)
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
