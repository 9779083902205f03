package analysis

import (
	"fmt"
	"math"
	"sort"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// Spectrum is the magnitude spectrum of one Hann-windowed frame.
type Spectrum struct {
	SampleRate int
	Size       int
	BinHz      float64
	Magnitude  []float64 // bins 0..Size/2
}

// ComputeSpectrum analyzes size samples of x starting at offset. Short
// input is zero padded. size must be a power of two.
func ComputeSpectrum(x []float64, sampleRate, offset, size int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two: %d", size)
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	hann, err := window.Hann(size)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	buf := make([]float64, size)
	for i := 0; i < size; i++ {
		j := offset + i
		if j < 0 || j >= len(x) {
			continue
		}
		buf[i] = x[j] * hann[i]
	}
	bins := make([]complex128, size/2+1)
	if err := plan.Forward(bins, buf); err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	return &Spectrum{
		SampleRate: sampleRate,
		Size:       size,
		BinHz:      float64(sampleRate) / float64(size),
		Magnitude:  spectrum.Magnitude(bins),
	}, nil
}

// PeakBetween returns the frequency and magnitude of the strongest bin in
// [loHz, hiHz], refined by parabolic interpolation.
func (s *Spectrum) PeakBetween(loHz, hiHz float64) (float64, float64) {
	lo := int(math.Floor(loHz / s.BinHz))
	hi := int(math.Ceil(hiHz / s.BinHz))
	if lo < 1 {
		lo = 1
	}
	if hi > len(s.Magnitude)-2 {
		hi = len(s.Magnitude) - 2
	}
	if lo > hi {
		return math.NaN(), 0
	}
	best := lo
	for k := lo + 1; k <= hi; k++ {
		if s.Magnitude[k] > s.Magnitude[best] {
			best = k
		}
	}
	a := LinToDB(s.Magnitude[best-1])
	b := LinToDB(s.Magnitude[best])
	c := LinToDB(s.Magnitude[best+1])
	offset := 0.0
	if den := a - 2*b + c; math.Abs(den) > 1e-12 {
		offset = 0.5 * (a - c) / den
	}
	return (float64(best) + offset) * s.BinHz, s.Magnitude[best]
}

// PeakNear searches within tolHz of freq.
func (s *Spectrum) PeakNear(freq, tolHz float64) (float64, float64) {
	return s.PeakBetween(freq-tolHz, freq+tolHz)
}

// ToneLevelDB measures the power of x at a single frequency with the
// Goertzel algorithm, normalized so a full-scale sine reads 0 dB.
func ToneLevelDB(x []float64, freq float64, sampleRate int) (float64, error) {
	if len(x) == 0 {
		return math.Inf(-1), nil
	}
	power, err := goertzelPower(x, freq, float64(sampleRate))
	if err != nil {
		return 0, err
	}
	amp := 2 * math.Sqrt(power) / float64(len(x))
	return LinToDB(amp), nil
}

// goertzelPower runs the Goertzel recursion s[n] = x[n] + c*s[n-1] - s[n-2]
// as an all-pole biquad and evaluates the squared magnitude at freq.
func goertzelPower(x []float64, freq, sampleRate float64) (float64, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}
	if freq < 0 || freq > sampleRate/2 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", freq)
	}
	c := 2 * math.Cos(2*math.Pi*freq/sampleRate)
	sec := biquad.NewSection(biquad.Coefficients{B0: 1, A1: -c, A2: 1})
	var s0, s1 float64
	for _, v := range x {
		s0, s1 = sec.ProcessSample(v), s0
	}
	return s0*s0 + s1*s1 - c*s0*s1, nil
}

// SpectralPeak is one local maximum of a Spectrum.
type SpectralPeak struct {
	Frequency float64
	Magnitude float64
}

// Peaks returns up to n local maxima above minHz, strongest first. Bins
// closer than two bins to a stronger peak are treated as its skirt.
func (s *Spectrum) Peaks(n int, minHz float64) []SpectralPeak {
	if n <= 0 {
		return nil
	}
	lo := int(math.Ceil(minHz / s.BinHz))
	if lo < 1 {
		lo = 1
	}
	var bins []int
	for k := lo; k < len(s.Magnitude)-1; k++ {
		m := s.Magnitude[k]
		if m > 0 && m >= s.Magnitude[k-1] && m > s.Magnitude[k+1] {
			bins = append(bins, k)
		}
	}
	sort.Slice(bins, func(i, j int) bool { return s.Magnitude[bins[i]] > s.Magnitude[bins[j]] })

	var out []SpectralPeak
	var taken []int
	for _, k := range bins {
		skirt := false
		for _, t := range taken {
			if k-t <= 2 && t-k <= 2 {
				skirt = true
				break
			}
		}
		if skirt {
			continue
		}
		taken = append(taken, k)
		f, m := s.PeakBetween(float64(k)*s.BinHz, float64(k)*s.BinHz)
		out = append(out, SpectralPeak{Frequency: f, Magnitude: m})
		if len(out) == n {
			break
		}
	}
	return out
}
