package analysis

import (
	"math"
	"math/rand"
	"testing"
)

func makeDecaySine(sr int, freq float64, durationSec float64, t60 float64) []float64 {
	n := int(float64(sr) * durationSec)
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Pow(10, -3*t/t60)
		out[i] = env * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func TestMeasureDecayRecoversT60(t *testing.T) {
	sr := 48000
	for _, t60 := range []float64{0.3, 0.8, 1.5} {
		x := makeDecaySine(sr, 440, 2*t60, t60)
		d := MeasureDecay(x, sr)
		if math.Abs(d.T60-t60)/t60 > 0.05 {
			t.Fatalf("t60=%.2f: measured %.3f (slope %.1f dB/s)", t60, d.T60, d.SlopeDBPerS)
		}
		if d.PeakSec > 0.02 {
			t.Fatalf("expected peak at the start, got %.3fs", d.PeakSec)
		}
	}
}

func TestMeasureDecayOfSilenceIsNaN(t *testing.T) {
	d := MeasureDecay(make([]float64, 48000), 48000)
	if !math.IsNaN(d.T60) {
		t.Fatalf("expected NaN T60 for silence, got %f", d.T60)
	}
	if !math.IsNaN(T60FromSlope(3)) {
		t.Fatalf("rising slope must not produce a T60")
	}
}

func TestComputeSpectrumFindsTone(t *testing.T) {
	sr := 44100
	x := makeDecaySine(sr, 1429.27, 1.0, 1.1)
	s, err := ComputeSpectrum(x, sr, 0, 8192)
	if err != nil {
		t.Fatalf("ComputeSpectrum: %v", err)
	}
	f, mag := s.PeakBetween(200, 10000)
	if math.Abs(f-1429.27) > s.BinHz/2 {
		t.Fatalf("peak at %.2f Hz, want ~1429.27 (bin %.2f Hz)", f, s.BinHz)
	}
	if mag <= 0 {
		t.Fatalf("expected positive magnitude")
	}
	if _, err := ComputeSpectrum(x, sr, 0, 1000); err == nil {
		t.Fatalf("expected error for non power-of-two size")
	}
}

func TestToneLevelDB(t *testing.T) {
	sr := 48000
	n := sr
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/float64(sr))
	}
	on, err := ToneLevelDB(x, 1000, sr)
	if err != nil {
		t.Fatalf("ToneLevelDB: %v", err)
	}
	if math.Abs(on-LinToDB(0.5)) > 0.5 {
		t.Fatalf("expected about %.2f dB, got %.2f", LinToDB(0.5), on)
	}
	off, err := ToneLevelDB(x, 3000, sr)
	if err != nil {
		t.Fatalf("ToneLevelDB: %v", err)
	}
	if off > on-40 {
		t.Fatalf("expected off-tone level far below on-tone: %.1f vs %.1f", off, on)
	}
}

func TestFitEnvelopeSeesThroughNoiseFloor(t *testing.T) {
	const hop = 0.005
	rng := rand.New(rand.NewSource(5))
	env := make([]float64, 400)
	for i := range env {
		tt := float64(i) * hop
		db := 10 * math.Log10(math.Pow(10, -60*tt/0.5/10)+math.Pow(10, -80.0/10))
		db += rng.Float64()*0.5 - 0.25
		env[i] = math.Pow(10, db/20)
	}
	fit, err := FitEnvelope(env, hop, DefaultFitOptions())
	if err != nil {
		t.Fatalf("FitEnvelope: %v", err)
	}
	if math.Abs(fit.T60-0.5)/0.5 > 0.2 {
		t.Fatalf("fitted T60 %.3f, want ~0.5 (rmse %.2f dB)", fit.T60, fit.RMSEDB)
	}
	if math.Abs(fit.FloorDB+80) > 6 {
		t.Fatalf("fitted floor %.1f dB, want ~-80", fit.FloorDB)
	}
	if fit.Evals == 0 {
		t.Fatalf("expected objective evaluations")
	}
	if _, err := FitEnvelope(env[:4], hop, DefaultFitOptions()); err == nil {
		t.Fatalf("expected error for short envelope")
	}
}

func TestSpectrumPeaksOrdersByMagnitude(t *testing.T) {
	sr := 48000
	a := makeDecaySine(sr, 1000, 0.5, 2)
	b := makeDecaySine(sr, 3000, 0.5, 2)
	x := make([]float64, len(a))
	for i := range x {
		x[i] = 0.3*a[i] + b[i]
	}
	s, err := ComputeSpectrum(x, sr, 0, 16384)
	if err != nil {
		t.Fatalf("ComputeSpectrum: %v", err)
	}
	peaks := s.Peaks(2, 100)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2", len(peaks))
	}
	if math.Abs(peaks[0].Frequency-3000) > s.BinHz || math.Abs(peaks[1].Frequency-1000) > s.BinHz {
		t.Fatalf("peaks %+v, want 3000 Hz then 1000 Hz", peaks)
	}
	if s.Peaks(0, 0) != nil {
		t.Fatalf("expected no peaks for n=0")
	}
	if got := Peak(x); got < 0.9 || got > 1.3 {
		t.Fatalf("sample peak %.3f, want between 0.9 and 1.3", got)
	}
}

func TestToneLevelDBRejectsFrequencyAboveNyquist(t *testing.T) {
	x := makeDecaySine(8000, 1000, 0.5, 0.1)
	if _, err := ToneLevelDB(x, 5000, 8000); err == nil {
		t.Fatalf("expected error above Nyquist")
	}
	if _, err := ToneLevelDB(x, math.NaN(), 8000); err == nil {
		t.Fatalf("expected error for NaN frequency")
	}
}

func TestToneLevelDBMatchesSpectrumBin(t *testing.T) {
	sr := 48000
	x := make([]float64, 4096)
	for i := range x {
		x[i] = 0.25*math.Sin(2*math.Pi*750*float64(i)/float64(sr)) + 0.1*math.Sin(2*math.Pi*4500*float64(i)/float64(sr))
	}
	hi, err := ToneLevelDB(x, 750, sr)
	if err != nil {
		t.Fatalf("ToneLevelDB: %v", err)
	}
	lo, err := ToneLevelDB(x, 4500, sr)
	if err != nil {
		t.Fatalf("ToneLevelDB: %v", err)
	}
	if math.Abs(hi-LinToDB(0.25)) > 1 || math.Abs(lo-LinToDB(0.1)) > 1 {
		t.Fatalf("levels %.2f / %.2f dB, want %.2f / %.2f", hi, lo, LinToDB(0.25), LinToDB(0.1))
	}
}
