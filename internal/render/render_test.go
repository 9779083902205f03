package render

import (
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

func testPreset() *preset.Preset {
	p := preset.Default()
	p.Name = "test"
	p.Dataset = modal.Dataset{
		{Frequency: 440, Amplitude: 1, Decay: 0.2},
		{Frequency: 1250, Amplitude: 0.5, Decay: 0.1},
	}
	return p
}

func TestStrikesLength(t *testing.T) {
	res, err := Strikes(testPreset(), Options{
		SampleRate: 8000,
		BlockSize:  64,
		Strikes:    3,
		Interval:   0.1,
		Tail:       0.25,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("Strikes: %v", err)
	}
	if want := 2*800 + 2000; len(res.Samples) != want {
		t.Fatalf("len = %d, want %d", len(res.Samples), want)
	}
	if got := res.StrikeStart; len(got) != 3 || got[0] != 0 || got[1] != 800 || got[2] != 1600 {
		t.Fatalf("strike starts = %v", got)
	}
	if len(res.First()) != 800 {
		t.Fatalf("first strike = %d frames, want 800", len(res.First()))
	}
	peak := 0.0
	for _, v := range res.First() {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 {
		t.Fatalf("first strike is silent")
	}
}

func TestStrikesIsDeterministicWithSeed(t *testing.T) {
	opts := Options{SampleRate: 48000, BlockSize: 128, Strikes: 1, Tail: 0.05, Seed: 3}
	p := preset.Glass()
	p.Dataset = p.Dataset[:4]
	a, err := Strikes(p, opts)
	if err != nil {
		t.Fatalf("Strikes: %v", err)
	}
	b, err := Strikes(p, opts)
	if err != nil {
		t.Fatalf("Strikes: %v", err)
	}
	if len(a.Samples) != len(b.Samples) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Samples), len(b.Samples))
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestStrikesErrors(t *testing.T) {
	p := testPreset()
	if _, err := Strikes(p, Options{SampleRate: 8000, Strikes: 0}); err == nil {
		t.Fatalf("expected error for zero strikes")
	}
	if _, err := Strikes(p, Options{SampleRate: 8000, Strikes: 1, Interval: -1}); err == nil {
		t.Fatalf("expected error for negative interval")
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Strikes(p, Options{SampleRate: 8000, Strikes: 2, Interval: bad, Tail: 0.1}); err == nil {
			t.Fatalf("expected error for interval %v", bad)
		}
		if _, err := Strikes(p, Options{SampleRate: 8000, Strikes: 1, Tail: bad}); err == nil {
			t.Fatalf("expected error for tail %v", bad)
		}
	}
	if _, err := Strikes(p, Options{Strikes: 1}); err == nil {
		t.Fatalf("expected error without any sample rate")
	}
	// 1250 Hz is above Nyquist at 2 kHz.
	if _, err := Strikes(p, Options{SampleRate: 2000, Strikes: 1}); err == nil {
		t.Fatalf("expected error for mode above Nyquist")
	}
}

func TestStrikesUsesPresetSampleRate(t *testing.T) {
	p := testPreset()
	p.SampleRate = 16000
	res, err := Strikes(p, Options{Strikes: 1, Tail: 0.1})
	if err != nil {
		t.Fatalf("Strikes: %v", err)
	}
	if res.SampleRate != 16000 || len(res.Samples) != 1600 {
		t.Fatalf("rendered %d frames at %d Hz", len(res.Samples), res.SampleRate)
	}
}

func TestRingTimeCoversJitteredDecay(t *testing.T) {
	p := testPreset()
	p.Burst = 10 * time.Millisecond
	if got := RingTime(p); math.Abs(got-(0.2+0.01+0.05)) > 1e-12 {
		t.Fatalf("RingTime = %f", got)
	}
	p.Decay = preset.Param{Value: 1, Variance: 0.5}
	if got := RingTime(p); math.Abs(got-(0.25+0.01+0.05)) > 1e-12 {
		t.Fatalf("RingTime with jitter = %f", got)
	}
}

func TestNormalizeIfClipping(t *testing.T) {
	quiet := []float32{0.5, -0.9}
	if NormalizeIfClipping(quiet) || quiet[1] != -0.9 {
		t.Fatalf("quiet signal was changed: %v", quiet)
	}
	loud := []float32{0.5, -2}
	if !NormalizeIfClipping(loud) {
		t.Fatalf("expected loud signal to be normalized")
	}
	if math.Abs(float64(loud[1])+0.99) > 1e-6 || math.Abs(float64(loud[0])-0.2475) > 1e-6 {
		t.Fatalf("normalized = %v", loud)
	}
}
