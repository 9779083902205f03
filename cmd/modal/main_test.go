package main

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modal/engine"
	"github.com/cwbudde/algo-modal/internal/render"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

func TestSemitoneRatio(t *testing.T) {
	for _, tt := range []struct {
		n    int
		want float64
	}{
		{0, 1},
		{12, 2},
		{-12, 0.5},
		{7, 1.4983070768766815},
	} {
		if got := semitoneRatio(tt.n); math.Abs(got-tt.want) > 0.01*tt.want {
			t.Fatalf("semitoneRatio(%d) = %f, want %f", tt.n, got, tt.want)
		}
	}
}

func TestTranspose(t *testing.T) {
	if transpose(nil, 1) != nil {
		t.Fatalf("identity transpose of nil should stay nil")
	}
	if got := transpose(nil, 2)(5); got != 2 {
		t.Fatalf("transpose(nil, 2) = %f", got)
	}
	if got := transpose(modal.Constant(1.5), 2)(0); got != 3 {
		t.Fatalf("transpose(1.5, 2) = %f", got)
	}
}

func TestNoteOn(t *testing.T) {
	for _, tt := range []struct {
		data []byte
		note int
		ok   bool
	}{
		{[]byte{0x90, 60, 100}, 60, true},
		{[]byte{0x93, 72, 1}, 72, true},
		{[]byte{0x90, 60, 0}, 0, false},
		{[]byte{0x80, 60, 64}, 0, false},
		{[]byte{0xB0, 64, 127}, 0, false},
		{[]byte{0x90, 60}, 0, false},
	} {
		note, ok := noteOn(tt.data)
		if note != tt.note || ok != tt.ok {
			t.Fatalf("noteOn(% x) = %d, %v; want %d, %v", tt.data, note, ok, tt.note, tt.ok)
		}
	}
}

func TestVoicesShareSynthesisPerNote(t *testing.T) {
	e := engine.New(core.WithSampleRate(48000), core.WithBlockSize(128))
	p := preset.Default()
	p.Dataset = modal.Dataset{
		{Frequency: 440, Amplitude: 1, Decay: 0.2},
		{Frequency: 1250, Amplitude: 0.5, Decay: 0.1},
	}
	synth, err := modal.NewSynthesis(p.Dataset, e)
	if err != nil {
		t.Fatalf("NewSynthesis: %v", err)
	}
	v := newVoices(synth, p, e.Destination(), 69)

	if err := v.strike(69); err != nil {
		t.Fatalf("strike base: %v", err)
	}
	if err := v.strike(81); err != nil {
		t.Fatalf("strike octave: %v", err)
	}
	if err := v.strike(81); err != nil {
		t.Fatalf("strike octave again: %v", err)
	}
	if len(v.models) != 2 {
		t.Fatalf("models = %d, want 2", len(v.models))
	}
	if got := v.models[81].ActiveStrikes(); got != 2 {
		t.Fatalf("active strikes on note 81 = %d, want 2", got)
	}

	modes, err := v.models[81].ResolveModes()
	if err != nil {
		t.Fatalf("ResolveModes: %v", err)
	}
	if math.Abs(modes[0].Frequency-880) > 880*0.01 {
		t.Fatalf("octave fundamental = %f, want ~880", modes[0].Frequency)
	}

	// 1250 Hz three octaves up is above Nyquist.
	if err := v.strike(69 + 36); err == nil {
		t.Fatalf("expected error for a note pushing modes past Nyquist")
	}

	v.close()
	if len(v.models) != 0 {
		t.Fatalf("models left after close: %d", len(v.models))
	}
	if e.Edges() != 0 {
		t.Fatalf("edges after close = %d, want 0", e.Edges())
	}
}

func TestModeT60(t *testing.T) {
	// 30 dB in 0.5 s is a T60 of 1 s.
	early := 1.0
	late := math.Pow(10, -30.0/20)
	if got := modeT60(early, late, 0.5); math.Abs(got-1) > 1e-9 {
		t.Fatalf("modeT60 = %f, want 1", got)
	}
	if !math.IsNaN(modeT60(0.5, 0.6, 0.5)) {
		t.Fatalf("expected NaN for a rising level")
	}
}

func TestLoadPresetSelection(t *testing.T) {
	defer func() { presetPath, shapeName = "", "" }()

	p, err := loadPreset()
	if err != nil || p.Name != "glass" {
		t.Fatalf("default preset = %v, %v", p, err)
	}

	shapeName = "bar"
	fundamental = 200
	shapeModes = 3
	shapeDecay = 1
	damping = 0.5
	p, err = loadPreset()
	if err != nil {
		t.Fatalf("shape preset: %v", err)
	}
	if len(p.Dataset) != 3 || math.Abs(p.Dataset[0].Frequency-200) > 1e-9 {
		t.Fatalf("shape preset dataset = %+v", p.Dataset)
	}

	presetPath = "bell.json"
	if _, err := loadPreset(); err == nil {
		t.Fatalf("expected error for --preset with --shape")
	}
}

func TestCompareModesMeasuresRenderedStrike(t *testing.T) {
	p := preset.Default()
	p.Dataset = modal.Dataset{{Frequency: 1000, Amplitude: 1, Decay: 0.5}}
	res, err := render.Strikes(p, render.Options{SampleRate: 48000, BlockSize: 128, Strikes: 1, Tail: 1, Seed: 11})
	if err != nil {
		t.Fatalf("Strikes: %v", err)
	}
	x := wavio.ToFloat64(res.Samples)

	reports, extra, err := compareModes(x, 48000, 0, p.Dataset)
	if err != nil {
		t.Fatalf("compareModes: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	r := reports[0]
	if math.Abs(r.Found-1000) > 5 {
		t.Fatalf("found %f Hz, want ~1000", r.Found)
	}
	if math.Abs(r.T60-0.5) > 0.1 {
		t.Fatalf("T60 = %f, want ~0.5", r.T60)
	}
	if math.IsInf(r.LevelDB, -1) {
		t.Fatalf("mode level is silent")
	}
	for _, pk := range extra {
		if math.Abs(pk.Frequency-1000) <= analyzeTolHz {
			t.Fatalf("peak %f Hz is explained by the mode", pk.Frequency)
		}
	}
}
