// Package render strikes presets on an offline engine. It backs both the
// render command and the HTTP server.
package render

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modal/engine"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

// Options controls an offline render.
type Options struct {
	SampleRate int // 0 uses the preset rate
	BlockSize  int // 0 uses the engine default
	Strikes    int
	Interval   float64 // seconds between strikes
	Tail       float64 // seconds after the last strike, 0 rings out
	Seed       int64   // 0 draws fresh noise and jitter
	Logger     *log.Logger
}

// Result is a rendered take.
type Result struct {
	Samples     []float32
	SampleRate  int
	StrikeStart []int // frame of each strike
	Synthesis   *modal.Synthesis
}

// Strikes renders opts.Strikes strikes of a fresh model of p.
func Strikes(p *preset.Preset, opts Options) (*Result, error) {
	if opts.Strikes < 1 {
		return nil, fmt.Errorf("strikes must be >= 1")
	}
	if opts.Interval < 0 || math.IsNaN(opts.Interval) || math.IsInf(opts.Interval, 0) {
		return nil, fmt.Errorf("interval must be finite and >= 0: %v", opts.Interval)
	}
	if math.IsNaN(opts.Tail) || math.IsInf(opts.Tail, 0) {
		return nil, fmt.Errorf("tail must be finite: %v", opts.Tail)
	}
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = int(p.SampleRate)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("no sample rate given and preset %q has none", p.Name)
	}

	engineOpts := []core.ProcessorOption{core.WithSampleRate(float64(sampleRate))}
	if opts.BlockSize > 0 {
		engineOpts = append(engineOpts, core.WithBlockSize(opts.BlockSize))
	}
	e := engine.New(engineOpts...)

	synthOpts := []modal.Option{modal.WithLogger(opts.Logger)}
	var rng *rand.Rand
	if opts.Seed != 0 {
		synthOpts = append(synthOpts, modal.WithNoiseSeed(opts.Seed))
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	synth, err := modal.NewSynthesis(p.Dataset, e, synthOpts...)
	if err != nil {
		return nil, err
	}
	m := synth.NewModel(p.Config(rng))
	if err := m.Output().Connect(e.Destination()); err != nil {
		return nil, err
	}
	defer m.Disconnect()

	tail := opts.Tail
	if tail <= 0 {
		tail = RingTime(p)
	}

	res := &Result{SampleRate: sampleRate, Synthesis: synth}
	gap := int(math.Round(opts.Interval * float64(sampleRate)))
	for i := 0; i < opts.Strikes; i++ {
		res.StrikeStart = append(res.StrikeStart, len(res.Samples))
		if err := m.ExciteWithBurst(p.Burst); err != nil {
			return nil, fmt.Errorf("strike %d: %w", i, err)
		}
		if i < opts.Strikes-1 {
			res.Samples = append(res.Samples, e.Process(gap)...)
		}
	}
	res.Samples = append(res.Samples, e.Render(tail)...)
	return res, nil
}

// RingTime is how long a strike of p can ring, including the largest
// decay multiplier its jitter can draw.
func RingTime(p *preset.Preset) float64 {
	scale := math.Max(1, p.Decay.Value*(1+p.Decay.Variance/2))
	return p.Dataset.MaxDecay()*scale + p.Burst.Seconds() + 0.05
}

// First returns the samples of the first strike.
func (r *Result) First() []float32 {
	end := len(r.Samples)
	if len(r.StrikeStart) > 1 {
		end = r.StrikeStart[1]
	}
	return r.Samples[:end]
}

// NormalizeIfClipping scales x down to a 0.99 peak when it would clip.
func NormalizeIfClipping(x []float32) bool {
	peak := float32(0)
	for _, v := range x {
		if v > peak {
			peak = v
		} else if -v > peak {
			peak = -v
		}
	}
	if peak <= 1 {
		return false
	}
	g := 0.99 / peak
	for i := range x {
		x[i] *= g
	}
	return true
}
