package modal

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

// NoiseBuffer is a fixed-length block of uniform white noise in [-1, 1].
// It is never mutated after creation and may be shared by any number of
// playback nodes.
type NoiseBuffer struct {
	samples    []float64
	sampleRate float64
}

// NewNoiseBuffer fills sampleCount samples with uniform white noise. The
// content is random on every call unless a seed is supplied.
func NewNoiseBuffer(sampleCount int, sampleRate float64, opts ...Option) (*NoiseBuffer, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if sampleCount <= 0 {
		return nil, fmt.Errorf("noise buffer length must be > 0: %d", sampleCount)
	}
	o := applyOptions(opts)
	seed := o.seed
	if !o.seeded {
		seed = rand.Int63()
	}
	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(sampleRate)},
		signal.WithSeed(seed),
	)
	samples, err := gen.WhiteNoise(1, sampleCount)
	if err != nil {
		return nil, fmt.Errorf("noise buffer: %w", err)
	}
	return &NoiseBuffer{samples: samples, sampleRate: sampleRate}, nil
}

// Len returns the buffer length in samples.
func (b *NoiseBuffer) Len() int {
	return len(b.samples)
}

// SampleRate returns the rate the buffer was sized for.
func (b *NoiseBuffer) SampleRate() float64 {
	return b.sampleRate
}

// Duration returns how long the buffer plays before running dry.
func (b *NoiseBuffer) Duration() time.Duration {
	return time.Duration(float64(len(b.samples)) / b.sampleRate * float64(time.Second))
}

// At returns sample i.
func (b *NoiseBuffer) At(i int) float64 {
	return b.samples[i]
}

// NewSource returns a fresh one-shot player over the buffer. Players cannot
// be restarted; request a new one for every strike.
func (b *NoiseBuffer) NewSource(host Host) SourceNode {
	return host.CreateBufferSource(b.samples)
}
