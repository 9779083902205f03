package modal

import (
	"io"
	"log"
	"math"
	"sync"
	"time"
)

const (
	// DefaultBurst is the excitation time constant used by Excite.
	DefaultBurst = 10 * time.Millisecond

	// DefaultHeadroom stretches the noise buffer beyond the longest decay.
	DefaultHeadroom = 1.5

	// AutoDisconnectMargin is added to a strike's ring time before it is
	// released automatically.
	AutoDisconnectMargin = 5 * time.Millisecond

	noisePad = 10 * time.Millisecond
)

type options struct {
	logger   *log.Logger
	seed     int64
	seeded   bool
	headroom float64
}

// Option configures a Synthesis or a NoiseBuffer.
type Option func(*options)

// WithLogger routes lifecycle messages to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNoiseSeed makes generated noise deterministic.
func WithNoiseSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithHeadroom sets the noise buffer length as a multiple of the longest
// decay. Values below 1 are ignored.
func WithHeadroom(factor float64) Option {
	return func(o *options) {
		if factor >= 1 {
			o.headroom = factor
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:   log.New(io.Discard, "", 0),
		headroom: DefaultHeadroom,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NoiseLength returns the buffer length, in samples, that outlasts a
// resonance of maxDecay seconds: the decay stretched by headroom plus a
// fixed pad.
func NoiseLength(maxDecay, sampleRate, headroom float64) int {
	if headroom < 1 {
		headroom = 1
	}
	body := math.Ceil(maxDecay * headroom * sampleRate)
	pad := math.Ceil(noisePad.Seconds() * sampleRate)
	return int(body + pad)
}

// Synthesis is the factory for models of one dataset on one host. It owns
// the noise buffer shared by every excitation of every model it creates.
type Synthesis struct {
	host       Host
	dataset    Dataset
	sampleRate float64
	maxDecay   float64
	opts       options

	mu    sync.Mutex
	noise *NoiseBuffer
}

// NewSynthesis validates dataset against the host's sample rate and sizes
// the shared noise buffer for its longest decay.
func NewSynthesis(dataset Dataset, host Host, opts ...Option) (*Synthesis, error) {
	sampleRate := host.SampleRate()
	if err := dataset.Validate(sampleRate); err != nil {
		return nil, err
	}
	s := &Synthesis{
		host:       host,
		dataset:    append(Dataset(nil), dataset...),
		sampleRate: sampleRate,
		maxDecay:   dataset.MaxDecay(),
		opts:       applyOptions(opts),
	}
	noise, err := s.newNoise(s.maxDecay)
	if err != nil {
		return nil, err
	}
	s.noise = noise
	return s, nil
}

// MaxDecay returns the longest decay in the dataset, in seconds.
func (s *Synthesis) MaxDecay() float64 { return s.maxDecay }

// SampleRate returns the host sample rate the dataset was validated at.
func (s *Synthesis) SampleRate() float64 { return s.sampleRate }

// Dataset returns a copy of the dataset.
func (s *Synthesis) Dataset() Dataset {
	return append(Dataset(nil), s.dataset...)
}

// Noise returns the current shared noise buffer.
func (s *Synthesis) Noise() *NoiseBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noise
}

func (s *Synthesis) newNoise(seconds float64) (*NoiseBuffer, error) {
	n := NoiseLength(seconds, s.sampleRate, s.opts.headroom)
	opts := []Option{}
	if s.opts.seeded {
		opts = append(opts, WithNoiseSeed(s.opts.seed))
	}
	return NewNoiseBuffer(n, s.sampleRate, opts...)
}

// noiseFor returns a shared buffer that outlasts tail seconds. When decay
// multipliers push a strike past the current buffer, a longer buffer
// replaces it; strikes already playing keep the old one.
func (s *Synthesis) noiseFor(tail float64) (*NoiseBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	need := int(math.Ceil(tail*s.sampleRate)) + int(math.Ceil(noisePad.Seconds()*s.sampleRate))
	if s.noise.Len() >= need {
		return s.noise, nil
	}
	noise, err := s.newNoise(tail)
	if err != nil {
		return nil, err
	}
	s.opts.logger.Printf("modal: noise buffer grown from %d to %d samples for a %.3fs tail", s.noise.Len(), noise.Len(), tail)
	s.noise = noise
	return noise, nil
}

// NewModel creates a model with its own output stage. Connect Output to a
// destination before exciting it.
func (s *Synthesis) NewModel(cfg Config) *Model {
	return &Model{
		synth:   s,
		cfg:     cfg,
		output:  s.host.CreateGain(1),
		strikes: make(map[uint64]*strike),
	}
}
