// Package engine renders modal models offline or in real time. It implements
// modal.Host with a small pull-based signal graph driven by the audio clock:
// time only advances when frames are processed.
package engine

import (
	"container/heap"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-modal/dsp"
	"github.com/cwbudde/algo-modal/modal"
)

var (
	// ErrForeignNode is returned when connecting nodes of different engines.
	ErrForeignNode = errors.New("engine: node belongs to another engine")
	// ErrCycle is returned when a connection would create a feedback loop.
	ErrCycle = errors.New("engine: connection would create a cycle")
	// ErrSourceStarted is returned when a buffer source is started twice.
	ErrSourceStarted = errors.New("engine: buffer source already started")
)

// Engine is a block-based renderer. It is safe for concurrent use; the core
// may excite models from one goroutine while another pulls audio.
type Engine struct {
	cfg core.ProcessorConfig

	mu     sync.Mutex
	frame  int64
	block  uint64
	edges  int
	dest   *node
	timers timerQueue
	seq    uint64
}

var _ modal.Host = (*Engine)(nil)

// New creates an engine. Sample rate and block size come from algo-dsp
// processor options and default to 48 kHz and 1024 frames.
func New(opts ...core.ProcessorOption) *Engine {
	e := &Engine{cfg: core.ApplyProcessorOptions(opts...)}
	e.dest = e.newNode(kindDestination)
	return e
}

// Config returns the processor configuration.
func (e *Engine) Config() core.ProcessorConfig { return e.cfg }

// SampleRate implements modal.Host.
func (e *Engine) SampleRate() float64 { return e.cfg.SampleRate }

// CurrentTime implements modal.Host. It is the position of the next frame
// to be rendered, in seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.frame) / e.cfg.SampleRate
}

// Frame returns the number of frames rendered so far.
func (e *Engine) Frame() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Destination is the final summing stage. Connect model outputs here.
func (e *Engine) Destination() modal.Node { return e.dest }

// CreateGain implements modal.Host.
func (e *Engine) CreateGain(initial float64) modal.GainNode {
	n := e.newNode(kindGain)
	n.gain = initial
	return n
}

// CreateBandpass implements modal.Host.
func (e *Engine) CreateBandpass(frequency, q float64) modal.Node {
	n := e.newNode(kindBandpass)
	n.filter = dsp.NewResonator(frequency, q, e.cfg.SampleRate)
	return n
}

// CreateBufferSource implements modal.Host. The samples are read, never
// written.
func (e *Engine) CreateBufferSource(samples []float64) modal.SourceNode {
	n := e.newNode(kindSource)
	n.samples = samples
	n.startFrame = -1
	return n
}

// AfterFunc implements modal.Host. fn runs on the goroutine that calls
// Process, at the first block boundary at or after d of rendered audio.
func (e *Engine) AfterFunc(d time.Duration, fn func()) modal.Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := int64(math.Ceil(d.Seconds() * e.cfg.SampleRate))
	if frames < 0 {
		frames = 0
	}
	t := &timer{engine: e, due: e.frame + frames, seq: e.seq, fn: fn}
	e.seq++
	heap.Push(&e.timers, t)
	return t
}

// Edges returns the number of live connections in the graph.
func (e *Engine) Edges() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.edges
}

// PendingTimers returns the number of scheduled callbacks that have neither
// fired nor been stopped.
func (e *Engine) PendingTimers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Process renders numFrames mono frames. It returns nil for numFrames <= 0.
func (e *Engine) Process(numFrames int) []float32 {
	if numFrames <= 0 {
		return nil
	}
	out := make([]float32, 0, numFrames)
	for len(out) < numFrames {
		n := numFrames - len(out)
		if n > e.cfg.BlockSize {
			n = e.cfg.BlockSize
		}

		e.mu.Lock()
		e.block++
		buf := e.dest.pull(e.block, e.frame, n)
		for _, v := range buf {
			out = append(out, float32(v))
		}
		e.frame += int64(n)
		due := e.timers.popDue(e.frame)
		e.mu.Unlock()

		// Callbacks re-enter the graph, so they run unlocked.
		for _, t := range due {
			t.fn()
		}
	}
	return out
}

// Render processes seconds of audio.
func (e *Engine) Render(seconds float64) []float32 {
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return nil
	}
	return e.Process(int(math.Ceil(seconds * e.cfg.SampleRate)))
}

// Read fills p with 16-bit little-endian stereo PCM, duplicating the mono
// mix on both channels. It never fails, which makes the engine usable as
// an endless io.Reader for audio players.
func (e *Engine) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	mono := e.Process(frames)
	for i, v := range mono {
		s := toInt16(v)
		p[4*i] = byte(s)
		p[4*i+1] = byte(s >> 8)
		p[4*i+2] = byte(s)
		p[4*i+3] = byte(s >> 8)
	}
	return frames * 4, nil
}

func toInt16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}

func (e *Engine) newNode(k kind) *node {
	return &node{engine: e, kind: k, buf: make([]float64, e.cfg.BlockSize)}
}
