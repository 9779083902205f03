package engine

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-modal/dsp"
	"github.com/cwbudde/algo-modal/modal"
)

type kind int

const (
	kindDestination kind = iota
	kindGain
	kindBandpass
	kindSource
)

func (k kind) String() string {
	switch k {
	case kindDestination:
		return "destination"
	case kindGain:
		return "gain"
	case kindBandpass:
		return "bandpass"
	case kindSource:
		return "source"
	}
	return "unknown"
}

type gainEvent struct {
	start  int64
	target float64
	tau    float64
}

// node is every stage of the graph. Inputs are pulled once per block and
// the result is cached, so fan-out never renders a subtree twice.
type node struct {
	engine *Engine
	kind   kind

	inputs []*node
	outs   []*node

	buf   []float64
	block uint64

	// gain
	gain   float64
	events []gainEvent
	ramp   *dsp.TargetRamp

	// bandpass
	filter *dsp.Resonator

	// source
	samples    []float64
	startFrame int64
}

// Connect implements modal.Node.
func (n *node) Connect(dst modal.Node) error {
	d, ok := dst.(*node)
	if !ok || d.engine != n.engine {
		return ErrForeignNode
	}
	if d.kind == kindSource {
		return errors.New("engine: buffer sources take no input")
	}
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if d == n || d.reaches(n) {
		return ErrCycle
	}
	n.outs = append(n.outs, d)
	d.inputs = append(d.inputs, n)
	e.edges++
	return nil
}

// Disconnect implements modal.Node. It removes every outgoing connection.
func (n *node) Disconnect() {
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range n.outs {
		d.removeInput(n)
		e.edges--
	}
	n.outs = nil
}

// SetTargetAtTime implements modal.GainNode.
func (n *node) SetTargetAtTime(target, startTime, tau float64) {
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	start := int64(math.Round(startTime * e.cfg.SampleRate))
	ev := gainEvent{start: start, target: target, tau: tau}
	i := len(n.events)
	for i > 0 && n.events[i-1].start > start {
		i--
	}
	n.events = append(n.events, gainEvent{})
	copy(n.events[i+1:], n.events[i:])
	n.events[i] = ev
}

// Start implements modal.SourceNode.
func (n *node) Start(when float64) error {
	if n.kind != kindSource {
		return errors.New("engine: only buffer sources can be started")
	}
	e := n.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	if n.startFrame >= 0 {
		return ErrSourceStarted
	}
	start := int64(math.Round(when * e.cfg.SampleRate))
	if start < e.frame {
		start = e.frame
	}
	n.startFrame = start
	return nil
}

func (n *node) reaches(target *node) bool {
	for _, o := range n.outs {
		if o == target || o.reaches(target) {
			return true
		}
	}
	return false
}

func (n *node) removeInput(src *node) {
	for i, in := range n.inputs {
		if in == src {
			n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
			return
		}
	}
}

// pull renders frames samples starting at frame. Callers hold the engine lock.
func (n *node) pull(block uint64, frame int64, frames int) []float64 {
	out := n.buf[:frames]
	if n.block == block {
		return out
	}
	n.block = block

	if n.kind == kindSource {
		n.play(out, frame)
		return out
	}

	for i := range out {
		out[i] = 0
	}
	for _, in := range n.inputs {
		src := in.pull(block, frame, frames)
		for i, v := range src {
			out[i] += v
		}
	}

	switch n.kind {
	case kindGain:
		n.applyGain(out, frame)
	case kindBandpass:
		n.filter.ProcessBlock(out)
	}
	return out
}

func (n *node) play(out []float64, frame int64) {
	for i := range out {
		idx := frame + int64(i) - n.startFrame
		if n.startFrame < 0 || idx < 0 || idx >= int64(len(n.samples)) {
			out[i] = 0
			continue
		}
		out[i] = n.samples[idx]
	}
}

func (n *node) applyGain(out []float64, frame int64) {
	sampleRate := n.engine.cfg.SampleRate
	for i := range out {
		f := frame + int64(i)
		for len(n.events) > 0 && n.events[0].start <= f {
			ev := n.events[0]
			n.events = n.events[1:]
			n.ramp = dsp.NewTargetRamp(n.gain, ev.target, ev.tau, sampleRate)
		}
		if n.ramp != nil {
			n.gain = n.ramp.Next()
		}
		out[i] *= n.gain
	}
}
