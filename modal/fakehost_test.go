package modal

import (
	"errors"
	"time"
)

type targetEvent struct {
	target float64
	start  float64
	tau    float64
}

type fakeNode struct {
	host        *fakeHost
	kind        string
	gain        float64
	freq        float64
	q           float64
	samples     []float64
	outs        []*fakeNode
	targets     []targetEvent
	starts      int
	disconnects int
}

func (n *fakeNode) Connect(dst Node) error {
	d, ok := dst.(*fakeNode)
	if !ok || d.host != n.host {
		return errors.New("foreign node")
	}
	n.outs = append(n.outs, d)
	n.host.edges++
	return nil
}

func (n *fakeNode) Disconnect() {
	n.disconnects++
	n.host.edges -= len(n.outs)
	n.outs = nil
}

func (n *fakeNode) SetTargetAtTime(target, start, tau float64) {
	n.targets = append(n.targets, targetEvent{target: target, start: start, tau: tau})
}

func (n *fakeNode) Start(float64) error {
	n.starts++
	if n.starts > 1 {
		return errors.New("source started twice")
	}
	return nil
}

type fakeTimer struct {
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeHost records every stage it creates and runs timers on a manual clock.
type fakeHost struct {
	sampleRate float64
	now        time.Duration
	nodes      []*fakeNode
	timers     []*fakeTimer
	edges      int
}

func newFakeHost(sampleRate float64) *fakeHost {
	return &fakeHost{sampleRate: sampleRate}
}

func (h *fakeHost) SampleRate() float64  { return h.sampleRate }
func (h *fakeHost) CurrentTime() float64 { return h.now.Seconds() }

func (h *fakeHost) add(n *fakeNode) *fakeNode {
	n.host = h
	h.nodes = append(h.nodes, n)
	return n
}

func (h *fakeHost) CreateGain(initial float64) GainNode {
	return h.add(&fakeNode{kind: "gain", gain: initial})
}

func (h *fakeHost) CreateBandpass(frequency, q float64) Node {
	return h.add(&fakeNode{kind: "bandpass", freq: frequency, q: q})
}

func (h *fakeHost) CreateBufferSource(samples []float64) SourceNode {
	return h.add(&fakeNode{kind: "source", samples: samples})
}

func (h *fakeHost) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{due: h.now + d, fn: fn}
	h.timers = append(h.timers, t)
	return t
}

// advance moves the clock and fires every due timer.
func (h *fakeHost) advance(d time.Duration) {
	h.now += d
	due := append([]*fakeTimer(nil), h.timers...)
	for _, t := range due {
		if t.stopped || t.fired || t.due > h.now {
			continue
		}
		t.fired = true
		t.fn()
	}
}

func (h *fakeHost) count(kind string) int {
	n := 0
	for _, node := range h.nodes {
		if node.kind == kind {
			n++
		}
	}
	return n
}

func (h *fakeHost) bandpasses() []*fakeNode {
	var out []*fakeNode
	for _, node := range h.nodes {
		if node.kind == "bandpass" {
			out = append(out, node)
		}
	}
	return out
}
