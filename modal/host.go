package modal

import "time"

// Node is one stage of the host's signal-processing graph.
type Node interface {
	// Connect routes this node's output into dst's input.
	Connect(dst Node) error
	// Disconnect removes every outgoing connection of this node.
	Disconnect()
}

// GainNode scales its summed input by an automatable gain value.
type GainNode interface {
	Node
	// SetTargetAtTime starts an exponential approach from the current gain
	// to target at startTime (host clock, seconds) with time constant tau.
	SetTargetAtTime(target, startTime, tau float64)
}

// SourceNode plays a sample buffer once. It can be started only once.
type SourceNode interface {
	Node
	Start(when float64) error
}

// Timer is a cancellable deferred callback.
type Timer interface {
	// Stop cancels the callback, reporting whether it was still pending.
	Stop() bool
}

// Host is the signal-processing graph capability the synthesis is built on.
// Implementations own buffers, filters and output; this package only wires
// stages together.
type Host interface {
	SampleRate() float64
	// CurrentTime is the host audio clock in seconds.
	CurrentTime() float64
	CreateGain(initial float64) GainNode
	CreateBandpass(frequency, q float64) Node
	// CreateBufferSource returns a one-shot player over samples. The host
	// must treat samples as read-only; they are shared between players.
	CreateBufferSource(samples []float64) SourceNode
	// AfterFunc runs fn once, no earlier than d after the current host time.
	AfterFunc(d time.Duration, fn func()) Timer
}
