package modal

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Config parameterizes a model. Multipliers are applied to the dataset on
// every strike, so randomizing ones give every strike a different sound.
type Config struct {
	FrequencyMultiplier Multiplier
	AmplitudeMultiplier Multiplier
	DecayMultiplier     Multiplier

	// AutoDisconnect releases each strike once it has rung out.
	AutoDisconnect bool
}

type strike struct {
	id         uint64
	bank       *Bank
	excitation *Excitation
	timer      Timer
	ring       time.Duration
}

func (st *strike) teardown() {
	if st.timer != nil {
		st.timer.Stop()
	}
	st.excitation.Teardown()
	st.bank.Teardown()
}

// Model is a playable instance: a persistent output stage plus the strikes
// still ringing into it. Model is safe for concurrent use.
type Model struct {
	synth  *Synthesis
	cfg    Config
	output GainNode

	mu           sync.Mutex
	strikes      map[uint64]*strike
	nextID       uint64
	disconnected bool
}

// Output is the stage every strike sums into.
func (m *Model) Output() Node { return m.output }

// ResolveModes applies the multipliers to every mode, invoking each
// multiplier once per mode in dataset order, and derives each Q.
func (m *Model) ResolveModes() ([]ModeParams, error) {
	sampleRate := m.synth.sampleRate
	out := make([]ModeParams, len(m.synth.dataset))
	for i, d := range m.synth.dataset {
		p := ModeParams{
			Frequency: m.cfg.FrequencyMultiplier.apply(i, d.Frequency),
			Amplitude: m.cfg.AmplitudeMultiplier.apply(i, d.Amplitude),
			Decay:     m.cfg.DecayMultiplier.apply(i, d.Decay),
		}
		if err := p.validate(i, sampleRate); err != nil {
			return nil, err
		}
		p.Q = QFromDecay(p.Frequency, p.Decay, sampleRate)
		out[i] = p
	}
	return out, nil
}

// Excite strikes the model with a DefaultBurst noise burst.
func (m *Model) Excite() error {
	return m.ExciteWithBurst(DefaultBurst)
}

// ExciteWithBurst strikes the model. Every call builds a fresh excitation
// and bank, so strikes overlap and sum at the output.
func (m *Model) ExciteWithBurst(burst time.Duration) error {
	if burst <= 0 {
		return ErrInvalidBurst
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return ErrDisconnected
	}

	params, err := m.ResolveModes()
	if err != nil {
		return err
	}
	longest := 0.0
	for _, p := range params {
		longest = math.Max(longest, p.Decay)
	}

	host := m.synth.host
	noise, err := m.synth.noiseFor(longest + burst.Seconds())
	if err != nil {
		return err
	}
	bank, err := NewBank(host, params)
	if err != nil {
		return err
	}
	exc, err := NewExcitation(host, noise, burst)
	if err != nil {
		bank.Teardown()
		return err
	}
	st := &strike{id: m.nextID, bank: bank, excitation: exc}
	if err := exc.Output().Connect(bank.Input()); err != nil {
		st.teardown()
		return fmt.Errorf("connect excitation: %w", err)
	}
	if err := bank.Output().Connect(m.output); err != nil {
		st.teardown()
		return fmt.Errorf("connect bank: %w", err)
	}
	if err := exc.Start(); err != nil {
		st.teardown()
		return err
	}
	m.nextID++
	m.strikes[st.id] = st

	if m.cfg.AutoDisconnect {
		ring := math.Max(longest, m.synth.maxDecay)
		st.ring = time.Duration(ring*float64(time.Second)) + burst + AutoDisconnectMargin
		id := st.id
		st.timer = host.AfterFunc(st.ring, func() { m.release(id) })
	}
	return nil
}

// release tears down one strike if it is still live. Removal from the
// strike table is what makes teardown happen exactly once.
func (m *Model) release(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.strikes[id]
	if !ok {
		return
	}
	delete(m.strikes, id)
	st.timer = nil
	st.teardown()
	m.synth.opts.logger.Printf("modal: strike %d released after %s", id, st.ring)
}

// ActiveStrikes returns how many strikes are still connected.
func (m *Model) ActiveStrikes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.strikes)
}

// Disconnect silences the model: every live strike is torn down, pending
// auto-disconnects are cancelled and the output stage is disconnected.
// A disconnected model cannot be excited again; build a new one from the
// same Synthesis instead.
func (m *Model) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnected {
		return ErrDisconnected
	}
	m.disconnected = true

	ids := make([]uint64, 0, len(m.strikes))
	for id := range m.strikes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m.strikes[id].teardown()
		delete(m.strikes, id)
	}
	m.output.Disconnect()
	m.synth.opts.logger.Printf("modal: model disconnected, %d strikes released", len(ids))
	return nil
}
