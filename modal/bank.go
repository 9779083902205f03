package modal

import "fmt"

// Bank runs modes in parallel between a shared input and a shared output.
type Bank struct {
	input  GainNode
	output GainNode
	modes  []*Mode
	torn   bool
}

// NewBank builds one Mode per entry. On failure every stage created so far
// is disconnected again.
func NewBank(host Host, params []ModeParams) (*Bank, error) {
	if len(params) == 0 {
		return nil, ErrEmptyDataset
	}
	b := &Bank{
		input:  host.CreateGain(1),
		output: host.CreateGain(1),
		modes:  make([]*Mode, 0, len(params)),
	}
	for i, p := range params {
		m, err := newMode(host, i, p)
		if err != nil {
			b.Teardown()
			return nil, err
		}
		b.modes = append(b.modes, m)
		if err := b.input.Connect(m.Input()); err != nil {
			b.Teardown()
			return nil, fmt.Errorf("connect bank input to mode %d: %w", i, err)
		}
		if err := m.Output().Connect(b.output); err != nil {
			b.Teardown()
			return nil, fmt.Errorf("connect mode %d to bank output: %w", i, err)
		}
	}
	return b, nil
}

// Input is the unity-gain stage feeding every mode.
func (b *Bank) Input() Node { return b.input }

// Output is the unity-gain stage summing every mode.
func (b *Bank) Output() Node { return b.output }

// Modes returns the bank's modes in dataset order.
func (b *Bank) Modes() []*Mode { return b.modes }

// Teardown disconnects the shared stages and every mode. It must be called
// at most once.
func (b *Bank) Teardown() {
	if b.torn {
		panic("modal: bank torn down twice")
	}
	b.torn = true
	b.input.Disconnect()
	b.output.Disconnect()
	for _, m := range b.modes {
		m.Teardown()
	}
}
