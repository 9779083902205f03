package preset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwbudde/algo-modal/modal"
)

//go:embed glass.json
var glassJSON []byte

// File is the JSON schema for modal presets.
type File struct {
	Name       string        `json:"name"`
	SampleRate *float64      `json:"sample_rate"`
	BurstMS    *float64      `json:"burst_ms"`
	Modes      []ModeEntry   `json:"modes"`
	Model      *ModelSetting `json:"model"`
}

// ModeEntry is one mode, written either as an object or as a
// [frequency, amplitude, decay] triple.
type ModeEntry modal.ModeDescriptor

// UnmarshalJSON accepts both mode notations.
func (m *ModeEntry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var triple []float64
		if err := json.Unmarshal(b, &triple); err != nil {
			return err
		}
		if len(triple) != 3 {
			return fmt.Errorf("mode triple must have 3 values, got %d", len(triple))
		}
		*m = ModeEntry{Frequency: triple[0], Amplitude: triple[1], Decay: triple[2]}
		return nil
	}
	var d modal.ModeDescriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*m = ModeEntry(d)
	return nil
}

// ModelSetting holds the per-strike multipliers and lifecycle flags.
type ModelSetting struct {
	Frequency      *Param `json:"frequency"`
	Amplitude      *Param `json:"amplitude"`
	Decay          *Param `json:"decay"`
	AutoDisconnect *bool  `json:"auto_disconnect"`
}

// Param is a multiplier with an optional random spread. A variance of v
// draws factors uniformly from [value*(1-v/2), value*(1+v/2)].
type Param struct {
	Value    float64 `json:"value"`
	Variance float64 `json:"variance"`
}

// Multiplier returns the modal multiplier for p. A nil rng uses a randomly
// seeded source.
func (p Param) Multiplier(rng *rand.Rand) modal.Multiplier {
	if p.Value == 1 && p.Variance == 0 {
		return nil
	}
	return modal.Jitter(p.Value, p.Variance, rng)
}

// Preset is a validated, ready-to-use preset.
type Preset struct {
	Name           string
	SampleRate     float64 // 0 means "use the host rate"
	Burst          time.Duration
	Dataset        modal.Dataset
	Frequency      Param
	Amplitude      Param
	Decay          Param
	AutoDisconnect bool
}

// Default returns an empty preset with identity multipliers.
func Default() *Preset {
	return &Preset{
		Burst:          modal.DefaultBurst,
		Frequency:      Param{Value: 1},
		Amplitude:      Param{Value: 1},
		Decay:          Param{Value: 1},
		AutoDisconnect: true,
	}
}

// Config builds a model configuration. Each call with a nil rng gets
// independent random streams.
func (p *Preset) Config(rng *rand.Rand) modal.Config {
	return modal.Config{
		FrequencyMultiplier: p.Frequency.Multiplier(rng),
		AmplitudeMultiplier: p.Amplitude.Multiplier(rng),
		DecayMultiplier:     p.Decay.Multiplier(rng),
		AutoDisconnect:      p.AutoDisconnect,
	}
}

// Glass returns the built-in 17-mode wine glass.
func Glass() *Preset {
	p, err := Parse(glassJSON)
	if err != nil {
		panic(fmt.Sprintf("preset: embedded glass preset: %v", err))
	}
	return p
}

// LoadJSON loads a preset file. A preset without a name is named after the
// file.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Parse decodes and validates a preset.
func Parse(b []byte) (*Preset, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	p := Default()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing preset.
func ApplyFile(dst *Preset, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination preset")
	}
	if f == nil {
		return nil
	}

	if f.Name != "" {
		dst.Name = strings.TrimSpace(f.Name)
	}
	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BurstMS != nil {
		if *f.BurstMS <= 0 {
			return fmt.Errorf("burst_ms must be > 0")
		}
		dst.Burst = time.Duration(*f.BurstMS * float64(time.Millisecond))
	}
	if len(f.Modes) > 0 {
		d := make(modal.Dataset, len(f.Modes))
		for i, m := range f.Modes {
			d[i] = modal.ModeDescriptor(m)
		}
		// Without a preset rate, only the rate-independent checks apply.
		rate := dst.SampleRate
		if rate == 0 {
			rate = maxFrequencyRate(d)
		}
		if err := d.Validate(rate); err != nil {
			return fmt.Errorf("modes: %w", err)
		}
		dst.Dataset = d
	}
	if len(dst.Dataset) == 0 {
		return fmt.Errorf("modes: %w", modal.ErrEmptyDataset)
	}

	if f.Model == nil {
		return nil
	}
	for _, s := range []struct {
		name string
		src  *Param
		dst  *Param
	}{
		{"frequency", f.Model.Frequency, &dst.Frequency},
		{"amplitude", f.Model.Amplitude, &dst.Amplitude},
		{"decay", f.Model.Decay, &dst.Decay},
	} {
		if s.src == nil {
			continue
		}
		if s.src.Value < 0 || (s.name != "amplitude" && s.src.Value == 0) {
			return fmt.Errorf("model.%s.value out of range: %g", s.name, s.src.Value)
		}
		if s.src.Variance < 0 || s.src.Variance > 1 {
			return fmt.Errorf("model.%s.variance must be in [0,1]", s.name)
		}
		*s.dst = *s.src
	}
	if f.Model.AutoDisconnect != nil {
		dst.AutoDisconnect = *f.Model.AutoDisconnect
	}
	return nil
}

// maxFrequencyRate returns a sample rate whose Nyquist frequency sits just
// above every mode, so validation checks everything except Nyquist.
func maxFrequencyRate(d modal.Dataset) float64 {
	hi := 1.0
	for _, m := range d {
		if m.Frequency > hi {
			hi = m.Frequency
		}
	}
	return 2*hi + 2
}
