package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cwbudde/algo-modal/internal/render"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

const defaultSampleRate = 48000

var presetName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var errPresetNotFound = errors.New("preset not found")

type modeInfo struct {
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
	Decay     float64 `json:"decay"`
	Q         float64 `json:"q"`
}

type presetInfo struct {
	Name           string       `json:"name"`
	SampleRate     float64      `json:"sample_rate"`
	BurstMS        float64      `json:"burst_ms"`
	MaxDecay       float64      `json:"max_decay"`
	Modes          []modeInfo   `json:"modes"`
	Frequency      preset.Param `json:"frequency"`
	Amplitude      preset.Param `json:"amplitude"`
	Decay          preset.Param `json:"decay"`
	AutoDisconnect bool         `json:"auto_disconnect"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	names := []string{"glass", string(preset.ShapeString), string(preset.ShapeBar), string(preset.ShapeRing)}
	if s.config.PresetDir != "" {
		files, err := filepath.Glob(filepath.Join(s.config.PresetDir, "*.json"))
		if err != nil {
			s.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for _, f := range files {
			names = append(names, strings.TrimSuffix(filepath.Base(f), ".json"))
		}
	}
	sort.Strings(names[4:])
	s.writeJSON(w, map[string]any{"presets": names})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	def := float64(defaultSampleRate)
	if p.SampleRate > 0 {
		def = p.SampleRate
	}
	sr, err := floatParam(r, "sample_rate", def)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := p.Dataset.Validate(sr); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	info := presetInfo{
		Name:           p.Name,
		SampleRate:     sr,
		BurstMS:        float64(p.Burst.Microseconds()) / 1000,
		MaxDecay:       p.Dataset.MaxDecay(),
		Frequency:      p.Frequency,
		Amplitude:      p.Amplitude,
		Decay:          p.Decay,
		AutoDisconnect: p.AutoDisconnect,
	}
	for _, m := range p.Dataset {
		info.Modes = append(info.Modes, modeInfo{
			Frequency: m.Frequency,
			Amplitude: m.Amplitude,
			Decay:     m.Decay,
			Q:         modal.QFromDecay(m.Frequency, m.Decay, sr),
		})
	}
	s.writeJSON(w, info)
}

// handleStrike renders strikes of a preset and streams them as WAV.
func (s *Server) handleStrike(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	opts, err := s.renderOptions(r, p)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := render.Strikes(p, opts)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	render.NormalizeIfClipping(res.Samples)

	var buf wavio.Buffer
	if err := wavio.EncodeMono(&buf, res.Samples, res.SampleRate); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("rendered strike",
		slog.String("preset", p.Name),
		slog.Int("strikes", opts.Strikes),
		slog.Int("frames", len(res.Samples)),
		slog.Int("sample_rate", res.SampleRate))

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf.Bytes())))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", p.Name+".wav"))
	w.Write(buf.Bytes())
}

func (s *Server) renderOptions(r *http.Request, p *preset.Preset) (render.Options, error) {
	sr := defaultSampleRate
	if p.SampleRate > 0 {
		sr = int(p.SampleRate)
	}
	opts := render.Options{SampleRate: sr, Strikes: 1, BlockSize: 128}
	var err error
	if opts.SampleRate, err = intParam(r, "sample_rate", opts.SampleRate); err != nil {
		return opts, err
	}
	if opts.SampleRate < 8000 || opts.SampleRate > 192000 {
		return opts, fmt.Errorf("sample_rate must be in [8000, 192000]")
	}
	if opts.Strikes, err = intParam(r, "strikes", 1); err != nil {
		return opts, err
	}
	if opts.Strikes < 1 || opts.Strikes > s.config.MaxStrikes {
		return opts, fmt.Errorf("strikes must be in [1, %d]", s.config.MaxStrikes)
	}
	if opts.Interval, err = floatParam(r, "interval", 0.5); err != nil {
		return opts, err
	}
	if opts.Tail, err = floatParam(r, "tail", 0); err != nil {
		return opts, err
	}
	seed, err := intParam(r, "seed", 0)
	if err != nil {
		return opts, err
	}
	opts.Seed = int64(seed)

	tail := opts.Tail
	if tail <= 0 {
		tail = render.RingTime(p)
	}
	if opts.Interval < 0 {
		return opts, fmt.Errorf("interval must be >= 0")
	}
	if total := opts.Interval*float64(opts.Strikes-1) + tail; !(total <= s.config.MaxSeconds) {
		return opts, fmt.Errorf("render of %.1fs exceeds the %.0fs limit", total, s.config.MaxSeconds)
	}
	return opts, nil
}

// lookup resolves the {name} URL parameter and writes the error response
// when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*preset.Preset, bool) {
	p, err := s.resolve(chi.URLParam(r, "name"), r)
	switch {
	case errors.Is(err, errPresetNotFound):
		s.writeError(w, err.Error(), http.StatusNotFound)
		return nil, false
	case err != nil:
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return p, true
}

func (s *Server) resolve(name string, r *http.Request) (*preset.Preset, error) {
	if !presetName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", errPresetNotFound, name)
	}
	switch preset.Shape(name) {
	case preset.ShapeString, preset.ShapeBar, preset.ShapeRing:
		opts := preset.DefaultShapeOptions()
		var err error
		if opts.Fundamental, err = floatParam(r, "fundamental", opts.Fundamental); err != nil {
			return nil, err
		}
		if opts.Decay, err = floatParam(r, "decay", opts.Decay); err != nil {
			return nil, err
		}
		if opts.Damping, err = floatParam(r, "damping", opts.Damping); err != nil {
			return nil, err
		}
		if opts.Modes, err = intParam(r, "modes", opts.Modes); err != nil {
			return nil, err
		}
		if opts.Modes > 64 {
			return nil, fmt.Errorf("modes must be <= 64")
		}
		return preset.FromShape(preset.Shape(name), opts)
	}
	if name == "glass" {
		return preset.Glass(), nil
	}
	if s.config.PresetDir == "" {
		return nil, fmt.Errorf("%w: %q", errPresetNotFound, name)
	}
	p, err := preset.LoadJSON(filepath.Join(s.config.PresetDir, name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", errPresetNotFound, name)
	}
	return p, err
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func floatParam(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}
