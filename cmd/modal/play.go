package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	approx "github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/hajimehoshi/oto"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-modal/engine"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
)

var (
	playSampleRate int
	playBufferMS   int
	playBaseNote   int
	playMIDI       bool
)

var errQuit = errors.New("quit")

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the model live",
	Long: `Open the default audio device and strike the model interactively.

Press Enter to strike, type q and Enter to quit. With --midi, note-on
messages from the first MIDI input strike the model transposed by the
distance from --base-note in equal-tempered semitones.`,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.IntVar(&playSampleRate, "sample-rate", 48000, "Output sample rate in Hz")
	f.IntVar(&playBufferMS, "buffer-ms", 40, "Audio device buffer length in milliseconds")
	f.IntVar(&playBaseNote, "base-note", 69, "MIDI note played at the preset's own pitch")
	f.BoolVar(&playMIDI, "midi", false, "Listen to the first MIDI input")
}

// voices maps MIDI notes to models sharing one synthesis.
type voices struct {
	synth  *modal.Synthesis
	preset *preset.Preset
	out    modal.Node
	base   int

	mu     sync.Mutex
	models map[int]*modal.Model
}

func newVoices(synth *modal.Synthesis, p *preset.Preset, out modal.Node, base int) *voices {
	return &voices{synth: synth, preset: p, out: out, base: base, models: map[int]*modal.Model{}}
}

func (v *voices) strike(note int) error {
	m, err := v.model(note)
	if err != nil {
		return err
	}
	return m.ExciteWithBurst(v.preset.Burst)
}

func (v *voices) model(note int) (*modal.Model, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if m, ok := v.models[note]; ok {
		return m, nil
	}
	cfg := v.preset.Config(nil)
	cfg.FrequencyMultiplier = transpose(cfg.FrequencyMultiplier, semitoneRatio(note-v.base))
	m := v.synth.NewModel(cfg)
	if err := m.Output().Connect(v.out); err != nil {
		return nil, err
	}
	v.models[note] = m
	return m, nil
}

func (v *voices) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for note, m := range v.models {
		_ = m.Disconnect()
		delete(v.models, note)
	}
}

// semitoneRatio is 2^(n/12).
func semitoneRatio(n int) float64 {
	if n == 0 {
		return 1
	}
	return float64(approx.FastExp(float32(float64(n) * math.Ln2 / 12)))
}

// transpose scales every frequency produced by m by ratio.
func transpose(m modal.Multiplier, ratio float64) modal.Multiplier {
	if ratio == 1 {
		return m
	}
	if m == nil {
		return modal.Constant(ratio)
	}
	return func(i int) float64 { return ratio * m(i) }
}

// noteOn decodes a MIDI note-on message. Velocity zero is a note-off.
func noteOn(data []byte) (int, bool) {
	if len(data) < 3 || data[0]>>4 != 9 || data[2] == 0 {
		return 0, false
	}
	return int(data[1]), true
}

// streamReader feeds the engine to the audio device until ctx is done.
type streamReader struct {
	ctx    context.Context
	engine *engine.Engine
}

func (r *streamReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, io.EOF
	default:
	}
	return r.engine.Read(p)
}

func runPlay(cmd *cobra.Command, args []string) error {
	p, err := loadPreset()
	if err != nil {
		return err
	}
	if playBufferMS <= 0 {
		return fmt.Errorf("buffer-ms must be > 0")
	}

	e := engine.New(core.WithSampleRate(float64(playSampleRate)))
	synth, err := modal.NewSynthesis(p.Dataset, e, modal.WithLogger(logger()))
	if err != nil {
		return err
	}
	v := newVoices(synth, p, e.Destination(), playBaseNote)
	defer v.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	bufferSizeInBytes := playSampleRate * playBufferMS / 1000 * channelNum * bitDepthInBytes
	otoCtx, err := oto.NewContext(playSampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	defer otoCtx.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		player := otoCtx.NewPlayer()
		defer player.Close()
		_, err := io.CopyBuffer(player, &streamReader{ctx: ctx, engine: e}, make([]byte, bufferSizeInBytes))
		return err
	})

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok || strings.TrimSpace(line) == "q" {
					return errQuit
				}
				if err := v.strike(playBaseNote); err != nil {
					log.Printf("strike: %v", err)
				}
			}
		}
	})

	if playMIDI {
		midi := listenToMidiIn(ctx)
		g.Go(func() error {
			for data := range midi {
				note, ok := noteOn(data)
				if !ok {
					continue
				}
				if err := v.strike(note); err != nil {
					log.Printf("note %d: %v", note, err)
				}
			}
			return nil
		})
	}

	fmt.Printf("Playing %q at %d Hz. Enter strikes, q quits.\n", p.Name, playSampleRate)
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
