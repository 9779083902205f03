package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/analysis"
	"github.com/cwbudde/algo-modal/internal/render"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modal"
	"github.com/cwbudde/algo-modal/preset"
)

var (
	renderOutput     string
	renderStrikes    int
	renderInterval   float64
	renderTail       float64
	renderSampleRate int
	renderOutRate    int
	renderBlockSize  int
	renderSeed       int64
	renderReport     bool
	renderFit        bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render strikes to a WAV file",
	Long: `Strike the model a number of times at a fixed interval and write the
result as a 16-bit mono WAV file.

Examples:
  modal render -o glass.wav
  modal render --shape bar --fundamental 220 --strikes 4 --interval 0.25 -o bar.wav
  modal render -p bell.json --sample-rate 96000 --out-rate 44100 --report`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOutput, "output", "o", "output.wav", "Output WAV file path")
	f.IntVarP(&renderStrikes, "strikes", "n", 1, "Number of strikes")
	f.Float64Var(&renderInterval, "interval", 0.5, "Seconds between strikes")
	f.Float64Var(&renderTail, "tail", 0, "Seconds rendered after the last strike (0: ring out)")
	f.IntVar(&renderSampleRate, "sample-rate", 48000, "Render sample rate in Hz (0: preset rate)")
	f.IntVar(&renderOutRate, "out-rate", 0, "Resample the result to this rate (0: keep)")
	f.IntVar(&renderBlockSize, "block-size", 128, "Processing block size in frames")
	f.Int64Var(&renderSeed, "seed", 0, "Seed for noise and multiplier jitter (0: random)")
	f.BoolVar(&renderReport, "report", false, "Print decay and per-mode levels of the first strike")
	f.BoolVar(&renderFit, "fit", false, "With --report, also fit T60 above the noise floor")
}

func runRender(cmd *cobra.Command, args []string) error {
	p, err := loadPreset()
	if err != nil {
		return err
	}
	fmt.Printf("Rendering %q: %d modes, %d strike(s) every %.2fs at %d Hz...\n",
		p.Name, len(p.Dataset), renderStrikes, renderInterval, renderSampleRate)

	start := time.Now()
	res, err := render.Strikes(p, render.Options{
		SampleRate: renderSampleRate,
		BlockSize:  renderBlockSize,
		Strikes:    renderStrikes,
		Interval:   renderInterval,
		Tail:       renderTail,
		Seed:       renderSeed,
		Logger:     logger(),
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if renderReport {
		if err := printReport(p, res, renderFit); err != nil {
			return err
		}
	}

	out := res.Samples
	outRate := res.SampleRate
	if renderOutRate > 0 && renderOutRate != res.SampleRate {
		resampled, err := wavio.Resample(wavio.ToFloat64(out), res.SampleRate, renderOutRate)
		if err != nil {
			return fmt.Errorf("resample: %w", err)
		}
		out = wavio.ToFloat32(resampled)
		outRate = renderOutRate
	}
	render.NormalizeIfClipping(out)

	if err := wavio.WriteMono(renderOutput, out, outRate); err != nil {
		return fmt.Errorf("write %s: %w", renderOutput, err)
	}
	seconds := float64(len(res.Samples)) / float64(res.SampleRate)
	fmt.Printf("Successfully wrote %s (%d frames, %.2fs audio in %s, %.0fx realtime)\n",
		renderOutput, len(out), seconds, elapsed.Round(time.Millisecond), seconds/elapsed.Seconds())
	return nil
}

func printReport(p *preset.Preset, res *render.Result, fit bool) error {
	first := wavio.ToFloat64(res.First())

	d := analysis.MeasureDecay(first, res.SampleRate)
	fmt.Printf("\nFirst strike: peak %.1f dBFS, rms %.1f dBFS, envelope peak at %.3fs\n",
		analysis.LinToDB(analysis.Peak(first)), analysis.LinToDB(analysis.RMS(first)), d.PeakSec)
	fmt.Printf("Decay slope %.1f dB/s, T60 %.3fs (dataset longest %.3fs)\n",
		d.SlopeDBPerS, d.T60, res.Synthesis.MaxDecay())
	if fit {
		f, err := analysis.FitDecay(first, res.SampleRate, analysis.DefaultFitOptions())
		if err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		fmt.Printf("Fitted T60 %.3fs above a %.1f dB floor (rmse %.2f dB, %d evals)\n",
			f.T60, f.FloorDB, f.RMSEDB, f.Evals)
	}

	fmt.Println("\n  #   freq Hz    amp   decay s        Q   level dB")
	for i, m := range p.Dataset {
		q := modal.QFromDecay(m.Frequency, m.Decay, float64(res.SampleRate))
		level, err := analysis.ToneLevelDB(first, m.Frequency, res.SampleRate)
		if err != nil {
			return err
		}
		fmt.Printf("%3d %9.2f %6.3f %9.3f %8.1f %10.1f\n", i, m.Frequency, m.Amplitude, m.Decay, q, level)
	}
	fmt.Println()
	return nil
}
