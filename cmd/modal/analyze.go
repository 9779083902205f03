package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/analysis"
	"github.com/cwbudde/algo-modal/internal/wavio"
	"github.com/cwbudde/algo-modal/modal"
)

var (
	analyzeFFTSize int
	analyzeTolHz   float64
	analyzeExtra   int
	analyzeFit     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Check a rendered strike against the modes of its preset",
	Long: `Measure a mono WAV file of a single strike and compare it with the
modes of the selected preset: for each mode the detuning of the nearest
spectral peak, its level and its T60 next to the target decay. Strong
peaks that no mode explains are listed afterwards.

Example:
  modal render --seed 1 -o glass.wav && modal analyze glass.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.IntVar(&analyzeFFTSize, "fft-size", 16384, "FFT size (power of two)")
	f.Float64Var(&analyzeTolHz, "tolerance", 20, "Search radius around each mode in Hz")
	f.IntVar(&analyzeExtra, "extra-peaks", 5, "Report up to this many peaks no mode explains")
	f.BoolVar(&analyzeFit, "fit", true, "Fit T60 above the noise floor")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	p, err := loadPreset()
	if err != nil {
		return err
	}
	x, sr, err := wavio.ReadMono(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	return analyzeSignal(x, sr, p.Dataset)
}

// modeReport is the measurement of one mode in a recording.
type modeReport struct {
	Target  modal.ModeDescriptor
	Found   float64 // Hz, NaN when no peak is near
	LevelDB float64
	T60     float64
}

func analyzeSignal(x []float64, sr int, d modal.Dataset) error {
	dec := analysis.MeasureDecay(x, sr)
	fmt.Printf("%d frames at %d Hz (%.2fs), peak %.1f dBFS, rms %.1f dBFS\n",
		len(x), sr, float64(len(x))/float64(sr),
		analysis.LinToDB(analysis.Peak(x)), analysis.LinToDB(analysis.RMS(x)))
	fmt.Printf("envelope peak %.1f dB at %.3fs, slope %.1f dB/s, T60 %.3fs (longest mode %.3fs)\n",
		dec.PeakDB, dec.PeakSec, dec.SlopeDBPerS, dec.T60, d.MaxDecay())
	if analyzeFit {
		f, err := analysis.FitDecay(x, sr, analysis.DefaultFitOptions())
		if err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		fmt.Printf("fitted T60 %.3fs above a %.1f dB floor (rmse %.2f dB)\n", f.T60, f.FloorDB, f.RMSEDB)
	}

	start := int(dec.PeakSec * float64(sr))
	reports, extra, err := compareModes(x, sr, start, d)
	if err != nil {
		return err
	}
	fmt.Println("\n  #  target Hz   found Hz  level dB  decay s    T60 s")
	for i, r := range reports {
		fmt.Printf("%3d %10.2f %10.2f %9.1f %8.3f %8.3f\n",
			i, r.Target.Frequency, r.Found, r.LevelDB, r.Target.Decay, r.T60)
	}
	if len(extra) > 0 {
		fmt.Println("\npeaks no mode explains:")
		for _, pk := range extra {
			fmt.Printf("  %.2f Hz at %.1f dB\n", pk.Frequency, analysis.LinToDB(pk.Magnitude))
		}
	}
	return nil
}

// compareModes measures every mode of d in x from frame start on. It also
// returns the strongest spectral peaks farther than the search radius from
// every mode.
func compareModes(x []float64, sr, start int, d modal.Dataset) ([]modeReport, []analysis.SpectralPeak, error) {
	first, err := analysis.ComputeSpectrum(x, sr, start, analyzeFFTSize)
	if err != nil {
		return nil, nil, err
	}
	second, err := analysis.ComputeSpectrum(x, sr, start+analyzeFFTSize, analyzeFFTSize)
	if err != nil {
		return nil, nil, err
	}
	hopSec := float64(analyzeFFTSize) / float64(sr)
	tol := math.Max(analyzeTolHz, 2*first.BinHz)

	reports := make([]modeReport, len(d))
	for i, m := range d {
		f, early := first.PeakNear(m.Frequency, tol)
		_, late := second.PeakNear(m.Frequency, tol)
		end := start + analyzeFFTSize
		if end > len(x) {
			end = len(x)
		}
		level := math.Inf(-1)
		if start < end {
			if level, err = analysis.ToneLevelDB(x[start:end], m.Frequency, sr); err != nil {
				return nil, nil, err
			}
		}
		reports[i] = modeReport{Target: m, Found: f, LevelDB: level, T60: modeT60(early, late, hopSec)}
	}

	var extra []analysis.SpectralPeak
	for _, pk := range first.Peaks(len(d)+analyzeExtra, 20) {
		if len(extra) == analyzeExtra {
			break
		}
		if !nearMode(pk.Frequency, d, tol) {
			extra = append(extra, pk)
		}
	}
	return reports, extra, nil
}

func nearMode(freq float64, d modal.Dataset, tol float64) bool {
	for _, m := range d {
		if math.Abs(freq-m.Frequency) <= tol {
			return true
		}
	}
	return false
}

// modeT60 estimates a decay from the same peak measured hopSec apart.
// It returns NaN when the level did not fall.
func modeT60(early, late, hopSec float64) float64 {
	if early <= 0 || late <= 0 || late >= early {
		return math.NaN()
	}
	slope := (analysis.LinToDB(late) - analysis.LinToDB(early)) / hopSec
	return analysis.T60FromSlope(slope)
}
