package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/preset"
)

var version = "0.1.0"

var (
	presetPath  string
	shapeName   string
	fundamental float64
	shapeModes  int
	shapeDecay  float64
	damping     float64
	verbose     bool
)

func main() {
	log.SetFlags(log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "modal",
	Short: "Modal synthesis of struck objects",
	Long: `modal renders and plays struck resonant objects described as a set
of modes (frequency, amplitude, T60 decay). Each strike drives a bank of
resonant bandpass filters with a short burst of white noise.

Without --preset or --shape the built-in wine glass is used.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&presetPath, "preset", "p", "", "Preset JSON file (default: built-in glass)")
	pf.StringVar(&shapeName, "shape", "", "Derive modes from an ideal shape instead: string, bar or ring")
	pf.Float64Var(&fundamental, "fundamental", 440, "Lowest mode in Hz for --shape")
	pf.IntVar(&shapeModes, "modes", 12, "Number of modes for --shape")
	pf.Float64Var(&shapeDecay, "decay", 1.5, "T60 of the lowest mode in seconds for --shape")
	pf.Float64Var(&damping, "damping", 0.5, "How much faster higher modes decay for --shape")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log strike lifecycle events")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadPreset resolves the preset selected by the persistent flags.
func loadPreset() (*preset.Preset, error) {
	if presetPath != "" && shapeName != "" {
		return nil, fmt.Errorf("--preset and --shape are mutually exclusive")
	}
	if presetPath != "" {
		return preset.LoadJSON(presetPath)
	}
	if shapeName != "" {
		opts := preset.DefaultShapeOptions()
		opts.Fundamental = fundamental
		opts.Modes = shapeModes
		opts.Decay = shapeDecay
		opts.Damping = damping
		return preset.FromShape(preset.Shape(shapeName), opts)
	}
	return preset.Glass(), nil
}

// logger receives strike lifecycle messages when --verbose is set.
func logger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}
