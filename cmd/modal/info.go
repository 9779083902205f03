package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/modal"
)

var infoSampleRate float64

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the modes of a preset and their filter parameters",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().Float64Var(&infoSampleRate, "sample-rate", 48000, "Sample rate used to derive Q")
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := loadPreset()
	if err != nil {
		return err
	}
	sr := infoSampleRate
	if sr <= 0 {
		sr = p.SampleRate
	}
	if err := p.Dataset.Validate(sr); err != nil {
		return err
	}

	maxDecay := p.Dataset.MaxDecay()
	noise := modal.NoiseLength(maxDecay, sr, modal.DefaultHeadroom)
	fmt.Printf("%s: %d modes at %g Hz\n", p.Name, len(p.Dataset), sr)
	fmt.Printf("burst %s, longest decay %.3fs, noise buffer %d frames (%s)\n",
		p.Burst, maxDecay, noise, time.Duration(float64(noise)/sr*float64(time.Second)).Round(time.Millisecond))
	fmt.Printf("multipliers: frequency %s, amplitude %s, decay %s, auto-disconnect %v\n\n",
		describeParam(p.Frequency.Value, p.Frequency.Variance),
		describeParam(p.Amplitude.Value, p.Amplitude.Variance),
		describeParam(p.Decay.Value, p.Decay.Variance),
		p.AutoDisconnect)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tfreq Hz\tamp\tdecay s\tpole r\tbw Hz\tQ\t")
	for i, m := range p.Dataset {
		r := modal.PoleRadius(m.Decay, sr)
		fmt.Fprintf(tw, "%d\t%.2f\t%.3f\t%.3f\t%.8f\t%.3f\t%.1f\t\n",
			i, m.Frequency, m.Amplitude, m.Decay, r, modal.BandwidthHz(r, sr), modal.QFromDecay(m.Frequency, m.Decay, sr))
	}
	return tw.Flush()
}

func describeParam(value, variance float64) string {
	if variance == 0 {
		return fmt.Sprintf("%g", value)
	}
	return fmt.Sprintf("%g±%g%%", value, variance*50)
}
