package analysis

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// EnvelopeFit is an exponential decay sitting on a constant noise floor:
//
//	env_dB(t) = 10*log10(10^((PeakDB - 60*t/T60)/10) + 10^(FloorDB/10))
//
// Unlike DecaySlopeDBPerS it models the noise floor, so quiet tails do not
// flatten the slope.
type EnvelopeFit struct {
	PeakDB  float64 `json:"peak_db"`
	T60     float64 `json:"t60"`
	FloorDB float64 `json:"floor_db"`
	RMSEDB  float64 `json:"rmse_db"`
	Evals   int     `json:"evals"`
}

// FitOptions tunes the optimizer.
type FitOptions struct {
	MinT60     float64
	MaxT60     float64
	Population int
	Iterations int
	Seed       int64
}

// DefaultFitOptions covers decays from 10 ms to 30 s.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MinT60:     0.01,
		MaxT60:     30,
		Population: 16,
		Iterations: 150,
		Seed:       1,
	}
}

// FitEnvelope fits an EnvelopeFit to an RMS envelope sampled every hopSec,
// starting at its peak.
func FitEnvelope(env []float64, hopSec float64, opts FitOptions) (EnvelopeFit, error) {
	if hopSec <= 0 {
		return EnvelopeFit{}, fmt.Errorf("hop must be > 0: %f", hopSec)
	}
	if len(env) < 8 {
		return EnvelopeFit{}, fmt.Errorf("envelope too short: %d frames", len(env))
	}
	if opts.MinT60 <= 0 || opts.MaxT60 <= opts.MinT60 {
		return EnvelopeFit{}, fmt.Errorf("invalid T60 range [%f, %f]", opts.MinT60, opts.MaxT60)
	}
	if opts.Population < 2 {
		opts.Population = 2
	}
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}

	peakIdx := argmax(env)
	tail := env[peakIdx:]
	ts := make([]float64, len(tail))
	ys := make([]float64, len(tail))
	floor := math.Inf(1)
	for i, v := range tail {
		ts[i] = float64(i) * hopSec
		ys[i] = LinToDB(v)
		floor = math.Min(floor, ys[i])
	}
	peak := ys[0]

	// Positions live in [0,1]^3: peak offset, log T60, floor.
	decode := func(pos []float64) (float64, float64, float64) {
		p := peak - 12 + 18*pos[0]
		t60 := opts.MinT60 * math.Pow(opts.MaxT60/opts.MinT60, pos[1])
		f := floor - 20 + (peak-floor+20)*pos[2]
		return p, t60, f
	}
	score := func(p, t60, f float64) float64 {
		var sum float64
		fl := math.Pow(10, f/10)
		for i, t := range ts {
			model := 10 * math.Log10(math.Pow(10, (p-60*t/t60)/10)+fl)
			d := model - ys[i]
			sum += d * d
		}
		return math.Sqrt(sum / float64(len(ts)))
	}

	best := EnvelopeFit{RMSEDB: math.Inf(1)}
	evals := 0
	cfg := mayfly.NewDefaultConfig()
	cfg.ProblemSize = 3
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = opts.Iterations
	cfg.NPop = opts.Population
	cfg.NPopF = opts.Population
	cfg.NC = 2 * opts.Population
	cfg.NM = max(1, int(math.Round(0.05*float64(opts.Population))))
	cfg.Rand = rand.New(rand.NewSource(opts.Seed))
	cfg.ObjectiveFunc = func(pos []float64) float64 {
		p, t60, f := decode(pos)
		s := score(p, t60, f)
		evals++
		if s < best.RMSEDB {
			best = EnvelopeFit{PeakDB: p, T60: t60, FloorDB: f, RMSEDB: s}
		}
		return s
	}
	if err := runMayfly(cfg); err != nil {
		return EnvelopeFit{}, err
	}
	best.Evals = evals
	return best, nil
}

// FitDecay fits the RMS envelope of x.
func FitDecay(x []float64, sampleRate int, opts FitOptions) (EnvelopeFit, error) {
	if sampleRate <= 0 {
		return EnvelopeFit{}, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	env := RMSEnvelope(x, EnvelopeFrame, EnvelopeHop)
	return FitEnvelope(env, float64(EnvelopeHop)/float64(sampleRate), opts)
}

func runMayfly(cfg *mayfly.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	_, err = mayfly.Optimize(cfg)
	return err
}
