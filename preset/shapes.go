package preset

import (
	"fmt"
	"math"
	"sort"

	pdefd "github.com/cwbudde/algo-pde/fd"
	pdepoisson "github.com/cwbudde/algo-pde/poisson"

	"github.com/cwbudde/algo-modal/modal"
)

// Shape selects an idealized resonator whose modes follow from the
// eigenvalues of the discrete 1D Laplacian.
type Shape string

const (
	ShapeString Shape = "string" // fixed ends, f_k ~ sqrt(lambda_k)
	ShapeBar    Shape = "bar"    // stiff beam, f_k ~ lambda_k
	ShapeRing   Shape = "ring"   // closed loop, periodic boundary
)

// ShapeOptions parameterizes FromShape.
type ShapeOptions struct {
	Fundamental  float64 // Hz of the lowest mode
	Decay        float64 // T60 of the lowest mode in seconds
	Damping      float64 // how much faster higher modes die, >= 0
	Modes        int
	MaxFrequency float64 // modes at or above this are dropped; 0 keeps all
}

// DefaultShapeOptions is a bright, short-lived object around A4.
func DefaultShapeOptions() ShapeOptions {
	return ShapeOptions{
		Fundamental:  440,
		Decay:        1.5,
		Damping:      0.5,
		Modes:        12,
		MaxFrequency: 20000,
	}
}

// FromShape derives a preset from an idealized geometry. Mode k gets
// amplitude 1/(k+1) and decay Decay/(1+Damping*(f_k/f_0-1)).
func FromShape(shape Shape, opts ShapeOptions) (*Preset, error) {
	if opts.Fundamental <= 0 {
		return nil, fmt.Errorf("fundamental must be > 0")
	}
	if opts.Decay <= 0 {
		return nil, fmt.Errorf("decay must be > 0")
	}
	if opts.Damping < 0 {
		return nil, fmt.Errorf("damping must be >= 0")
	}
	if opts.Modes < 1 {
		return nil, fmt.Errorf("modes must be >= 1")
	}

	ratios, err := shapeRatios(shape, opts.Modes)
	if err != nil {
		return nil, err
	}

	d := make(modal.Dataset, 0, len(ratios))
	for k, r := range ratios {
		f := opts.Fundamental * r
		if opts.MaxFrequency > 0 && f >= opts.MaxFrequency {
			break
		}
		d = append(d, modal.ModeDescriptor{
			Frequency: f,
			Amplitude: 1 / float64(k+1),
			Decay:     opts.Decay / (1 + opts.Damping*(r-1)),
		})
	}
	if len(d) == 0 {
		return nil, fmt.Errorf("no %s modes below %g Hz", shape, opts.MaxFrequency)
	}

	p := Default()
	p.Name = fmt.Sprintf("%s-%g", shape, opts.Fundamental)
	p.Dataset = d
	return p, nil
}

// shapeRatios returns the frequencies of the first n modes relative to the
// lowest one, in ascending order.
func shapeRatios(shape Shape, n int) ([]float64, error) {
	// Oversample the grid so the low end of the discrete spectrum tracks
	// the continuous one.
	points := 8 * n
	h := 1.0 / float64(points+1)

	var eig []float64
	switch shape {
	case ShapeString, ShapeBar:
		eig = pdefd.Eigenvalues(points, h, pdepoisson.Dirichlet)
	case ShapeRing:
		eig = pdefd.Eigenvalues(points, 1.0/float64(points), pdepoisson.Periodic)
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
	eig = append([]float64(nil), eig...)
	sort.Float64s(eig)

	var lambdas []float64
	for _, l := range eig {
		if l <= 1e-9 {
			continue
		}
		// Periodic spectra come in degenerate pairs; one mode per pair.
		if len(lambdas) > 0 && math.Abs(l-lambdas[len(lambdas)-1]) <= 1e-9*l {
			continue
		}
		lambdas = append(lambdas, l)
		if len(lambdas) == n {
			break
		}
	}
	if len(lambdas) == 0 {
		return nil, fmt.Errorf("%s: empty eigenspectrum", shape)
	}

	out := make([]float64, len(lambdas))
	for i, l := range lambdas {
		r := l / lambdas[0]
		if shape != ShapeBar {
			r = math.Sqrt(r)
		}
		out[i] = r
	}
	return out, nil
}
