package modal

import (
	"math/rand"
	"sync"
)

// Multiplier scales one parameter of the mode at index. A nil Multiplier
// leaves the parameter unchanged.
type Multiplier func(index int) float64

// Constant scales every mode by m.
func Constant(m float64) Multiplier {
	return func(int) float64 { return m }
}

// Jitter draws a fresh factor for every mode and every strike, uniformly
// from [base*(1-variance/2), base*(1+variance/2)]. The multiplier owns a
// source seeded from rng when Jitter is called, so several multipliers
// built from one rng never share it. A nil rng uses a randomly seeded
// source.
func Jitter(base, variance float64, rng *rand.Rand) Multiplier {
	if variance == 0 {
		return Constant(base)
	}
	var seed int64
	if rng == nil {
		seed = rand.Int63()
	} else {
		seed = rng.Int63()
	}
	src := rand.New(rand.NewSource(seed))
	var mu sync.Mutex
	lo := base * (1 - variance/2)
	hi := base * (1 + variance/2)
	return func(int) float64 {
		mu.Lock()
		u := src.Float64()
		mu.Unlock()
		return lo + u*(hi-lo)
	}
}

func (m Multiplier) apply(index int, v float64) float64 {
	if m == nil {
		return v
	}
	return v * m(index)
}
