package pricing

import "math/rand"

// NoSurge always returns 1.0. Used for estimates and as the deterministic
// stub in tests.
type NoSurge struct{}

func (NoSurge) Next() float64 { return 1.0 }

// FixedSurge always returns its configured multiplier.
type FixedSurge float64

func (f FixedSurge) Next() float64 { return float64(f) }

// RandomSurge simulates demand spikes: with Probability it draws a
// multiplier in [Min, Max), otherwise it returns 1.0. A stand-in for a
// real demand signal.
type RandomSurge struct {
	Probability float64
	Min         float64
	Max         float64
	Rand        *rand.Rand // nil uses the global source
}

// DefaultRandomSurge mirrors the production tuning: 20% chance of a
// multiplier in [1.2, 1.5).
func DefaultRandomSurge() *RandomSurge {
	return &RandomSurge{Probability: 0.2, Min: 1.2, Max: 1.5}
}

func (r *RandomSurge) Next() float64 {
	f := rand.Float64
	if r.Rand != nil {
		f = r.Rand.Float64
	}
	if f() >= r.Probability {
		return 1.0
	}
	return r.Min + f()*(r.Max-r.Min)
}
