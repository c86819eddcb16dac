package srs

import (
	"math/rand/v2"
)

// RandomSource supplies the uniform [0, 1) values used for interval jitter.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 {
	return rand.Float64()
}

// DefaultRandom returns a source backed by the math/rand/v2 global
// generator. It is safe for concurrent use.
func DefaultRandom() RandomSource {
	return globalRandom{}
}

// NewSeededRandom returns a reproducible source. Unlike DefaultRandom it
// must not be shared between goroutines.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FixedRandom always returns the same value. FixedRandom(0.5) disables
// jitter entirely, 0 gives the largest negative jitter.
type FixedRandom float64

// Float64 implements RandomSource.
func (f FixedRandom) Float64() float64 {
	return float64(f)
}
