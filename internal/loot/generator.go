// Package loot implements the time-integrated spawn-count policy that
// decides how many new lost objects appear in a session each tick.
package loot

import (
	"math"
	"time"
)

// Generator accumulates elapsed simulation time and, on demand, decides how
// many new lost objects a session should receive. It is not safe for
// concurrent use; callers own one Generator per session and invoke it from
// the strand.
type Generator struct {
	BaseInterval time.Duration
	Probability  float64

	elapsed time.Duration
}

// New returns a Generator configured with the given base interval and
// per-interval spawn probability. probability is clamped to [0,1].
func New(baseInterval time.Duration, probability float64) *Generator {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	return &Generator{BaseInterval: baseInterval, Probability: probability}
}

// Generate advances the accumulator by dt and returns the number of new
// lost objects a session with lCurrent objects and gDogs dogs should
// receive this tick.
//
//	N = floor(gDogs * (1 - (1-p)^(τ/baseInterval))) - lCurrent
//
// clamped to >= 0. τ is reduced modulo baseInterval afterwards so the
// accumulator never grows without bound. With a non-positive baseInterval
// or no dogs it returns 0 without advancing the accumulator.
func (g *Generator) Generate(dt time.Duration, lCurrent, gDogs int) int {
	if g.BaseInterval <= 0 || gDogs <= 0 {
		return 0
	}

	g.elapsed += dt

	ratio := g.elapsed.Seconds() / g.BaseInterval.Seconds()
	target := float64(gDogs) * (1 - math.Pow(1-g.Probability, ratio))
	n := int(math.Floor(target)) - lCurrent
	if n < 0 {
		n = 0
	}

	g.elapsed = time.Duration(math.Mod(float64(g.elapsed), float64(g.BaseInterval)))

	return n
}
