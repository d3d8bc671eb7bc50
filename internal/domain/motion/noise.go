package motion

import (
	"math"
	"math/rand/v2"
)

// gaussian draws from N(mean, stdDev) with the Box-Muller transform.
func gaussian(rng *rand.Rand, mean, stdDev float64) float64 {
	u1 := 1 - rng.Float64()
	u2 := 1 - rng.Float64()
	n := math.Sqrt(-2*math.Log(u1)) * math.Sin(2*math.Pi*u2)
	return mean + stdDev*n
}

// perlin is a smooth deterministic pseudo-noise built from sine products.
// It stays within [-1, 1] scaled by amplitude.
func perlin(mean, amplitude, t float64) float64 {
	n := math.Sin(t) * math.Cos(t*2.1) * math.Sin(t*1.72)
	return mean + n*amplitude
}

func cubicBezier(p0, p1, p2, p3, t float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}

// bezierControls holds the random control point factors of one curve.
type bezierControls struct {
	c1, c2 float64
}

func newBezierControls(rng *rand.Rand) bezierControls {
	return bezierControls{
		c1: 0.3 * (1 + rng.Float64()),
		c2: 0.7 * (1 + rng.Float64()),
	}
}

func (b bezierControls) at(start, end, t float64) float64 {
	span := end - start
	return cubicBezier(start, start+span*b.c1, start+span*b.c2, end, t)
}
