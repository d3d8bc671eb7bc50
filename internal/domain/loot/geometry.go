package loot

import (
	"math"
	"math/rand/v2"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p Point) Distance(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Lerp interpolates between p and o; t=0 is p, t=1 is o.
func (p Point) Lerp(o Point, t float64) Point {
	return Point{X: p.X + (o.X-p.X)*t, Y: p.Y + (o.Y-p.Y)*t}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := o.X-v.X, o.Y-v.Y, o.Z-v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) PlanarDistanceSquared(o Vec3) float64 {
	dx, dy := o.X-v.X, o.Y-v.Y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned rectangle in window-relative screen space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Inflate grows the rectangle by dx on the left and right and by dy on the
// top and bottom. Negative values shrink it.
func (r Rect) Inflate(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

func (r Rect) Intersects(o Rect) bool {
	return o.X < r.Right() && r.X < o.Right() && o.Y < r.Bottom() && r.Y < o.Bottom()
}

func (r Rect) AtOrigin() Rect {
	return Rect{W: r.W, H: r.H}
}

// ClickRandom picks a uniformly random point inside the rectangle shrunk by
// the given margins. Rectangles too small for the margins collapse to the
// center on that axis.
func (r Rect) ClickRandom(rng *rand.Rand, marginX, marginY float64) Point {
	c := r.Center()
	return Point{
		X: randomSpan(rng, r.X+marginX, r.Right()-marginX, c.X),
		Y: randomSpan(rng, r.Y+marginY, r.Bottom()-marginY, c.Y),
	}
}

func randomSpan(rng *rand.Rand, lo, hi, fallback float64) float64 {
	if hi <= lo {
		return fallback
	}
	return lo + rng.Float64()*(hi-lo)
}
