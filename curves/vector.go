package curves

import (
	"math"

	"osukit/internal/mathutil"
)

func cross(a, b Vector2) float64 { return a.X()*b.Y() - a.Y()*b.X() }

func dist(a, b Vector2) float64 { return math.Hypot(a.X()-b.X(), a.Y()-b.Y()) }

func lerp(a, b Vector2, t float64) Vector2 { return a.Add(b.Sub(a).Mul(t)) }

func almostEq(a, b Vector2) bool {
	return mathutil.AlmostEqual(a.X(), b.X(), 1e-9) && mathutil.AlmostEqual(a.Y(), b.Y(), 1e-9)
}

func collinear(a, b, c Vector2) bool {
	return math.Abs(cross(b.Sub(a), c.Sub(b))) < 1e-6
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vector2) float64 { return dist(a, b) }

// distinct reports whether pts has at least two distinct points.
func distinct(pts []Vector2) bool {
	for i := 1; i < len(pts); i++ {
		if !almostEq(pts[0], pts[i]) {
			return true
		}
	}
	return false
}
