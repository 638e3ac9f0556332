package curves

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"osukit/internal/mathutil"
)

// arcTolerance is the maximum sagitta between the arc and its flattened chords.
const arcTolerance = 0.1

// maxArcSteps is the most chords an arc is flattened into. Nearly
// collinear control points give huge radii that would need more.
const maxArcSteps = 1 << 12

// CircularArc is the arc through three points, evaluated exactly.
type CircularArc struct {
	Center Vector2
	Radius float64
	Start  Vector2
	// Sweep is the signed angle from Start to the end point. It is
	// negative when the arc runs clockwise in playfield coordinates.
	Sweep float64
}

func NewCircularArc(a, b, c Vector2) (*CircularArc, error) {
	if collinear(a, b, c) {
		return nil, curveError(ErrDegenerateCurve, Perfect, 3)
	}
	center, ok := circumcenter(a, b, c)
	if !ok {
		return nil, curveError(ErrDegenerateCurve, Perfect, 3)
	}

	dir := 1.0
	if cross(b.Sub(a), c.Sub(b)) < 0 {
		dir = -1.0
	}
	a1 := math.Atan2(a.Y()-center.Y(), a.X()-center.X())
	a3 := math.Atan2(c.Y()-center.Y(), c.X()-center.X())

	return &CircularArc{
		Center: center,
		Radius: dist(center, a),
		Start:  a,
		Sweep:  angleDiff(a1, a3, dir),
	}, nil
}

func (c *CircularArc) Length() float64 {
	return c.Radius * math.Abs(c.Sweep)
}

// PointAt rotates the start point about the center by t of the sweep.
func (c *CircularArc) PointAt(t float64) Vector2 {
	t = mathutil.Clamp(t, 0, 1)
	rel := c.Start.Sub(c.Center)
	return mgl64.Rotate2D(c.Sweep * t).Mul2x1(rel).Add(c.Center)
}

// points flattens the arc so no chord strays more than arcTolerance from it.
func (c *CircularArc) points() ([]Vector2, error) {
	step := 2 * math.Acos(mathutil.Clamp(1-arcTolerance/c.Radius, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	n := math.Ceil(math.Abs(c.Sweep) / step)
	if !(n <= maxArcSteps) {
		return nil, curveError(ErrCurveTooComplex, Perfect, 3)
	}
	steps := max(2, int(n))

	out := make([]Vector2, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, c.PointAt(float64(i)/float64(steps)))
	}
	return out, nil
}

func circumcenter(a, b, c Vector2) (Vector2, bool) {
	d := 2 * (a.X()*(b.Y()-c.Y()) + b.X()*(c.Y()-a.Y()) + c.X()*(a.Y()-b.Y()))
	if math.Abs(d) < 1e-8 {
		return Vector2{}, false
	}
	a2 := a.Dot(a)
	b2 := b.Dot(b)
	c2 := c.Dot(c)
	return Vec(
		(a2*(b.Y()-c.Y())+b2*(c.Y()-a.Y())+c2*(a.Y()-b.Y()))/d,
		(a2*(c.X()-b.X())+b2*(a.X()-c.X())+c2*(b.X()-a.X()))/d,
	), true
}

// angleDiff returns the signed sweep from aStart to aEnd turning in dir.
func angleDiff(aStart, aEnd, dir float64) float64 {
	d := aEnd - aStart
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}
