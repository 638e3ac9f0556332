// Package curves evaluates the curve kinds used by osu! sliders and
// materializes them into arc-length parameterized paths.
package curves

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"osukit/internal/mathutil"
)

// Vector2 is a point or direction on the playfield.
type Vector2 = mgl64.Vec2

func Vec(x, y float64) Vector2 { return Vector2{x, y} }

type Kind uint8

const (
	Bezier Kind = iota
	Linear
	Catmull
	Perfect
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Catmull:
		return "catmull"
	case Perfect:
		return "perfect"
	default:
		return "bezier"
	}
}

// ParseKind maps the slider curve letter (B, L, C, P) to a Kind.
// Unknown letters are read as Bezier.
func ParseKind(s string) Kind {
	if s == "" {
		return Bezier
	}
	switch s[0] {
	case 'L', 'l':
		return Linear
	case 'C', 'c':
		return Catmull
	case 'P', 'p':
		return Perfect
	default:
		return Bezier
	}
}

// Letter is the inverse of ParseKind.
func (k Kind) Letter() string {
	switch k {
	case Linear:
		return "L"
	case Catmull:
		return "C"
	case Perfect:
		return "P"
	default:
		return "B"
	}
}

// Curve is evaluated by arc-length fraction: PointAt(0) is the first
// point, PointAt(1) the end, PointAt(0.5) the point halfway along the curve.
type Curve interface {
	PointAt(t float64) Vector2
	Length() float64
}

// polyline is a sequence of points with a cumulative length table so that
// arc-length lookups are a binary search.
type polyline struct {
	points     []Vector2
	cumulative []float64
}

func newPolyline(points []Vector2) polyline {
	pts := compact(points)
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + dist(pts[i-1], pts[i])
	}
	return polyline{points: pts, cumulative: cum}
}

func (p polyline) Length() float64 {
	if len(p.cumulative) == 0 {
		return 0
	}
	return p.cumulative[len(p.cumulative)-1]
}

func (p polyline) PointAt(t float64) Vector2 {
	return p.PointAtDistance(mathutil.Clamp(t, 0, 1) * p.Length())
}

func (p polyline) PointAtDistance(d float64) Vector2 {
	switch len(p.points) {
	case 0:
		return Vector2{}
	case 1:
		return p.points[0]
	}
	if d <= 0 {
		return p.points[0]
	}
	if d >= p.Length() {
		return p.points[len(p.points)-1]
	}

	i := sort.SearchFloat64s(p.cumulative, d)
	if p.cumulative[i] == d {
		return p.points[i]
	}
	a, b := p.points[i-1], p.points[i]
	seg := p.cumulative[i] - p.cumulative[i-1]
	return lerp(a, b, (d-p.cumulative[i-1])/seg)
}

// fit truncates or linearly extends the polyline so its length equals length.
func (p *polyline) fit(length float64) {
	total := p.Length()
	if len(p.points) == 0 || math.Abs(total-length) < 1e-9 {
		return
	}

	if length < total {
		i := sort.SearchFloat64s(p.cumulative, length)
		end := p.PointAtDistance(length)
		p.points = append(p.points[:i], end)
		p.cumulative = append(p.cumulative[:i], length)
		return
	}

	last := p.points[len(p.points)-1]
	dir := Vec(1, 0)
	if len(p.points) > 1 {
		dir = last.Sub(p.points[len(p.points)-2]).Normalize()
	}
	p.points = append(p.points, last.Add(dir.Mul(length-total)))
	p.cumulative = append(p.cumulative, length)
}

// compact drops consecutive duplicates and nearly collinear midpoints.
func compact(pts []Vector2) []Vector2 {
	out := make([]Vector2, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && almostEq(out[n-1], p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) <= 2 {
		return out
	}

	res := []Vector2{out[0]}
	for i := 1; i < len(out)-1; i++ {
		a, b, c := res[len(res)-1], out[i], out[i+1]
		ab, bc := b.Sub(a), c.Sub(b)
		if math.Abs(cross(ab, bc)) < 1e-7 && ab.Normalize().Dot(bc.Normalize()) > 0.999999 {
			continue
		}
		res = append(res, b)
	}
	return append(res, out[len(out)-1])
}
