package curves

import (
	"errors"

	"osukit/internal/mathutil"
)

// Path is a materialized slider path: the curve flattened into a polyline
// whose length matches the slider's declared pixel length.
type Path struct {
	// Type is the curve kind actually used, which differs from the
	// requested kind after a fallback.
	Type Kind

	// Fallback records the curve error that forced a different
	// interpretation of the control points, nil otherwise.
	Fallback error

	line polyline
}

// NewPath materializes points as a curve of the given kind. It never fails:
// a perfect circle without exactly three points is read as Bezier, and
// degenerate input becomes a straight line from the first to the last
// point. When expectedLength is positive the path is truncated or extended
// along its final direction to that length.
func NewPath(kind Kind, points []Vector2, expectedLength float64) Path {
	p := Path{Type: kind}

	if kind == Perfect && len(points) != 3 {
		p.Fallback = curveError(ErrInvalidCurve, Perfect, len(points))
		p.Type = Bezier
	}

	var (
		pts []Vector2
		err error
	)
	switch p.Type {
	case Perfect:
		var arc *CircularArc
		if arc, err = NewCircularArc(points[0], points[1], points[2]); err == nil {
			pts, err = arc.points()
		}
	case Linear:
		var l *LinearCurve
		if l, err = NewLinear(points); err == nil {
			pts = l.points
		}
	case Catmull:
		var c *CatmullRomCurve
		if c, err = NewCatmullRom(points); err == nil {
			pts = c.points
		}
	default:
		pts, err = flattenSegments(points)
	}

	if err != nil {
		if p.Fallback == nil {
			p.Fallback = err
		}
		p.Type = Linear
		pts = straightLine(points)
	}

	p.line = newPolyline(pts)
	if expectedLength > 0 {
		p.line.fit(expectedLength)
	}
	return p
}

func flattenSegments(points []Vector2) ([]Vector2, error) {
	var out []Vector2
	for _, seg := range SplitAnchors(points) {
		b, err := NewBezier(seg)
		if errors.Is(err, ErrCurveTooComplex) {
			return nil, err
		}
		if err != nil {
			continue
		}
		out = append(out, b.points...)
	}
	if len(out) < 2 {
		return nil, curveError(ErrDegenerateCurve, Bezier, len(points))
	}
	return out, nil
}

func straightLine(points []Vector2) []Vector2 {
	switch len(points) {
	case 0:
		return []Vector2{{}}
	case 1:
		return []Vector2{points[0]}
	}
	return []Vector2{points[0], points[len(points)-1]}
}

func (p Path) Length() float64 { return p.line.Length() }

// PointAt returns the point at arc-length fraction t of the path.
func (p Path) PointAt(t float64) Vector2 { return p.line.PointAt(t) }

// PointAtDistance returns the point d pixels along the path.
func (p Path) PointAtDistance(d float64) Vector2 {
	return p.line.PointAtDistance(mathutil.Clamp(d, 0, p.Length()))
}

func (p Path) StartPoint() Vector2 { return p.line.PointAtDistance(0) }

func (p Path) EndPoint() Vector2 { return p.line.PointAtDistance(p.Length()) }

// Points returns a copy of the flattened polyline.
func (p Path) Points() []Vector2 {
	out := make([]Vector2, len(p.line.points))
	copy(out, p.line.points)
	return out
}
