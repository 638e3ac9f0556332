package curves

// LinearCurve joins its control points with straight segments.
type LinearCurve struct {
	polyline
}

func NewLinear(points []Vector2) (*LinearCurve, error) {
	if len(points) < 2 || !distinct(points) {
		return nil, curveError(ErrDegenerateCurve, Linear, len(points))
	}
	return &LinearCurve{polyline: newPolyline(points)}, nil
}
