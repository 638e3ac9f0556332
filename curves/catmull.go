package curves

// catmullDetail is the number of samples per Catmull-Rom segment.
const catmullDetail = 50

type CatmullRomCurve struct {
	polyline
}

func NewCatmullRom(points []Vector2) (*CatmullRomCurve, error) {
	if len(points) < 2 || !distinct(points) {
		return nil, curveError(ErrDegenerateCurve, Catmull, len(points))
	}
	return &CatmullRomCurve{polyline: newPolyline(approximateCatmull(points))}, nil
}

// approximateCatmull samples each 4-point window, clamping the window at
// both ends of the control point list.
func approximateCatmull(pts []Vector2) []Vector2 {
	n := len(pts)
	out := make([]Vector2, 0, (n-1)*catmullDetail+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDetail; s++ {
			out = append(out, CatmullPoint(p0, p1, p2, p3, float64(s)/catmullDetail))
		}
	}
	return out
}

// CatmullPoint evaluates the uniform Catmull-Rom segment between p1 and p2.
func CatmullPoint(p0, p1, p2, p3 Vector2, t float64) Vector2 {
	t2 := t * t
	t3 := t2 * t
	f := func(a, b, c, d float64) float64 {
		return 0.5 * ((2 * b) + (-a+c)*t + (2*a-5*b+4*c-d)*t2 + (-a+3*b-3*c+d)*t3)
	}
	return Vec(
		f(p0.X(), p1.X(), p2.X(), p3.X()),
		f(p0.Y(), p1.Y(), p2.Y(), p3.Y()),
	)
}
