package curves

// bezierTolerance bounds the second difference of a flattened segment.
const bezierTolerance = 0.25

const (
	// maxBezierDepth stops subdividing a piece after this many halvings.
	maxBezierDepth = 24
	// maxBezierPoints is the most points one flattened segment may have.
	maxBezierPoints = 1 << 15
)

type BezierCurve struct {
	polyline
}

// NewBezier builds a single Bezier curve over points. Slider strings
// that repeat a point (red anchors) describe several curves; split them
// with SplitAnchors first.
func NewBezier(points []Vector2) (*BezierCurve, error) {
	if len(points) < 2 || !distinct(points) {
		return nil, curveError(ErrDegenerateCurve, Bezier, len(points))
	}
	pts, ok := flattenBezier(points)
	if !ok {
		return nil, curveError(ErrCurveTooComplex, Bezier, len(points))
	}
	return &BezierCurve{polyline: newPolyline(pts)}, nil
}

// SplitAnchors splits control points at repeated points into independent
// Bezier segments. Each segment starts with the anchor that ended the
// previous one.
func SplitAnchors(points []Vector2) [][]Vector2 {
	if len(points) == 0 {
		return nil
	}
	var segs [][]Vector2
	cur := []Vector2{points[0]}
	for _, p := range points[1:] {
		if almostEq(p, cur[len(cur)-1]) {
			if len(cur) >= 2 {
				segs = append(segs, cur)
			}
			cur = []Vector2{p}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) >= 2 {
		segs = append(segs, cur)
	}
	return segs
}

// BezierPoint evaluates the Bezier curve over cp at parameter t with
// De Casteljau's algorithm.
func BezierPoint(cp []Vector2, t float64) Vector2 {
	if len(cp) == 0 {
		return Vector2{}
	}
	buf := make([]Vector2, len(cp))
	copy(buf, cp)
	for n := len(buf) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			buf[i] = lerp(buf[i], buf[i+1], t)
		}
	}
	return buf[0]
}

// flattenBezier subdivides cp until every piece is flat within
// bezierTolerance and returns the start of each piece plus the end point.
// Pieces at maxBezierDepth count as flat. It reports false once the
// output would exceed maxBezierPoints.
func flattenBezier(cp []Vector2) ([]Vector2, bool) {
	type piece struct {
		cp    []Vector2
		depth int
	}
	var out []Vector2
	stack := make([]piece, 0, 32)
	stack = append(stack, piece{cp: cp})

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth >= maxBezierDepth || bezierFlatEnough(cur.cp) {
			if len(out) >= maxBezierPoints {
				return nil, false
			}
			out = append(out, cur.cp[0])
			continue
		}
		// right half first so the left half is popped next
		l, r := bezierSubdivide(cur.cp)
		stack = append(stack, piece{r, cur.depth + 1}, piece{l, cur.depth + 1})
	}
	return append(out, cp[len(cp)-1]), true
}

func bezierFlatEnough(cp []Vector2) bool {
	for i := 1; i < len(cp)-1; i++ {
		d := cp[i-1].Sub(cp[i].Mul(2)).Add(cp[i+1])
		if d.Dot(d) > bezierTolerance*bezierTolerance {
			return false
		}
	}
	return true
}

// bezierSubdivide splits cp at t=0.5. The De Casteljau triangle is built
// row by row; the left half is the first element of each row and the right
// half the last element, reversed.
func bezierSubdivide(cp []Vector2) (left, right []Vector2) {
	n := len(cp)
	left = make([]Vector2, n)
	right = make([]Vector2, n)

	row := make([]Vector2, n)
	copy(row, cp)
	for r := 0; r < n; r++ {
		left[r] = row[0]
		right[n-1-r] = row[n-1-r]
		for i := 0; i < n-1-r; i++ {
			row[i] = row[i].Add(row[i+1]).Mul(0.5)
		}
	}
	return left, right
}
