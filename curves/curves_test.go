package curves

import (
	"errors"
	"math"
	"testing"
)

func near(a, b Vector2, eps float64) bool {
	return math.Abs(a.X()-b.X()) < eps && math.Abs(a.Y()-b.Y()) < eps
}

func TestCircularArc(t *testing.T) {
	arc, err := NewCircularArc(Vec(0, 0), Vec(50, 50), Vec(100, 0))
	if err != nil {
		t.Fatalf("NewCircularArc: %v", err)
	}
	if !near(arc.Center, Vec(50, 0), 1e-9) {
		t.Errorf("center = %v, want (50, 0)", arc.Center)
	}
	if math.Abs(arc.Length()-50*math.Pi) > 1e-9 {
		t.Errorf("length = %f, want %f", arc.Length(), 50*math.Pi)
	}

	tests := []struct {
		t    float64
		want Vector2
	}{
		{0, Vec(0, 0)},
		{0.5, Vec(50, 50)},
		{1, Vec(100, 0)},
	}
	for _, tt := range tests {
		if got := arc.PointAt(tt.t); !near(got, tt.want, 1e-9) {
			t.Errorf("PointAt(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestCircularArcCollinear(t *testing.T) {
	_, err := NewCircularArc(Vec(0, 0), Vec(50, 0), Vec(100, 0))
	if !errors.Is(err, ErrDegenerateCurve) {
		t.Fatalf("err = %v, want ErrDegenerateCurve", err)
	}
}

func TestBezierEndpoints(t *testing.T) {
	pts := []Vector2{Vec(0, 0), Vec(100, 200), Vec(200, 0)}
	b, err := NewBezier(pts)
	if err != nil {
		t.Fatalf("NewBezier: %v", err)
	}
	if got := b.PointAt(0); !near(got, pts[0], 1e-9) {
		t.Errorf("start = %v", got)
	}
	if got := b.PointAt(1); !near(got, pts[2], 1e-9) {
		t.Errorf("end = %v", got)
	}
	// apex of the symmetric quadratic sits at (100, 100)
	if got := BezierPoint(pts, 0.5); !near(got, Vec(100, 100), 1e-9) {
		t.Errorf("BezierPoint(0.5) = %v", got)
	}
	if got := b.PointAt(0.5); !near(got, Vec(100, 100), 0.5) {
		t.Errorf("PointAt(0.5) = %v, want near (100, 100)", got)
	}
}

func TestSplitAnchors(t *testing.T) {
	pts := []Vector2{Vec(0, 0), Vec(10, 0), Vec(10, 0), Vec(20, 10), Vec(30, 0)}
	segs := SplitAnchors(pts)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if len(segs[0]) != 2 || len(segs[1]) != 3 {
		t.Errorf("segment sizes = %d, %d", len(segs[0]), len(segs[1]))
	}
	if segs[1][0] != Vec(10, 0) {
		t.Errorf("second segment starts at %v", segs[1][0])
	}
}

func TestCatmullPassesThroughControlPoints(t *testing.T) {
	pts := []Vector2{Vec(0, 0), Vec(50, 50), Vec(100, 0), Vec(150, 50)}
	c, err := NewCatmullRom(pts)
	if err != nil {
		t.Fatalf("NewCatmullRom: %v", err)
	}
	if got := c.PointAt(1); !near(got, pts[3], 1e-9) {
		t.Errorf("end = %v", got)
	}
	if got := CatmullPoint(pts[0], pts[1], pts[2], pts[3], 0); !near(got, pts[1], 1e-9) {
		t.Errorf("segment start = %v", got)
	}
}

func TestPathFit(t *testing.T) {
	pts := []Vector2{Vec(0, 0), Vec(100, 0)}
	tests := []struct {
		name   string
		length float64
		end    Vector2
	}{
		{"exact", 100, Vec(100, 0)},
		{"truncate", 40, Vec(40, 0)},
		{"extend", 150, Vec(150, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath(Linear, pts, tt.length)
			if math.Abs(p.Length()-tt.length) > 1e-9 {
				t.Errorf("length = %f, want %f", p.Length(), tt.length)
			}
			if got := p.EndPoint(); !near(got, tt.end, 1e-9) {
				t.Errorf("end = %v, want %v", got, tt.end)
			}
			if p.Fallback != nil {
				t.Errorf("unexpected fallback: %v", p.Fallback)
			}
		})
	}
}

func TestPathFallbacks(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		pts  []Vector2
		want error
		typ  Kind
	}{
		{"perfect with four points", Perfect, []Vector2{Vec(0, 0), Vec(10, 10), Vec(20, 0), Vec(30, 10)}, ErrInvalidCurve, Bezier},
		{"collinear perfect", Perfect, []Vector2{Vec(0, 0), Vec(10, 0), Vec(20, 0)}, ErrDegenerateCurve, Linear},
		{"coincident bezier", Bezier, []Vector2{Vec(5, 5), Vec(5, 5)}, ErrDegenerateCurve, Linear},
		{"huge bezier", Bezier, []Vector2{Vec(0, 0), Vec(1e30, 0), Vec(0, 1e30)}, ErrCurveTooComplex, Linear},
		{"nearly collinear perfect", Perfect, []Vector2{Vec(0, 0), Vec(200, 0.01), Vec(100, 0)}, ErrCurveTooComplex, Linear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPath(tt.kind, tt.pts, 0)
			if !errors.Is(p.Fallback, tt.want) {
				t.Errorf("fallback = %v, want %v", p.Fallback, tt.want)
			}
			if p.Type != tt.typ {
				t.Errorf("type = %v, want %v", p.Type, tt.typ)
			}
			var ce *CurveError
			if !errors.As(p.Fallback, &ce) {
				t.Errorf("fallback %T is not a *CurveError", p.Fallback)
			}
		})
	}
}

func TestFlattenBezierBudget(t *testing.T) {
	pts, ok := flattenBezier([]Vector2{Vec(0, 0), Vec(131072, 0), Vec(0, 131072)})
	if !ok {
		t.Fatal("playfield-sized curve exceeded the point budget")
	}
	if len(pts) > maxBezierPoints+1 {
		t.Errorf("%d points", len(pts))
	}
	if _, ok := flattenBezier([]Vector2{Vec(0, 0), Vec(1e30, 0), Vec(0, 1e30)}); ok {
		t.Error("unbounded curve was flattened")
	}
}

func TestPathPointAtDistanceClamps(t *testing.T) {
	p := NewPath(Linear, []Vector2{Vec(0, 0), Vec(0, 100)}, 0)
	if got := p.PointAtDistance(-10); !near(got, Vec(0, 0), 1e-9) {
		t.Errorf("before start = %v", got)
	}
	if got := p.PointAtDistance(1000); !near(got, Vec(0, 100), 1e-9) {
		t.Errorf("past end = %v", got)
	}
	if got := p.PointAtDistance(25); !near(got, Vec(0, 25), 1e-9) {
		t.Errorf("at 25 = %v", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{"B": Bezier, "L": Linear, "C": Catmull, "P": Perfect, "X": Bezier, "": Bezier}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
		if got := ParseKind(want.Letter()); got != want {
			t.Errorf("ParseKind(%v.Letter()) = %v", want, got)
		}
	}
}
