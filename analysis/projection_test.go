package analysis

import (
	"math"
	"testing"
)

func TestProbErrLessThanX(t *testing.T) {
	if p := ProbErrLessThanX(0, 10); p != 1 {
		t.Errorf("perfect timing: %v", p)
	}
	prev := 0.0
	for _, x := range []float64{1, 10, 50, 200} {
		p := ProbErrLessThanX(20, x)
		if p <= prev || p >= 1 {
			t.Fatalf("x=%v: %v after %v", x, p, prev)
		}
		prev = p
	}
}

func TestMissDistribution(t *testing.T) {
	d := NewMissDistribution()
	for range 3 {
		d.Add(0.5)
	}
	want := []float64{0.125, 0.375, 0.375, 0.125}
	for i, w := range want {
		if math.Abs(d.P[i]-w) > 1e-12 {
			t.Errorf("P[%d] = %v, want %v", i, d.P[i], w)
		}
	}
	if got := d.AtMost(1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("AtMost(1) = %v", got)
	}
	if got := d.AtMost(10); math.Abs(got-1) > 1e-12 {
		t.Errorf("AtMost(10) = %v", got)
	}
}

func TestProject(t *testing.T) {
	r := &Result{
		Hits:      make([]Hit, 4),
		HitErrors: []float64{-10, 10, -10, 10},
		Window300: 32, Window100: 76, Window50: 120,
	}
	p := r.Project()
	total := p.Expected300 + p.Expected100 + p.Expected50 + p.ExpectedMisses
	if math.Abs(total-4) > 1e-9 {
		t.Errorf("expected counts sum to %v", total)
	}
	if p.Expected300 < p.Expected100 || p.FullCombo <= 0.9 || p.FullCombo > 1 {
		t.Errorf("%+v", p)
	}

	wide := &Result{Hits: r.Hits, HitErrors: []float64{-60, 60, -60, 60}, Window300: 32, Window100: 76, Window50: 120}
	if wp := wide.Project(); wp.FullCombo >= p.FullCombo {
		t.Errorf("wider spread predicts FC %v >= %v", wp.FullCombo, p.FullCombo)
	}
}
