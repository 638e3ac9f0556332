package analysis

import "math"

// Hit errors are modelled with a heavy tailed distribution:
// P(|err| < x) = 1 - (1 + x/(σ·c))^-b, with σ the RMS error.
const tailExponent = 3 // must be > 2

var tailScale = math.Sqrt((tailExponent - 1) * (tailExponent - 2) / 2)

// ProbErrLessThanX is the chance that a press with RMS error rms lands
// within x ms of the object.
func ProbErrLessThanX(rms, x float64) float64 {
	if rms <= 0 {
		return 1
	}
	return 1 - math.Pow(1+x/(rms*tailScale), -tailExponent)
}

// MissDistribution tracks the probability of exactly i misses over a
// sequence of independent objects.
type MissDistribution struct {
	P []float64
}

func NewMissDistribution() MissDistribution {
	return MissDistribution{P: []float64{1}}
}

// Add appends an object hit with probability probHit.
func (d *MissDistribution) Add(probHit float64) {
	if d.P[len(d.P)-1] > 1e-18 {
		d.P = append(d.P, 0)
	}
	for i := len(d.P) - 1; i >= 1; i-- {
		d.P[i] = d.P[i]*probHit + d.P[i-1]*(1-probHit)
	}
	d.P[0] *= probHit
}

// AtMost is the probability of n or fewer misses.
func (d MissDistribution) AtMost(n int) float64 {
	sum := 0.0
	for i := range min(n+1, len(d.P)) {
		sum += d.P[i]
	}
	return min(sum, 1)
}

// Projection is what the player's hit error spread predicts for a full
// run of the beatmap.
type Projection struct {
	Expected300, Expected100, Expected50, ExpectedMisses float64
	// FullCombo is the chance of not missing any object by timing alone.
	FullCombo float64
	Misses    MissDistribution
}

// Project applies the measured hit errors to every judged object. Aim is
// not modelled, so only timing misses are predicted.
func (r *Result) Project() Projection {
	rms := 0.0
	for _, e := range r.HitErrors {
		rms += e * e
	}
	if n := len(r.HitErrors); n > 0 {
		rms = math.Sqrt(rms / float64(n))
	}

	p := Projection{Misses: NewMissDistribution()}
	p300 := ProbErrLessThanX(rms, r.Window300)
	p100 := ProbErrLessThanX(rms, r.Window100)
	p50 := ProbErrLessThanX(rms, r.Window50)
	for range r.Hits {
		p.Expected300 += p300
		p.Expected100 += p100 - p300
		p.Expected50 += p50 - p100
		p.ExpectedMisses += 1 - p50
		p.Misses.Add(p50)
	}
	p.FullCombo = p.Misses.AtMost(0)
	return p
}
