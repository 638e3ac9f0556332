package difficulty

import (
	"math"

	"osukit/mods"
)

// Score is the result a performance value is computed for.
type Score struct {
	// Combo of 0 means a full combo.
	Combo int
	// N300 below zero is filled in with the objects not otherwise counted.
	N300, N100, N50, NMiss int
	ScoreV2                bool
}

// Accuracy is the hit accuracy in [0, 1].
func (s Score) Accuracy() float64 {
	return accuracy(s.N300, s.N100, s.N50, s.NMiss)
}

func accuracy(n300, n100, n50, nmiss int) float64 {
	total := n300 + n100 + n50 + nmiss
	if total <= 0 {
		return 0
	}
	acc := float64(6*n300+2*n100+n50) / float64(6*total)
	return min(max(acc, 0), 1)
}

// PP is a performance value split into its components.
type PP struct {
	Total, Aim, Speed, Acc float64
	Accuracy               float64
}

func ppBase(stars float64) float64 {
	return math.Pow(5*max(1, stars/0.0675)-4, 3) / 100000
}

// Performance computes the ppv2 value of s on a beatmap rated attrs.
func Performance(attrs Attributes, s Score) PP {
	nobjects := attrs.ObjectCount
	if nobjects <= 0 {
		return PP{}
	}
	if s.N300 < 0 {
		s.N300 = max(nobjects-s.N100-s.N50-s.NMiss, 0)
	}
	if s.Combo <= 0 {
		s.Combo = attrs.MaxCombo
	}
	m := attrs.Mods.Mods
	n := float64(nobjects)
	nmiss := float64(s.NMiss)

	acc := s.Accuracy()
	realAcc := acc
	if !s.ScoreV2 {
		// v1 counts sliders and spinners as free 300s
		realAcc = accuracy(max(s.N300-attrs.Sliders-attrs.Spinners, 0), s.N100, s.N50, s.NMiss)
	}

	lengthBonus := 0.95 + 0.4*min(1, n/2000)
	if nobjects > 2000 {
		lengthBonus += math.Log10(n/2000) * 0.5
	}
	missAim := 0.97 * math.Pow(1-math.Pow(nmiss/n, 0.775), nmiss)
	missSpeed := 0.97 * math.Pow(1-math.Pow(nmiss/n, 0.775), math.Pow(nmiss, 0.875))
	comboBreak := 1.0
	if attrs.MaxCombo > 0 {
		comboBreak = min(math.Pow(float64(s.Combo), 0.8)/math.Pow(float64(attrs.MaxCombo), 0.8), 1)
	}

	ar, od := attrs.ApproachRate, attrs.OverallDifficulty
	arBonus := 0.0
	if ar > 10.33 {
		arBonus = 0.4 * (ar - 10.33)
	} else if ar < 8 {
		arBonus = 0.01 * (8 - ar)
	}
	arFactor := 1 + min(arBonus, arBonus*n/1000)

	hdBonus := 1.0
	if m.Has(mods.Hidden) {
		hdBonus = 1 + 0.04*(12-ar)
	}

	aim := ppBase(attrs.Aim) * lengthBonus * comboBreak * arFactor * hdBonus
	if s.NMiss > 0 {
		aim *= missAim
	}
	if m.Has(mods.Flashlight) {
		fl := 1 + 0.35*min(n/200, 1)
		if nobjects > 200 {
			fl += 0.3 * min((n-200)/300, 1)
		}
		if nobjects > 500 {
			fl += (n - 500) / 1200
		}
		aim *= fl
	}
	odSquared := od * od
	aim *= (0.5 + acc/2) * (0.98 + odSquared/2500)

	speed := ppBase(attrs.Speed) * lengthBonus * comboBreak * hdBonus
	if s.NMiss > 0 {
		speed *= missSpeed
	}
	if ar > 10.33 {
		speed *= arFactor
	}
	speed *= (0.95 + odSquared/750) * math.Pow(acc, (14.5-max(od, 8))/2)
	if float64(s.N50) >= n/500 {
		speed *= math.Pow(0.98, float64(s.N50)-n/500)
	}

	accPP := math.Pow(1.52163, od) * math.Pow(realAcc, 24) * 2.83
	accPP *= min(1.15, math.Pow(float64(attrs.Circles)/1000, 0.3))
	if m.Has(mods.Hidden) {
		accPP *= 1.08
	}
	if m.Has(mods.Flashlight) {
		accPP *= 1.02
	}

	mult := 1.12
	if m.Has(mods.NoFail) {
		mult *= max(0.9, 1-0.2*nmiss)
	}
	if m.Has(mods.SpunOut) {
		mult *= 1 - math.Pow(float64(attrs.Spinners)/n, 0.85)
	}

	total := math.Pow(
		math.Pow(aim, 1.1)+math.Pow(speed, 1.1)+math.Pow(accPP, 1.1),
		1/1.1) * mult
	return PP{Total: total, Aim: aim, Speed: speed, Acc: accPP, Accuracy: acc}
}
