package difficulty

import (
	"cmp"
	"math"
	"slices"
)

// maxGapSections bounds the sections emitted for one gap between objects.
// Later sections of a longer gap are dropped; by then any strain has
// decayed to nothing under every skill.
const maxGapSections = 256

func diminish(v float64) float64 { return math.Pow(v, 0.99) }

func (c Constants) aimValue(cur, prev *diffObject) float64 {
	if cur.spinner {
		return 0
	}
	a := c.Aim
	result := 0.0
	if cur.hasAngle && cur.angle > a.AngleBonusBegin {
		bonus := math.Sqrt(
			max(prev.jump-a.AngleBonusScale, 0) *
				math.Pow(math.Sin(cur.angle-a.AngleBonusBegin), 2) *
				max(cur.jump-a.AngleBonusScale, 0))
		result = 1.5 * diminish(max(0, bonus)) / max(a.TimingThreshold, prev.strainTime)
	}

	jump := diminish(cur.jump)
	travel := diminish(cur.travel)
	both := math.Sqrt(jump * travel)
	return max(
		result+(jump+travel+both)/max(cur.strainTime, a.TimingThreshold),
		(both+jump+travel)/cur.strainTime,
	)
}

func (c Constants) speedValue(cur, _ *diffObject) float64 {
	if cur.spinner {
		return 0
	}
	s := c.Speed
	scale := c.Aim.AngleBonusScale
	distance := min(s.SingleSpacing, cur.travel+cur.jump)
	deltaTime := max(s.MaxSpeedBonus, cur.delta)

	speedBonus := 1.0
	if deltaTime < s.MinSpeedBonus {
		speedBonus += math.Pow((s.MinSpeedBonus-deltaTime)/40, 2)
	}

	angleBonus := 1.0
	if cur.hasAngle && cur.angle < s.AngleBonusBegin {
		sin := math.Sin(1.5 * (s.AngleBonusBegin - cur.angle))
		angleBonus = 1 + sin*sin/3.57
		if cur.angle < math.Pi/2 {
			angleBonus = 1.28
			switch {
			case distance < scale && cur.angle < math.Pi/4:
				angleBonus += (1 - angleBonus) * min((scale-distance)/10, 1)
			case distance < scale:
				angleBonus += (1 - angleBonus) * min((scale-distance)/10, 1) *
					math.Sin((math.Pi/2-cur.angle)*4/math.Pi)
			}
		}
	}

	return (1 + (speedBonus-1)*0.75) * angleBonus *
		(0.95 + speedBonus*math.Pow(distance/s.SingleSpacing, 3.5)) / cur.strainTime
}

type strainValue func(cur, prev *diffObject) float64

// sectionPeaks runs one skill over objs and returns the highest strain of
// each section. Sections are step ms of beatmap time long and the first
// ends at the step multiple at or after the first object.
func sectionPeaks(objs []diffObject, sk SkillConstants, value strainValue, rate, step float64) []float64 {
	if len(objs) == 0 {
		return nil
	}
	sectionLen := step * rate
	intervalEnd := math.Ceil(objs[0].time/sectionLen) * sectionLen

	var peaks []float64
	maxStrain, strain := 0.0, 0.0
	for i := 1; i < len(objs); i++ {
		cur, prev := &objs[i], &objs[i-1]
		prevStrain := strain
		strain = prevStrain*math.Pow(sk.DecayBase, cur.delta/1000) + value(cur, prev)*sk.WeightScaling

		if cur.time > intervalEnd {
			// boundaries are derived from a count so huge times still advance
			base := intervalEnd
			crossed := int64(math.Ceil((cur.time - base) / sectionLen))
			for k := int64(0); k < crossed; k++ {
				if k == maxGapSections && crossed > maxGapSections+1 {
					k = crossed - 1
				}
				end := base + float64(k)*sectionLen
				peaks = append(peaks, maxStrain)
				maxStrain = prevStrain * math.Pow(sk.DecayBase, (end-prev.time)/rate/1000)
			}
			intervalEnd = max(base+float64(crossed)*sectionLen, cur.time)
		}
		maxStrain = max(maxStrain, strain)
	}
	return append(peaks, maxStrain)
}

// weightedSum adds the peaks from highest to lowest, each weighted by
// decayWeight to the power of its rank.
func weightedSum(peaks []float64, decayWeight float64) float64 {
	sorted := slices.Clone(peaks)
	slices.SortStableFunc(sorted, func(a, b float64) int { return cmp.Compare(b, a) })

	total, weight := 0.0, 1.0
	for _, p := range sorted {
		total += p * weight
		weight *= decayWeight
	}
	return total
}
