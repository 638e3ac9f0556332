package difficulty

import (
	"math"

	"osukit/curves"
	"osukit/dotosu"
)

// diffObject is a hit object prepared for strain calculation. Distances
// are in normalized units, times in rate adjusted ms except time.
type diffObject struct {
	time    float64
	spinner bool

	pos     curves.Vector2
	lazyEnd curves.Vector2
	// lazyTravel is the cursor path through the slider in playfield px.
	lazyTravel float64

	jump       float64
	travel     float64
	delta      float64
	strainTime float64
	angle      float64
	hasAngle   bool
}

// preprocess builds the strain inputs of b. Stacking is not applied.
func preprocess(b *dotosu.Beatmap, mc MapConstants, c Constants) []diffObject {
	scale := c.Rating.NormalizedRadius / mc.CircleRadius
	if mc.CircleRadius < c.Rating.CircleSizeBuffThreshold {
		scale *= 1 + min(c.Rating.CircleSizeBuffThreshold-mc.CircleRadius, 5)/50
	}

	objs := make([]diffObject, len(b.HitObjects))
	for i, o := range b.HitObjects {
		d := &objs[i]
		d.time = o.StartTime()
		d.pos = o.Position()
		d.lazyEnd = d.pos
		switch o := o.(type) {
		case *dotosu.Spinner:
			d.spinner = true
		case *dotosu.Slider:
			d.lazyEnd, d.lazyTravel = lazySliderEnd(o, mc.CircleRadius*3)
		}
	}

	for i := 1; i < len(objs); i++ {
		cur, last := &objs[i], &objs[i-1]
		cur.delta = (cur.time - last.time) / mc.ClockRate
		cur.strainTime = max(cur.delta, 50)
		cur.jump = curves.Distance(cur.pos.Mul(scale), last.lazyEnd.Mul(scale))
		cur.travel = last.lazyTravel * scale

		if i >= 2 {
			lastLast := &objs[i-2]
			v1 := lastLast.lazyEnd.Sub(last.pos)
			v2 := cur.pos.Sub(last.lazyEnd)
			dot := v1.Dot(v2)
			det := v1.X()*v2.Y() - v1.Y()*v2.X()
			cur.angle = math.Abs(math.Atan2(det, dot))
			cur.hasAngle = true
		}
	}
	return objs
}

// lazySliderEnd follows the slider's scoring points with a cursor that
// only moves once it leaves the follow circle.
func lazySliderEnd(s *dotosu.Slider, followRadius float64) (end curves.Vector2, travel float64) {
	end = s.Pos
	for _, a := range sliderNested(s, followRadius) {
		diff := a.Pos.Sub(end)
		dist := diff.Len()
		if dist > followRadius {
			diff = diff.Normalize()
			dist -= followRadius
			end = end.Add(diff.Mul(dist))
			travel += dist
		}
	}
	return end, travel
}
