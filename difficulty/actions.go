package difficulty

import (
	"osukit/curves"
	"osukit/dotosu"
	"osukit/mods"
)

// LegacyLastTickOffset moves the scored slider tail this many ms before
// the visual end, capped at half the last span.
const LegacyLastTickOffset = 36

var CenterPos = curves.Vec(256, 192)

// Action is one scoring event of a beatmap: a click target, a slider
// tick, repeat or tail, or a spinner. Times are on the beatmap timeline.
type Action struct {
	Pos       curves.Vector2
	Time      float64
	Radius    float64 // circle/sliderhead < sliderend < spinner
	Object    int     // index into Beatmap.HitObjects
	Clickable bool
	Circle    bool
	SliderEnd bool
	// SliderTick is set for ticks and for repeats.
	SliderTick bool
	Spinner    bool
}

// ConvertBeatmapToActions flattens the hit objects into scoring events in
// time order per object.
func ConvertBeatmapToActions(beatmap *dotosu.Beatmap, mc MapConstants) []Action {
	actions := make([]Action, 0, len(beatmap.HitObjects))
	radius := mc.CircleRadius

	for i, object := range beatmap.HitObjects {
		switch object := object.(type) {
		case *dotosu.Circle:
			actions = append(actions, Action{
				Pos:       object.Pos,
				Time:      object.Time,
				Radius:    radius,
				Object:    i,
				Clickable: true,
				Circle:    true,
			})
		case *dotosu.Slider:
			actions = append(actions, Action{
				Pos:       object.Pos,
				Time:      object.Time,
				Radius:    radius,
				Object:    i,
				Clickable: true,
			})
			for _, a := range sliderNested(object, radius*2.4) {
				a.Object = i
				actions = append(actions, a)
			}
		case *dotosu.Spinner:
			if mc.Mods.Mods&mods.SpunOut != 0 {
				continue
			}
			actions = append(actions, Action{
				Pos:     CenterPos,
				Time:    (object.Time + object.EndTimeMS) / 2,
				Radius:  200,
				Object:  i,
				Spinner: true,
			})
		}
	}
	return actions
}

// sliderNested returns the ticks, repeats and tail of s in time order.
func sliderNested(s *dotosu.Slider, radius float64) []Action {
	var out []Action
	span := s.SpanDuration
	for i := range s.Slides {
		spanStart := s.Time + float64(i)*span
		if s.Length > 0 {
			for k := 1; k <= s.TickCount; k++ {
				frac := float64(k) * s.TickDistance / s.Length
				if i%2 == 1 {
					frac = 1 - float64(s.TickCount+1-k)*s.TickDistance/s.Length
				}
				t := spanStart + frac*span
				out = append(out, Action{Pos: s.PositionAt(t), Time: t, Radius: radius, SliderTick: true})
			}
		}

		end := spanStart + span
		if i == s.Slides-1 {
			end -= min(LegacyLastTickOffset, span/2)
			out = append(out, Action{Pos: s.PositionAt(end), Time: end, Radius: radius, SliderEnd: true})
			continue
		}
		out = append(out, Action{Pos: s.PositionAt(end), Time: end, Radius: radius, SliderTick: true})
	}
	return out
}
