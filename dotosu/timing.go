package dotosu

import (
	"sort"

	"osukit/internal/mathutil"
)

// DefaultBeatLength applies when a map has no uninherited timing point.
const DefaultBeatLength = 1000.0

type TimingPoint struct {
	Time             float64
	BeatLength       float64
	TimeSignature    int
	SampleSet        string
	CustomSampleBank int
	SampleVolume     int
	// TimingChange is set on uninherited (red) lines.
	TimingChange             bool
	Kiai                     bool
	OmitFirstBarSignature    bool
	SliderVelocityMultiplier float64
}

// Inherited reports whether the point only changes slider velocity.
func (tp TimingPoint) Inherited() bool { return !tp.TimingChange }

// BPM of an uninherited point.
func (tp TimingPoint) BPM() float64 {
	if tp.BeatLength <= 0 {
		return 0
	}
	return 60000 / tp.BeatLength
}

func sliderVelocity(beatLength float64) float64 {
	if beatLength >= 0 {
		return 1
	}
	return mathutil.Clamp(100/-beatLength, 0.1, 10)
}

// TimingIndex answers "which timing applies at t" in O(log n). Both
// slices are strictly increasing in Time; of several points sharing an
// offset the one that came last in the file is kept.
type TimingIndex struct {
	all         []TimingPoint
	uninherited []TimingPoint
}

func NewTimingIndex(points []TimingPoint) TimingIndex {
	var ti TimingIndex
	for _, tp := range points {
		ti.all = appendOrReplace(ti.all, tp)
		if tp.TimingChange {
			ti.uninherited = appendOrReplace(ti.uninherited, tp)
		}
	}
	return ti
}

func appendOrReplace(s []TimingPoint, tp TimingPoint) []TimingPoint {
	if n := len(s); n > 0 && s[n-1].Time == tp.Time {
		s[n-1] = tp
		return s
	}
	return append(s, tp)
}

func atOrBefore(s []TimingPoint, t float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Time > t }) - 1
}

// PointAt returns the last timing point at or before t.
func (ti TimingIndex) PointAt(t float64) (TimingPoint, bool) {
	i := atOrBefore(ti.all, t)
	if i < 0 {
		return TimingPoint{}, false
	}
	return ti.all[i], true
}

// UninheritedAt returns the last uninherited point at or before t, or the
// first one when t precedes them all.
func (ti TimingIndex) UninheritedAt(t float64) (TimingPoint, bool) {
	if len(ti.uninherited) == 0 {
		return TimingPoint{}, false
	}
	i := max(atOrBefore(ti.uninherited, t), 0)
	return ti.uninherited[i], true
}

// At resolves the beat length and slider velocity multiplier in effect
// at t.
func (ti TimingIndex) At(t float64) (beatLength, velocity float64) {
	beatLength = DefaultBeatLength
	if red, ok := ti.UninheritedAt(t); ok {
		beatLength = red.BeatLength
	}
	velocity = 1
	if tp, ok := ti.PointAt(t); ok && tp.Inherited() {
		velocity = tp.SliderVelocityMultiplier
	}
	return beatLength, velocity
}

// Points returns the deduplicated points in time order.
func (ti TimingIndex) Points() []TimingPoint {
	out := make([]TimingPoint, len(ti.all))
	copy(out, ti.all)
	return out
}

func (ti TimingIndex) Len() int { return len(ti.all) }
