// Package analysis replays a recorded play against its beatmap and
// measures hit accuracy.
package analysis

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"osukit/curves"
	"osukit/difficulty"
	"osukit/dotosr"
	"osukit/dotosu"
	"osukit/internal/logging"
	"osukit/mods"
)

var (
	ErrBeatmapMismatch = errors.New("analysis: replay was recorded on a different beatmap")
	ErrNoReplay        = errors.New("analysis: no replay")
)

const playfieldHeight = 384

type Judgement uint8

const (
	Miss Judgement = iota
	Hit50
	Hit100
	Hit300
)

func (j Judgement) String() string {
	switch j {
	case Hit300:
		return "300"
	case Hit100:
		return "100"
	case Hit50:
		return "50"
	default:
		return "miss"
	}
}

// Hit is the judgement of one clickable object.
type Hit struct {
	Object    int
	Time      float64
	Judgement Judgement
	// Error is the press time minus the object time in real ms. It is
	// zero for misses.
	Error float64
}

type Result struct {
	Count300, Count100, Count50, Misses int
	Hits                                []Hit
	// HitErrors are the errors of every non-miss, in object order.
	HitErrors    []float64
	MeanError    float64
	UnstableRate float64
	// Window300, Window100 and Window50 are the hit windows in real ms.
	Window300, Window100, Window50 float64
}

// Score converts the counts for performance calculation. Combo is left
// at zero, meaning full combo.
func (r *Result) Score() difficulty.Score {
	return difficulty.Score{N300: r.Count300, N100: r.Count100, N50: r.Count50, NMiss: r.Misses}
}

type press struct {
	time     float64
	pos      curves.Vector2
	consumed bool
}

// presses returns the key and mouse press edges of frames in time order.
func presses(frames []dotosr.Frame) []press {
	var out []press
	var prev dotosr.Buttons
	for _, f := range frames {
		keys := f.Keys.Clicks()
		if keys&^prev != 0 {
			out = append(out, press{time: float64(f.Time), pos: curves.Vec(float64(f.X), float64(f.Y))})
		}
		prev = keys
	}
	slices.SortStableFunc(out, func(a, b press) int { return cmp.Compare(a.time, b.time) })
	return out
}

// Judge matches the replay's presses to the circles and slider heads of
// b. A press counts for an object when it lands inside the 50 window with
// the cursor inside the circle; each press is used at most once.
func Judge(b *dotosu.Beatmap, r *dotosr.Replay) (*Result, error) {
	switch {
	case b == nil:
		return nil, difficulty.ErrNoObjects
	case r == nil:
		return nil, ErrNoReplay
	}
	if b.MD5 != "" && r.BeatmapMD5 != "" && b.MD5 != r.BeatmapMD5 {
		return nil, fmt.Errorf("%w: beatmap %s, replay %s", ErrBeatmapMismatch, b.MD5, r.BeatmapMD5)
	}
	if r.Mode != dotosu.ModeStandard || b.General.Mode != dotosu.ModeStandard {
		return nil, fmt.Errorf("analysis: %w: %s", difficulty.ErrUnsupportedMode, r.Mode)
	}
	m := difficulty.FromMods(r.Mods)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	mc := difficulty.GetBeatmapConstants(b, m)
	rate := mc.ClockRate
	// replay times are on the beatmap timeline
	w300, w100, w50 := mc.Window300*rate, mc.Window100*rate, mc.Window50*rate
	flip := r.Mods.Has(mods.HardRock)

	ps := presses(r.Frames)
	res := &Result{Window300: mc.Window300, Window100: mc.Window100, Window50: mc.Window50}
	first := 0
	for _, a := range difficulty.ConvertBeatmapToActions(b, mc) {
		if !a.Clickable {
			continue
		}
		pos := a.Pos
		if flip {
			pos = curves.Vec(pos.X(), playfieldHeight-pos.Y())
		}
		for first < len(ps) && ps[first].time < a.Time-w50 {
			first++
		}

		hit := Hit{Object: a.Object, Time: a.Time}
		for i := first; i < len(ps) && ps[i].time <= a.Time+w50; i++ {
			p := &ps[i]
			if p.consumed || curves.Distance(p.pos, pos) > a.Radius {
				continue
			}
			p.consumed = true
			diff := p.time - a.Time
			switch abs := math.Abs(diff); {
			case abs <= w300:
				hit.Judgement = Hit300
			case abs <= w100:
				hit.Judgement = Hit100
			default:
				hit.Judgement = Hit50
			}
			hit.Error = diff / rate
			break
		}
		res.add(hit)
	}
	res.finish()

	logging.Logger().Debug("replay judged",
		"player", r.Player,
		"300", res.Count300, "100", res.Count100, "50", res.Count50, "miss", res.Misses,
		"ur", res.UnstableRate)
	return res, nil
}

func (r *Result) add(h Hit) {
	r.Hits = append(r.Hits, h)
	switch h.Judgement {
	case Hit300:
		r.Count300++
	case Hit100:
		r.Count100++
	case Hit50:
		r.Count50++
	default:
		r.Misses++
		return
	}
	r.HitErrors = append(r.HitErrors, h.Error)
}

func (r *Result) finish() {
	n := float64(len(r.HitErrors))
	if n == 0 {
		return
	}
	sum := 0.0
	for _, e := range r.HitErrors {
		sum += e
	}
	r.MeanError = sum / n
	variance := 0.0
	for _, e := range r.HitErrors {
		variance += (e - r.MeanError) * (e - r.MeanError)
	}
	r.UnstableRate = 10 * math.Sqrt(variance/n)
}
