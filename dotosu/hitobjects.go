package dotosu

import (
	"math"

	"osukit/curves"
)

// maxTickLength is the longest stretch of a span that receives ticks.
const maxTickLength = 100000

type ObjectKind uint8

const (
	KindCircle ObjectKind = iota
	KindSlider
	KindSpinner
	KindHold
)

func (k ObjectKind) String() string {
	switch k {
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindHold:
		return "hold"
	default:
		return "circle"
	}
}

type HitSoundFlags uint8

const (
	HitSoundNormal  HitSoundFlags = 1 << iota // 1
	HitSoundWhistle                           // 2
	HitSoundFinish                            // 4
	HitSoundClap                              // 8
)

type SampleSet uint8

const (
	SampleNone SampleSet = iota
	SampleNormal
	SampleSoft
	SampleDrum
)

type TypeFlags int

const (
	TypeCircle     TypeFlags = 1 << iota // 1
	TypeSlider                           // 2
	TypeNewCombo                         // 4
	TypeSpinner                          // 8
	TypeComboSkip1                       // 16
	TypeComboSkip2                       // 32
	TypeComboSkip3                       // 64
	TypeHold       TypeFlags = 1 << 7    // 128
)

type HitSampleSpec struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
	Index       int
	Volume      int
	Filename    string
}

type EdgeAdd struct {
	NormalSet   SampleSet
	AdditionSet SampleSet
}

// HitObject is implemented by *Circle, *Slider, *Spinner and *Hold.
// Switch on Kind or on the concrete type.
type HitObject interface {
	Kind() ObjectKind
	StartTime() float64
	EndTime() float64
	Position() curves.Vector2
	EndPosition() curves.Vector2
	NewCombo() bool
	ComboSkip() int
	Flags() TypeFlags
	HitSound() HitSoundFlags
	Sample() HitSampleSpec
}

// BaseHO is the header shared by every variant.
type BaseHO struct {
	Pos       curves.Vector2
	Time      float64
	Type      TypeFlags
	Sound     HitSoundFlags
	HitSample HitSampleSpec
}

func (b *BaseHO) StartTime() float64       { return b.Time }
func (b *BaseHO) Position() curves.Vector2 { return b.Pos }
func (b *BaseHO) NewCombo() bool           { return b.Type&TypeNewCombo != 0 }
func (b *BaseHO) Flags() TypeFlags         { return b.Type }
func (b *BaseHO) HitSound() HitSoundFlags  { return b.Sound }
func (b *BaseHO) Sample() HitSampleSpec    { return b.HitSample }

// ComboSkip is the number of combo colours skipped at a new combo.
func (b *BaseHO) ComboSkip() int { return int(b.Type>>4) & 7 }

type Circle struct{ BaseHO }

func (*Circle) Kind() ObjectKind              { return KindCircle }
func (c *Circle) EndTime() float64            { return c.Time }
func (c *Circle) EndPosition() curves.Vector2 { return c.Pos }

type Slider struct {
	BaseHO
	CurveType curves.Kind
	// ControlPoints starts with the slider head.
	ControlPoints []curves.Vector2
	Slides        int
	Length        float64
	EdgeSounds    []HitSoundFlags
	EdgeAdditions []EdgeAdd

	// Derived when the beatmap is built.
	Path         curves.Path
	Velocity     float64
	BeatLength   float64
	SpanDuration float64
	TickDistance float64
	// TickCount is the number of ticks in one span.
	TickCount int
	End       float64
}

func (*Slider) Kind() ObjectKind    { return KindSlider }
func (s *Slider) EndTime() float64  { return s.End }
func (s *Slider) Duration() float64 { return s.End - s.Time }

// EndPosition is the head for an even number of slides, the path end
// otherwise.
func (s *Slider) EndPosition() curves.Vector2 {
	if s.Slides%2 == 0 {
		return s.Path.StartPoint()
	}
	return s.Path.EndPoint()
}

// PositionAt returns the ball position at time t, following reversals.
func (s *Slider) PositionAt(t float64) curves.Vector2 {
	if s.SpanDuration <= 0 || t <= s.Time {
		return s.Path.StartPoint()
	}
	if t >= s.End {
		return s.EndPosition()
	}
	progress := (t - s.Time) / s.SpanDuration
	span := math.Floor(progress)
	frac := progress - span
	if int(span)%2 == 1 {
		frac = 1 - frac
	}
	return s.Path.PointAt(frac)
}

// MaxCombo counts the head, every tick and every span end.
func (s *Slider) MaxCombo() int {
	return s.TickCount*s.Slides + s.Slides + 1
}

// materialize derives the path, timing and tick layout of the slider.
func (s *Slider) materialize(timing TimingIndex, d Difficulty, version int) {
	s.Path = curves.NewPath(s.CurveType, s.ControlPoints, s.Length)
	if s.Length <= 0 {
		s.Length = s.Path.Length()
	}

	s.BeatLength, s.Velocity = timing.At(s.Time)
	pxPerBeat := d.SliderMultiplier * 100 * s.Velocity
	if pxPerBeat > 0 {
		s.SpanDuration = s.Length / pxPerBeat * s.BeatLength
	}
	s.End = s.Time + s.SpanDuration*float64(s.Slides)

	s.TickDistance = d.SliderMultiplier * 100 / d.SliderTickRate
	if version >= 8 {
		s.TickDistance *= s.Velocity
	}
	s.TickCount = tickCount(min(s.Length, maxTickLength), s.TickDistance)
}

// tickCount counts multiples of dist strictly before length-0.01.
func tickCount(length, dist float64) int {
	if dist <= 0 || math.IsInf(dist, 0) || math.IsNaN(dist) {
		return 0
	}
	n := int(math.Ceil((length-0.01)/dist)) - 1
	return max(n, 0)
}

type Spinner struct {
	BaseHO
	EndTimeMS float64
}

func (*Spinner) Kind() ObjectKind              { return KindSpinner }
func (s *Spinner) EndTime() float64            { return s.EndTimeMS }
func (s *Spinner) EndPosition() curves.Vector2 { return s.Pos }

// Hold is a mania hold note.
type Hold struct {
	BaseHO
	EndTimeMS float64
}

func (*Hold) Kind() ObjectKind              { return KindHold }
func (h *Hold) EndTime() float64            { return h.EndTimeMS }
func (h *Hold) EndPosition() curves.Vector2 { return h.Pos }
