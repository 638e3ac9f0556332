package dotosu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"osukit/curves"
)

// Encode writes b in the .osu text format. Times are written as decoded,
// so maps older than v5 come out as v5 with the early offset applied.
func Encode(w io.Writer, b *Beatmap) error {
	if b == nil {
		return errors.New("dotosu: encode nil beatmap")
	}
	e := &encoder{w: bufio.NewWriter(w)}
	e.linef("%s%d", headerPrefix, max(b.FormatVersion, 5))
	e.general(b)
	e.editor(b)
	e.metadata(b)
	e.difficulty(b)
	e.events(b)
	e.timingPoints(b)
	e.colours(b)
	e.hitObjects(b)
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) linef(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
	}
}

func (e *encoder) section(name string) {
	e.linef("")
	e.linef("[%s]", name)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (e *encoder) general(b *Beatmap) {
	g := b.General
	e.section("General")
	e.linef("AudioFilename: %s", g.AudioFilename)
	e.linef("AudioLeadIn: %d", g.AudioLeadIn)
	e.linef("PreviewTime: %d", g.PreviewTime)
	e.linef("Countdown: %d", g.Countdown)
	e.linef("SampleSet: %s", titleCase(g.SampleSet))
	e.linef("SampleVolume: %d", g.SampleVolume)
	e.linef("StackLeniency: %s", ff(g.StackLeniency))
	e.linef("Mode: %d", g.Mode)
	e.linef("LetterboxInBreaks: %d", boolInt(g.LetterboxInBreaks))
	e.linef("SpecialStyle: %d", boolInt(g.SpecialStyle))
	e.linef("WidescreenStoryboard: %d", boolInt(g.WidescreenStoryboard))
	e.linef("EpilepsyWarning: %d", boolInt(g.EpilepsyWarning))
	e.linef("SamplesMatchPlaybackRate: %d", boolInt(g.SamplesMatchPlaybackRate))
	e.linef("CountdownOffset: %d", g.CountdownOffset)
}

func (e *encoder) editor(b *Beatmap) {
	ed := b.Editor
	e.section("Editor")
	if len(ed.Bookmarks) > 0 {
		marks := make([]string, len(ed.Bookmarks))
		for i, m := range ed.Bookmarks {
			marks[i] = strconv.Itoa(m)
		}
		e.linef("Bookmarks: %s", strings.Join(marks, ","))
	}
	e.linef("DistanceSpacing: %s", ff(ed.DistanceSpacing))
	e.linef("BeatDivisor: %d", ed.BeatDivisor)
	e.linef("GridSize: %d", ed.GridSize)
	e.linef("TimelineZoom: %s", ff(ed.TimelineZoom))
}

func (e *encoder) metadata(b *Beatmap) {
	m := b.Metadata
	e.section("Metadata")
	e.linef("Title:%s", m.Title)
	e.linef("TitleUnicode:%s", m.TitleUnicode)
	e.linef("Artist:%s", m.Artist)
	e.linef("ArtistUnicode:%s", m.ArtistUnicode)
	e.linef("Creator:%s", m.Creator)
	e.linef("Version:%s", m.Version)
	e.linef("Source:%s", m.Source)
	e.linef("Tags:%s", m.Tags)
	e.linef("BeatmapID:%d", m.BeatmapID)
	e.linef("BeatmapSetID:%d", m.BeatmapSetID)
}

func (e *encoder) difficulty(b *Beatmap) {
	d := b.Difficulty
	e.section("Difficulty")
	e.linef("HPDrainRate:%s", ff(d.HPDrainRate))
	e.linef("CircleSize:%s", ff(d.CircleSize))
	e.linef("OverallDifficulty:%s", ff(d.OverallDifficulty))
	e.linef("ApproachRate:%s", ff(d.ApproachRate))
	e.linef("SliderMultiplier:%s", ff(d.SliderMultiplier))
	e.linef("SliderTickRate:%s", ff(d.SliderTickRate))
}

func (e *encoder) events(b *Beatmap) {
	e.section("Events")
	if f := b.Metadata.BackgroundFile; f != "" {
		e.linef("0,0,%q,0,0", f)
	}
	if f := b.Metadata.VideoFile; f != "" {
		e.linef("Video,0,%q", f)
	}
	for _, br := range b.Breaks {
		e.linef("2,%s,%s", ff(br.Start), ff(br.End))
	}
	for _, ev := range b.UnhandledEvents {
		e.linef("%s", ev)
	}
}

func (e *encoder) timingPoints(b *Beatmap) {
	e.section("TimingPoints")
	for _, tp := range b.TimingPoints {
		effects := 0
		if tp.Kiai {
			effects |= 1
		}
		if tp.OmitFirstBarSignature {
			effects |= 8
		}
		e.linef("%s,%s,%d,%d,%d,%d,%d,%d", ff(tp.Time), ff(tp.BeatLength), tp.TimeSignature,
			sampleSetID(tp.SampleSet), tp.CustomSampleBank, tp.SampleVolume, boolInt(tp.TimingChange), effects)
	}
}

func (e *encoder) colours(b *Beatmap) {
	c := b.Colours
	if len(c.Combo) == 0 && c.SliderTrackOverride == nil && c.SliderBorder == nil {
		return
	}
	e.section("Colours")
	for i, col := range c.Combo {
		e.linef("Combo%d : %d,%d,%d", i+1, col.R, col.G, col.B)
	}
	if col := c.SliderTrackOverride; col != nil {
		e.linef("SliderTrackOverride : %d,%d,%d", col.R, col.G, col.B)
	}
	if col := c.SliderBorder; col != nil {
		e.linef("SliderBorder : %d,%d,%d", col.R, col.G, col.B)
	}
}

func (e *encoder) hitObjects(b *Beatmap) {
	e.section("HitObjects")
	for _, o := range b.HitObjects {
		pos := o.Position()
		head := fmt.Sprintf("%s,%s,%s,%d,%d", ff(pos.X()), ff(pos.Y()), ff(o.StartTime()), o.Flags(), o.HitSound())
		switch o := o.(type) {
		case *Slider:
			e.linef("%s,%s,%d,%s,%s,%s,%s", head, formatCurve(o.CurveType, o.ControlPoints),
				o.Slides, ff(o.Length), formatEdgeSounds(o.EdgeSounds), formatEdgeAdditions(o.EdgeAdditions),
				formatHitSample(o.HitSample))
		case *Spinner:
			e.linef("%s,%s,%s", head, ff(o.EndTimeMS), formatHitSample(o.HitSample))
		case *Hold:
			e.linef("%s,%s:%s", head, ff(o.EndTimeMS), formatHitSample(o.HitSample))
		default:
			e.linef("%s,%s", head, formatHitSample(o.Sample()))
		}
	}
}

// formatCurve writes the kind letter and every control point after the
// head.
func formatCurve(kind curves.Kind, points []curves.Vector2) string {
	var sb strings.Builder
	sb.WriteString(kind.Letter())
	for _, p := range points[min(1, len(points)):] {
		sb.WriteString("|" + ff(p.X()) + ":" + ff(p.Y()))
	}
	return sb.String()
}

func formatEdgeSounds(sounds []HitSoundFlags) string {
	parts := make([]string, len(sounds))
	for i, s := range sounds {
		parts[i] = strconv.Itoa(int(s))
	}
	return strings.Join(parts, "|")
}

func formatEdgeAdditions(adds []EdgeAdd) string {
	parts := make([]string, len(adds))
	for i, a := range adds {
		parts[i] = fmt.Sprintf("%d:%d", a.NormalSet, a.AdditionSet)
	}
	return strings.Join(parts, "|")
}

func formatHitSample(s HitSampleSpec) string {
	return fmt.Sprintf("%d:%d:%d:%d:%s", s.NormalSet, s.AdditionSet, s.Index, s.Volume, s.Filename)
}

func sampleSetID(name string) int {
	switch name {
	case "soft":
		return 2
	case "drum":
		return 3
	default:
		return 1
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
