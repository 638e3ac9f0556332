// Package dotosu decodes .osu beatmap files into a validated, time-ordered
// object model.
package dotosu

import (
	"bytes"
	"cmp"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"osukit/curves"
	"osukit/internal/logging"
	"osukit/internal/mathutil"
)

const (
	EARLY_VERSION_TIMING_OFFSET = 24
	MAX_MANIA_KEY_COUNT         = 18
	MIN_VERSION                 = 3
	LATEST_VERSION              = 14

	// MAX_PARSE_VALUE bounds the magnitude of every numeric field.
	MAX_PARSE_VALUE = math.MaxInt32
	// MAX_COORDINATE_VALUE bounds object positions and curve points.
	MAX_COORDINATE_VALUE = 131072
	MAX_REPEAT_COUNT     = 9000
	// MAX_COMBO bounds the summed max combo of all hit objects.
	MAX_COMBO = 1 << 20
)

type Mode int

const (
	ModeStandard Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "fruits"
	case ModeMania:
		return "mania"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

type Beatmap struct {
	FormatVersion int
	General       General
	Editor        Editor
	Metadata      Metadata
	Difficulty    Difficulty
	Colours       Colours

	Breaks          []BreakPeriod
	TimingPoints    []TimingPoint
	Timing          TimingIndex
	HitObjects      []HitObject
	UnhandledEvents []string

	// Warnings holds recovered problems, such as curve fallbacks.
	Warnings []error

	// MD5 is the hex digest of the source bytes.
	MD5 string
}

type General struct {
	AudioFilename            string
	AudioLeadIn              int
	PreviewTime              int
	SampleSet                string
	SampleVolume             int
	StackLeniency            float64
	Mode                     Mode
	LetterboxInBreaks        bool
	SpecialStyle             bool
	WidescreenStoryboard     bool
	EpilepsyWarning          bool
	SamplesMatchPlaybackRate bool
	Countdown                int
	CountdownOffset          int
}

type Editor struct {
	Bookmarks       []int
	DistanceSpacing float64
	BeatDivisor     int
	GridSize        int
	TimelineZoom    float64
}

type Metadata struct {
	Title, TitleUnicode            string
	Artist, ArtistUnicode          string
	Creator, Version, Source, Tags string
	BeatmapID, BeatmapSetID        int
	BackgroundFile, VideoFile      string
}

type Difficulty struct {
	HPDrainRate, CircleSize, OverallDifficulty, ApproachRate float64
	SliderMultiplier, SliderTickRate                         float64
}

type BreakPeriod struct{ Start, End float64 }

type Colour struct{ R, G, B uint8 }

type Colours struct {
	Combo               []Colour
	SliderTrackOverride *Colour
	SliderBorder        *Colour
}

// Counts returns the number of circles, sliders and spinners.
func (b *Beatmap) Counts() (circles, sliders, spinners int) {
	for _, o := range b.HitObjects {
		switch o.Kind() {
		case KindCircle:
			circles++
		case KindSlider:
			sliders++
		case KindSpinner:
			spinners++
		}
	}
	return
}

// MaxCombo is the combo of a full-combo play on the map.
func (b *Beatmap) MaxCombo() int {
	combo := 0
	for _, o := range b.HitObjects {
		if s, ok := o.(*Slider); ok {
			combo += s.MaxCombo()
			continue
		}
		combo++
	}
	return combo
}

// ---------- Public API ----------

func DecodeFile(path string) (*Beatmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return b, nil
}

func DecodeBytes(data []byte) (*Beatmap, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a whole .osu file. It fails on the first structural or
// field error and never returns a partially built Beatmap.
func Decode(r io.Reader) (*Beatmap, error) {
	h := md5.New()
	tok := NewTokenizer(io.TeeReader(r, h))

	p := newParser()
	for tok.Scan() {
		if p.b.FormatVersion == 0 {
			if err := p.setVersion(tok.Version()); err != nil {
				return nil, err
			}
		}
		if err := p.token(tok.Token()); err != nil {
			return nil, err
		}
	}
	if err := tok.Err(); err != nil {
		return nil, err
	}
	if p.b.FormatVersion == 0 {
		if err := p.setVersion(tok.Version()); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	p.b.MD5 = hex.EncodeToString(h.Sum(nil))

	c, s, sp := p.b.Counts()
	logging.Logger().Debug("decoded beatmap",
		"title", p.b.Metadata.Title, "version", p.b.Metadata.Version,
		"format", p.b.FormatVersion, "circles", c, "sliders", s, "spinners", sp,
		"timing_points", len(p.b.TimingPoints), "warnings", len(p.b.Warnings))
	return p.b, nil
}

// ---------- builder ----------

var requiredDifficulty = []string{"HPDrainRate", "CircleSize", "OverallDifficulty", "SliderMultiplier"}

type parser struct {
	b      *Beatmap
	offset float64

	seenDifficulty bool
	seenAR         bool
	difficultyKeys map[string]bool
}

func newParser() *parser {
	return &parser{
		b: &Beatmap{
			General: General{
				SampleSet:     "normal",
				SampleVolume:  100,
				StackLeniency: 0.7,
				PreviewTime:   -1,
			},
			Editor:     Editor{BeatDivisor: 4, GridSize: 4},
			Difficulty: Difficulty{SliderTickRate: 1},
		},
		difficultyKeys: make(map[string]bool),
	}
}

func (p *parser) setVersion(v int) error {
	if v < MIN_VERSION || v > LATEST_VERSION {
		return &ParseError{Kind: ErrVersionUnsupported, Line: 1, Text: headerPrefix + strconv.Itoa(v)}
	}
	p.b.FormatVersion = v
	if v < 5 {
		p.offset = EARLY_VERSION_TIMING_OFFSET
	}
	return nil
}

func (p *parser) token(t Token) error {
	switch strings.ToLower(t.Section) {
	case "general":
		return p.general(t)
	case "editor":
		return p.editor(t)
	case "metadata":
		p.metadata(t)
	case "difficulty":
		p.seenDifficulty = true
		return p.difficulty(t)
	case "events":
		return p.event(t)
	case "timingpoints":
		return p.timingPoint(t)
	case "colours":
		return p.colour(t)
	case "hitobjects":
		if !p.seenDifficulty {
			return &ParseError{Kind: ErrMalformedSection, Section: t.Section, Line: t.Line, Text: t.Text}
		}
		return p.hitObject(t)
	}
	return nil
}

func (p *parser) finish() error {
	for _, k := range requiredDifficulty {
		if !p.difficultyKeys[strings.ToLower(k)] {
			return &FieldError{Kind: ErrMissingField, Section: "Difficulty", Key: k}
		}
	}
	applyDifficultyRestrictions(&p.b.Difficulty, p.b.General.Mode)

	p.b.Timing = NewTimingIndex(p.b.TimingPoints)

	slices.SortStableFunc(p.b.HitObjects, func(a, b HitObject) int {
		return cmp.Compare(a.StartTime(), b.StartTime())
	})
	combo := 0
	for _, o := range p.b.HitObjects {
		s, ok := o.(*Slider)
		if !ok {
			combo++
			continue
		}
		s.materialize(p.b.Timing, p.b.Difficulty, p.b.FormatVersion)
		if combo += s.MaxCombo(); combo > MAX_COMBO {
			return malformed("HitObjects", "combo", strconv.Itoa(combo), errOutOfRange)
		}
		if s.Path.Fallback != nil {
			err := fmt.Errorf("slider at %vms: %w", s.Time, s.Path.Fallback)
			p.b.Warnings = append(p.b.Warnings, err)
			logging.Logger().Warn("recovered slider curve", "time", s.Time, "err", s.Path.Fallback)
		}
	}
	return nil
}

func (p *parser) general(t Token) error {
	k, v := splitKeyVal(t.Text)
	var err error
	switch strings.ToLower(k) {
	case "audiofilename":
		p.b.General.AudioFilename = standardisePath(v)
	case "audioleadin":
		p.b.General.AudioLeadIn, err = parseInt(t.Section, k, v)
	case "previewtime":
		var pt int
		if pt, err = parseInt(t.Section, k, v); err == nil && pt != -1 {
			pt += int(p.offset)
		}
		p.b.General.PreviewTime = pt
	case "sampleset":
		p.b.General.SampleSet = strings.ToLower(v)
	case "samplevolume":
		p.b.General.SampleVolume, err = parseInt(t.Section, k, v)
	case "stackleniency":
		p.b.General.StackLeniency, err = parseFloat(t.Section, k, v)
	case "mode":
		var m int
		m, err = parseInt(t.Section, k, v)
		p.b.General.Mode = Mode(m)
	case "letterboxinbreaks":
		p.b.General.LetterboxInBreaks = parseBoolInt(v)
	case "specialstyle":
		p.b.General.SpecialStyle = parseBoolInt(v)
	case "widescreenstoryboard":
		p.b.General.WidescreenStoryboard = parseBoolInt(v)
	case "epilepsywarning":
		p.b.General.EpilepsyWarning = parseBoolInt(v)
	case "samplesmatchplaybackrate":
		p.b.General.SamplesMatchPlaybackRate = parseBoolInt(v)
	case "countdown":
		p.b.General.Countdown, err = parseInt(t.Section, k, v)
	case "countdownoffset":
		p.b.General.CountdownOffset, err = parseInt(t.Section, k, v)
	}
	return err
}

func (p *parser) editor(t Token) error {
	k, v := splitKeyVal(t.Text)
	var err error
	switch strings.ToLower(k) {
	case "bookmarks":
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			var n int
			if n, err = parseInt(t.Section, k, s); err != nil {
				return err
			}
			p.b.Editor.Bookmarks = append(p.b.Editor.Bookmarks, n)
		}
	case "distancespacing":
		p.b.Editor.DistanceSpacing, err = parseFloat(t.Section, k, v)
	case "beatdivisor":
		var n int
		n, err = parseInt(t.Section, k, v)
		p.b.Editor.BeatDivisor = mathutil.Clamp(n, 1, 16)
	case "gridsize":
		p.b.Editor.GridSize, err = parseInt(t.Section, k, v)
	case "timelinezoom":
		var z float64
		z, err = parseFloat(t.Section, k, v)
		p.b.Editor.TimelineZoom = math.Max(0, z)
	}
	return err
}

func (p *parser) metadata(t Token) {
	k, v := splitKeyVal(t.Text)
	switch strings.ToLower(k) {
	case "title":
		p.b.Metadata.Title = v
	case "titleunicode":
		p.b.Metadata.TitleUnicode = v
	case "artist":
		p.b.Metadata.Artist = v
	case "artistunicode":
		p.b.Metadata.ArtistUnicode = v
	case "creator":
		p.b.Metadata.Creator = v
	case "version":
		p.b.Metadata.Version = v
	case "source":
		p.b.Metadata.Source = v
	case "tags":
		p.b.Metadata.Tags = v
	case "beatmapid":
		p.b.Metadata.BeatmapID, _ = strconv.Atoi(v)
	case "beatmapsetid":
		p.b.Metadata.BeatmapSetID, _ = strconv.Atoi(v)
	}
}

func (p *parser) difficulty(t Token) error {
	k, v := splitKeyVal(t.Text)
	key := strings.ToLower(k)
	var dst *float64
	switch key {
	case "hpdrainrate":
		dst = &p.b.Difficulty.HPDrainRate
	case "circlesize":
		dst = &p.b.Difficulty.CircleSize
	case "overalldifficulty":
		dst = &p.b.Difficulty.OverallDifficulty
	case "approachrate":
		dst = &p.b.Difficulty.ApproachRate
		p.seenAR = true
	case "slidermultiplier":
		dst = &p.b.Difficulty.SliderMultiplier
	case "slidertickrate":
		dst = &p.b.Difficulty.SliderTickRate
	default:
		return nil
	}
	f, err := parseFloat(t.Section, k, v)
	if err != nil {
		return err
	}
	*dst = f
	p.difficultyKeys[key] = true
	if key == "overalldifficulty" && !p.seenAR {
		p.b.Difficulty.ApproachRate = f
	}
	return nil
}

func (p *parser) event(t Token) error {
	parts := splitCSV(t.Text)
	switch strings.ToLower(parts[0]) {
	case "0", "background":
		if len(parts) >= 3 {
			p.b.Metadata.BackgroundFile = cleanFilename(parts[2])
			return nil
		}
	case "1", "video":
		if len(parts) >= 3 {
			fn := cleanFilename(parts[2])
			switch strings.ToLower(filepath.Ext(fn)) {
			case ".avi", ".flv", ".mp4", ".mkv", ".mov", ".wmv", ".mpg", ".mpeg", ".ogv", ".webm":
				p.b.Metadata.VideoFile = fn
			default:
				p.b.Metadata.BackgroundFile = fn
			}
			return nil
		}
	case "2", "break":
		if len(parts) >= 3 {
			start, err := parseFloat(t.Section, "break start", parts[1])
			if err != nil {
				return err
			}
			end, err := parseFloat(t.Section, "break end", parts[2])
			if err != nil {
				return err
			}
			start += p.offset
			end = math.Max(end+p.offset, start)
			p.b.Breaks = append(p.b.Breaks, BreakPeriod{Start: start, End: end})
			return nil
		}
	}
	p.b.UnhandledEvents = append(p.b.UnhandledEvents, t.Text)
	return nil
}

func (p *parser) timingPoint(t Token) error {
	parts := splitCSV(t.Text)
	if len(parts) < 2 {
		return &FieldError{Kind: ErrMissingField, Section: t.Section, Key: "beatLength", Value: t.Text}
	}
	tm, err := parseFloat(t.Section, "time", parts[0])
	if err != nil {
		return err
	}
	tm += p.offset
	beatLen, err := parseFloat(t.Section, "beatLength", parts[1])
	if err != nil {
		return err
	}
	if math.IsNaN(beatLen) || math.IsInf(beatLen, 0) {
		return malformed(t.Section, "beatLength", parts[1], nil)
	}

	tp := TimingPoint{
		Time:          tm,
		BeatLength:    beatLen,
		TimeSignature: 4,
		SampleSet:     "normal",
		SampleVolume:  100,
		TimingChange:  beatLen >= 0,
	}
	cols := []struct {
		name string
		set  func(string) error
	}{
		{"meter", func(s string) error {
			n, err := parseInt(t.Section, "meter", s)
			if n > 0 {
				tp.TimeSignature = n
			}
			return err
		}},
		{"sampleSet", func(s string) error {
			n, err := parseInt(t.Section, "sampleSet", s)
			if ss := normaliseSampleSet(n); ss != "none" {
				tp.SampleSet = ss
			}
			return err
		}},
		{"sampleIndex", func(s string) (err error) {
			tp.CustomSampleBank, err = parseInt(t.Section, "sampleIndex", s)
			return err
		}},
		{"volume", func(s string) (err error) {
			tp.SampleVolume, err = parseInt(t.Section, "volume", s)
			return err
		}},
		{"uninherited", func(s string) error {
			tp.TimingChange = s == "1"
			return nil
		}},
		{"effects", func(s string) error {
			e, err := parseInt(t.Section, "effects", s)
			tp.Kiai = e&1 != 0
			tp.OmitFirstBarSignature = e&8 != 0
			return err
		}},
	}
	for i, c := range cols {
		if i+2 >= len(parts) || parts[i+2] == "" {
			break
		}
		if err := c.set(parts[i+2]); err != nil {
			return err
		}
	}

	if beatLen < 0 {
		tp.TimingChange = false
	}
	if tp.TimingChange && beatLen == 0 {
		return malformed(t.Section, "beatLength", parts[1], nil)
	}
	tp.SliderVelocityMultiplier = 1
	if !tp.TimingChange {
		tp.SliderVelocityMultiplier = sliderVelocity(beatLen)
	}

	if n := len(p.b.TimingPoints); n > 0 && tm < p.b.TimingPoints[n-1].Time {
		return &ParseError{Kind: ErrMalformedSection, Section: t.Section, Line: t.Line, Text: t.Text}
	}
	p.b.TimingPoints = append(p.b.TimingPoints, tp)
	return nil
}

func (p *parser) colour(t Token) error {
	k, v := splitKeyVal(t.Text)
	rgb := strings.Split(v, ",")
	if len(rgb) < 3 {
		return malformed(t.Section, k, v, nil)
	}
	var c [3]uint8
	for i := range c {
		n, err := strconv.Atoi(strings.TrimSpace(rgb[i]))
		if err != nil {
			return malformed(t.Section, k, v, err)
		}
		c[i] = uint8(mathutil.Clamp(n, 0, 255))
	}
	col := Colour{R: c[0], G: c[1], B: c[2]}

	switch lk := strings.ToLower(k); {
	case strings.HasPrefix(lk, "combo"):
		p.b.Colours.Combo = append(p.b.Colours.Combo, col)
	case lk == "slidertrackoverride":
		p.b.Colours.SliderTrackOverride = &col
	case lk == "sliderborder":
		p.b.Colours.SliderBorder = &col
	}
	return nil
}

func (p *parser) hitObject(t Token) error {
	parts := splitCSV(t.Text)
	if len(parts) < 5 {
		return &FieldError{Kind: ErrMissingField, Section: t.Section, Key: "hitSound", Value: t.Text}
	}
	names := [...]string{"x", "y", "time", "type", "hitSound"}
	var head [5]float64
	for i := range head {
		limit := float64(MAX_PARSE_VALUE)
		if i < 2 {
			limit = MAX_COORDINATE_VALUE
		}
		f, err := parseFloatLimit(t.Section, names[i], parts[i], limit)
		if err != nil {
			return err
		}
		head[i] = f
	}

	flags := TypeFlags(head[3])
	base := BaseHO{
		Pos:   curves.Vec(head[0], head[1]),
		Time:  head[2] + p.offset,
		Type:  flags,
		Sound: HitSoundFlags(head[4]),
	}
	extra := parts[5:]

	var obj HitObject
	var err error
	switch {
	case flags&TypeHold != 0:
		obj, err = p.hold(t, base, extra)
	case flags&TypeSpinner != 0:
		obj, err = p.spinner(t, base, extra)
	case flags&TypeSlider != 0:
		obj, err = p.slider(t, base, extra)
	case flags&TypeCircle != 0:
		if len(extra) > 0 {
			base.HitSample = parseHitSample(extra[0])
		}
		obj = &Circle{BaseHO: base}
	default:
		return malformed(t.Section, "type", parts[3], nil)
	}
	if err != nil {
		return err
	}
	p.b.HitObjects = append(p.b.HitObjects, obj)
	return nil
}

func (p *parser) hold(t Token, base BaseHO, extra []string) (HitObject, error) {
	h := &Hold{BaseHO: base, EndTimeMS: base.Time}
	if len(extra) == 0 {
		return h, nil
	}
	endStr, sample, _ := strings.Cut(extra[0], ":")
	end, err := parseFloat(t.Section, "endTime", endStr)
	if err != nil {
		return nil, err
	}
	h.EndTimeMS = math.Max(end+p.offset, base.Time)
	h.HitSample = parseHitSample(sample)
	return h, nil
}

func (p *parser) spinner(t Token, base BaseHO, extra []string) (HitObject, error) {
	s := &Spinner{BaseHO: base, EndTimeMS: base.Time}
	if len(extra) > 0 && extra[0] != "" {
		end, err := parseFloat(t.Section, "endTime", extra[0])
		if err != nil {
			return nil, err
		}
		s.EndTimeMS = math.Max(end+p.offset, base.Time)
	}
	if len(extra) > 1 {
		s.HitSample = parseHitSample(extra[1])
	}
	return s, nil
}

// slider parses "curve,slides,length,edgeSounds,edgeSets,hitSample".
func (p *parser) slider(t Token, base BaseHO, extra []string) (HitObject, error) {
	if len(extra) == 0 || extra[0] == "" {
		return nil, &FieldError{Kind: ErrMissingField, Section: t.Section, Key: "curve", Value: t.Text}
	}
	kind, points, err := parseCurve(t.Section, base.Pos, extra[0])
	if err != nil {
		return nil, err
	}
	s := &Slider{BaseHO: base, CurveType: kind, ControlPoints: points, Slides: 1}

	if len(extra) > 1 && extra[1] != "" {
		n, err := parseInt(t.Section, "slides", extra[1])
		if err != nil {
			return nil, err
		}
		if n > MAX_REPEAT_COUNT {
			return nil, malformed(t.Section, "slides", extra[1], errOutOfRange)
		}
		s.Slides = max(n, 1)
	}
	if len(extra) > 2 && extra[2] != "" {
		l, err := parseFloat(t.Section, "length", extra[2])
		if err != nil {
			return nil, err
		}
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return nil, malformed(t.Section, "length", extra[2], nil)
		}
		s.Length = l
	}
	if len(extra) > 3 && extra[3] != "" {
		for _, n := range strings.Split(extra[3], "|") {
			v, _ := strconv.Atoi(n)
			s.EdgeSounds = append(s.EdgeSounds, HitSoundFlags(v))
		}
	}
	if len(extra) > 4 && extra[4] != "" {
		for _, e := range strings.Split(extra[4], "|") {
			ns, as := parseEdgeAddPair(e)
			s.EdgeAdditions = append(s.EdgeAdditions, EdgeAdd{NormalSet: ns, AdditionSet: as})
		}
	}
	if len(extra) > 5 {
		s.HitSample = parseHitSample(extra[5])
	}
	return s, nil
}

// parseCurve converts "B|x:y|x:y|..." into a curve kind and its control
// points, head first. Old maps repeat the head as the first point.
func parseCurve(section string, head curves.Vector2, field string) (curves.Kind, []curves.Vector2, error) {
	typ, rest, _ := strings.Cut(field, "|")
	kind := curves.ParseKind(strings.TrimSpace(typ))

	points := []curves.Vector2{head}
	if rest == "" {
		return kind, points, nil
	}
	for i, tok := range strings.Split(rest, "|") {
		xs, ys, ok := strings.Cut(strings.TrimSpace(tok), ":")
		if !ok {
			return 0, nil, malformed(section, "curve", field, nil)
		}
		x, errX := parseFloatLimit(section, "curve", xs, MAX_COORDINATE_VALUE)
		y, errY := parseFloatLimit(section, "curve", ys, MAX_COORDINATE_VALUE)
		if err := cmp.Or(errX, errY); err != nil {
			return 0, nil, err
		}
		pt := curves.Vec(x, y)
		if i == 0 && pt == head && kind != curves.Bezier {
			continue
		}
		points = append(points, pt)
	}
	return kind, points, nil
}

// ---------- parsing helpers ----------

func splitKeyVal(line string) (key, val string) {
	k, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(k), strings.TrimSpace(v)
}

// parseInt accepts integral and decimal notation; decimals are truncated.
func parseInt(section, key, s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		if v > MAX_PARSE_VALUE || v < -MAX_PARSE_VALUE {
			return 0, malformed(section, key, s, errOutOfRange)
		}
		return v, nil
	}
	f, err := parseFloat(section, key, s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseFloat(section, key, s string) (float64, error) {
	return parseFloatLimit(section, key, s, MAX_PARSE_VALUE)
}

// parseFloatLimit rejects values that are not finite or whose magnitude
// exceeds limit.
func parseFloatLimit(section, key, s string, limit float64) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, malformed(section, key, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed(section, key, s, errNotFinite)
	}
	if math.Abs(v) > limit {
		return 0, malformed(section, key, s, errOutOfRange)
	}
	return v, nil
}

func parseBoolInt(s string) bool { return strings.TrimSpace(s) == "1" }

func standardisePath(p string) string {
	p = strings.Trim(p, "\"")
	return strings.ReplaceAll(p, "\\", "/")
}

func cleanFilename(s string) string {
	return standardisePath(s)
}

func splitCSV(line string) []string {
	var out []string
	var cur strings.Builder
	inQ := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case '"':
			inQ = !inQ
			cur.WriteByte(c)
		case ',':
			if inQ {
				cur.WriteByte(c)
			} else {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	return append(out, strings.TrimSpace(cur.String()))
}

func normaliseSampleSet(id int) string {
	switch id {
	case 1:
		return "normal"
	case 2:
		return "soft"
	case 3:
		return "drum"
	default:
		return "none"
	}
}

func applyDifficultyRestrictions(d *Difficulty, mode Mode) {
	d.HPDrainRate = mathutil.Clamp(d.HPDrainRate, 0, 10)
	d.OverallDifficulty = mathutil.Clamp(d.OverallDifficulty, 0, 10)
	d.ApproachRate = mathutil.Clamp(d.ApproachRate, 0, 10)
	if mode == ModeMania {
		d.CircleSize = mathutil.Clamp(d.CircleSize, 1, MAX_MANIA_KEY_COUNT)
	} else {
		d.CircleSize = mathutil.Clamp(d.CircleSize, 0, 10)
	}
	d.SliderMultiplier = mathutil.Clamp(d.SliderMultiplier, 0.4, 3.6)
	d.SliderTickRate = mathutil.Clamp(d.SliderTickRate, 0.5, 8.0)
}

// --- object-param parsing ---

func parseHitSample(s string) HitSampleSpec {
	// normalSet:additionSet:customIndex:volume:filename
	parts := strings.Split(s, ":")
	get := func(i int) int {
		if i < len(parts) {
			v, _ := strconv.Atoi(strings.TrimSpace(parts[i]))
			return v
		}
		return 0
	}
	ss := HitSampleSpec{
		NormalSet:   toSampleSet(get(0)),
		AdditionSet: toSampleSet(get(1)),
		Index:       get(2),
		Volume:      get(3),
	}
	if len(parts) > 4 {
		ss.Filename = strings.Trim(strings.TrimSpace(parts[4]), "\"")
	}
	return ss
}

func toSampleSet(id int) SampleSet {
	switch id {
	case 1:
		return SampleNormal
	case 2:
		return SampleSoft
	case 3:
		return SampleDrum
	default:
		return SampleNone
	}
}

func parseEdgeAddPair(s string) (SampleSet, SampleSet) {
	a, b, _ := strings.Cut(s, ":")
	na, _ := strconv.Atoi(strings.TrimSpace(a))
	nb, _ := strconv.Atoi(strings.TrimSpace(b))
	return toSampleSet(na), toSampleSet(nb)
}
