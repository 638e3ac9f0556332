package dotosu

import (
	"archive/zip"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"osukit/curves"
	"osukit/internal/logging"
)

const testHeader = `osu file format v14

[General]
AudioFilename: audio.mp3
Mode: 0

[Metadata]
Title:Test
Artist:Someone
Version:Normal

[Difficulty]
HPDrainRate:5
CircleSize:4
OverallDifficulty:8
ApproachRate:9
SliderMultiplier:1.4
SliderTickRate:1

[Events]
0,0,"bg.jpg",0,0
2,5000,6000

[TimingPoints]
0,500,4,2,0,60,1,0
1000,-50,4,2,0,60,0,0
`

var defaultObjects = []string{
	"100,100,0,1,0,0:0:0:0:",
	"200,100,500,2,0,B|300:100,1,200",
	"256,192,3000,12,0,4000,0:0:0:0:",
	"300,300,1500,2,0,P|350:350|400:300,2,100",
}

func testMap(objects []string) string {
	if objects == nil {
		objects = defaultObjects
	}
	return testHeader + "\n[HitObjects]\n" + strings.Join(objects, "\n") + "\n"
}

func mustDecode(t *testing.T, src string) *Beatmap {
	t.Helper()
	b, err := DecodeBytes([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func TestDecodeModel(t *testing.T) {
	src := testMap(nil)
	b := mustDecode(t, src)

	if b.FormatVersion != 14 {
		t.Errorf("format = %d", b.FormatVersion)
	}
	if b.Metadata.Title != "Test" || b.Metadata.BackgroundFile != "bg.jpg" {
		t.Errorf("metadata = %+v", b.Metadata)
	}
	if b.Difficulty.ApproachRate != 9 || b.Difficulty.SliderMultiplier != 1.4 {
		t.Errorf("difficulty = %+v", b.Difficulty)
	}
	if b.General.StackLeniency != 0.7 {
		t.Errorf("stack leniency default = %v", b.General.StackLeniency)
	}
	if len(b.Breaks) != 1 || b.Breaks[0] != (BreakPeriod{Start: 5000, End: 6000}) {
		t.Errorf("breaks = %+v", b.Breaks)
	}

	sum := md5.Sum([]byte(src))
	if b.MD5 != hex.EncodeToString(sum[:]) {
		t.Errorf("md5 = %s", b.MD5)
	}

	c, s, sp := b.Counts()
	if c != 1 || s != 2 || sp != 1 {
		t.Errorf("counts = %d/%d/%d", c, s, sp)
	}
}

func TestHitObjectsSortedByStartTime(t *testing.T) {
	b := mustDecode(t, testMap(nil))
	for i := 1; i < len(b.HitObjects); i++ {
		if b.HitObjects[i].StartTime() < b.HitObjects[i-1].StartTime() {
			t.Fatalf("object %d starts at %v before %v", i, b.HitObjects[i].StartTime(), b.HitObjects[i-1].StartTime())
		}
	}
	if _, ok := b.HitObjects[3].(*Spinner); !ok {
		t.Errorf("last object is %T, want *Spinner", b.HitObjects[3])
	}
}

func TestTimingIndexTwoLevelLookup(t *testing.T) {
	b := mustDecode(t, testMap(nil))
	tests := []struct {
		t              float64
		beat, velocity float64
	}{
		{-100, 500, 1},
		{0, 500, 1},
		{999, 500, 1},
		{1000, 500, 2},
		{1500, 500, 2},
	}
	for _, tt := range tests {
		beat, vel := b.Timing.At(tt.t)
		if beat != tt.beat || math.Abs(vel-tt.velocity) > 1e-12 {
			t.Errorf("At(%v) = (%v, %v), want (%v, %v)", tt.t, beat, vel, tt.beat, tt.velocity)
		}
	}
}

func TestTimingIndexSameOffset(t *testing.T) {
	idx := NewTimingIndex([]TimingPoint{
		{Time: 0, BeatLength: 400, TimingChange: true, SliderVelocityMultiplier: 1},
		{Time: 2000, BeatLength: 300, TimingChange: true, SliderVelocityMultiplier: 1},
		{Time: 2000, BeatLength: -25, SliderVelocityMultiplier: 4},
	})
	if idx.Len() != 2 {
		t.Errorf("len = %d, want 2", idx.Len())
	}
	beat, vel := idx.At(2500)
	if beat != 300 || vel != 4 {
		t.Errorf("At(2500) = (%v, %v), want (300, 4)", beat, vel)
	}
	pts := idx.Points()
	for i := 1; i < len(pts); i++ {
		if pts[i].Time <= pts[i-1].Time {
			t.Errorf("index not strictly increasing at %d", i)
		}
	}
}

func TestSliderMaterialization(t *testing.T) {
	b := mustDecode(t, testMap(nil))
	s, ok := b.HitObjects[1].(*Slider)
	if !ok {
		t.Fatalf("object 1 is %T", b.HitObjects[1])
	}

	want := 200.0 / 140 * 500
	if got := s.EndTime() - s.StartTime(); math.Abs(got-want) > 1e-9 {
		t.Errorf("duration = %v, want %v", got, want)
	}
	if math.Abs(s.Path.Length()-s.Length) > 1e-3 {
		t.Errorf("path length = %v, want %v", s.Path.Length(), s.Length)
	}
	// 200px extends the 100px linear segment along +x
	if end := s.EndPosition(); math.Abs(end.X()-400) > 1e-6 || math.Abs(end.Y()-100) > 1e-6 {
		t.Errorf("end = %v", end)
	}
	// tick every 140px, strictly before 199.99px
	if s.TickCount != 1 || s.MaxCombo() != 3 {
		t.Errorf("ticks = %d, combo = %d", s.TickCount, s.MaxCombo())
	}

	arc := b.HitObjects[2].(*Slider)
	if arc.Velocity != 2 {
		t.Errorf("velocity = %v, want 2", arc.Velocity)
	}
	if got, want := arc.Duration(), 100.0/280*500*2; math.Abs(got-want) > 1e-9 {
		t.Errorf("repeat duration = %v, want %v", got, want)
	}
	if arc.Path.Type != curves.Perfect || arc.Path.Fallback != nil {
		t.Errorf("arc path = %v, fallback %v", arc.Path.Type, arc.Path.Fallback)
	}
	if arc.EndPosition() != arc.Position() {
		t.Errorf("two slides should end at the head, got %v", arc.EndPosition())
	}
}

func TestSliderPositionAt(t *testing.T) {
	b := mustDecode(t, testMap([]string{"0,0,0,2,0,L|100:0,2,100"}))
	s := b.HitObjects[0].(*Slider)
	half := s.SpanDuration / 2
	tests := []struct {
		t float64
		x float64
	}{
		{0, 0},
		{half, 50},
		{s.SpanDuration, 100},
		{s.SpanDuration + half, 50},
		{s.End + 10, 0},
	}
	for _, tt := range tests {
		if got := s.PositionAt(tt.t); math.Abs(got.X()-tt.x) > 1e-6 {
			t.Errorf("PositionAt(%v).X = %v, want %v", tt.t, got.X(), tt.x)
		}
	}
}

func TestPerfectCurveFallbackIsRecorded(t *testing.T) {
	b := mustDecode(t, testMap([]string{"0,0,0,2,0,P|50:50|100:0|150:50,1,150"}))
	s := b.HitObjects[0].(*Slider)
	if s.Path.Type != curves.Bezier {
		t.Errorf("path type = %v, want bezier", s.Path.Type)
	}
	if len(b.Warnings) != 1 || !errors.Is(b.Warnings[0], curves.ErrInvalidCurve) {
		t.Fatalf("warnings = %v", b.Warnings)
	}
	var ce *curves.CurveError
	if !errors.As(b.Warnings[0], &ce) || ce.Points != 4 {
		t.Errorf("warning = %#v", b.Warnings[0])
	}
}

func TestEarlyVersionOffset(t *testing.T) {
	src := strings.Replace(testMap([]string{"100,100,1000,1,0"}), "v14", "v4", 1)
	b := mustDecode(t, src)
	if got := b.HitObjects[0].StartTime(); got != 1024 {
		t.Errorf("start = %v, want 1024", got)
	}
	if got := b.TimingPoints[1].Time; got != 1024 {
		t.Errorf("timing point = %v, want 1024", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			"hit objects before difficulty",
			"osu file format v14\n[HitObjects]\n100,100,0,1,0\n[Difficulty]\nCircleSize:4\n",
			ErrMalformedSection,
		},
		{
			"unsupported version",
			strings.Replace(testMap(nil), "v14", "v99", 1),
			ErrVersionUnsupported,
		},
		{
			"missing slider multiplier",
			strings.Replace(testMap(nil), "SliderMultiplier:1.4\n", "", 1),
			ErrMissingField,
		},
		{
			"malformed difficulty value",
			strings.Replace(testMap(nil), "CircleSize:4", "CircleSize:four", 1),
			ErrMalformedField,
		},
		{
			"malformed hit object time",
			testMap([]string{"100,100,soon,1,0"}),
			ErrMalformedField,
		},
		{
			"infinite hit object time",
			testMap([]string{"100,100,inf,1,0"}),
			ErrMalformedField,
		},
		{
			"hit object time past the parse limit",
			testMap([]string{"100,100,1e19,1,0", "100,100,1.00000000001e19,1,0"}),
			ErrMalformedField,
		},
		{
			"too many slides",
			testMap([]string{"100,100,500,2,0,L|200:100,2147483647,100"}),
			ErrMalformedField,
		},
		{
			"slider length past the parse limit",
			testMap([]string{"100,100,500,2,0,L|200:100,1,1e12"}),
			ErrMalformedField,
		},
		{
			"curve point off the coordinate range",
			testMap([]string{"0,0,0,2,0,B|1e30:0|0:1e30,1,100"}),
			ErrMalformedField,
		},
		{
			"position off the coordinate range",
			testMap([]string{"200000,0,0,1,0"}),
			ErrMalformedField,
		},
		{
			"combo past the limit",
			testMap([]string{"100,100,500,2,0,L|200:100,9000,100000"}),
			ErrMalformedField,
		},
		{
			"malformed curve point",
			testMap([]string{"100,100,0,2,0,B|300-100,1,100"}),
			ErrMalformedField,
		},
		{
			"unknown object type",
			testMap([]string{"100,100,0,0,0"}),
			ErrMalformedField,
		},
		{
			"decreasing timing points",
			strings.Replace(testMap(nil), "1000,-50", "-10,-50", 1),
			ErrMalformedSection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DecodeBytes([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if b != nil {
				t.Error("a beatmap was returned alongside the error")
			}
		})
	}
}

func TestSliderTicksStopAtTickLength(t *testing.T) {
	b := mustDecode(t, testMap([]string{"100,100,500,2,0,L|200:100,1,2000000000"}))
	s := b.HitObjects[0].(*Slider)
	if want := int(math.Ceil(maxTickLength/s.TickDistance)) - 1; s.TickCount != want {
		t.Errorf("tick count = %d, want %d", s.TickCount, want)
	}
	if s.End <= s.Time {
		t.Errorf("end = %v", s.End)
	}
}

func TestFieldErrorContext(t *testing.T) {
	_, err := DecodeBytes([]byte(strings.Replace(testMap(nil), "HPDrainRate:5\n", "", 1)))
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FieldError", err)
	}
	if fe.Section != "Difficulty" || fe.Key != "HPDrainRate" {
		t.Errorf("field error = %+v", fe)
	}
}

func TestDecodeArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"Artist - Title (Mapper) [Normal].osu": testMap(nil),
		"nested/Other.osu":                     testMap(nil),
		"audio.mp3":                            "not a map",
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	logging.Set(slog.New(slog.NewTextHandler(&logs, nil)))
	defer logging.Set(nil)

	maps, err := DecodeArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeArchive: %v", err)
	}
	if len(maps) != 1 {
		t.Fatalf("got %d maps, want 1", len(maps))
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "nested/Other.osu") {
		t.Errorf("no warning for the nested entry: %q", logs.String())
	}
	if b := maps["Artist - Title (Mapper) [Normal].osu"]; b == nil || b.Metadata.Version != "Normal" {
		t.Errorf("maps = %v", maps)
	}

	if _, err := DecodeArchive([]byte("not a zip")); err == nil {
		t.Error("expected an error for a non-zip archive")
	}
}

func TestDecodeDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.osu":          testMap(nil),
		"sub/b.OSU":      testMap([]string{"100,100,0,1,0"}),
		"sub/broken.osu": testMap([]string{"100,100,soon,1,0"}),
		"notes.txt":      "not a map",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	maps, err := DecodeDir(dir)
	if !errors.Is(err, ErrMalformedField) {
		t.Errorf("err = %v, want %v", err, ErrMalformedField)
	}
	if len(maps) != 2 {
		t.Fatalf("got %d maps, want 2", len(maps))
	}
	if n := len(maps[1].HitObjects); n != 1 {
		t.Errorf("second map has %d objects, want 1", n)
	}

	if err := os.Remove(filepath.Join(dir, "sub", "broken.osu")); err != nil {
		t.Fatal(err)
	}
	if maps, err = DecodeDir(dir); err != nil || len(maps) != 2 {
		t.Errorf("DecodeDir = %d maps, %v", len(maps), err)
	}

	if _, err := DecodeDir(filepath.Join(dir, "a.osu")); err == nil {
		t.Error("expected an error for a file path")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := strings.Replace(testMap(append(slices.Clone(defaultObjects),
		"64,320,6000,128,0,6500:0:0:0:0:",
		"50,60,7000,6,2,L|80:90|120:60,3,90,2|0|8|0,1:2|0:0|2:1|0:0,2:0:1:70:hit.wav",
	)), "[Events]", "[Editor]\nBookmarks: 100,2000\nDistanceSpacing: 1.2\n\n[Colours]\nCombo1 : 255,128,0\nSliderBorder : 10,20,30\n\n[Events]", 1)
	first := mustDecode(t, src)

	var buf bytes.Buffer
	if err := Encode(&buf, first); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second := mustDecode(t, buf.String())

	if first.General != second.General || first.Metadata != second.Metadata || first.Difficulty != second.Difficulty {
		t.Errorf("header sections differ:\n%+v\n%+v", first.General, second.General)
	}
	if !slices.Equal(first.Editor.Bookmarks, second.Editor.Bookmarks) || first.Editor.DistanceSpacing != second.Editor.DistanceSpacing {
		t.Errorf("editor = %+v, want %+v", second.Editor, first.Editor)
	}
	if !slices.Equal(first.Colours.Combo, second.Colours.Combo) || second.Colours.SliderBorder == nil ||
		*second.Colours.SliderBorder != *first.Colours.SliderBorder {
		t.Errorf("colours = %+v", second.Colours)
	}
	if !slices.Equal(first.Breaks, second.Breaks) || !slices.Equal(first.TimingPoints, second.TimingPoints) {
		t.Errorf("breaks or timing points differ")
	}
	if len(first.HitObjects) != len(second.HitObjects) || first.MaxCombo() != second.MaxCombo() {
		t.Fatalf("objects %d/%d, combo %d/%d", len(first.HitObjects), len(second.HitObjects), first.MaxCombo(), second.MaxCombo())
	}
	for i, a := range first.HitObjects {
		b := second.HitObjects[i]
		if a.Kind() != b.Kind() || a.StartTime() != b.StartTime() || a.EndTime() != b.EndTime() ||
			a.Position() != b.Position() || a.EndPosition() != b.EndPosition() ||
			a.Flags() != b.Flags() || a.HitSound() != b.HitSound() || a.Sample() != b.Sample() {
			t.Errorf("object %d: %+v, want %+v", i, b, a)
		}
	}
	s := second.HitObjects[len(second.HitObjects)-1].(*Slider)
	if len(s.EdgeSounds) != 4 || s.EdgeAdditions[0] != (EdgeAdd{SampleNormal, SampleSoft}) || s.HitSample.Filename != "hit.wav" {
		t.Errorf("slider samples = %+v %+v %+v", s.EdgeSounds, s.EdgeAdditions, s.HitSample)
	}

	var again bytes.Buffer
	if err := Encode(&again, second); err != nil {
		t.Fatal(err)
	}
	if again.String() != buf.String() {
		t.Errorf("second encoding differs:\n%s\n---\n%s", again.String(), buf.String())
	}
}

func TestEncodeEarlyVersion(t *testing.T) {
	src := strings.Replace(testMap([]string{"100,100,1000,1,0"}), "v14", "v4", 1)
	var buf bytes.Buffer
	if err := Encode(&buf, mustDecode(t, src)); err != nil {
		t.Fatal(err)
	}
	b := mustDecode(t, buf.String())
	if b.FormatVersion != 5 || b.HitObjects[0].StartTime() != 1024 {
		t.Errorf("version %d, start %v", b.FormatVersion, b.HitObjects[0].StartTime())
	}
}
