package dotosr

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"osukit/dotosu"
	"osukit/internal/binio"
	"osukit/mods"
)

func sampleReplay() *Replay {
	seed := uint32(7424)
	return &Replay{
		Mode:       dotosu.ModeStandard,
		Version:    20240101,
		BeatmapMD5: "0123456789abcdef0123456789abcdef",
		Player:     "peppy",
		ReplayMD5:  "fedcba9876543210fedcba9876543210",
		Count300:   120,
		Count100:   4,
		Count50:    1,
		CountMiss:  2,
		Score:      1234567,
		MaxCombo:   300,
		Mods:       mods.Hidden | mods.DoubleTime,
		LifeGraph:  []LifePoint{{Time: 0, Life: 1}, {Time: 5000, Life: 0.75}},
		Timestamp:  binio.DotnetEpochTicks + 10_000_000*60,
		ScoreID:    4000000001,
		Frames: []Frame{
			{Delta: 0, X: 256, Y: -500},
			{Delta: -1, X: 256, Y: -500},
			{Delta: 16, X: 100.5, Y: 200.25, Keys: M1 | K1},
			{Delta: 17, X: 101, Y: 201, Keys: M1 | K1},
			{Delta: 16, X: 102, Y: 202},
		},
		Seed: &seed,
	}
}

func encode(t *testing.T, rep *Replay) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, rep); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeEncodedReplay(t *testing.T) {
	want := sampleReplay()
	got, err := DecodeBytes(encode(t, want))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	if got.Player != want.Player || got.BeatmapMD5 != want.BeatmapMD5 || got.ReplayMD5 != want.ReplayMD5 {
		t.Errorf("strings = %q %q %q", got.Player, got.BeatmapMD5, got.ReplayMD5)
	}
	if got.Mods != want.Mods || got.Score != want.Score || got.MaxCombo != want.MaxCombo || got.ScoreID != want.ScoreID {
		t.Errorf("header = %+v", got)
	}
	if len(got.LifeGraph) != 2 || got.LifeGraph[1] != want.LifeGraph[1] {
		t.Errorf("life graph = %+v", got.LifeGraph)
	}
	if got.Seed == nil || *got.Seed != 7424 {
		t.Errorf("seed = %v", got.Seed)
	}
	if !got.Time().Equal(time.Unix(60, 0)) {
		t.Errorf("time = %v", got.Time())
	}

	if len(got.Frames) != len(want.Frames) {
		t.Fatalf("got %d frames, want %d", len(got.Frames), len(want.Frames))
	}
	for i, f := range got.Frames {
		w := want.Frames[i]
		if f.Delta != w.Delta || f.X != w.X || f.Y != w.Y || f.Keys != w.Keys {
			t.Errorf("frame %d = %+v, want %+v", i, f, w)
		}
	}
}

func TestFrameTimesSumToLength(t *testing.T) {
	rep, err := DecodeBytes(encode(t, sampleReplay()))
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, f := range rep.Frames {
		if f.Delta == SeedDelta {
			t.Fatal("seed record returned as a frame")
		}
		sum += f.Delta
		if f.Time != sum {
			t.Errorf("frame time %d, running sum %d", f.Time, sum)
		}
	}
	if rep.Length != sum || sum != 48 {
		t.Errorf("length = %d, sum = %d, want 48", rep.Length, sum)
	}
}

func TestParseFrames(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		frames int
		seed   bool
	}{
		{"trailing comma", "10|1|2|0,5|3|4|1,", 2, false},
		{"seed last", "10|1|2|0,-12345|0|0|99,", 1, true},
		{"seed mid stream is a frame", "-12345|0|0|99,10|1|2|0", 2, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, seed, err := parseFrames(tt.in)
			if err != nil {
				t.Fatalf("parseFrames: %v", err)
			}
			if len(frames) != tt.frames || (seed != nil) != tt.seed {
				t.Errorf("frames = %d, seed = %v", len(frames), seed)
			}
		})
	}

	for _, in := range []string{"10|1|2", "10|1|2|4294967296", "10|1|2|-1"} {
		if _, _, err := parseFrames(in); !errors.Is(err, ErrMalformedReplay) {
			t.Errorf("parseFrames(%q) err = %v", in, err)
		}
	}
}

func TestFrameKeysKeepHighBits(t *testing.T) {
	frames, _, err := parseFrames("10|1|2|1024,5|3|4|15")
	if err != nil {
		t.Fatal(err)
	}
	if frames[0].Keys != 1024 || frames[0].Keys.Clicks() != 0 {
		t.Errorf("keys = %d, clicks = %d", frames[0].Keys, frames[0].Keys.Clicks())
	}
	if frames[1].Keys.Clicks() != M1|M2|K1|K2 {
		t.Errorf("clicks = %d", frames[1].Keys.Clicks())
	}
}

func TestDecodeErrors(t *testing.T) {
	full := encode(t, sampleReplay())

	badMode := bytes.Clone(full)
	badMode[0] = 9

	// walk the header to the LZMA properties byte and make it invalid
	hr := newReader(full)
	hr.U8("")
	hr.U32("")
	hr.Str("")
	hr.Str("")
	hr.Str("")
	for range 6 {
		hr.U16("")
	}
	hr.U32("")
	hr.U16("")
	hr.U8("")
	hr.U32("")
	hr.Str("")
	hr.U64("")
	hr.U32("")
	if hr.Err() != nil {
		t.Fatal(hr.Err())
	}
	corrupt := bytes.Clone(full)
	corrupt[hr.Offset()] = 0xff

	hugeDict := bytes.Clone(full)
	copy(hugeDict[hr.Offset()+1:], []byte{0xff, 0xff, 0xff, 0x7f})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncatedReplay},
		{"header only", full[:20], ErrTruncatedReplay},
		{"cut inside frame data", full[:len(full)-40], ErrTruncatedReplay},
		{"invalid mode", badMode, ErrMalformedReplay},
		{"bad string marker", append([]byte{0, 1, 0, 0, 0, 0x07}, full[6:]...), ErrMalformedReplay},
		{"corrupt lzma", corrupt, ErrDecompression},
		{"oversized lzma dictionary", hugeDict, ErrDecompression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := DecodeBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if rep != nil {
				t.Error("replay returned alongside an error")
			}
			var re *ReplayError
			if !errors.As(err, &re) {
				t.Errorf("err is %T, want *ReplayError", err)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	r := &Replay{Count300: 3, Count100: 0, Count50: 0, CountMiss: 1}
	if got := r.Accuracy(); got != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", got)
	}
}
