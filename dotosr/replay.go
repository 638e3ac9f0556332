// Package dotosr decodes and encodes .osr replay files.
package dotosr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/itchio/lzma"

	"osukit/dotosu"
	"osukit/internal/binio"
	"osukit/internal/logging"
	"osukit/mods"
)

const (
	// SeedDelta marks the final record that carries the RNG seed.
	SeedDelta = -12345

	// scoreIDVersion is the first game version writing an 8 byte score id.
	scoreIDVersion = 20140721

	maxFrameData = 64 << 20

	lzmaHeaderSize = 13
	// a dictionary larger than the frame data limit is never filled
	maxDictSize = maxFrameData
)

// Buttons is the key state of a frame. Bits above Smoke are kept as
// written.
type Buttons uint32

const (
	M1 Buttons = 1 << iota
	M2
	K1
	K2
	Smoke
)

// Clicks masks out the smoke key.
func (b Buttons) Clicks() Buttons { return b & (M1 | M2 | K1 | K2) }

type Frame struct {
	// Delta is the time since the previous frame in ms.
	Delta int64
	// Time is the running sum of deltas.
	Time int64
	X, Y float32
	Keys Buttons
}

type LifePoint struct {
	Time int64
	Life float64
}

type Replay struct {
	Mode       dotosu.Mode
	Version    int32
	BeatmapMD5 string
	Player     string
	ReplayMD5  string

	Count300, Count100, Count50 uint16
	CountGeki, CountKatu        uint16
	CountMiss                   uint16

	Score    int32
	MaxCombo uint16
	Perfect  bool
	Mods     mods.Mods

	LifeGraph []LifePoint
	// Timestamp is in .NET ticks, see Time.
	Timestamp int64
	ScoreID   int64
	// TargetAccuracy is only set for target practice plays.
	TargetAccuracy float64

	Frames []Frame
	Seed   *uint32
	// Length is the sum of all frame deltas.
	Length int64
}

// Time converts the timestamp to UTC wall time.
func (r *Replay) Time() time.Time {
	return binio.TicksTime(r.Timestamp)
}

// Accuracy in [0, 1] as shown on the osu!standard results screen.
func (r *Replay) Accuracy() float64 {
	total := float64(r.Count300) + float64(r.Count100) + float64(r.Count50) + float64(r.CountMiss)
	if total == 0 {
		return 1
	}
	return (300*float64(r.Count300) + 100*float64(r.Count100) + 50*float64(r.Count50)) / (300 * total)
}

func Decode(r io.Reader) (*Replay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a full replay. No Replay is returned on error.
func DecodeBytes(data []byte) (*Replay, error) {
	rd := newReader(data)
	rep := &Replay{}

	mode := rd.U8("mode")
	if rd.Err() == nil && mode > uint8(dotosu.ModeMania) {
		rd.FailAt(0, ErrMalformedReplay, "mode", fmt.Errorf("mode %d", mode))
	}
	rep.Mode = dotosu.Mode(mode)
	rep.Version = int32(rd.U32("version"))
	rep.BeatmapMD5 = rd.Str("beatmap md5")
	rep.Player = rd.Str("player")
	rep.ReplayMD5 = rd.Str("replay md5")
	rep.Count300 = rd.U16("count 300")
	rep.Count100 = rd.U16("count 100")
	rep.Count50 = rd.U16("count 50")
	rep.CountGeki = rd.U16("count geki")
	rep.CountKatu = rd.U16("count katu")
	rep.CountMiss = rd.U16("count miss")
	rep.Score = int32(rd.U32("score"))
	rep.MaxCombo = rd.U16("max combo")
	rep.Perfect = rd.U8("perfect") == 1
	rep.Mods = mods.Mods(rd.U32("mods"))
	life := rd.Str("life graph")
	rep.Timestamp = int64(rd.U64("timestamp"))

	lengthAt := rd.Offset()
	n := int32(rd.U32("data length"))
	if rd.Err() == nil && n < 0 {
		rd.FailAt(lengthAt, ErrMalformedReplay, "data length", fmt.Errorf("length %d", n))
	}
	compressed := rd.Take(int(n), "replay data")
	if err := rd.Err(); err != nil {
		return nil, err
	}

	// the score id is optional; older game versions wrote 4 bytes
	switch {
	case rep.Version >= scoreIDVersion && rd.Remaining() >= 8:
		rep.ScoreID = int64(rd.U64("score id"))
	case rep.Version < scoreIDVersion && rd.Remaining() >= 4:
		rep.ScoreID = int64(rd.U32("score id"))
	}
	if rep.Mods&mods.TargetPractice != 0 && rd.Remaining() >= 8 {
		rep.TargetAccuracy = rd.F64("target accuracy")
	}

	var err error
	if rep.LifeGraph, err = parseLifeGraph(life); err != nil {
		return nil, err
	}
	if len(compressed) > 0 {
		if err := rep.decodeFrames(compressed); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func (rep *Replay) decodeFrames(compressed []byte) error {
	// properties byte, dictionary size and uncompressed size
	if len(compressed) < lzmaHeaderSize {
		return &ReplayError{Kind: ErrDecompression, Field: "replay data", Err: errors.New("short lzma header")}
	}
	if dict := binary.LittleEndian.Uint32(compressed[1:5]); dict > maxDictSize {
		return &ReplayError{Kind: ErrDecompression, Field: "replay data",
			Err: fmt.Errorf("lzma dictionary of %s", humanize.IBytes(uint64(dict)))}
	}
	zr := lzma.NewReader(bytes.NewReader(compressed))
	defer zr.Close()
	raw, err := io.ReadAll(io.LimitReader(zr, maxFrameData+1))
	if err != nil {
		return &ReplayError{Kind: ErrDecompression, Field: "replay data", Err: err}
	}
	if len(raw) > maxFrameData {
		return &ReplayError{Kind: ErrDecompression, Field: "replay data", Err: errors.New("frame data too large")}
	}
	logging.Logger().Debug("decompressed replay frames",
		"player", rep.Player, "compressed", humanize.Bytes(uint64(len(compressed))),
		"raw", humanize.Bytes(uint64(len(raw))))

	frames, seed, err := parseFrames(string(raw))
	if err != nil {
		return err
	}
	rep.Frames = frames
	rep.Seed = seed
	if len(frames) > 0 {
		rep.Length = frames[len(frames)-1].Time
	}
	return nil
}

// parseFrames reads "delta|x|y|keys" records separated by commas. A
// final record with SeedDelta carries the RNG seed in its keys field.
func parseFrames(s string) ([]Frame, *uint32, error) {
	records := strings.Split(s, ",")
	for len(records) > 0 && strings.TrimSpace(records[len(records)-1]) == "" {
		records = records[:len(records)-1]
	}

	var seed *uint32
	frames := make([]Frame, 0, len(records))
	var now int64
	for i, rec := range records {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		f := strings.Split(rec, "|")
		if len(f) < 4 {
			return nil, nil, frameError(i, rec, nil)
		}
		delta, err := strconv.ParseInt(f[0], 10, 64)
		if err != nil {
			return nil, nil, frameError(i, rec, err)
		}
		if delta == SeedDelta && i == len(records)-1 {
			v, err := strconv.ParseUint(f[3], 10, 32)
			if err != nil {
				return nil, nil, frameError(i, rec, err)
			}
			sv := uint32(v)
			seed = &sv
			break
		}
		x, errX := strconv.ParseFloat(f[1], 32)
		y, errY := strconv.ParseFloat(f[2], 32)
		keys, errK := strconv.ParseUint(f[3], 10, 32)
		if err := errors.Join(errX, errY, errK); err != nil {
			return nil, nil, frameError(i, rec, err)
		}
		now += delta
		frames = append(frames, Frame{Delta: delta, Time: now, X: float32(x), Y: float32(y), Keys: Buttons(keys)})
	}
	return frames, seed, nil
}

func frameError(i int, rec string, err error) error {
	return &ReplayError{Kind: ErrMalformedReplay, Field: fmt.Sprintf("frame %d %q", i, rec), Err: err}
}

func parseLifeGraph(s string) ([]LifePoint, error) {
	var out []LifePoint
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		ts, ls, ok := strings.Cut(p, "|")
		if !ok {
			return nil, &ReplayError{Kind: ErrMalformedReplay, Field: "life graph"}
		}
		t, errT := strconv.ParseInt(ts, 10, 64)
		l, errL := strconv.ParseFloat(ls, 64)
		if err := errors.Join(errT, errL); err != nil {
			return nil, &ReplayError{Kind: ErrMalformedReplay, Field: "life graph", Err: err}
		}
		out = append(out, LifePoint{Time: t, Life: l})
	}
	return out, nil
}

// Encode writes rep in the .osr layout, compressing frames and seed.
func Encode(w io.Writer, rep *Replay) error {
	var frames bytes.Buffer
	zw := lzma.NewWriter(&frames)
	if _, err := io.WriteString(zw, formatFrames(rep)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	out := &binio.Writer{}
	out.U8(uint8(rep.Mode))
	out.U32(uint32(rep.Version))
	out.Str(rep.BeatmapMD5)
	out.Str(rep.Player)
	out.Str(rep.ReplayMD5)
	out.U16(rep.Count300)
	out.U16(rep.Count100)
	out.U16(rep.Count50)
	out.U16(rep.CountGeki)
	out.U16(rep.CountKatu)
	out.U16(rep.CountMiss)
	out.U32(uint32(rep.Score))
	out.U16(rep.MaxCombo)
	out.Bool(rep.Perfect)
	out.U32(uint32(rep.Mods))
	out.Str(formatLifeGraph(rep.LifeGraph))
	out.U64(uint64(rep.Timestamp))
	out.U32(uint32(frames.Len()))
	out.Write(frames.Bytes())
	if rep.Version >= scoreIDVersion {
		out.U64(uint64(rep.ScoreID))
	} else {
		out.U32(uint32(rep.ScoreID))
	}
	if rep.Mods&mods.TargetPractice != 0 {
		out.F64(rep.TargetAccuracy)
	}

	_, err := w.Write(out.Bytes())
	return err
}

func formatFrames(rep *Replay) string {
	var sb strings.Builder
	for _, f := range rep.Frames {
		sb.WriteString(strconv.FormatInt(f.Delta, 10))
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatFloat(float64(f.X), 'f', -1, 32))
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatFloat(float64(f.Y), 'f', -1, 32))
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatUint(uint64(f.Keys), 10))
		sb.WriteByte(',')
	}
	if rep.Seed != nil {
		fmt.Fprintf(&sb, "%d|0|0|%d,", SeedDelta, *rep.Seed)
	}
	return sb.String()
}

func formatLifeGraph(points []LifePoint) string {
	var sb strings.Builder
	for _, p := range points {
		fmt.Fprintf(&sb, "%d|%s,", p.Time, strconv.FormatFloat(p.Life, 'f', -1, 64))
	}
	return sb.String()
}
