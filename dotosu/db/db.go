// Package db reads the osu!.db beatmap cache written by the osu! client.
package db

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"osukit/dotosu"
	"osukit/internal/binio"
	"osukit/internal/logging"
	"osukit/mods"
)

const (
	// entrySizeVersion is the first version without a byte size before
	// each beatmap entry.
	entrySizeVersion = 20191106
	// floatDifficultyVersion is the first version storing difficulty
	// settings as floats and caching star ratings.
	floatDifficultyVersion = 20140609
)

var (
	ErrTruncated = binio.ErrTruncated
	ErrMalformed = binio.ErrMalformed
)

type RankedStatus uint8

const (
	StatusUnknown RankedStatus = iota
	StatusUnsubmitted
	StatusPending
	_
	StatusRanked
	StatusApproved
	StatusQualified
	StatusLoved
)

func (s RankedStatus) String() string {
	switch s {
	case StatusUnsubmitted:
		return "unsubmitted"
	case StatusPending:
		return "pending"
	case StatusRanked:
		return "ranked"
	case StatusApproved:
		return "approved"
	case StatusQualified:
		return "qualified"
	case StatusLoved:
		return "loved"
	default:
		return "unknown"
	}
}

// Grade is the best local grade on a beatmap.
type Grade uint8

const (
	GradeSSH Grade = iota
	GradeSH
	GradeSS
	GradeS
	GradeA
	GradeB
	GradeC
	GradeD
	GradeF
	GradeNone
)

// Permissions are the account flags of the player that owns the file.
type Permissions uint32

const (
	PermNormal Permissions = 1 << iota
	PermModerator
	PermSupporter
	PermFriend
	PermPeppy
	PermWorldCupStaff
)

type StarRating struct {
	Mods  mods.Mods
	Stars float64
}

// TimingPoint is the reduced timing line cached per beatmap.
type TimingPoint struct {
	BPM         float64
	Offset      float64
	Uninherited bool
}

type Beatmap struct {
	Artist, ArtistUnicode string
	Title, TitleUnicode   string
	Creator               string
	Version               string
	AudioFilename         string
	MD5                   string
	Filename              string
	Status                RankedStatus

	Circles, Sliders, Spinners uint16
	// ModifiedTicks is in .NET ticks.
	ModifiedTicks int64

	ApproachRate, CircleSize, HPDrainRate, OverallDifficulty float32
	SliderMultiplier                                         float64

	// Star ratings cached by the client, indexed by dotosu.Mode.
	StarRatings [4][]StarRating

	DrainTime   time.Duration
	TotalTime   time.Duration
	PreviewTime time.Duration

	TimingPoints []TimingPoint

	BeatmapID, BeatmapSetID, ThreadID uint32
	// Grades are indexed by dotosu.Mode.
	Grades [4]Grade

	LocalOffset   int16
	StackLeniency float32
	Mode          dotosu.Mode
	Source, Tags  string
	OnlineOffset  int16
	TitleFont     string
	Unplayed      bool
	// LastPlayedTicks is in .NET ticks.
	LastPlayedTicks int64
	Osz2            bool
	// Folder is relative to the Songs directory.
	Folder string
	// LastCheckedTicks is in .NET ticks.
	LastCheckedTicks int64

	IgnoreSounds, IgnoreSkin        bool
	DisableStoryboard, DisableVideo bool
	VisualOverride                  bool
	ManiaScrollSpeed                uint8
}

// Path is the .osu file location relative to the Songs directory.
func (b *Beatmap) Path() string { return filepath.Join(b.Folder, b.Filename) }

func (b *Beatmap) Modified() time.Time   { return binio.TicksTime(b.ModifiedTicks) }
func (b *Beatmap) LastPlayed() time.Time { return binio.TicksTime(b.LastPlayedTicks) }

// Stars returns the cached star rating for m in the beatmap's own mode.
func (b *Beatmap) Stars(m mods.Mods) (float64, bool) {
	if b.Mode < dotosu.ModeStandard || b.Mode > dotosu.ModeMania {
		return 0, false
	}
	for _, r := range b.StarRatings[b.Mode] {
		if r.Mods == m {
			return r.Stars, true
		}
	}
	return 0, false
}

type Database struct {
	Version         uint32
	FolderCount     uint32
	AccountUnlocked bool
	// UnlockTicks is in .NET ticks.
	UnlockTicks int64
	Player      string
	Beatmaps    []Beatmap
	Permissions Permissions
}

// ByMD5 finds the entry of the .osu file with the given hex digest.
func (d *Database) ByMD5(hash string) (*Beatmap, bool) {
	for i := range d.Beatmaps {
		if d.Beatmaps[i].MD5 == hash {
			return &d.Beatmaps[i], true
		}
	}
	return nil, false
}

func DecodeFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

func Decode(r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes a whole osu!.db. No Database is returned on error.
func DecodeBytes(data []byte) (*Database, error) {
	rd := binio.NewReader(data, nil)
	d := &Database{
		Version:         rd.U32("version"),
		FolderCount:     rd.U32("folder count"),
		AccountUnlocked: rd.Bool("account unlocked"),
		UnlockTicks:     int64(rd.U64("unlock date")),
		Player:          rd.Str("player"),
	}

	count := rd.U32("beatmap count")
	for i := uint32(0); i < count && rd.Err() == nil; i++ {
		b := readBeatmap(rd, d.Version)
		if rd.Err() == nil {
			d.Beatmaps = append(d.Beatmaps, b)
		}
	}
	d.Permissions = Permissions(rd.U32("permissions"))
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	logging.Logger().Debug("decoded osu!.db",
		"version", d.Version, "player", d.Player, "beatmaps", len(d.Beatmaps),
		"size", humanize.Bytes(uint64(len(data))))
	return d, nil
}

func readBeatmap(rd *binio.Reader, version uint32) Beatmap {
	var b Beatmap
	if version < entrySizeVersion {
		rd.U32("entry size")
	}
	b.Artist = rd.Str("artist")
	b.ArtistUnicode = rd.Str("artist unicode")
	b.Title = rd.Str("title")
	b.TitleUnicode = rd.Str("title unicode")
	b.Creator = rd.Str("creator")
	b.Version = rd.Str("difficulty")
	b.AudioFilename = rd.Str("audio file")
	b.MD5 = rd.Str("md5")
	b.Filename = rd.Str("osu file")
	b.Status = RankedStatus(rd.U8("ranked status"))
	b.Circles = rd.U16("circles")
	b.Sliders = rd.U16("sliders")
	b.Spinners = rd.U16("spinners")
	b.ModifiedTicks = int64(rd.U64("modified"))

	if version < floatDifficultyVersion {
		b.ApproachRate = float32(rd.U8("approach rate"))
		b.CircleSize = float32(rd.U8("circle size"))
		b.HPDrainRate = float32(rd.U8("hp drain"))
		b.OverallDifficulty = float32(rd.U8("overall difficulty"))
	} else {
		b.ApproachRate = rd.F32("approach rate")
		b.CircleSize = rd.F32("circle size")
		b.HPDrainRate = rd.F32("hp drain")
		b.OverallDifficulty = rd.F32("overall difficulty")
	}
	b.SliderMultiplier = rd.F64("slider velocity")

	if version >= floatDifficultyVersion {
		for m := range b.StarRatings {
			b.StarRatings[m] = readStarRatings(rd)
		}
	}

	b.DrainTime = time.Duration(int32(rd.U32("drain time"))) * time.Second
	b.TotalTime = time.Duration(int32(rd.U32("total time"))) * time.Millisecond
	b.PreviewTime = time.Duration(int32(rd.U32("preview time"))) * time.Millisecond

	n := rd.U32("timing point count")
	for i := uint32(0); i < n && rd.Err() == nil; i++ {
		b.TimingPoints = append(b.TimingPoints, TimingPoint{
			BPM:         rd.F64("timing point bpm"),
			Offset:      rd.F64("timing point offset"),
			Uninherited: rd.Bool("timing point uninherited"),
		})
	}

	b.BeatmapID = rd.U32("beatmap id")
	b.BeatmapSetID = rd.U32("beatmap set id")
	b.ThreadID = rd.U32("thread id")
	for m := range b.Grades {
		b.Grades[m] = Grade(rd.U8("grade"))
	}
	b.LocalOffset = int16(rd.U16("local offset"))
	b.StackLeniency = rd.F32("stack leniency")

	modeAt := rd.Offset()
	b.Mode = dotosu.Mode(rd.U8("mode"))
	if rd.Err() == nil && b.Mode > dotosu.ModeMania {
		rd.FailAt(modeAt, ErrMalformed, "mode", fmt.Errorf("mode %d", b.Mode))
	}
	b.Source = rd.Str("source")
	b.Tags = rd.Str("tags")
	b.OnlineOffset = int16(rd.U16("online offset"))
	b.TitleFont = rd.Str("title font")
	b.Unplayed = rd.Bool("unplayed")
	b.LastPlayedTicks = int64(rd.U64("last played"))
	b.Osz2 = rd.Bool("osz2")
	b.Folder = rd.Str("folder")
	b.LastCheckedTicks = int64(rd.U64("last checked"))
	b.IgnoreSounds = rd.Bool("ignore sounds")
	b.IgnoreSkin = rd.Bool("ignore skin")
	b.DisableStoryboard = rd.Bool("disable storyboard")
	b.DisableVideo = rd.Bool("disable video")
	b.VisualOverride = rd.Bool("visual override")
	if version < floatDifficultyVersion {
		rd.U16("unknown")
	}
	rd.U32("last modification")
	b.ManiaScrollSpeed = rd.U8("mania scroll speed")
	return b
}

// readStarRatings reads an int-prefixed list of (0x08 mods, 0x0d double)
// pairs. Newer clients write a 0x0c float instead of the double.
func readStarRatings(rd *binio.Reader) []StarRating {
	n := rd.U32("star rating count")
	var out []StarRating
	for i := uint32(0); i < n && rd.Err() == nil; i++ {
		at := rd.Offset()
		if tag := rd.U8("star rating mods"); rd.Err() == nil && tag != 0x08 {
			rd.FailAt(at, ErrMalformed, "star rating mods", fmt.Errorf("tag %#x", tag))
		}
		m := mods.Mods(rd.U32("star rating mods"))

		var stars float64
		at = rd.Offset()
		switch tag := rd.U8("star rating"); tag {
		case 0x0d:
			stars = rd.F64("star rating")
		case 0x0c:
			stars = float64(rd.F32("star rating"))
		default:
			rd.FailAt(at, ErrMalformed, "star rating", fmt.Errorf("tag %#x", tag))
		}
		if rd.Err() == nil {
			out = append(out, StarRating{Mods: m, Stars: stars})
		}
	}
	return out
}
