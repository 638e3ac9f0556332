// Package difficulty rates osu!standard beatmaps: star rating from aim
// and speed strain, and ppv2 performance of a score.
package difficulty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"osukit/dotosu"
	"osukit/internal/logging"
	"osukit/mods"
)

var (
	ErrUnsupportedMode = errors.New("difficulty: unsupported game mode")
	ErrNoObjects       = errors.New("difficulty: beatmap has no hit objects")
)

// Attributes are the rating of one beatmap under one set of modifiers.
type Attributes struct {
	// Aim and Speed are the star components.
	Aim   float64
	Speed float64
	// AimStrain and SpeedStrain are the weighted section peaks.
	AimStrain   float64
	SpeedStrain float64
	StarRating  float64

	MaxCombo    int
	ObjectCount int
	Circles     int
	Sliders     int
	Spinners    int

	ApproachRate      float64
	OverallDifficulty float64
	CircleSize        float64
	HPDrainRate       float64
	ClockRate         float64
	Mods              Modifiers
}

// Peaks are the per-section strain maxima of a beatmap.
type Peaks struct {
	// SectionLength is in ms of beatmap time.
	SectionLength float64
	Aim           []float64
	Speed         []float64
	Total         []float64
}

type Calculator struct {
	Constants Constants
}

func NewCalculator() *Calculator {
	return &Calculator{Constants: DefaultConstants()}
}

var defaultCalculator = NewCalculator()

// Calculate rates b with the default constants.
func Calculate(b *dotosu.Beatmap, m Modifiers) (Attributes, error) {
	return defaultCalculator.Calculate(b, m)
}

// StrainPeaks returns the section peaks of b with the default constants.
func StrainPeaks(b *dotosu.Beatmap, m Modifiers) (Peaks, error) {
	return defaultCalculator.StrainPeaks(b, m)
}

func (c *Calculator) prepare(b *dotosu.Beatmap, m Modifiers) (MapConstants, []diffObject, error) {
	if err := m.Validate(); err != nil {
		return MapConstants{}, nil, err
	}
	if b == nil || len(b.HitObjects) == 0 {
		return MapConstants{}, nil, ErrNoObjects
	}
	if b.General.Mode != dotosu.ModeStandard {
		return MapConstants{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, b.General.Mode)
	}
	mc := GetBeatmapConstants(b, m)
	return mc, preprocess(b, mc, c.Constants), nil
}

func (c *Calculator) peaks(objs []diffObject, rate float64) (aim, speed []float64) {
	step := c.Constants.Rating.StrainStep
	aim = sectionPeaks(objs, c.Constants.Aim.SkillConstants, c.Constants.aimValue, rate, step)
	speed = sectionPeaks(objs, c.Constants.Speed.SkillConstants, c.Constants.speedValue, rate, step)
	return aim, speed
}

func (c *Calculator) StrainPeaks(b *dotosu.Beatmap, m Modifiers) (Peaks, error) {
	mc, objs, err := c.prepare(b, m)
	if err != nil {
		return Peaks{}, err
	}
	aim, speed := c.peaks(objs, mc.ClockRate)
	total := make([]float64, len(aim))
	for i := range total {
		total[i] = aim[i] + speed[i]
	}
	return Peaks{
		SectionLength: c.Constants.Rating.StrainStep * mc.ClockRate,
		Aim:           aim,
		Speed:         speed,
		Total:         total,
	}, nil
}

// Calculate rates b under m. Only osu!standard beatmaps are supported.
func (c *Calculator) Calculate(b *dotosu.Beatmap, m Modifiers) (Attributes, error) {
	mc, objs, err := c.prepare(b, m)
	if err != nil {
		return Attributes{}, err
	}
	r := c.Constants.Rating
	aimPeaks, speedPeaks := c.peaks(objs, mc.ClockRate)
	aimStrain := weightedSum(aimPeaks, r.DecayWeight)
	speedStrain := weightedSum(speedPeaks, r.DecayWeight)

	aim := math.Sqrt(aimStrain) * r.StarScaling
	speed := math.Sqrt(speedStrain) * r.StarScaling
	if m.Mods.Has(mods.TouchDevice) {
		aim = math.Pow(aim, 0.8)
	}
	if m.Mods.Has(mods.Relax) {
		aim *= 0.9
		speed = 0
	}
	stars := aim + speed + math.Abs(aim-speed)*r.ExtremeScaling

	circles, sliders, spinners := b.Counts()
	attrs := Attributes{
		Aim:               aim,
		Speed:             speed,
		AimStrain:         aimStrain,
		SpeedStrain:       speedStrain,
		StarRating:        stars,
		MaxCombo:          b.MaxCombo(),
		ObjectCount:       len(b.HitObjects),
		Circles:           circles,
		Sliders:           sliders,
		Spinners:          spinners,
		ApproachRate:      mc.ApproachRate,
		OverallDifficulty: mc.OverallDifficulty,
		CircleSize:        mc.CircleSize,
		HPDrainRate:       mc.HPDrainRate,
		ClockRate:         mc.ClockRate,
		Mods:              m,
	}
	logging.Logger().Debug("difficulty calculated",
		"beatmap", b.Metadata.Version,
		"mods", m.String(),
		"stars", stars,
		"sections", len(aimPeaks))
	return attrs, nil
}

// CalculateAll rates b under every modifier set concurrently. Results are
// in the order of ms. ctx is checked before each calculation starts.
func (c *Calculator) CalculateAll(ctx context.Context, b *dotosu.Beatmap, ms []Modifiers) ([]Attributes, error) {
	out := make([]Attributes, len(ms))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range ms {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			attrs, err := c.Calculate(b, m)
			if err != nil {
				return fmt.Errorf("rating %s: %w", m, err)
			}
			out[i] = attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
