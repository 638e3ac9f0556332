package difficulty

import (
	"fmt"
	"math"

	"gopkg.in/ini.v1"
)

// SkillConstants tune one strain skill.
type SkillConstants struct {
	// DecayBase is the fraction of strain left after one second.
	DecayBase     float64 `ini:"decay_base"`
	WeightScaling float64 `ini:"weight_scaling"`
}

type AimConstants struct {
	SkillConstants
	TimingThreshold float64 `ini:"timing_threshold"`
	AngleBonusBegin float64 `ini:"angle_bonus_begin"`
	AngleBonusScale float64 `ini:"angle_bonus_scale"`
}

type SpeedConstants struct {
	SkillConstants
	SingleSpacing   float64 `ini:"single_spacing"`
	MinSpeedBonus   float64 `ini:"min_speed_bonus"`
	MaxSpeedBonus   float64 `ini:"max_speed_bonus"`
	AngleBonusBegin float64 `ini:"angle_bonus_begin"`
}

type RatingConstants struct {
	// StrainStep is the section length in ms of unscaled time.
	StrainStep  float64 `ini:"strain_step"`
	DecayWeight float64 `ini:"decay_weight"`
	StarScaling float64 `ini:"star_scaling"`
	// ExtremeScaling adds part of the aim/speed gap to the total.
	ExtremeScaling          float64 `ini:"extreme_scaling"`
	NormalizedRadius        float64 `ini:"normalized_radius"`
	CircleSizeBuffThreshold float64 `ini:"circle_size_buff_threshold"`
}

// Constants is the numeric table of the rating algorithm.
type Constants struct {
	Aim    AimConstants
	Speed  SpeedConstants
	Rating RatingConstants
}

// DefaultConstants are the osu! 2019 reference values.
func DefaultConstants() Constants {
	return Constants{
		Aim: AimConstants{
			SkillConstants:  SkillConstants{DecayBase: 0.15, WeightScaling: 26.25},
			TimingThreshold: 107,
			AngleBonusBegin: math.Pi / 3,
			AngleBonusScale: 90,
		},
		Speed: SpeedConstants{
			SkillConstants:  SkillConstants{DecayBase: 0.3, WeightScaling: 1400},
			SingleSpacing:   125,
			MinSpeedBonus:   75,
			MaxSpeedBonus:   45,
			AngleBonusBegin: 5 * math.Pi / 6,
		},
		Rating: RatingConstants{
			StrainStep:              400,
			DecayWeight:             0.9,
			StarScaling:             0.0675,
			ExtremeScaling:          0.5,
			NormalizedRadius:        52,
			CircleSizeBuffThreshold: 30,
		},
	}
}

// LoadConstants reads an INI file (path, []byte or io.Reader) with
// [aim], [speed] and [rating] sections. Keys left out keep their default.
func LoadConstants(source any) (Constants, error) {
	c := DefaultConstants()
	cfg, err := ini.Load(source)
	if err != nil {
		return Constants{}, fmt.Errorf("difficulty: load constants: %w", err)
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"aim", &c.Aim.SkillConstants},
		{"aim", &c.Aim},
		{"speed", &c.Speed.SkillConstants},
		{"speed", &c.Speed},
		{"rating", &c.Rating},
	}
	for _, s := range sections {
		if err := cfg.Section(s.name).MapTo(s.dst); err != nil {
			return Constants{}, fmt.Errorf("difficulty: section [%s]: %w", s.name, err)
		}
	}
	if err := c.Validate(); err != nil {
		return Constants{}, err
	}
	return c, nil
}

func (c Constants) Validate() error {
	checks := []struct {
		name string
		v    float64
		ok   bool
	}{
		{"aim.decay_base", c.Aim.DecayBase, c.Aim.DecayBase > 0 && c.Aim.DecayBase < 1},
		{"speed.decay_base", c.Speed.DecayBase, c.Speed.DecayBase > 0 && c.Speed.DecayBase < 1},
		{"rating.decay_weight", c.Rating.DecayWeight, c.Rating.DecayWeight > 0 && c.Rating.DecayWeight < 1},
		{"rating.strain_step", c.Rating.StrainStep, c.Rating.StrainStep > 0},
		{"rating.normalized_radius", c.Rating.NormalizedRadius, c.Rating.NormalizedRadius > 0},
		{"speed.single_spacing", c.Speed.SingleSpacing, c.Speed.SingleSpacing > 0},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("difficulty: constant %s out of range: %v", ch.name, ch.v)
		}
	}
	return nil
}
