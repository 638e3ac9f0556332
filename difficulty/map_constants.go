package difficulty

import "osukit/dotosu"

// MapConstants are the difficulty settings of a beatmap after mods and
// clock rate are applied. Times are in real (rate adjusted) milliseconds.
type MapConstants struct {
	Mods              Modifiers
	ClockRate         float64
	CircleSize        float64
	CircleRadius      float64
	ApproachRate      float64
	Preempt           float64
	OverallDifficulty float64
	HPDrainRate       float64
	Window300         float64
	Window100         float64
	Window50          float64
}

func GetBeatmapConstants(
	beatmap *dotosu.Beatmap,
	mods Modifiers,
) MapConstants {
	rate := mods.ClockRate()

	cs := beatmap.Difficulty.CircleSize
	if mods.HardRock() {
		cs = min(cs*1.3, 10)
	}
	if mods.Easy() {
		cs = cs / 2
	}

	circleRadius := CircleSizeToRadius(cs)

	ar := beatmap.Difficulty.ApproachRate
	od := beatmap.Difficulty.OverallDifficulty
	hp := beatmap.Difficulty.HPDrainRate
	if mods.HardRock() {
		ar = min(10, ar*1.4)
		od = min(10, od*1.4)
		hp = min(10, hp*1.4)
	}
	if mods.Easy() {
		ar = ar / 2
		od = od / 2
		hp = hp / 2
	}

	preempt := ApproachRateToPreempt(ar) / rate
	ar = PreemptToAR(preempt)

	window300 := (80 - 6*od) / rate
	window100 := (140 - 8*od) / rate
	window50 := (200 - 10*od) / rate

	return MapConstants{
		Mods:              mods,
		ClockRate:         rate,
		CircleSize:        cs,
		CircleRadius:      circleRadius,
		ApproachRate:      ar,
		Preempt:           preempt,
		OverallDifficulty: (80 - window300) / 6,
		HPDrainRate:       hp,
		Window300:         window300,
		Window100:         window100,
		Window50:          window50,
	}
}

func CircleSizeToRadius(cs float64) float64 {
	return 54.4 - 4.48*cs
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	} else if ar == 5 {
		return 1200
	} else {
		return 1200 - 150*(ar-5)
	}
}

func PreemptToAR(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	} else if preempt == 1200 {
		return 5
	} else {
		return 5 + (1200-preempt)/150
	}
}
