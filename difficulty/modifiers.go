package difficulty

import (
	"fmt"
	"math"

	"osukit/mods"
)

// Modifiers is the mod combination a beatmap is rated under. A zero Rate
// means the rate implied by Mods.
type Modifiers struct {
	Mods mods.Mods
	Rate float64
}

func FromMods(m mods.Mods) Modifiers {
	return Modifiers{Mods: m, Rate: m.ClockRate()}
}

// ParseModifiers parses acronyms such as "HDDT" and validates them.
func ParseModifiers(s string) (Modifiers, error) {
	m, err := mods.Parse(s)
	if err != nil {
		return Modifiers{}, err
	}
	mod := FromMods(m)
	if err := mod.Validate(); err != nil {
		return Modifiers{}, err
	}
	return mod, nil
}

// ClockRate is the playback rate, defaulting to the one the mods imply.
func (m Modifiers) ClockRate() float64 {
	if m.Rate == 0 {
		return m.Mods.ClockRate()
	}
	return m.Rate
}

func (m Modifiers) Validate() error {
	if err := m.Mods.Validate(); err != nil {
		return err
	}
	if r := m.Rate; r != 0 && (math.IsNaN(r) || r < 0.25 || r > 4) {
		return &mods.ModifierError{Kind: mods.ErrUnsupportedMods, Mods: m.Mods, Acronym: fmt.Sprintf("rate %v", r)}
	}
	return nil
}

func (m Modifiers) HardRock() bool { return m.Mods&mods.HardRock != 0 }
func (m Modifiers) Easy() bool     { return m.Mods&mods.Easy != 0 }

// String formats the mods, adding the rate when it is not the one the
// mods imply, e.g. "HD(1.20x)".
func (m Modifiers) String() string {
	s := m.Mods.String()
	if r := m.ClockRate(); r != m.Mods.ClockRate() {
		if m.Mods == mods.None {
			s = ""
		}
		s += fmt.Sprintf("(%.2fx)", r)
	}
	return s
}
