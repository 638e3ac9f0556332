// Package mods handles the osu! mod bitmask shared by beatmaps, replays
// and difficulty calculation.
package mods

import (
	"errors"
	"fmt"
	"strings"
)

type Mods uint32

const (
	NoFail Mods = 1 << iota
	Easy
	TouchDevice
	Hidden
	HardRock
	SuddenDeath
	DoubleTime
	Relax
	HalfTime
	Nightcore // always set together with DoubleTime
	Flashlight
	Autoplay
	SpunOut
	Autopilot
	Perfect // always set together with SuddenDeath
	Key4
	Key5
	Key6
	Key7
	Key8
	FadeIn
	Random
	Cinema
	TargetPractice
	Key9
	KeyCoop
	Key1
	Key3
	Key2
	ScoreV2
	Mirror

	None Mods = 0
)

// DifficultyAdjusting are the mods that change star rating in osu!standard.
const DifficultyAdjusting = Easy | HardRock | DoubleTime | HalfTime | Nightcore | Relax | Autopilot | Flashlight | TouchDevice

var (
	ErrConflictingMods = errors.New("conflicting mods")
	ErrUnsupportedMods = errors.New("unsupported mods")
)

type ModifierError struct {
	Kind error
	Mods Mods
	// Acronym is the unrecognized token for parse failures.
	Acronym string
}

func (e *ModifierError) Error() string {
	if e.Acronym != "" {
		return fmt.Sprintf("mods: %v: %q", e.Kind, e.Acronym)
	}
	return fmt.Sprintf("mods: %v: %s", e.Kind, e.Mods)
}

func (e *ModifierError) Unwrap() error { return e.Kind }

var acronyms = []struct {
	mod  Mods
	name string
}{
	{NoFail, "NF"},
	{Easy, "EZ"},
	{TouchDevice, "TD"},
	{Hidden, "HD"},
	{HardRock, "HR"},
	{SuddenDeath, "SD"},
	{DoubleTime, "DT"},
	{Relax, "RX"},
	{HalfTime, "HT"},
	{Nightcore, "NC"},
	{Flashlight, "FL"},
	{Autoplay, "AT"},
	{SpunOut, "SO"},
	{Autopilot, "AP"},
	{Perfect, "PF"},
	{Key4, "4K"},
	{Key5, "5K"},
	{Key6, "6K"},
	{Key7, "7K"},
	{Key8, "8K"},
	{FadeIn, "FI"},
	{Random, "RD"},
	{Cinema, "CN"},
	{TargetPractice, "TP"},
	{Key9, "9K"},
	{KeyCoop, "CO"},
	{Key1, "1K"},
	{Key3, "3K"},
	{Key2, "2K"},
	{ScoreV2, "V2"},
	{Mirror, "MR"},
}

func (m Mods) Has(o Mods) bool { return m&o == o }

// String formats m as concatenated acronyms in bit order, "NM" when empty.
// Implied mods (DT under NC, SD under PF) are omitted.
func (m Mods) String() string {
	if m == None {
		return "NM"
	}
	var sb strings.Builder
	for _, a := range acronyms {
		if m&a.mod == 0 {
			continue
		}
		if a.mod == DoubleTime && m&Nightcore != 0 || a.mod == SuddenDeath && m&Perfect != 0 {
			continue
		}
		sb.WriteString(a.name)
	}
	return sb.String()
}

// Parse reads acronyms such as "HDDT", "hd,hr" or "+HDNC". NC and PF
// imply DT and SD.
func Parse(s string) (Mods, error) {
	s = strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case '+', ',', ' ', '|':
			return -1
		}
		return r
	}, s))

	var m Mods
	for len(s) > 0 {
		if len(s) < 2 {
			return 0, &ModifierError{Kind: ErrUnsupportedMods, Acronym: s}
		}
		tok := s[:2]
		s = s[2:]
		if tok == "NM" {
			continue
		}
		mod, ok := lookup(tok)
		if !ok {
			return 0, &ModifierError{Kind: ErrUnsupportedMods, Acronym: tok}
		}
		m |= mod
	}
	return m.normalize(), nil
}

func lookup(acronym string) (Mods, bool) {
	for _, a := range acronyms {
		if a.name == acronym {
			return a.mod, true
		}
	}
	return 0, false
}

func (m Mods) normalize() Mods {
	if m&Nightcore != 0 {
		m |= DoubleTime
	}
	if m&Perfect != 0 {
		m |= SuddenDeath
	}
	return m
}

var conflicts = [][2]Mods{
	{Easy, HardRock},
	{DoubleTime, HalfTime},
	{Nightcore, HalfTime},
	{NoFail, SuddenDeath},
	{NoFail, Perfect},
	{Relax, Autopilot},
	{Relax, Autoplay},
	{Autopilot, Autoplay},
	{Autopilot, SpunOut},
	{Relax, NoFail},
	{Autopilot, NoFail},
}

// Validate reports the first pair of mutually exclusive mods in m.
func (m Mods) Validate() error {
	for _, c := range conflicts {
		if m.Has(c[0]) && m.Has(c[1]) {
			return &ModifierError{Kind: ErrConflictingMods, Mods: c[0] | c[1]}
		}
	}
	return nil
}

// ClockRate is the playback rate the mods imply.
func (m Mods) ClockRate() float64 {
	switch {
	case m&(DoubleTime|Nightcore) != 0:
		return 1.5
	case m&HalfTime != 0:
		return 0.75
	default:
		return 1
	}
}
