// Package cache stores difficulty attributes keyed by beatmap content
// hash and modifiers.
package cache

import (
	"context"
	"sync"

	"osukit/difficulty"
)

// Version is bumped whenever the rating algorithm changes, so entries from
// older versions are never returned.
const Version = 1

type Key struct {
	// Hash is the hex MD5 of the .osu bytes.
	Hash    string
	Mods    difficulty.Modifiers
	Version int
}

// NewKey builds the key for the current algorithm version.
func NewKey(hash string, m difficulty.Modifiers) Key {
	m.Rate = m.ClockRate()
	return Key{Hash: hash, Mods: m, Version: Version}
}

type Cache interface {
	Get(ctx context.Context, k Key) (difficulty.Attributes, bool, error)
	Put(ctx context.Context, k Key, a difficulty.Attributes) error
}

// Memory is a Cache held in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]difficulty.Attributes
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]difficulty.Attributes)}
}

func (m *Memory) Get(_ context.Context, k Key) (difficulty.Attributes, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.entries[k]
	return a, ok, nil
}

func (m *Memory) Put(_ context.Context, k Key, a difficulty.Attributes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[k] = a
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
