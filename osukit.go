// Package osukit reads osu! beatmaps and replays and rates beatmap
// difficulty. The subpackages hold the details; this package wires them
// together.
package osukit

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"osukit/cache"
	"osukit/difficulty"
	"osukit/dotosr"
	"osukit/dotosu"
	"osukit/dotosu/db"
	"osukit/internal/logging"
)

// SetLogger routes the library's log records to l. A nil logger silences
// them again.
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

func ParseBeatmap(data []byte) (*dotosu.Beatmap, error) {
	return dotosu.DecodeBytes(data)
}

func ParseReplay(data []byte) (*dotosr.Replay, error) {
	return dotosr.DecodeBytes(data)
}

// ParseDatabase reads the client's osu!.db beatmap cache.
func ParseDatabase(data []byte) (*db.Database, error) {
	return db.DecodeBytes(data)
}

func CalculateDifficulty(b *dotosu.Beatmap, m difficulty.Modifiers) (difficulty.Attributes, error) {
	return difficulty.Calculate(b, m)
}

// Rater rates .osu files, reusing results stored in Cache. Entries are
// keyed by content hash, so a nil Cache only disables reuse.
type Rater struct {
	Cache      cache.Cache
	Calculator *difficulty.Calculator
}

func NewRater(c cache.Cache) *Rater {
	return &Rater{Cache: c, Calculator: difficulty.NewCalculator()}
}

// Rate returns the attributes of the .osu file data under m.
func (r *Rater) Rate(ctx context.Context, data []byte, m difficulty.Modifiers) (difficulty.Attributes, error) {
	attrs, err := r.RateAll(ctx, data, []difficulty.Modifiers{m})
	if err != nil {
		return difficulty.Attributes{}, err
	}
	return attrs[0], nil
}

// RateFile reads path and rates it under m.
func (r *Rater) RateFile(ctx context.Context, path string, m difficulty.Modifiers) (difficulty.Attributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return difficulty.Attributes{}, err
	}
	return r.Rate(ctx, data, m)
}

// RateAll rates data under every modifier set, parsing it only when some
// set is not cached yet.
func (r *Rater) RateAll(ctx context.Context, data []byte, ms []difficulty.Modifiers) ([]difficulty.Attributes, error) {
	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	out, missing, err := r.lookup(ctx, hash, ms)
	if err != nil || len(missing) == 0 {
		return out, err
	}
	b, err := dotosu.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("osukit: beatmap %s: %w", hash, err)
	}
	if err := r.compute(ctx, hash, b, ms, out, missing); err != nil {
		return nil, err
	}
	return out, nil
}

// RateBeatmap rates an already decoded beatmap, keyed by its MD5.
func (r *Rater) RateBeatmap(ctx context.Context, b *dotosu.Beatmap, ms []difficulty.Modifiers) ([]difficulty.Attributes, error) {
	if b == nil {
		return nil, difficulty.ErrNoObjects
	}
	out, missing, err := r.lookup(ctx, b.MD5, ms)
	if err != nil || len(missing) == 0 {
		return out, err
	}
	if err := r.compute(ctx, b.MD5, b, ms, out, missing); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup fills out from the cache and returns the indexes of ms that
// still need calculating.
func (r *Rater) lookup(ctx context.Context, hash string, ms []difficulty.Modifiers) ([]difficulty.Attributes, []int, error) {
	out := make([]difficulty.Attributes, len(ms))
	var missing []int
	for i, m := range ms {
		if err := m.Validate(); err != nil {
			return nil, nil, err
		}
		if r.Cache == nil || hash == "" {
			missing = append(missing, i)
			continue
		}
		a, ok, err := r.Cache.Get(ctx, cache.NewKey(hash, m))
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			missing = append(missing, i)
			continue
		}
		out[i] = a
	}
	return out, missing, nil
}

func (r *Rater) compute(ctx context.Context, hash string, b *dotosu.Beatmap, ms []difficulty.Modifiers, out []difficulty.Attributes, missing []int) error {
	todo := make([]difficulty.Modifiers, len(missing))
	for j, i := range missing {
		todo[j] = ms[i]
	}
	rated, err := r.calculator().CalculateAll(ctx, b, todo)
	if err != nil {
		return fmt.Errorf("osukit: beatmap %s: %w", hash, err)
	}
	for j, i := range missing {
		out[i] = rated[j]
		if r.Cache == nil || hash == "" {
			continue
		}
		if err := r.Cache.Put(ctx, cache.NewKey(hash, ms[i]), rated[j]); err != nil {
			return err
		}
	}
	logging.Logger().Debug("beatmap rated",
		"hash", hash,
		"calculated", len(missing),
		"cached", len(ms)-len(missing))
	return nil
}

func (r *Rater) calculator() *difficulty.Calculator {
	if r.Calculator == nil {
		return difficulty.NewCalculator()
	}
	return r.Calculator
}
