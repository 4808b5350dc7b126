// Package sample locates a representative set of sessions by expanding a
// search time window until enough qualifying sessions accumulate.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"botsift/internal/fetch"
	"botsift/internal/model"
	"botsift/internal/observability"
)

const (
	// Sessions with fewer messages are too shallow to analyze.
	minQualifyingMessages = 2

	// Exhausting every window below this count is reported in the error to
	// distinguish "nearly enough" from "nothing there".
	absoluteMinimum = 10

	// Page size for per-window metadata fetches.
	windowPageLimit = 10000
)

// InsufficientSessionsError means the expansion ran out of windows before
// accumulating the requested number of qualifying sessions. It is never
// downgraded to a smaller result set: downstream analysis must not silently
// receive less data than it asked for.
type InsufficientSessionsError struct {
	Found     int
	Requested int
	Minimum   int
}

func (e *InsufficientSessionsError) Error() string {
	return fmt.Sprintf("found %d qualifying sessions after exhausting all windows, need %d (absolute minimum %d)",
		e.Found, e.Requested, e.Minimum)
}

// Result is a completed sampling run.
type Result struct {
	Sessions     []model.SessionMetadata
	WindowsTried int
	TotalFound   int
}

// Sampler walks the window expansion sequence against a session source.
type Sampler struct {
	source fetch.SessionSource
	rng    *rand.Rand
	log    *slog.Logger
}

// New creates a sampler with a time-seeded generator.
func New(source fetch.SessionSource) *Sampler {
	seed := uint64(time.Now().UnixNano())
	return NewSeeded(source, seed)
}

// NewSeeded creates a sampler with a fixed seed for reproducible draws.
func NewSeeded(source fetch.SessionSource, seed uint64) *Sampler {
	return &Sampler{
		source: source,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:    observability.Logger(),
	}
}

// Sample searches widening windows anchored at the given business-local
// instant until count unique qualifying sessions accumulate, then draws a
// uniform random subsample of exactly count. Sessions seen in an earlier
// window are counted once. Windows are fetched strictly in sequence: each
// window's tally decides whether the next one is tried at all.
func (s *Sampler) Sample(ctx context.Context, anchor time.Time, count int) (*Result, error) {
	if count <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", count)
	}

	windows := model.ExpansionWindows(anchor)

	seen := make(map[string]bool)
	var accumulated []model.SessionMetadata

	for i, window := range windows {
		sessions, err := s.source.Sessions(ctx, window, 0, windowPageLimit)
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", window.Label, err)
		}

		fresh := 0
		for _, session := range sessions {
			if session.Metrics.Total < minQualifyingMessages {
				continue
			}
			if seen[session.SessionID] {
				continue
			}
			seen[session.SessionID] = true
			accumulated = append(accumulated, session)
			fresh++
		}

		s.log.Info("window searched",
			"window", window.Label, "new", fresh, "accumulated", len(accumulated), "target", count)

		if len(accumulated) >= count {
			return &Result{
				Sessions:     s.draw(accumulated, count),
				WindowsTried: i + 1,
				TotalFound:   len(accumulated),
			}, nil
		}
	}

	return nil, &InsufficientSessionsError{
		Found:     len(accumulated),
		Requested: count,
		Minimum:   absoluteMinimum,
	}
}

// draw picks count sessions uniformly without replacement. When the pool is
// exactly count the draw is the identity.
func (s *Sampler) draw(pool []model.SessionMetadata, count int) []model.SessionMetadata {
	if len(pool) == count {
		picked := make([]model.SessionMetadata, count)
		copy(picked, pool)
		return picked
	}

	perm := s.rng.Perm(len(pool))
	picked := make([]model.SessionMetadata, 0, count)
	for _, idx := range perm[:count] {
		picked = append(picked, pool[idx])
	}
	return picked
}
