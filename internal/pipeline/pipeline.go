// Package pipeline orchestrates sampling, transcript retrieval and assembly.
// It exposes plain data structures; serialization and presentation belong to
// the caller.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"botsift/internal/fetch"
	"botsift/internal/model"
	"botsift/internal/observability"
	"botsift/internal/sample"
	"botsift/internal/transcript"
)

// onDemandLookback bounds the message search range when transcripts are
// requested by explicit ID with no sampling metadata to anchor on.
const onDemandLookback = 30 * 24 * time.Hour

// SampleReport is the outcome of one sampling run.
type SampleReport struct {
	Transcripts  []model.SessionWithTranscript
	WindowsTried int
	TotalFound   int
}

// Pipeline wires the sampler, the message fetcher and the assembler over a
// single session source. Everything is computed per invocation; no state
// survives between calls.
type Pipeline struct {
	source  fetch.SessionSource
	sampler *sample.Sampler
	log     *slog.Logger
	now     func() time.Time
}

// New builds a pipeline over the given source.
func New(source fetch.SessionSource) *Pipeline {
	return &Pipeline{
		source:  source,
		sampler: sample.New(source),
		log:     observability.Logger(),
		now:     time.Now,
	}
}

// NewSeeded is New with a fixed sampling seed for reproducible runs.
func NewSeeded(source fetch.SessionSource, seed uint64) *Pipeline {
	p := New(source)
	p.sampler = sample.NewSeeded(source, seed)
	return p
}

// SampleSessions draws count representative sessions starting at the anchor
// instant and returns their assembled transcripts. Sampling failures
// (including insufficient sessions) propagate; message-level partial
// failures degrade individual transcripts instead.
func (p *Pipeline) SampleSessions(ctx context.Context, anchor time.Time, count int) (*SampleReport, error) {
	result, err := p.sampler.Sample(ctx, anchor, count)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(result.Sessions))
	for i, session := range result.Sessions {
		ids[i] = session.SessionID
	}

	window := messageWindow(result.Sessions, model.ExpansionWindows(anchor))
	raws, err := p.source.Messages(ctx, ids, window)
	if err != nil {
		return nil, fmt.Errorf("fetch transcripts: %w", err)
	}

	groups := transcript.GroupBySessionID(raws)
	transcripts := make([]model.SessionWithTranscript, 0, len(result.Sessions))
	for _, meta := range result.Sessions {
		transcripts = append(transcripts, transcript.Assemble(meta, groups[meta.SessionID]))
	}

	p.log.Info("sampling run complete",
		"sessions", len(transcripts),
		"windows_tried", result.WindowsTried,
		"total_found", result.TotalFound)

	return &SampleReport{
		Transcripts:  transcripts,
		WindowsTried: result.WindowsTried,
		TotalFound:   result.TotalFound,
	}, nil
}

// FetchTranscriptsFor retrieves and assembles transcripts for an explicit
// ID list, without sampling. Sessions the platform returned no messages for
// still yield an (empty) transcript so callers can tell "no messages" from
// "missing session".
func (p *Pipeline) FetchTranscriptsFor(ctx context.Context, sessionIDs []string) ([]model.SessionWithTranscript, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	end := p.now().UTC()
	window := model.TimeWindow{
		Start:    end.Add(-onDemandLookback),
		End:      end,
		Duration: onDemandLookback,
		Label:    "on-demand lookback",
	}

	raws, err := p.source.Messages(ctx, sessionIDs, window)
	if err != nil {
		return nil, fmt.Errorf("fetch transcripts: %w", err)
	}

	groups := transcript.GroupBySessionID(raws)
	transcripts := make([]model.SessionWithTranscript, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		meta := model.SessionMetadata{
			SessionID: id,
			Category:  model.CategoryUnknown,
			Tags:      []model.Tag{},
		}
		transcripts = append(transcripts, transcript.Assemble(meta, groups[id]))
	}
	return transcripts, nil
}

// messageWindow spans the sampled sessions' own timestamps when they parse,
// padded a little on both sides; otherwise it falls back to the widest
// expansion window so no sampled session's messages are missed.
func messageWindow(sessions []model.SessionMetadata, windows []model.TimeWindow) model.TimeWindow {
	const padding = time.Hour

	var earliest, latest time.Time
	for _, session := range sessions {
		if t, err := time.Parse(time.RFC3339Nano, session.StartTime); err == nil {
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, session.EndTime); err == nil {
			if t.After(latest) {
				latest = t
			}
		}
	}

	if earliest.IsZero() || latest.IsZero() {
		return windows[len(windows)-1]
	}

	start := earliest.Add(-padding)
	end := latest.Add(padding)
	return model.TimeWindow{
		Start:    start,
		End:      end,
		Duration: end.Sub(start),
		Label:    "sampled sessions span",
	}
}
