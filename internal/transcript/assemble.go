package transcript

import (
	"sort"
	"time"

	"botsift/internal/model"
)

// Assemble combines one session's metadata with its raw messages into a
// SessionWithTranscript. Messages are sanitized, dropped ones discarded,
// survivors stably sorted by timestamp, and all counts computed from the
// sanitized list rather than the vendor-reported metrics.
func Assemble(meta model.SessionMetadata, raws []model.RawMessage) model.SessionWithTranscript {
	messages := make([]model.Message, 0, len(raws))
	for _, raw := range raws {
		speaker := raw.Speaker()
		text, ok := Sanitize(raw.Text(), speaker)
		if !ok {
			continue
		}
		ts, _ := parseInstant(raw.CreatedOn)
		messages = append(messages, model.Message{
			Timestamp: ts,
			Speaker:   speaker,
			Text:      text,
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	userCount := 0
	for _, m := range messages {
		if m.Speaker == model.SpeakerUser {
			userCount++
		}
	}

	category := meta.Category
	if category == "" {
		category = model.CategoryUnknown
	}
	tags := meta.Tags
	if tags == nil {
		tags = []model.Tag{}
	}

	return model.SessionWithTranscript{
		SessionID:        meta.SessionID,
		UserID:           meta.UserID,
		StartTime:        meta.StartTime,
		EndTime:          meta.EndTime,
		Category:         category,
		Tags:             tags,
		Metrics:          meta.Metrics,
		Messages:         messages,
		DurationSeconds:  durationSeconds(meta.StartTime, meta.EndTime),
		MessageCount:     len(messages),
		UserMessageCount: userCount,
		BotMessageCount:  len(messages) - userCount,
	}
}

// GroupBySessionID partitions a flat raw-message list by session,
// preserving per-session arrival order. Pure; used when one batch response
// carries messages for many sessions.
func GroupBySessionID(raws []model.RawMessage) map[string][]model.RawMessage {
	groups := make(map[string][]model.RawMessage)
	for _, raw := range raws {
		groups[raw.SessionID] = append(groups[raw.SessionID], raw)
	}
	return groups
}

// durationSeconds computes the session length from the metadata timestamps.
// Either timestamp failing to parse yields nil, never a garbage value.
func durationSeconds(start, end string) *float64 {
	st, okStart := parseInstant(start)
	et, okEnd := parseInstant(end)
	if !okStart || !okEnd {
		return nil
	}
	seconds := et.Sub(st).Seconds()
	return &seconds
}

// parseInstant accepts the timestamp forms the platform has been seen to
// emit.
func parseInstant(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
