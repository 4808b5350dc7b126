package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"botsift/internal/model"
)

// SyntheticSource generates deterministic session data for offline runs and
// rehearsals. Sessions are derived from the window start, so overlapping
// windows reproduce the same sessions exactly as the live platform would.
type SyntheticSource struct {
	// SessionsPerHour controls density; defaults to 4.
	SessionsPerHour int
}

// NewSyntheticSource returns a source with default density.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{SessionsPerHour: 4}
}

func (s *SyntheticSource) perHour() int {
	if s.SessionsPerHour <= 0 {
		return 4
	}
	return s.SessionsPerHour
}

// Sessions deals sessions at a fixed cadence across the window. Session
// identity is a function of absolute time, not of the window, so dedupe
// across expanding windows behaves realistically.
func (s *SyntheticSource) Sessions(ctx context.Context, window model.TimeWindow, skip, limit int) ([]model.SessionMetadata, error) {
	interval := time.Hour / time.Duration(s.perHour())

	var sessions []model.SessionMetadata
	for at := window.Start.Truncate(interval); at.Before(window.End); at = at.Add(interval) {
		if at.Before(window.Start) {
			continue
		}
		sessions = append(sessions, s.sessionAt(at))
	}

	if skip >= len(sessions) {
		return []model.SessionMetadata{}, nil
	}
	sessions = sessions[skip:]
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (s *SyntheticSource) sessionAt(at time.Time) model.SessionMetadata {
	seq := at.Unix() / int64(time.Hour/time.Duration(s.perHour())/time.Second)
	categories := model.AllCategories()

	// A few shallow sessions so the qualifying filter has something to drop.
	total := 2 + int(seq%6)
	if seq%7 == 0 {
		total = 1
	}
	user := total / 2
	end := at.Add(time.Duration(total) * 45 * time.Second)

	return model.SessionMetadata{
		SessionID: fmt.Sprintf("synthetic-%d", seq),
		UserID:    fmt.Sprintf("caller-%d", seq%97),
		StartTime: model.FormatInstant(at),
		EndTime:   model.FormatInstant(end),
		Category:  categories[int(seq)%len(categories)],
		Tags:      []model.Tag{{Name: "channel", Value: "voice"}},
		Metrics:   model.MessageCounts{Total: total, User: user, Bot: total - user},
		DurationSeconds: end.Sub(at).Seconds(),
	}
}

// Messages regenerates the transcript for each requested session: user and
// bot turns alternating at a fixed cadence.
func (s *SyntheticSource) Messages(ctx context.Context, sessionIDs []string, window model.TimeWindow) ([]model.RawMessage, error) {
	wanted := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}

	interval := time.Hour / time.Duration(s.perHour())

	var messages []model.RawMessage
	for at := window.Start.Truncate(interval); at.Before(window.End); at = at.Add(interval) {
		meta := s.sessionAt(at)
		if !wanted[meta.SessionID] {
			continue
		}
		for i := 0; i < meta.Metrics.Total; i++ {
			direction := "outgoing"
			text := fmt.Sprintf("How can I help with request %d?", i/2+1)
			if i%2 == 1 {
				direction = "incoming"
				text = fmt.Sprintf("I need help with my account, item %d.", i/2+1)
			}
			messages = append(messages, syntheticMessage(meta.SessionID, at.Add(time.Duration(i)*45*time.Second), direction, text))
		}
	}
	return messages, nil
}

func syntheticMessage(sessionID string, at time.Time, direction, text string) model.RawMessage {
	var raw model.RawMessage
	encoded, _ := json.Marshal(map[string]any{
		"sessionId": sessionID,
		"createdOn": model.FormatInstant(at),
		"type":      direction,
		"components": []map[string]any{
			{"cT": "text", "data": map[string]any{"text": text}},
		},
	})
	// Round-trip through the wire shape so synthetic data exercises the same
	// decoding path as platform responses.
	_ = json.Unmarshal(encoded, &raw)
	return raw
}
