// Package fetch retrieves session metadata and message transcripts from a
// session source, tolerating partial failure.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"botsift/internal/model"
	"botsift/internal/observability"
	"botsift/internal/remote"
)

const sessionCallTimeout = 30 * time.Second

// SessionFetcher pulls session metadata for all outcome categories.
type SessionFetcher struct {
	client *remote.Client
	log    *slog.Logger
}

// NewSessionFetcher wraps a platform client.
func NewSessionFetcher(client *remote.Client) *SessionFetcher {
	return &SessionFetcher{client: client, log: observability.Logger()}
}

type sessionRequest struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	Skip     int    `json:"skip"`
	Limit    int    `json:"limit"`
}

type sessionEnvelope struct {
	Sessions []vendorSession `json:"sessions"`
}

// vendorSession mirrors one record from the getSessions endpoint.
type vendorSession struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Tags      struct {
		SessionTags []model.Tag `json:"sessionTags"`
	} `json:"tags"`
	Metrics struct {
		TotalMessages int `json:"totalMessages"`
		UserMessages  int `json:"userMessages"`
		BotMessages   int `json:"botMessages"`
	} `json:"metrics"`
	Duration float64 `json:"duration"`
}

type categoryResult struct {
	category model.OutcomeCategory
	sessions []model.SessionMetadata
	err      error
}

// Fetch queries all three outcome categories concurrently and merges what
// succeeded. A failing category is logged and excluded; the one exception is
// a 401, which aborts the whole fetch as soon as it arrives since no
// category will succeed once auth is broken.
func (f *SessionFetcher) Fetch(ctx context.Context, dateFrom, dateTo time.Time, skip, limit int) ([]model.SessionMetadata, error) {
	categories := model.AllCategories()
	results := make(chan categoryResult, len(categories))

	payload := sessionRequest{
		DateFrom: model.FormatInstant(dateFrom),
		DateTo:   model.FormatInstant(dateTo),
		Skip:     skip,
		Limit:    limit,
	}

	for _, category := range categories {
		go func(category model.OutcomeCategory) {
			sessions, err := f.fetchCategory(ctx, category, payload)
			results <- categoryResult{category: category, sessions: sessions, err: err}
		}(category)
	}

	var merged []model.SessionMetadata
	for range categories {
		r := <-results
		if r.err != nil {
			var authErr *remote.AuthenticationError
			if errors.As(r.err, &authErr) {
				// Remaining goroutines finish into the buffered channel.
				return nil, r.err
			}
			f.log.Warn("session category fetch failed",
				"category", string(r.category), "error", r.err.Error())
			continue
		}
		merged = append(merged, r.sessions...)
	}
	return merged, nil
}

func (f *SessionFetcher) fetchCategory(ctx context.Context, category model.OutcomeCategory, payload sessionRequest) ([]model.SessionMetadata, error) {
	body, err := f.client.Post(ctx, f.client.SessionsURL(category), payload, sessionCallTimeout)
	if err != nil {
		return nil, err
	}

	var envelope sessionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s sessions: %w", category, err)
	}

	sessions := make([]model.SessionMetadata, 0, len(envelope.Sessions))
	for _, vs := range envelope.Sessions {
		sessions = append(sessions, mapSession(vs, category))
	}
	return sessions, nil
}

// mapSession converts a vendor record, defaulting absent numerics to zero,
// absent tag lists to empty slices, and the category to the tagged one so
// nothing downstream ever sees a nil or empty field.
func mapSession(vs vendorSession, category model.OutcomeCategory) model.SessionMetadata {
	if category == "" {
		category = model.CategoryUnknown
	}
	tags := vs.Tags.SessionTags
	if tags == nil {
		tags = []model.Tag{}
	}
	return model.SessionMetadata{
		SessionID: vs.SessionID,
		UserID:    vs.UserID,
		StartTime: vs.StartTime,
		EndTime:   vs.EndTime,
		Category:  category,
		Tags:      tags,
		Metrics: model.MessageCounts{
			Total: vs.Metrics.TotalMessages,
			User:  vs.Metrics.UserMessages,
			Bot:   vs.Metrics.BotMessages,
		},
		DurationSeconds: vs.Duration,
	}
}
