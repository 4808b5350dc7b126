package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"botsift/internal/model"
	"botsift/internal/observability"
	"botsift/internal/remote"
)

const (
	// The message endpoint rejects more than 20 session IDs per call.
	maxBatchSize = 20

	defaultBatchConcurrency = 10
	batchCallTimeout        = 30 * time.Second

	// Page size for the moreAvailable pagination loop within one batch call.
	messagePageLimit = 1000
)

// MessageFetcher pulls raw message transcripts for many sessions at once,
// splitting the ID set into bounded batches fetched with bounded concurrency.
type MessageFetcher struct {
	client      *remote.Client
	concurrency int
	log         *slog.Logger
}

// NewMessageFetcher wraps a platform client. Concurrency <= 0 selects the
// default ceiling of 10 simultaneous in-flight batch calls.
func NewMessageFetcher(client *remote.Client, concurrency int) *MessageFetcher {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}
	return &MessageFetcher{client: client, concurrency: concurrency, log: observability.Logger()}
}

type messageRequest struct {
	DateFrom  string   `json:"dateFrom"`
	DateTo    string   `json:"dateTo"`
	Skip      int      `json:"skip"`
	Limit     int      `json:"limit"`
	SessionID []string `json:"sessionId"`
}

type messageEnvelope struct {
	Messages      []model.RawMessage `json:"messages"`
	MoreAvailable bool               `json:"moreAvailable"`
}

// Fetch returns the raw messages for the given sessions within the window.
// A batch that errors is logged and excluded; the aggregate succeeds with
// whatever arrived. If every batch failed, one whole-set fallback call is
// attempted before settling for the (possibly empty) partial result.
// Authentication failures are the exception and propagate immediately.
func (f *MessageFetcher) Fetch(ctx context.Context, sessionIDs []string, window model.TimeWindow) ([]model.RawMessage, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	batches := splitBatches(sessionIDs, maxBatchSize)
	results := make([][]model.RawMessage, len(batches))
	failed := make([]bool, len(batches))

	var (
		authOnce sync.Once
		authErr  error
	)

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			messages, err := f.fetchBatch(ctx, batch, window)
			if err != nil {
				var ae *remote.AuthenticationError
				if errors.As(err, &ae) {
					authOnce.Do(func() { authErr = err })
					failed[i] = true
					return nil
				}
				f.log.Warn("message batch failed",
					"batch", i, "sessions", len(batch), "error", err.Error())
				failed[i] = true
				return nil
			}
			results[i] = messages
			return nil
		})
	}
	g.Wait()

	if authErr != nil {
		return nil, authErr
	}

	allFailed := true
	var merged []model.RawMessage
	for i := range batches {
		if !failed[i] {
			allFailed = false
			merged = append(merged, results[i]...)
		}
	}

	if allFailed {
		f.log.Warn("all message batches failed, trying one whole-set call",
			"sessions", len(sessionIDs))
		messages, err := f.fetchBatch(ctx, sessionIDs, window)
		if err != nil {
			var ae *remote.AuthenticationError
			if errors.As(err, &ae) {
				return nil, err
			}
			f.log.Warn("whole-set fallback failed", "error", err.Error())
			return nil, nil
		}
		return messages, nil
	}

	return merged, nil
}

// fetchBatch issues one batch call, following pagination until the platform
// reports no more messages.
func (f *MessageFetcher) fetchBatch(ctx context.Context, sessionIDs []string, window model.TimeWindow) ([]model.RawMessage, error) {
	var collected []model.RawMessage

	skip := 0
	for {
		payload := messageRequest{
			DateFrom:  model.FormatInstant(window.Start),
			DateTo:    model.FormatInstant(window.End),
			Skip:      skip,
			Limit:     messagePageLimit,
			SessionID: sessionIDs,
		}

		body, err := f.client.Post(ctx, f.client.MessagesURL(), payload, batchCallTimeout)
		if err != nil {
			return nil, err
		}

		var envelope messageEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decode messages: %w", err)
		}

		collected = append(collected, envelope.Messages...)
		if !envelope.MoreAvailable {
			return collected, nil
		}
		skip += messagePageLimit
	}
}

// splitBatches chops ids into contiguous slices of at most size elements,
// preserving order. len(ids)=47, size=20 yields sizes 20, 20, 7.
func splitBatches(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
