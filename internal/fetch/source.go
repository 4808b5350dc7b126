package fetch

import (
	"context"

	"botsift/internal/config"
	"botsift/internal/model"
	"botsift/internal/remote"
)

// SessionSource is the pipeline's view of where sessions and messages come
// from. Selection between the remote platform and synthetic data is an
// explicit configuration choice, never inferred from credential values.
type SessionSource interface {
	// Sessions returns metadata (no messages) for sessions inside the window.
	Sessions(ctx context.Context, window model.TimeWindow, skip, limit int) ([]model.SessionMetadata, error)

	// Messages returns the raw transcript records for the given sessions.
	Messages(ctx context.Context, sessionIDs []string, window model.TimeWindow) ([]model.RawMessage, error)
}

// RemoteSource backs the pipeline with the live bot platform.
type RemoteSource struct {
	sessions *SessionFetcher
	messages *MessageFetcher
}

// NewRemoteSource builds a source from the platform settings.
func NewRemoteSource(platform config.Platform, batchConcurrency int) (*RemoteSource, error) {
	client, err := remote.NewClient(platform)
	if err != nil {
		return nil, err
	}
	return &RemoteSource{
		sessions: NewSessionFetcher(client),
		messages: NewMessageFetcher(client, batchConcurrency),
	}, nil
}

func (s *RemoteSource) Sessions(ctx context.Context, window model.TimeWindow, skip, limit int) ([]model.SessionMetadata, error) {
	return s.sessions.Fetch(ctx, window.Start, window.End, skip, limit)
}

func (s *RemoteSource) Messages(ctx context.Context, sessionIDs []string, window model.TimeWindow) ([]model.RawMessage, error) {
	return s.messages.Fetch(ctx, sessionIDs, window)
}
