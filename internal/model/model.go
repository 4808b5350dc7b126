// Package model defines the domain types shared across the application.
package model

import "time"

// Speaker identifies which side of the conversation produced a message.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// OutcomeCategory is how the platform reports a session concluded.
type OutcomeCategory string

const (
	CategoryAgent       OutcomeCategory = "agent"
	CategorySelfService OutcomeCategory = "selfService"
	CategoryDropOff     OutcomeCategory = "dropOff"

	// CategoryUnknown is the fallback when the platform omits the category.
	// A SessionMetadata never carries an empty category.
	CategoryUnknown OutcomeCategory = "unknown"
)

// AllCategories lists the three containment types the platform can be queried for.
func AllCategories() []OutcomeCategory {
	return []OutcomeCategory{CategoryAgent, CategorySelfService, CategoryDropOff}
}

// Tag is a name/value pair the platform attaches to a session.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MessageCounts holds per-speaker message totals as reported by the platform.
type MessageCounts struct {
	Total int `json:"total"`
	User  int `json:"user"`
	Bot   int `json:"bot"`
}

// SessionMetadata describes one session without its messages.
// StartTime and EndTime are kept as the vendor's raw timestamp strings;
// parsing is deferred to assembly so a bad value degrades to a nil duration
// instead of poisoning the fetch.
type SessionMetadata struct {
	SessionID       string
	UserID          string
	StartTime       string
	EndTime         string
	Category        OutcomeCategory
	Tags            []Tag
	Metrics         MessageCounts
	DurationSeconds float64
}

// Message is one sanitized conversation turn.
// Text is never empty; messages that sanitize to nothing are dropped upstream.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
}

// SessionWithTranscript combines session metadata with its sanitized,
// chronologically ordered messages. Built once by the assembler and
// immutable afterwards; the message counts are computed from the sanitized
// list, never from the vendor-reported metrics.
type SessionWithTranscript struct {
	SessionID        string          `json:"sessionId"`
	UserID           string          `json:"userId"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	Category         OutcomeCategory `json:"outcomeCategory"`
	Tags             []Tag           `json:"tags"`
	Metrics          MessageCounts   `json:"metrics"`
	Messages         []Message       `json:"messages"`
	DurationSeconds  *float64        `json:"durationSeconds"`
	MessageCount     int             `json:"messageCount"`
	UserMessageCount int             `json:"userMessageCount"`
	BotMessageCount  int             `json:"botMessageCount"`
}
