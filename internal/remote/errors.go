package remote

import (
	"fmt"
	"time"
)

// AuthenticationError is an HTTP 401 from the platform. It is fatal and
// never retried: once auth is broken no further call will succeed.
type AuthenticationError struct {
	URL string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication rejected (401) by %s", e.URL)
}

// RateLimitedError means the platform kept answering 429 after the cooldown
// retry was spent.
type RateLimitedError struct {
	URL      string
	Attempts int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (429) by %s after %d attempts", e.URL, e.Attempts)
}

// TimeoutError is a per-call timeout. It is caught at batch granularity and
// treated as a partial failure, never silently swallowed.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// RemoteAPIError is any other non-2xx response.
type RemoteAPIError struct {
	URL    string
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.Status, e.Body)
}
