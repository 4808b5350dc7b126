// Package remote implements the rate-limited, token-authenticated HTTP
// client for the bot platform's session and message endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"botsift/internal/config"
	"botsift/internal/model"
	"botsift/internal/observability"
)

const (
	rateLimitCooldown = 60 * time.Second

	// One cooldown retry per the platform contract; a second 429 in a row is
	// treated as a storm and surfaces as RateLimitedError.
	maxRateLimitAttempts = 2

	bodyPreviewLimit = 200
)

// Client issues authenticated, rate-limited POST calls to the platform.
// Every call acquires a rate-limiter slot and carries a freshly issued token.
type Client struct {
	baseURL    string
	botID      string
	httpClient *http.Client
	limiter    *RateLimiter
	tokens     *TokenIssuer
	log        *slog.Logger

	cooldown func(time.Duration)
}

// NewClient builds a client from the platform settings.
func NewClient(platform config.Platform) (*Client, error) {
	tokens, err := NewTokenIssuer(platform.ClientID, platform.BotID, platform.ClientSecret)
	if err != nil {
		return nil, err
	}
	if platform.BaseURL == "" {
		return nil, &config.ConfigurationError{Reason: "platform.baseUrl is required"}
	}
	return &Client{
		baseURL:    strings.TrimRight(platform.BaseURL, "/"),
		botID:      platform.BotID,
		httpClient: &http.Client{},
		limiter:    NewRateLimiter(platform.RequestsPerMinute),
		tokens:     tokens,
		log:        observability.Logger(),
		cooldown:   time.Sleep,
	}, nil
}

// SessionsURL is the metadata endpoint for one outcome category.
func (c *Client) SessionsURL(category model.OutcomeCategory) string {
	return fmt.Sprintf("%s/bot/%s/getSessions?containmentType=%s", c.baseURL, c.botID, url.QueryEscape(string(category)))
}

// MessagesURL is the batched message-transcript endpoint.
func (c *Client) MessagesURL() string {
	return fmt.Sprintf("%s/bot/%s/getMessagesV2", c.baseURL, c.botID)
}

// Post sends payload as JSON and returns the response body.
// 401 surfaces immediately as AuthenticationError. 429 sleeps one cooldown
// and retries once; a recurrence becomes RateLimitedError. A deadline hit
// becomes TimeoutError. Any other non-2xx becomes RemoteAPIError.
func (c *Client) Post(ctx context.Context, callURL string, payload any, timeout time.Duration) ([]byte, error) {
	return c.post(ctx, callURL, payload, timeout, 1)
}

func (c *Client) post(ctx context.Context, callURL string, payload any, timeout time.Duration, attempt int) ([]byte, error) {
	c.limiter.Acquire()

	token, err := c.tokens.Issue()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, callURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("auth", token)

	requestID := uuid.NewString()
	c.log.Debug("platform call", "request_id", requestID, "url", callURL, "attempt", attempt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{URL: callURL, Timeout: timeout}
		}
		return nil, fmt.Errorf("request to %s: %w", callURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthenticationError{URL: callURL}

	case resp.StatusCode == http.StatusTooManyRequests:
		if attempt >= maxRateLimitAttempts {
			return nil, &RateLimitedError{URL: callURL, Attempts: attempt}
		}
		c.log.Warn("platform answered 429, cooling down",
			"request_id", requestID, "cooldown", rateLimitCooldown.String())
		c.cooldown(rateLimitCooldown)
		return c.post(ctx, callURL, payload, timeout, attempt+1)

	default:
		return nil, &RemoteAPIError{URL: callURL, Status: resp.StatusCode, Body: truncate(string(body), bodyPreviewLimit)}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
