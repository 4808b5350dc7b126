package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"botsift/internal/model"
	"botsift/internal/remote"
)

// --- splitBatches ---

func TestSplitBatches_WhenGiven47IDs_ShouldYield20_20_7(t *testing.T) {
	ids := make([]string, 47)
	for i := range ids {
		ids[i] = fmt.Sprintf("s-%d", i)
	}

	batches := splitBatches(ids, 20)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	sizes := []int{len(batches[0]), len(batches[1]), len(batches[2])}
	if sizes[0] != 20 || sizes[1] != 20 || sizes[2] != 7 {
		t.Errorf("expected sizes 20,20,7, got %v", sizes)
	}
}

func TestSplitBatches_ForAnyLength_ShouldPreserveAllElementsInOrder(t *testing.T) {
	for _, length := range []int{0, 1, 19, 20, 21, 40, 47, 100} {
		ids := make([]string, length)
		for i := range ids {
			ids[i] = fmt.Sprintf("s-%d", i)
		}

		batches := splitBatches(ids, 20)

		expectedBatches := (length + 19) / 20
		if len(batches) != expectedBatches {
			t.Errorf("length %d: expected %d batches, got %d", length, expectedBatches, len(batches))
		}
		var flat []string
		for _, b := range batches {
			if len(b) > 20 {
				t.Errorf("length %d: batch larger than 20: %d", length, len(b))
			}
			flat = append(flat, b...)
		}
		if len(flat) != length {
			t.Errorf("length %d: expected all elements preserved, got %d", length, len(flat))
		}
		for i, id := range flat {
			if id != ids[i] {
				t.Errorf("length %d: order broken at %d", length, i)
				break
			}
		}
	}
}

// --- Fetch ---

func decodeIDs(r *http.Request) []string {
	var req messageRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	return req.SessionID
}

func messagesBody(ids []string, more bool) []byte {
	type wireMessage struct {
		SessionID  string `json:"sessionId"`
		CreatedOn  string `json:"createdOn"`
		Type       string `json:"type"`
		Components []any  `json:"components"`
	}
	var msgs []wireMessage
	for _, id := range ids {
		msgs = append(msgs, wireMessage{
			SessionID: id,
			CreatedOn: "2024-05-01T10:00:00.000Z",
			Type:      "incoming",
			Components: []any{map[string]any{
				"cT": "text", "data": map[string]any{"text": "hello from " + id},
			}},
		})
	}
	body, _ := json.Marshal(map[string]any{"messages": msgs, "moreAvailable": more})
	return body
}

func testWindow() model.TimeWindow {
	windows := model.ExpansionWindows(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	return windows[0]
}

func TestMessageFetch_WhenIDListIsEmpty_ShouldReturnWithoutAnyNetworkCall(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write(messagesBody(nil, false))
	}))
	defer server.Close()

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 4)
	messages, err := fetcher.Fetch(context.Background(), nil, testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected zero network calls, got %d", calls)
	}
}

func TestMessageFetch_WhenAllBatchesSucceed_ShouldConcatenateInBatchOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(messagesBody(decodeIDs(r), false))
	}))
	defer server.Close()

	ids := make([]string, 45)
	for i := range ids {
		ids[i] = fmt.Sprintf("s-%02d", i)
	}

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 4)
	messages, err := fetcher.Fetch(context.Background(), ids, testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 45 {
		t.Fatalf("expected 45 messages, got %d", len(messages))
	}
	for i, m := range messages {
		if m.SessionID != ids[i] {
			t.Fatalf("expected batch-order concatenation, got %s at %d", m.SessionID, i)
		}
	}
}

func TestMessageFetch_WhenOneBatchFails_ShouldReturnTheRest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := decodeIDs(r)
		for _, id := range ids {
			if id == "poison" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		w.Write(messagesBody(ids, false))
	}))
	defer server.Close()

	ids := []string{"a", "b"}
	for i := 0; i < 19; i++ {
		ids = append(ids, fmt.Sprintf("filler-%d", i))
	}
	ids = append(ids, "poison") // lands in the second batch

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 2)
	messages, err := fetcher.Fetch(context.Background(), ids, testWindow())
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if len(messages) != 20 {
		t.Errorf("expected the 20 messages of the surviving batch, got %d", len(messages))
	}
}

func TestMessageFetch_WhenAllBatchesFail_ShouldTryOneWholeSetFallback(t *testing.T) {
	var batchCalls, wholeSetCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := decodeIDs(r)
		if len(ids) > maxBatchSize {
			atomic.AddInt32(&wholeSetCalls, 1)
			w.Write(messagesBody(ids[:3], false))
			return
		}
		atomic.AddInt32(&batchCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("s-%d", i)
	}

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 2)
	messages, err := fetcher.Fetch(context.Background(), ids, testWindow())
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if atomic.LoadInt32(&wholeSetCalls) != 1 {
		t.Errorf("expected exactly one whole-set fallback call, got %d", wholeSetCalls)
	}
	if len(messages) != 3 {
		t.Errorf("expected the fallback's messages, got %d", len(messages))
	}
}

func TestMessageFetch_WhenFallbackAlsoFails_ShouldReturnEmptyWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 2)
	messages, err := fetcher.Fetch(context.Background(), []string{"a", "b"}, testWindow())
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}
}

func TestMessageFetch_WhenPlatformReturns401_ShouldPropagateImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 2)
	_, err := fetcher.Fetch(context.Background(), []string{"a"}, testWindow())

	var authErr *remote.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestMessageFetch_WhenMoreAvailable_ShouldFollowPagination(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		atomic.AddInt32(&calls, 1)
		if req.Skip == 0 {
			w.Write(messagesBody([]string{"a"}, true))
			return
		}
		if req.Skip != messagePageLimit {
			t.Errorf("expected skip advanced by %d, got %d", messagePageLimit, req.Skip)
		}
		w.Write(messagesBody([]string{"a"}, false))
	}))
	defer server.Close()

	fetcher := NewMessageFetcher(newTestClient(t, server.URL), 1)
	messages, err := fetcher.Fetch(context.Background(), []string{"a"}, testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 paginated calls, got %d", calls)
	}
	if len(messages) != 2 {
		t.Errorf("expected 2 messages across pages, got %d", len(messages))
	}
}
