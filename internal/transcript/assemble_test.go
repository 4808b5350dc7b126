package transcript

import (
	"encoding/json"
	"fmt"
	"testing"

	"botsift/internal/model"
)

func rawMessage(t *testing.T, sessionID, createdOn, direction, text string) model.RawMessage {
	t.Helper()
	encoded, err := json.Marshal(map[string]any{
		"sessionId": sessionID,
		"createdOn": createdOn,
		"type":      direction,
		"components": []map[string]any{
			{"cT": "text", "data": map[string]any{"text": text}},
		},
	})
	if err != nil {
		t.Fatalf("marshal raw message: %v", err)
	}
	var raw model.RawMessage
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("unmarshal raw message: %v", err)
	}
	return raw
}

func metadata(sessionID, start, end string) model.SessionMetadata {
	return model.SessionMetadata{
		SessionID: sessionID,
		UserID:    "u-1",
		StartTime: start,
		EndTime:   end,
		Category:  model.CategorySelfService,
		Tags:      []model.Tag{},
		Metrics:   model.MessageCounts{Total: 5, User: 2, Bot: 3},
	}
}

// --- Assemble ---

func TestAssemble_WhenMessagesSanitizeAway_ShouldCountOnlySurvivors(t *testing.T) {
	meta := metadata("s-1", "2024-05-01T10:00:00.000Z", "2024-05-01T10:05:00.000Z")
	raws := []model.RawMessage{
		rawMessage(t, "s-1", "2024-05-01T10:00:01.000Z", "outgoing", "Welcome Task"),
		rawMessage(t, "s-1", "2024-05-01T10:00:02.000Z", "incoming", "I want to cancel"),
		rawMessage(t, "s-1", "2024-05-01T10:00:03.000Z", "outgoing", `{"command":"hangup"}`),
		rawMessage(t, "s-1", "2024-05-01T10:00:04.000Z", "outgoing", "Done, goodbye"),
	}

	swt := Assemble(meta, raws)

	if swt.MessageCount != 2 {
		t.Errorf("expected 2 surviving messages, got %d", swt.MessageCount)
	}
	if swt.MessageCount != len(swt.Messages) {
		t.Errorf("MessageCount %d does not match len(Messages) %d", swt.MessageCount, len(swt.Messages))
	}
	if swt.UserMessageCount != 1 || swt.BotMessageCount != 1 {
		t.Errorf("expected 1 user and 1 bot message, got %d and %d", swt.UserMessageCount, swt.BotMessageCount)
	}
	// Vendor-reported metrics stay untouched for reference.
	if swt.Metrics.Total != 5 {
		t.Errorf("expected vendor metrics preserved, got %d", swt.Metrics.Total)
	}
}

func TestAssemble_WhenMessagesArriveOutOfOrder_ShouldSortByTimestamp(t *testing.T) {
	meta := metadata("s-2", "2024-05-01T10:00:00.000Z", "2024-05-01T10:05:00.000Z")
	raws := []model.RawMessage{
		rawMessage(t, "s-2", "2024-05-01T10:00:30.000Z", "outgoing", "second"),
		rawMessage(t, "s-2", "2024-05-01T10:00:10.000Z", "incoming", "first"),
		rawMessage(t, "s-2", "2024-05-01T10:00:50.000Z", "incoming", "third"),
	}

	swt := Assemble(meta, raws)

	if len(swt.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(swt.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if swt.Messages[i].Text != want {
			t.Errorf("position %d: expected %q, got %q", i, want, swt.Messages[i].Text)
		}
	}
}

func TestAssemble_WhenTimestampsAreValid_ShouldComputeDuration(t *testing.T) {
	meta := metadata("s-3", "2024-05-01T10:00:00.000Z", "2024-05-01T10:02:30.000Z")

	swt := Assemble(meta, nil)

	if swt.DurationSeconds == nil {
		t.Fatal("expected non-nil duration")
	}
	if *swt.DurationSeconds != 150 {
		t.Errorf("expected 150 seconds, got %v", *swt.DurationSeconds)
	}
}

func TestAssemble_WhenBothTimestampsAreGarbage_ShouldYieldNilDuration(t *testing.T) {
	meta := metadata("s-4", "bad-string", "also-bad")

	swt := Assemble(meta, nil)

	if swt.DurationSeconds != nil {
		t.Errorf("expected nil duration for unparseable timestamps, got %v", *swt.DurationSeconds)
	}
}

func TestAssemble_WhenOneTimestampIsGarbage_ShouldYieldNilDuration(t *testing.T) {
	meta := metadata("s-5", "2024-05-01T10:00:00.000Z", "not-a-time")

	swt := Assemble(meta, nil)

	if swt.DurationSeconds != nil {
		t.Errorf("expected nil duration, got %v", *swt.DurationSeconds)
	}
}

func TestAssemble_WhenMetadataLacksCategoryAndTags_ShouldDefaultThem(t *testing.T) {
	meta := model.SessionMetadata{SessionID: "s-6"}

	swt := Assemble(meta, nil)

	if swt.Category != model.CategoryUnknown {
		t.Errorf("expected %q fallback, got %q", model.CategoryUnknown, swt.Category)
	}
	if swt.Tags == nil {
		t.Error("expected empty tag slice, got nil")
	}
}

// --- GroupBySessionID ---

func TestGroupBySessionID_WhenMessagesInterleave_ShouldPreservePerSessionOrder(t *testing.T) {
	raws := []model.RawMessage{
		rawMessage(t, "a", "2024-05-01T10:00:01.000Z", "incoming", "a-one"),
		rawMessage(t, "b", "2024-05-01T10:00:02.000Z", "incoming", "b-one"),
		rawMessage(t, "a", "2024-05-01T10:00:03.000Z", "outgoing", "a-two"),
		rawMessage(t, "b", "2024-05-01T10:00:04.000Z", "outgoing", "b-two"),
	}

	groups := GroupBySessionID(raws)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups["a"][0].Text() != "a-one" || groups["a"][1].Text() != "a-two" {
		t.Error("expected session a order preserved")
	}
	if groups["b"][0].Text() != "b-one" || groups["b"][1].Text() != "b-two" {
		t.Error("expected session b order preserved")
	}
}

// --- end-to-end scenario ---

func TestAssemble_WhenThreeSessionsCarryControlArtifacts_ShouldKeepFourMessagesTotal(t *testing.T) {
	var raws []model.RawMessage
	for i, contents := range [][2]string{
		{`{"command":"hangup"}`, "real message one"},
		{"Welcome Task", "real message two"},
		{"real message three", "real message four"},
	} {
		id := fmt.Sprintf("s-%d", i)
		raws = append(raws,
			rawMessage(t, id, "2024-05-01T10:00:01.000Z", "outgoing", contents[0]),
			rawMessage(t, id, "2024-05-01T10:00:02.000Z", "incoming", contents[1]),
		)
	}

	groups := GroupBySessionID(raws)

	total := 0
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s-%d", i)
		meta := metadata(id, "2024-05-01T10:00:00.000Z", "2024-05-01T10:05:00.000Z")
		meta.SessionID = id
		swt := Assemble(meta, groups[id])
		if swt.MessageCount != len(swt.Messages) {
			t.Errorf("session %s: MessageCount %d != len(Messages) %d", id, swt.MessageCount, len(swt.Messages))
		}
		total += swt.MessageCount
	}

	if total != 4 {
		t.Errorf("expected 4 messages across the three sessions, got %d", total)
	}
}
