// Package transcript turns raw vendor message records into clean,
// analyzable transcripts.
package transcript

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"botsift/internal/model"
)

// noInputPlaceholder replaces the platform's silence-timeout sentinel so a
// transcript still shows that the caller said nothing.
const noInputPlaceholder = "(user is silent)"

// sentinelRule is one entry in the fixed sentinel lookup table.
type sentinelRule struct {
	replacement string
	drop        bool
}

// sentinels maps exact vendor sentinel values to their handling. This is a
// lookup table, not a heuristic: anything not listed is ordinary text.
var sentinels = map[string]sentinelRule{
	"Welcome Task":     {drop: true},
	"WELCOME_TASK":     {drop: true},
	"NO_INPUT":         {replacement: noInputPlaceholder},
	"NO_INPUT_TIMEOUT": {replacement: noInputPlaceholder},
}

// commandVerbs are system-control payloads, not conversation content.
var commandVerbs = map[string]bool{
	"hangup":   true,
	"redirect": true,
	"transfer": true,
}

// ssmlTagPattern matches speech-synthesis markup tags whose enclosed text
// should survive.
var ssmlTagPattern = regexp.MustCompile(`</?(?:speak|voice|prosody|break|audio|emphasis|say-as|phoneme|sub|lang|mark|p|s|w)\b[^>]*/?>`)

// Sanitize normalizes one raw message text into readable conversation
// content, or reports false when the message should be dropped. It is pure
// and total: every input maps to either a non-empty string or a drop.
func Sanitize(raw string, speaker model.Speaker) (string, bool) {
	text := strings.TrimSpace(raw)

	if looksLikeJSONObject(text) {
		extracted, ok := extractFromPayload(text)
		if !ok {
			return "", false
		}
		text = strings.TrimSpace(extracted)
	}

	if rule, hit := sentinels[text]; hit {
		if rule.drop {
			return "", false
		}
		// Placeholders describe user silence; a bot-side sentinel carries no
		// conversational content and is dropped.
		if speaker != model.SpeakerUser {
			return "", false
		}
		return rule.replacement, true
	}

	text = ssmlTagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = strings.TrimSpace(text)

	if text == "" {
		return "", false
	}
	return text, true
}

func looksLikeJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

// sayPayload covers the recognizable vendor payload shapes: a say command
// with one or more text lines, a bare text field, or a control command.
type sayPayload struct {
	Command string `json:"command"`
	Verb    string `json:"verb"`
	Say     *struct {
		Text flexibleText `json:"text"`
	} `json:"say"`
	Text flexibleText `json:"text"`
}

// extractFromPayload pulls the first human-readable string out of a JSON
// payload. Control commands and unextractable payloads report false.
func extractFromPayload(text string) (string, bool) {
	var payload sayPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		// Braces but not JSON: treat as plain text.
		return text, true
	}

	if commandVerbs[strings.ToLower(payload.Command)] || commandVerbs[strings.ToLower(payload.Verb)] {
		return "", false
	}

	if payload.Say != nil {
		if line := payload.Say.Text.first(); line != "" {
			return line, true
		}
	}
	if line := payload.Text.first(); line != "" {
		return line, true
	}

	// A JSON payload with no readable field is not conversation text.
	return "", false
}

// flexibleText accepts the vendor's two encodings of a text field: a plain
// string or an array of strings.
type flexibleText []string

func (f *flexibleText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleText{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = flexibleText(list)
		return nil
	}
	// Unrecognized shape: no readable text, but not an error.
	*f = nil
	return nil
}

func (f flexibleText) first() string {
	for _, s := range f {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
