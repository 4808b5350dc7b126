package model

import "encoding/json"

// ComponentKind tags the known vendor message component shapes.
type ComponentKind string

const (
	ComponentText     ComponentKind = "text"
	ComponentCard     ComponentKind = "card"
	ComponentPostback ComponentKind = "postback"
	ComponentTemplate ComponentKind = "template"
	ComponentUnknown  ComponentKind = "unknown"
)

// Component is one piece of a raw vendor message, reduced to a tagged
// variant with its candidate readable text. Unrecognized shapes map to
// ComponentUnknown with empty text rather than being dropped at decode time.
type Component struct {
	Kind ComponentKind
	Text string
}

// RawMessage mirrors one record from the platform's message endpoint.
type RawMessage struct {
	SessionID  string       `json:"sessionId"`
	CreatedOn  string       `json:"createdOn"`
	Direction  string       `json:"type"` // "incoming" = user, "outgoing" = bot
	Components []rawComponent `json:"components"`
}

type rawComponent struct {
	Type string `json:"cT"`
	Data struct {
		Text json.RawMessage `json:"text"`
	} `json:"data"`
}

// Speaker maps the vendor direction onto a Speaker, defaulting to the bot
// side for anything that is not explicitly incoming.
func (m RawMessage) Speaker() Speaker {
	if m.Direction == "incoming" {
		return SpeakerUser
	}
	return SpeakerBot
}

// Component reduces the first vendor component to its tagged variant.
// The mapping is total: every raw record yields a Component.
func (m RawMessage) Component() Component {
	if len(m.Components) == 0 {
		return Component{Kind: ComponentUnknown}
	}
	rc := m.Components[0]

	kind := ComponentUnknown
	switch rc.Type {
	case "text":
		kind = ComponentText
	case "card":
		kind = ComponentCard
	case "postback":
		kind = ComponentPostback
	case "template":
		kind = ComponentTemplate
	}

	return Component{Kind: kind, Text: decodeComponentText(rc.Data.Text)}
}

// Text returns the candidate readable text of the message, which may still
// carry markup or command payloads for the sanitizer to deal with.
func (m RawMessage) Text() string {
	return m.Component().Text
}

// decodeComponentText accepts the vendor's two text encodings: a plain
// string, or an array of strings of which the first is used.
func decodeComponentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return list[0]
	}

	// Objects and other shapes are passed through verbatim so the sanitizer's
	// command detection still sees them.
	return string(raw)
}
