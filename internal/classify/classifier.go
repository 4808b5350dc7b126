// Package classify defines the LLM classification capability the pipeline's
// callers consume. The pipeline itself never depends on it; transcripts flow
// in as plain data and an Outcome comes back.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"botsift/internal/model"
)

// Classifier labels one assembled transcript.
type Classifier interface {
	Classify(ctx context.Context, swt model.SessionWithTranscript) (Outcome, error)
}

// Outcome is a classification result.
type Outcome struct {
	SessionID string `json:"sessionId"`
	Label     string `json:"label"`
}

const maxTranscriptChars = 8000

const classifyInstructions = "You label transcripts of calls between a user and a voice bot. " +
	"Answer with a single short label describing why the conversation ended the way it did. " +
	"Do not use markdown formatting."

// OpenAIClassifier implements Classifier over the OpenAI responses API.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier for the given API key and model.
func NewOpenAIClassifier(apiKey, modelName string) *OpenAIClassifier {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{client: &client, model: modelName}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, swt model.SessionWithTranscript) (Outcome, error) {
	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(classifyInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(renderTranscript(swt), responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Outcome{}, fmt.Errorf("classify session %s: %w", swt.SessionID, err)
	}

	label := strings.TrimSpace(resp.OutputText())
	if label == "" {
		return Outcome{}, fmt.Errorf("classify session %s: model returned no text", swt.SessionID)
	}

	return Outcome{SessionID: swt.SessionID, Label: label}, nil
}

// renderTranscript flattens a transcript into labeled lines under a fixed
// character budget.
func renderTranscript(swt model.SessionWithTranscript) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session outcome category: %s\n\n", swt.Category)

	for _, m := range swt.Messages {
		label := "Bot"
		if m.Speaker == model.SpeakerUser {
			label = "User"
		}
		line := fmt.Sprintf("%s: %s\n", label, m.Text)
		if sb.Len()+len(line) > maxTranscriptChars {
			sb.WriteString("... (truncated)\n")
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}
