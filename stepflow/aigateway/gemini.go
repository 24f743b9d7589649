package aigateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// SafetyFilterError reports that Gemini blocked a response on safety grounds.
type SafetyFilterError struct {
	Category string
	Reason   string
}

func (e *SafetyFilterError) Error() string {
	return fmt.Sprintf("aigateway: gemini blocked response: %s (%s)", e.Category, e.Reason)
}

// GeminiClient adapts Google's Gemini API to InferenceClient.
type GeminiClient struct {
	apiKey    string
	modelName string
}

func NewGeminiClient(apiKey, modelName string) *GeminiClient {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &GeminiClient{apiKey: apiKey, modelName: modelName}
}

func (c *GeminiClient) Infer(ctx context.Context, req InferRequest) (InferResponse, error) {
	if ctx.Err() != nil {
		return InferResponse{}, ctx.Err()
	}
	if c.apiKey == "" {
		return InferResponse{}, errors.New("aigateway: gemini API key is required")
	}

	model := c.modelName
	if req.Model != "" {
		model = req.Model
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return InferResponse{}, fmt.Errorf("aigateway: gemini client: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(model)
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			gm.SystemInstruction = genai.NewUserContent(genai.Text(m.Content))
			break
		}
	}

	session := gm.StartChat()
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	var prompt genai.Text
	if len(session.History) > 0 {
		last := session.History[len(session.History)-1]
		session.History = session.History[:len(session.History)-1]
		if len(last.Parts) > 0 {
			if t, ok := last.Parts[0].(genai.Text); ok {
				prompt = t
			}
		}
	}

	resp, err := session.SendMessage(ctx, prompt)
	if err != nil {
		return InferResponse{}, fmt.Errorf("aigateway: gemini call: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return InferResponse{}, &SafetyFilterError{Category: "unknown", Reason: "no candidates returned"}
	}
	if reason := resp.Candidates[0].FinishReason; reason == genai.FinishReasonSafety {
		return InferResponse{}, &SafetyFilterError{Category: "content", Reason: reason.String()}
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	result := InferResponse{Text: text}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}
