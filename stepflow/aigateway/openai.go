package aigateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient adapts OpenAI's chat-completions API to InferenceClient, with
// bounded retry on transient errors.
type OpenAIClient struct {
	apiKey     string
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

func NewOpenAIClient(apiKey, modelName string) *OpenAIClient {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &OpenAIClient{apiKey: apiKey, modelName: modelName, maxRetries: 3, retryDelay: time.Second}
}

func (c *OpenAIClient) Infer(ctx context.Context, req InferRequest) (InferResponse, error) {
	if ctx.Err() != nil {
		return InferResponse{}, ctx.Err()
	}
	if c.apiKey == "" {
		return InferResponse{}, errors.New("aigateway: openai API key is required")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		out, err := c.call(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isTransientOpenAIError(err) {
			return InferResponse{}, err
		}
		if attempt >= c.maxRetries {
			break
		}

		delay := c.retryDelay
		if isRateLimitOpenAIError(err) {
			delay *= time.Duration(attempt + 1)
		}
		select {
		case <-ctx.Done():
			return InferResponse{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return InferResponse{}, lastErr
}

func (c *OpenAIClient) call(ctx context.Context, req InferRequest) (InferResponse, error) {
	model := c.modelName
	if req.Model != "" {
		model = req.Model
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return InferResponse{}, fmt.Errorf("aigateway: openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return InferResponse{}, nil
	}

	return InferResponse{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func toOpenAIMessages(messages []Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, m := range messages {
		switch m.Role {
		case RoleSystem:
			out[i] = openaisdk.SystemMessage(m.Content)
		case RoleAssistant:
			out[i] = openaisdk.AssistantMessage(m.Content)
		default:
			out[i] = openaisdk.UserMessage(m.Content)
		}
	}
	return out
}

func isTransientOpenAIError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "502")
}

func isRateLimitOpenAIError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
