// Package aigateway wraps outbound model-inference calls behind one
// InferenceClient interface. Step runs such a call in-process as the body
// of a tools.Run step; the package does not build request bodies for
// step.Tools.AiInfer.
package aigateway

import "context"

// Message is one turn of a model conversation.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// InferRequest is the provider-agnostic shape of one inference call.
type InferRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// InferResponse is the provider-agnostic shape of one inference result.
type InferResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// InferenceClient abstracts a single model provider. Implementations wrap
// the provider's official SDK and translate to/from the common shapes
// above.
type InferenceClient interface {
	Infer(ctx context.Context, req InferRequest) (InferResponse, error)
}
