package core

import "context"

// CompletionRequest is the payload for a single model call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	// JSONMode asks the provider to constrain the reply to a single JSON
	// object, where the API supports it.
	JSONMode bool
}

// ModelProvider is the outbound model collaborator. Complete must honor ctx
// cancellation so an in-flight call can be aborted on deadline.
type ModelProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (Message, error)
}
