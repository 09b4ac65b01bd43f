package core

import "errors"

// Failure taxonomy. Persistence and model-call failures are recovered locally
// and never crash a turn; only unexpected errors surface to the caller.
var (
	ErrStoreUnavailable        = errors.New("persistence backend unavailable")
	ErrModelTimeout            = errors.New("model call timed out")
	ErrModelTransport          = errors.New("model call transport failure")
	ErrStructuredOutputInvalid = errors.New("structured output invalid")
)
