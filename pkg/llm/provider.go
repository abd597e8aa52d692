package llm

import (
	"context"
)

// Stream is a lazy, finite, non-restartable sequence of text fragments.
// Recv blocks until the next fragment is available and returns io.EOF
// once the sequence ends. Close releases the underlying connection.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Generate sends a single prompt to the model and blocks for the full response
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream sends a single prompt and returns the response as a fragment stream
	GenerateStream(ctx context.Context, prompt string) (Stream, error)
}
