// Package inference provides clients for the hosted HuggingFace inference
// APIs used by docchat.
//
// Two surfaces are wrapped:
//   - the feature-extraction pipeline, which turns text into embedding
//     vectors (see Embedder)
//   - the OpenAI-compatible chat completions router (see ChatModel)
//
// Both clients retry transient failures with exponential backoff and
// respect context cancellation.
package inference

import "context"

// Embedder generates embedding vectors for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces a completion for a system/user message pair.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
