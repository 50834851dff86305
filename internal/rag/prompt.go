package rag

import (
	"strings"

	"github.com/docchat/docchat/internal/knowledge"
)

// NoAnswer is returned whenever the documents do not cover the question.
// The system prompt instructs the model to use the same phrase, so callers
// see one consistent "I don't know" marker.
const NoAnswer = "Not in docs."

// systemPrompt pins the model to the retrieved context.
const systemPrompt = "Answer ONLY using the provided context. If the answer " +
	"is missing, respond with 'Not in docs.' Keep replies concise."

// buildSystemPrompt appends the retrieved chunks to the grounding
// instructions.
func buildSystemPrompt(results []knowledge.Result) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nContext:\n")
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(r.Document.Content)
	}
	return sb.String()
}
