// README: Zero-shot intent classifier contract.
package ai

import "context"

// Classifier ranks a fixed candidate label set against free text.
// This interface allows for swapping different providers (Gemini, a hosted
// zero-shot model, a test fake) without touching the dialogue engine.
type Classifier interface {
	// Classify returns one entry per candidate label, ordered by descending
	// estimated relevance. labels must be non-empty.
	Classify(ctx context.Context, text string, labels []string) (Result, error)
}
