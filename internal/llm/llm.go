// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the embedding and text-generation collaborator
// contracts and their OpenAI-backed implementations. The pipeline depends
// only on the interfaces so tests can substitute deterministic stubs.
package llm

import (
	"context"
	"errors"
)

// ErrProviderUnavailable marks a transient provider failure: rate limiting,
// server errors, or network faults. Callers retry with bounded backoff and
// degrade on exhaustion instead of failing the run.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Embedder converts text into a fixed-length numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generation is the structured output of the text-generation collaborator.
type Generation struct {
	// Label is a short theme label, at most a few words.
	Label string `json:"label"`

	// Description is a 1-3 sentence theme description.
	Description string `json:"description"`
}

// Generator produces a label and description grounded in the provided
// passages, following the given instruction.
type Generator interface {
	Generate(ctx context.Context, instruction string, passages []string) (Generation, error)
}
