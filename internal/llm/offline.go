// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// OfflineEmbedder is a deterministic local embedder used when no provider
// is configured: it hashes word tokens into a fixed-length bag-of-words
// vector and L2-normalizes it. Similar texts land near each other, which
// is enough for offline runs and tests; it is not a semantic model.
type OfflineEmbedder struct {
	// Dimension is the output vector length (default 64).
	Dimension int
}

// Embed deterministically maps text to a normalized vector.
func (e *OfflineEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dim := e.Dimension
	if dim <= 0 {
		dim = 64
	}

	vec := make([]float64, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()[]")
		if tok == "" {
			continue
		}
		sum := sha256.Sum256([]byte(tok))
		idx := binary.BigEndian.Uint32(sum[:4]) % uint32(dim)
		vec[idx]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
