// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const (
	defaultConcurrency = 4
	defaultMaxRetries  = 3
)

// Output holds the embedded passages and degradation statistics.
type Output struct {
	// Passages is the input list in its original order, minus passages
	// whose embedding failed irrecoverably.
	Passages []types.Passage

	// Dropped counts passages removed after retry exhaustion.
	Dropped int
}

// Attach fills in the embedding vector of every passage, consulting the
// cache first and dispatching misses to the provider with bounded
// concurrency. Transient provider failures are retried with exponential
// backoff up to the configured attempt cap; a passage whose retries are
// exhausted is dropped with a warning rather than failing the run. A
// vector that disagrees with the configured dimension is fatal: distances
// over mixed dimensions would be silently corrupt.
func Attach(ctx context.Context, passages []types.Passage, embedder llm.Embedder, cache *Cache, cfg types.EmbeddingConfig, w io.Writer) (Output, error) {
	if embedder == nil {
		return Output{}, fmt.Errorf("no embedding provider configured")
	}

	workers := cfg.ConcurrencyLimit
	if workers <= 0 {
		workers = defaultConcurrency
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	// Bounded queue: the feeder blocks when workers fall behind, keeping
	// backpressure on instead of unbounded fan-out.
	jobs := make(chan int, workers)
	go func() {
		defer close(jobs)
		for i := range passages {
			if passages[i].Embedding != nil {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex // guards w and dropped
		dropped = make([]bool, len(passages))
	)
	warnf := func(format string, args ...any) {
		mu.Lock()
		fmt.Fprintf(w, format, args...)
		mu.Unlock()
	}

	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vec, err := embedOne(ctx, passages[i].Text, embedder, cache, cfg.Model, maxRetries, warnf)
				if err != nil {
					mu.Lock()
					dropped[i] = true
					fmt.Fprintf(w, "warning: passage %s[%d] dropped: %v\n",
						passages[i].DocumentID, passages[i].Rank, err)
					mu.Unlock()
					continue
				}
				passages[i].Embedding = vec
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	var out Output
	for i, p := range passages {
		if dropped[i] {
			out.Dropped++
			continue
		}
		if cfg.Dimension > 0 && len(p.Embedding) != cfg.Dimension {
			return Output{}, fmt.Errorf("passage %s[%d]: embedding dimension %d, configured %d",
				p.DocumentID, p.Rank, len(p.Embedding), cfg.Dimension)
		}
		out.Passages = append(out.Passages, p)
	}
	return out, nil
}

// embedOne resolves one passage's vector: cache hit, or provider call with
// bounded backoff on transient failures. Successful provider results are
// written back to the cache; a cache write failure is not fatal since the
// vector is already in hand, but it is surfaced as a warning.
func embedOne(ctx context.Context, text string, embedder llm.Embedder, cache *Cache, model string, maxRetries int, warnf func(string, ...any)) ([]float64, error) {
	if cache != nil {
		if vec, ok, err := cache.Get(ctx, model, text); err == nil && ok {
			return vec, nil
		}
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < maxRetries; attempt++ {
		attempts++
		vec, err := embedder.Embed(ctx, text)
		if err == nil {
			if cache != nil {
				if err := cache.Put(ctx, model, text, vec); err != nil {
					warnf("warning: embedding cache write failed: %v\n", err)
				}
			}
			return vec, nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrProviderUnavailable) {
			break
		}
		if attempt < maxRetries-1 {
			if err := httputil.Sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempt(s): %w", attempts, lastErr)
}
