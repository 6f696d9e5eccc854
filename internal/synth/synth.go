// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth enriches theme clusters with labels, descriptions, and
// aggregated citations. Labels come from the external generation
// collaborator; a deterministic fallback keeps the pipeline moving when
// generation is unavailable.
package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// Instruction is the fixed contract sent to the generation collaborator
// together with the representative passages.
const Instruction = "Produce a short label (at most 8 words) and a 1-3 sentence description grounded only in the provided passages."

const (
	defaultMaxRepresentatives = 5
	defaultMaxRetries         = 3
	snippetMaxLen             = 160
)

// Synthesize returns a copy of cluster with label, description, and
// citations populated. The citation set is always exactly the deduplicated,
// sorted citations of the member passages, independent of anything the
// generated text claims. When the generator fails irrecoverably or returns
// empty output, the cluster carries the deterministic fallback label and
// description and is marked degraded.
func Synthesize(ctx context.Context, cluster types.ThemeCluster, passages []types.Passage, gen llm.Generator, cfg types.SynthesisConfig, w io.Writer) (types.ThemeCluster, error) {
	if cluster.IsNoise() {
		return cluster, fmt.Errorf("noise pseudo-cluster is never synthesized")
	}
	if len(cluster.Members) == 0 {
		return cluster, fmt.Errorf("cluster %d has no members", cluster.ID)
	}

	reps := representatives(cluster, passages, cfg.MaxRepresentatives)
	cluster.Citations = memberCitations(cluster, passages)

	texts := make([]string, 0, len(reps))
	for _, m := range reps {
		texts = append(texts, passages[m].Text)
	}

	gen2, err := generateWithRetry(ctx, gen, texts, cfg.MaxRetries)
	if err == nil && strings.TrimSpace(gen2.Label) != "" {
		cluster.Label = strings.TrimSpace(gen2.Label)
		cluster.Description = strings.TrimSpace(gen2.Description)
		cluster.Degraded = false
		return cluster, nil
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cluster, ctxErr
		}
		fmt.Fprintf(w, "warning: cluster %d: generation failed, using fallback: %v\n", cluster.ID, err)
	} else {
		fmt.Fprintf(w, "warning: cluster %d: generation returned empty output, using fallback\n", cluster.ID)
	}

	top := passages[reps[0]].Text
	cluster.Label = FallbackLabel(top, cfg.LabelMaxWords)
	cluster.Description = FallbackDescription(top, cfg.DescriptionMaxLen)
	cluster.Degraded = true
	return cluster, nil
}

// representatives returns up to cap member indices ranked by similarity
// score descending, ties broken by member insertion order.
func representatives(cluster types.ThemeCluster, passages []types.Passage, capN int) []int {
	if capN <= 0 {
		capN = defaultMaxRepresentatives
	}

	ranked := append([]int(nil), cluster.Members...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return passages[ranked[i]].Score > passages[ranked[j]].Score
	})
	if len(ranked) > capN {
		ranked = ranked[:capN]
	}
	return ranked
}

// memberCitations builds the deduplicated, sorted citation set of every
// member passage. Snippets come from the highest-scoring passage covering
// each span, so they are deterministic.
func memberCitations(cluster types.ThemeCluster, passages []types.Passage) []types.Citation {
	// Walk members in score order so a span's snippet comes from its
	// best passage.
	ordered := append([]int(nil), cluster.Members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return passages[ordered[i]].Score > passages[ordered[j]].Score
	})

	var citations []types.Citation
	for _, m := range ordered {
		c := passages[m].Citation
		dup := false
		for _, have := range citations {
			if have.SameSpan(c) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		c.Snippet = truncate(passages[m].Text, snippetMaxLen)
		citations = append(citations, c)
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Less(citations[j])
	})
	return citations
}

// generateWithRetry calls the generator with bounded exponential backoff
// on transient provider failures. Permanent failures are not retried.
func generateWithRetry(ctx context.Context, gen llm.Generator, texts []string, maxRetries int) (llm.Generation, error) {
	if gen == nil {
		return llm.Generation{}, fmt.Errorf("no generation provider configured")
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		g, err := gen.Generate(ctx, Instruction, texts)
		if err == nil {
			return g, nil
		}
		lastErr = err
		if !errors.Is(err, llm.ErrProviderUnavailable) {
			break
		}
		if attempt < maxRetries-1 {
			if err := httputil.Sleep(ctx, attempt); err != nil {
				return llm.Generation{}, err
			}
		}
	}
	return llm.Generation{}, lastErr
}
