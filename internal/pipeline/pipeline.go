// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a theme identification run through its stages:
// collect passages from raw hits, resolve citations, attach embeddings,
// cluster, synthesize labels, and build the citation graph. Each stage
// consumes the previous stage's output only, so a failure is always
// attributable to exactly one stage.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/theme-engine/internal/cluster"
	"github.com/pdiddy/theme-engine/internal/collect"
	"github.com/pdiddy/theme-engine/internal/embed"
	"github.com/pdiddy/theme-engine/internal/graph"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/synth"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// Stage names one phase of a run.
type Stage string

const (
	StageCollecting Stage = "COLLECTING"
	StageResolving  Stage = "RESOLVING_CITATIONS"
	StageEmbedding  Stage = "EMBEDDING"
	StageClustering Stage = "CLUSTERING"
	StageSynthesis  Stage = "SYNTHESIZING"
	StageGraphBuilt Stage = "GRAPH_BUILT"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// StageError wraps a stage failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Input is everything a run needs: per-document raw hits and the layout
// index of every document the hits reference.
type Input struct {
	Hits    map[string][]types.RawHit
	Layouts map[string]*types.DocumentLayoutIndex
}

// Result is the full output of one run. Clusters holds the real clusters
// in id order with the noise pseudo-cluster last when it is non-empty.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id" yaml:"run_id"`

	// Passages is the embedded passage list clusters index into.
	Passages []types.Passage `json:"passages" yaml:"passages"`

	// Clusters are the synthesized themes, noise last.
	Clusters []types.ThemeCluster `json:"clusters" yaml:"clusters"`

	// Graph is the theme/citation/document graph.
	Graph *types.CitationGraph `json:"graph" yaml:"graph"`

	// Stages records the stage progression, ending in DONE.
	Stages []Stage `json:"stages" yaml:"stages"`

	// DupsRemoved counts passages dropped as near-duplicates during
	// collection.
	DupsRemoved int `json:"dups_removed" yaml:"dups_removed"`

	// DocsSkipped counts documents skipped for missing or empty layouts.
	DocsSkipped int `json:"docs_skipped" yaml:"docs_skipped"`

	// EmbedsDropped counts passages dropped after embedding failed.
	EmbedsDropped int `json:"embeds_dropped" yaml:"embeds_dropped"`

	// Warnings holds every warning emitted during the run, in order.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Pipeline holds the collaborators and configuration for runs. The zero
// value is not usable: an Embedder is required, the Generator and Cache
// are optional (a run without a Generator degrades every cluster, a run
// without a Cache embeds everything fresh).
type Pipeline struct {
	Embedder  llm.Embedder
	Generator llm.Generator
	Cache     *embed.Cache
	Config    types.PipelineConfig

	// Log receives warnings as they happen. Warnings are additionally
	// collected into Result.Warnings. Nil discards the live stream.
	Log io.Writer
}

// Run executes the full pipeline. On failure the returned error is a
// *StageError naming the failed stage; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	rec := &warningRecorder{}
	w := io.Writer(rec)
	if p.Log != nil {
		w = io.MultiWriter(p.Log, rec)
	}

	r := &Result{RunID: uuid.NewString()}
	fail := func(stage Stage, err error) (*Result, error) {
		return nil, &StageError{Stage: stage, Err: err}
	}

	r.Stages = append(r.Stages, StageCollecting)
	collected, err := collect.Collect(ctx, in.Hits, in.Layouts, w)
	if err != nil {
		return fail(StageCollecting, err)
	}
	r.Stages = append(r.Stages, StageResolving)
	r.DupsRemoved = collected.DupsRemoved
	r.DocsSkipped = collected.DocsSkipped

	if err := ctx.Err(); err != nil {
		return fail(StageEmbedding, err)
	}
	r.Stages = append(r.Stages, StageEmbedding)
	embedded, err := embed.Attach(ctx, collected.Passages, p.Embedder, p.Cache, p.Config.Embedding, w)
	if err != nil {
		return fail(StageEmbedding, err)
	}
	r.Passages = embedded.Passages
	r.EmbedsDropped = embedded.Dropped

	if err := ctx.Err(); err != nil {
		return fail(StageClustering, err)
	}
	r.Stages = append(r.Stages, StageClustering)
	if len(r.Passages) == 0 {
		return fail(StageClustering, fmt.Errorf("no passages to cluster"))
	}
	clustered, err := cluster.Cluster(r.Passages, p.Config.Cluster)
	if err != nil {
		return fail(StageClustering, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageSynthesis, err)
	}
	r.Stages = append(r.Stages, StageSynthesis)
	for _, c := range clustered.Clusters {
		enriched, err := synth.Synthesize(ctx, c, r.Passages, p.Generator, p.Config.Synthesis, w)
		if err != nil {
			return fail(StageSynthesis, err)
		}
		r.Clusters = append(r.Clusters, enriched)
	}
	if len(clustered.Noise.Members) > 0 {
		r.Clusters = append(r.Clusters, clustered.Noise)
	}

	if err := ctx.Err(); err != nil {
		return fail(StageGraphBuilt, err)
	}
	r.Graph = graph.Build(r.Clusters)
	r.Stages = append(r.Stages, StageGraphBuilt, StageDone)

	r.Warnings = rec.lines()
	return r, nil
}

// warningRecorder captures warning lines written by the stages.
type warningRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *warningRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *warningRecorder) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, line := range bytes.Split(r.buf.Bytes(), []byte("\n")) {
		if len(line) > 0 {
			out = append(out, string(line))
		}
	}
	return out
}
