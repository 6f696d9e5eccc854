// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/theme-engine/internal/embed"
	"github.com/pdiddy/theme-engine/internal/graph"
	"github.com/pdiddy/theme-engine/internal/llm"
	"github.com/pdiddy/theme-engine/internal/pipeline"
	"github.com/pdiddy/theme-engine/internal/resolve"
	"github.com/pdiddy/theme-engine/pkg/types"
)

const defaultHTTPTimeout = 60 * time.Second

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Identify themes and build citation graphs",
	Long: `Themes runs the theme identification pipeline over retrieval hits and
document layouts, or rebuilds the citation graph from a saved run.`,
}

// --- identify subcommand ---

var themesIdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Run the full theme identification pipeline",
	Long: `Identify reads per-document retrieval hits and document layouts, resolves
each hit into a cited passage, clusters passage embeddings, labels each
cluster, and writes the themes, citations, and citation graph.

Layouts may be a YAML index file or a directory of plain-text documents;
a directory is segmented into pages, paragraphs, and sentences on load.
With --offline, embeddings come from a local deterministic hasher and
theme labels fall back to passage text instead of calling a provider.`,
	RunE: runThemesIdentify,
}

func runThemesIdentify(cmd *cobra.Command, args []string) error {
	hitsPath, _ := cmd.Flags().GetString("hits")
	layoutsPath, _ := cmd.Flags().GetString("layouts")

	hits, err := loadHits(hitsPath)
	if err != nil {
		return err
	}
	layouts, err := loadLayouts(layoutsPath)
	if err != nil {
		return err
	}

	cfg := identifyConfig(cmd)
	offline, _ := cmd.Flags().GetBool("offline")

	p := &pipeline.Pipeline{Config: cfg, Log: os.Stderr}
	if offline {
		p.Embedder = &llm.OfflineEmbedder{Dimension: cfg.Embedding.Dimension}
	} else {
		p.Embedder = llm.NewOpenAIEmbedder(cfg.Embedding)
		p.Generator = llm.NewOpenAIGenerator(cfg.Synthesis)
	}

	if cfg.Embedding.CachePath != "" {
		cache, err := embed.NewCache(cfg.Embedding.CachePath)
		if err != nil {
			return fmt.Errorf("opening embedding cache: %w", err)
		}
		defer cache.Close()
		p.Cache = cache
	}

	result, err := p.Run(context.Background(), pipeline.Input{Hits: hits, Layouts: layouts})
	if err != nil {
		return err
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := os.WriteFile(reportPath, []byte(pipeline.RenderMarkdown(result)), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}

	return writeResult(cmd, result)
}

// identifyConfig assembles the pipeline configuration from flags, config
// file values, and loaded secrets, in that order of precedence.
func identifyConfig(cmd *cobra.Command) types.PipelineConfig {
	eps, _ := cmd.Flags().GetFloat64("eps")
	minSamples, _ := cmd.Flags().GetInt("min-samples")
	metric, _ := cmd.Flags().GetString("metric")
	minDocs, _ := cmd.Flags().GetInt("min-documents")
	model, _ := cmd.Flags().GetString("model")
	cachePath, _ := cmd.Flags().GetString("cache")

	apiKey := secretDefault("openai-api-key", viper.GetString("openai_api_key"))
	if model == "" {
		model = viper.GetString("embedding_model")
	}
	if cachePath == "" {
		cachePath = viper.GetString("cache_path")
	}

	httpCfg := types.HTTPConfig{
		Timeout:   defaultHTTPTimeout,
		UserAgent: "theme-engine/" + version,
	}
	if t := viper.GetDuration("http_timeout"); t > 0 {
		httpCfg.Timeout = t
	}

	return types.PipelineConfig{
		Embedding: types.EmbeddingConfig{
			AIConfig:  types.AIConfig{Model: model, APIKey: apiKey, HTTP: httpCfg},
			CachePath: cachePath,
		},
		Cluster: types.ClusterConfig{
			Eps:          eps,
			MinSamples:   minSamples,
			Metric:       types.DistanceMetric(metric),
			MinDocuments: minDocs,
		},
		Synthesis: types.SynthesisConfig{
			AIConfig: types.AIConfig{Model: viper.GetString("synthesis_model"), APIKey: apiKey, HTTP: httpCfg},
		},
	}
}

// loadHits reads a YAML file mapping document ids to raw retrieval hits.
func loadHits(path string) (map[string][]types.RawHit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}
	var hits map[string][]types.RawHit
	if err := yaml.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("parsing hits %s: %w", path, err)
	}
	return hits, nil
}

// loadLayouts reads document layouts from a YAML index file, or builds
// them from a directory of .txt files named after their document ids.
func loadLayouts(path string) (map[string]*types.DocumentLayoutIndex, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading layouts: %w", err)
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading layouts: %w", err)
		}
		var layouts map[string]*types.DocumentLayoutIndex
		if err := yaml.Unmarshal(data, &layouts); err != nil {
			return nil, fmt.Errorf("parsing layouts %s: %w", path, err)
		}
		return layouts, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading layouts dir: %w", err)
	}
	layouts := make(map[string]*types.DocumentLayoutIndex)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(path, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading document %s: %w", e.Name(), err)
		}
		docID := strings.TrimSuffix(e.Name(), ".txt")
		layouts[docID] = resolve.BuildLayout(docID, string(text))
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no .txt documents found in %s", path)
	}
	return layouts, nil
}

// writeResult marshals v to --out or stdout, as YAML by default or JSON
// with --json.
func writeResult(cmd *cobra.Command, v any) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	outPath, _ := cmd.Flags().GetString("out")

	var data []byte
	var err error
	if asJSON {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if outPath == "" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "Result written to %s\n", outPath)
	return nil
}

// --- graph subcommand ---

var themesGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Rebuild the citation graph from a saved run",
	Long: `Graph reads a saved identify result (YAML or JSON) and rebuilds its
theme/citation/document graph. Useful after hand-editing theme labels or
for feeding the graph to a separate visualization step.`,
	RunE: runThemesGraph,
}

func runThemesGraph(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading run result: %w", err)
	}

	var result pipeline.Result
	if strings.HasSuffix(inPath, ".json") {
		err = json.Unmarshal(data, &result)
	} else {
		err = yaml.Unmarshal(data, &result)
	}
	if err != nil {
		return fmt.Errorf("parsing run result %s: %w", inPath, err)
	}

	return writeResult(cmd, graph.Build(result.Clusters))
}

func init() {
	themesIdentifyCmd.Flags().String("hits", "", "YAML file of per-document retrieval hits (required)")
	themesIdentifyCmd.Flags().String("layouts", "", "layout YAML file or directory of .txt documents (required)")
	themesIdentifyCmd.Flags().Float64("eps", 0.3, "neighborhood radius for clustering")
	themesIdentifyCmd.Flags().Int("min-samples", 2, "minimum neighborhood size for a dense point")
	themesIdentifyCmd.Flags().String("metric", "cosine", "distance metric: cosine or euclidean")
	themesIdentifyCmd.Flags().Int("min-documents", 1, "minimum distinct documents per theme")
	themesIdentifyCmd.Flags().String("model", "", "embedding model identifier")
	themesIdentifyCmd.Flags().String("cache", "", "embedding cache database path")
	themesIdentifyCmd.Flags().Bool("offline", false, "use the local deterministic embedder, no provider calls")
	themesIdentifyCmd.Flags().String("report", "", "also write a Markdown report to this path")
	themesIdentifyCmd.Flags().Bool("json", false, "output as JSON instead of YAML")
	themesIdentifyCmd.Flags().String("out", "", "write output to this path instead of stdout")
	_ = themesIdentifyCmd.MarkFlagRequired("hits")
	_ = themesIdentifyCmd.MarkFlagRequired("layouts")

	themesGraphCmd.Flags().String("input", "", "saved identify result, YAML or JSON (required)")
	themesGraphCmd.Flags().Bool("json", false, "output as JSON instead of YAML")
	themesGraphCmd.Flags().String("out", "", "write output to this path instead of stdout")
	_ = themesGraphCmd.MarkFlagRequired("input")

	themesCmd.AddCommand(themesIdentifyCmd)
	themesCmd.AddCommand(themesGraphCmd)
	rootCmd.AddCommand(themesCmd)
}
