// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/theme-engine/internal/httputil"
	"github.com/pdiddy/theme-engine/pkg/types"
)

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder for the configured model.
func NewOpenAIEmbedder(cfg types.EmbeddingConfig) *OpenAIEmbedder {
	client := openai.NewClient(clientOptions(cfg.AIConfig)...)
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: &client, model: model}
}

// Embed returns the embedding vector for text. Rate-limit and server
// failures are reported as ErrProviderUnavailable so the caller's
// retry/degrade policy applies.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings response carried no data")
	}
	return resp.Data[0].Embedding, nil
}

// OpenAIGenerator calls the OpenAI chat completions API for theme labels
// and descriptions.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator for the configured model.
func NewOpenAIGenerator(cfg types.SynthesisConfig) *OpenAIGenerator {
	client := openai.NewClient(clientOptions(cfg.AIConfig)...)
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{client: &client, model: model}
}

// clientOptions assembles the shared client settings: API key and an HTTP
// client carrying the configured timeout, User-Agent, and 429/5xx retry.
// The SDK's own retry layer is disabled so backoff policy lives in one
// place.
func clientOptions(cfg types.AIConfig) []option.RequestOption {
	return []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httputil.NewClient(cfg.HTTP, cfg.MaxRetries)),
		option.WithMaxRetries(0),
	}
}

// Generate asks the model for a JSON object {"label": ..., "description": ...}
// grounded in the provided passages.
func (g *OpenAIGenerator) Generate(ctx context.Context, instruction string, passages []string) (Generation, error) {
	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "Passage %d:\n%s\n\n", i+1, p)
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction + `
Respond with a single JSON object: {"label": "...", "description": "..."}.`),
			openai.UserMessage(b.String()),
		},
	})
	if err != nil {
		return Generation{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return Generation{}, fmt.Errorf("chat response carried no choices")
	}

	var gen Generation
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(extractJSON(content)), &gen); err != nil {
		return Generation{}, fmt.Errorf("parsing generation output: %w", err)
	}
	return gen, nil
}

// classify wraps transient API failures in ErrProviderUnavailable and
// passes everything else through.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "server_error"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}

// extractJSON strips Markdown code fences and surrounding prose that
// models sometimes wrap around JSON output.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
