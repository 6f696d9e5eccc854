package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "theme-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// HTTP configures the HTTP client used for API calls.
	HTTP HTTPConfig `json:"http" yaml:"http"`
}

// EmbeddingConfig holds settings for the embedding stage.
type EmbeddingConfig struct {
	AIConfig `yaml:",inline"`

	// Dimension is the expected embedding vector length. Zero disables
	// the check.
	Dimension int `json:"dimension" yaml:"dimension"`

	// ConcurrencyLimit bounds concurrent requests to the embedding
	// provider (default 4).
	ConcurrencyLimit int `json:"concurrency_limit" yaml:"concurrency_limit"`

	// CachePath is the SQLite vector cache file. Empty disables caching.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty"`
}

// DistanceMetric selects the clustering distance function.
type DistanceMetric string

const (
	MetricCosine    DistanceMetric = "cosine"
	MetricEuclidean DistanceMetric = "euclidean"
)

// ClusterConfig holds settings for the clustering stage.
type ClusterConfig struct {
	// Eps is the neighborhood radius: two passages closer than Eps are
	// neighbors.
	Eps float64 `json:"eps" yaml:"eps"`

	// MinSamples is the neighborhood size, the point itself included,
	// required for a passage to anchor a cluster.
	MinSamples int `json:"min_samples" yaml:"min_samples"`

	// Metric selects cosine or euclidean distance (default cosine).
	Metric DistanceMetric `json:"metric" yaml:"metric"`

	// MinDocuments is the number of distinct documents a cluster must span
	// to be reported as a theme; clusters below it are folded into noise.
	// Zero or one disables the filter.
	MinDocuments int `json:"min_documents" yaml:"min_documents"`
}

// SynthesisConfig holds settings for the theme synthesis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// MaxRepresentatives caps the evidence passages sent to the generation
	// provider per cluster (default 5).
	MaxRepresentatives int `json:"max_representatives" yaml:"max_representatives"`

	// LabelMaxWords caps fallback label length in words (default 8).
	LabelMaxWords int `json:"label_max_words" yaml:"label_max_words"`

	// DescriptionMaxLen caps fallback description length in bytes (default 280).
	DescriptionMaxLen int `json:"description_max_len" yaml:"description_max_len"`
}

// PipelineConfig groups all stage configurations for one theme
// identification run.
type PipelineConfig struct {
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Cluster   ClusterConfig   `json:"cluster" yaml:"cluster"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
}
