// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reference-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RateLimit is an adapter's request budget: RequestCount requests per Window.
type RateLimit struct {
	RequestCount int           `json:"request_count" yaml:"request_count"`
	Window       time.Duration `json:"window" yaml:"window"`
}

// CacheConfig bounds an adapter's response cache.
type CacheConfig struct {
	// TTL is how long a cached response stays valid.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxEntries caps the cache size; the oldest entry is evicted first.
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// ScoringConfig holds the per-adapter knobs of the confidence model.
// Ceilings deliberately differ between providers and stay configurable.
type ScoringConfig struct {
	// BaseConfidence reflects the general precision of the source,
	// typically 0.5-0.8.
	BaseConfidence float64 `json:"base_confidence" yaml:"base_confidence"`

	// MaxConfidence caps the additive score for this source (commonly
	// 0.9-0.95). An exact identifier match overrides the cap and scores 1.0.
	MaxConfidence float64 `json:"max_confidence" yaml:"max_confidence"`

	// TitleWeight is the maximum contribution of title similarity.
	TitleWeight float64 `json:"title_weight" yaml:"title_weight"`

	// AuthorWeight is the maximum contribution of author overlap.
	AuthorWeight float64 `json:"author_weight" yaml:"author_weight"`
}

// AdapterConfig describes one external provider.
type AdapterConfig struct {
	// Name is the adapter identifier (e.g. "crossref").
	Name string `json:"name" yaml:"name"`

	// BaseURL is the provider endpoint. Adapters declare defaults as
	// package vars so tests can substitute httptest servers.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Rate is the provider's request budget.
	Rate RateLimit `json:"rate" yaml:"rate"`

	// Cache bounds the adapter's response cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Scoring holds the adapter's confidence parameters.
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`

	// Mirrors lists alternate hosts for mirror-based providers.
	Mirrors []string `json:"mirrors,omitempty" yaml:"mirrors,omitempty"`

	// Enabled toggles the adapter without removing its configuration.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ResolveConfig holds settings for the metadata resolution stage.
type ResolveConfig struct {
	HTTPConfig `yaml:",inline"`

	// Strategy selects the aggregation strategy: parallel, fallback, or
	// best_result.
	Strategy string `json:"strategy" yaml:"strategy"`

	// OpenAccessOnly prefers results that carry a direct PDF link.
	OpenAccessOnly bool `json:"open_access_only" yaml:"open_access_only"`

	// Overwrite permits replacing an identifier field that is already set.
	// By default only empty fields are written.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// RetrieveConfig holds settings for the full-text retrieval stage.
type RetrieveConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinFileSize is the smallest payload accepted as a real file.
	MinFileSize int64 `json:"min_file_size" yaml:"min_file_size"`

	// DeepValidate additionally parses the PDF structure after the
	// header check passes.
	DeepValidate bool `json:"deep_validate" yaml:"deep_validate"`

	// Force downloads even when the record already has a valid file.
	Force bool `json:"force" yaml:"force"`
}

// StoreConfig holds settings for the reference store.
type StoreConfig struct {
	// DataDir is the base directory holding the database and attachments.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// BatchConfig holds settings for batch processing.
type BatchConfig struct {
	// Size is the number of records processed concurrently per batch.
	Size int `json:"size" yaml:"size"`

	// InterBatchDelay is the pause between batches, sized to respect the
	// most restrictive external rate limit.
	InterBatchDelay time.Duration `json:"inter_batch_delay" yaml:"inter_batch_delay"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Resolve  ResolveConfig  `json:"resolve" yaml:"resolve"`
	Retrieve RetrieveConfig `json:"retrieve" yaml:"retrieve"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
}
