package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// ScholarAPIKey is an optional Semantic Scholar API key for higher
	// rate limits.
	ScholarAPIKey string `json:"scholar_api_key,omitempty" yaml:"scholar_api_key,omitempty"`

	// PageSize is the page size for paginated API requests (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// InterQueryDelay is the delay between consecutive API queries within
	// one aggregation (default 1s). Rate-limit safety.
	InterQueryDelay time.Duration `json:"inter_query_delay" yaml:"inter_query_delay"`
}

// FetchConfig holds settings for the retrieval stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DestRoot is the base directory retrieved artifacts are written
	// under, one subdirectory per group.
	DestRoot string `json:"dest_root" yaml:"dest_root"`

	// MaxWorkers clamps the retrieval worker pool (default 8).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// SimilarityThreshold is the minimum normalized title similarity for
	// accepting a fuzzy search hit (default 0.8).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// OpenAlexMailto is the contact address sent with OpenAlex requests
	// for the polite pool.
	OpenAlexMailto string `json:"openalex_mailto,omitempty" yaml:"openalex_mailto,omitempty"`
}

// ReportConfig holds settings for the export stage.
type ReportConfig struct {
	// Locale selects the report header language: "en" or "zh".
	Locale string `json:"locale" yaml:"locale"`

	// OutputDir is the directory report files are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ServerConfig holds settings for the HTTP presentation boundary.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":5001").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins configures CORS for the web front end.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// WorkDir is the scratch directory for generated reports and downloads.
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search SearchConfig `json:"search" yaml:"search"`
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`
	Report ReportConfig `json:"report" yaml:"report"`
	Server ServerConfig `json:"server" yaml:"server"`
}
