package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bookdigest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the completion endpoint.
type AIConfig struct {
	// Model is the completion model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// AnalysisConfig holds settings for the page-analysis pipeline.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// SummaryModel is the model used for interval and final summaries.
	// Empty means Model is used for summaries as well.
	SummaryModel string `json:"summary_model" yaml:"summary_model"`

	// BaseDir is the working directory for all generated artifacts
	// (contains pdfs/, knowledge_bases/, summaries/, index/).
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// MaxPages caps the number of pages processed. Zero processes the
	// entire document.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// SummaryInterval generates an interval summary every N pages. Zero
	// disables interval summaries; the final summary is always produced.
	SummaryInterval int `json:"summary_interval" yaml:"summary_interval"`

	// StrictLoad aborts the run when the persisted knowledge file exists
	// but cannot be parsed. The default is to warn and start empty.
	StrictLoad bool `json:"strict_load" yaml:"strict_load"`
}

// IndexConfig holds settings for the knowledge index stage.
type IndexConfig struct {
	// BaseDir is the working directory (contains knowledge_bases/, index/).
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Index    IndexConfig    `json:"index" yaml:"index"`
}
