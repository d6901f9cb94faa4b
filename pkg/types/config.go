// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "library-index/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMProvider identifies a supported language-model API.
type LLMProvider string

const (
	LLMDeepSeek LLMProvider = "deepseek"
	LLMQwen     LLMProvider = "qwen"
)

// LLMConfig holds settings for one language-model role.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the language-model API: deepseek or qwen.
	Provider LLMProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "deepseek-chat", "qwen-plus").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's default endpoint. Tests point this
	// at an httptest server.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for transient API
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchProvider identifies a supported academic index.
type SearchProvider string

const (
	SearchArxiv    SearchProvider = "arxiv"
	SearchOpenAlex SearchProvider = "openalex"
)

// SearchConfig holds settings for the academic-search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the academic index: arxiv or openalex.
	Provider SearchProvider `json:"provider" yaml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxResultsPerQuery caps how many papers one query string may return
	// (default 2, matching the planner's narrow-query strategy).
	MaxResultsPerQuery int `json:"max_results_per_query" yaml:"max_results_per_query"`

	// MinInterval is the minimum spacing between calls to the index
	// (default 3s; the arXiv terms of use require it).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// OpenAlexEmail is sent in the polite-pool mailto parameter.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// ConversionBackend identifies the document structuring tool.
type ConversionBackend string

const (
	BackendPdftotext  ConversionBackend = "pdftotext"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for PDF-to-text structuring.
type ConversionConfig struct {
	// Backend selects the conversion tool: pdftotext or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend"`
}

// CacheProvider identifies the analysis cache implementation.
type CacheProvider string

const (
	CacheSQLite CacheProvider = "sqlite"
	CacheRedis  CacheProvider = "redis"
)

// CacheConfig holds settings for the analysis memory cache.
type CacheConfig struct {
	// Provider selects the cache: sqlite (local file) or redis.
	Provider CacheProvider `json:"provider" yaml:"provider"`

	// Path is the SQLite database directory (default "cache/").
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Addr is the Redis address (host:port).
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Password is the optional Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// TTL bounds how long cached analyses live (Redis only; zero means
	// no expiry).
	TTL time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// EngineConfig groups everything one research request needs: the three
// language-model roles, the external collaborators, and the loop bounds.
type EngineConfig struct {
	// QueryLLM extracts keywords and plans query strings.
	QueryLLM LLMConfig `json:"query_llm" yaml:"query_llm"`

	// AnalysisLLM structures papers and merges partial syntheses.
	AnalysisLLM LLMConfig `json:"analysis_llm" yaml:"analysis_llm"`

	// RelevanceLLM relates each analyzed paper back to the user query.
	RelevanceLLM LLMConfig `json:"relevance_llm" yaml:"relevance_llm"`

	Search     SearchConfig     `json:"search" yaml:"search"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`

	// MaxWorkers bounds simultaneous in-flight analyses and pair merges
	// (default 8).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// MaxSearchRetries is the refinement ceiling: the engine plans at most
	// MaxSearchRetries+1 search rounds (default 2).
	MaxSearchRetries int `json:"max_search_retries" yaml:"max_search_retries"`

	// MinSuccessRate is the analysis success-rate floor below which the
	// engine refines its strategy (default 0.3).
	MinSuccessRate float64 `json:"min_success_rate" yaml:"min_success_rate"`

	// MinPapers is the paper yield below which the engine broadens the
	// search while attempts remain (default 3).
	MinPapers int `json:"min_papers" yaml:"min_papers"`

	// UnitTimeout bounds each dispatched analysis or pair merge
	// (default 2m). A timed-out unit fails alone; the round continues.
	UnitTimeout time.Duration `json:"unit_timeout" yaml:"unit_timeout"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *EngineConfig) ApplyDefaults() {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 8
	}
	if c.MaxSearchRetries <= 0 {
		c.MaxSearchRetries = 2
	}
	if c.MinSuccessRate <= 0 {
		c.MinSuccessRate = 0.3
	}
	if c.MinPapers <= 0 {
		c.MinPapers = 3
	}
	if c.UnitTimeout <= 0 {
		c.UnitTimeout = 2 * time.Minute
	}
	if c.Search.MaxResultsPerQuery <= 0 {
		c.Search.MaxResultsPerQuery = 2
	}
	if c.Search.MinInterval <= 0 {
		c.Search.MinInterval = 3 * time.Second
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 30 * time.Second
	}
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = "library-index/0.1"
	}
	for _, llm := range []*LLMConfig{&c.QueryLLM, &c.AnalysisLLM, &c.RelevanceLLM} {
		if llm.MaxRetries <= 0 {
			llm.MaxRetries = 3
		}
		if llm.Timeout <= 0 {
			llm.Timeout = 120 * time.Second
		}
	}
	if c.Cache.Provider == "" {
		c.Cache.Provider = CacheSQLite
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "cache"
	}
	if c.Conversion.Backend == "" {
		c.Conversion.Backend = BackendPdftotext
	}
}
