package config

// Config is the root configuration for the routing engine. Every
// tunable the router consults at runtime lives here; nothing routing-
// related is read from ambient globals.
type Config struct {
	LogLevel   string           `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Router     RouterConfig     `json:"router" yaml:"router"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Decider    DeciderConfig    `json:"decider" yaml:"decider"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Stores     StoresConfig     `json:"stores" yaml:"stores"`
	Fuser      FuserConfig      `json:"fuser" yaml:"fuser"`
	// HTTP holds global defaults for outbound HTTP calls (embedding,
	// OpenAI-compatible endpoints).
	HTTP *HTTPClientConfig `json:"http,omitempty" yaml:"http,omitempty"`
}

// RouterConfig controls path selection, concurrency and the three
// timeout layers (per-store-call < per-dispatch < whole-path).
type RouterConfig struct {
	// ComplexityThreshold separates the fast path (score below) from
	// the intelligent path (score at or above).
	ComplexityThreshold float64 `json:"complexity_threshold,omitempty" yaml:"complexity_threshold,omitempty"`
	PerCallTimeoutMs    int     `json:"per_call_timeout_ms,omitempty" yaml:"per_call_timeout_ms,omitempty"`
	DispatchTimeoutMs   int     `json:"dispatch_timeout_ms,omitempty" yaml:"dispatch_timeout_ms,omitempty"`
	WholePathTimeoutMs  int     `json:"whole_path_timeout_ms,omitempty" yaml:"whole_path_timeout_ms,omitempty"`
	FastPathTimeoutMs   int     `json:"fast_path_timeout_ms,omitempty" yaml:"fast_path_timeout_ms,omitempty"`
	MaxConcurrentTools  int     `json:"max_concurrent_tools,omitempty" yaml:"max_concurrent_tools,omitempty"`
}

// ClassifierConfig exposes the heuristic scoring weights. The defaults
// mirror the tuned production values but are deliberately overridable:
// they were never derived from labeled data.
type ClassifierConfig struct {
	ConjunctionWeight   float64 `json:"conjunction_weight,omitempty" yaml:"conjunction_weight,omitempty"`
	TemporalWeight      float64 `json:"temporal_weight,omitempty" yaml:"temporal_weight,omitempty"`
	MetaWeight          float64 `json:"meta_weight,omitempty" yaml:"meta_weight,omitempty"`
	EntityWeight        float64 `json:"entity_weight,omitempty" yaml:"entity_weight,omitempty"`
	ExtraQuestionWeight float64 `json:"extra_question_weight,omitempty" yaml:"extra_question_weight,omitempty"`
	ExtraQuestionCap    float64 `json:"extra_question_cap,omitempty" yaml:"extra_question_cap,omitempty"`
	LongQueryWeight     float64 `json:"long_query_weight,omitempty" yaml:"long_query_weight,omitempty"`
	LongQueryTokens     int     `json:"long_query_tokens,omitempty" yaml:"long_query_tokens,omitempty"`
}

// DeciderConfig configures the sandboxed tool-selection model call.
type DeciderConfig struct {
	Provider    string  `json:"provider,omitempty" yaml:"provider,omitempty"` // "openai" or "" to disable
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TimeoutMs   int     `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	// MaxTools caps how many tool calls a single selection may yield;
	// extras are dropped with a warning tag.
	MaxTools int `json:"max_tools,omitempty" yaml:"max_tools,omitempty"`
	// HistoryTurns bounds how much recent conversation is shown to the
	// decision-maker.
	HistoryTurns int `json:"history_turns,omitempty" yaml:"history_turns,omitempty"`
}

// EmbeddingConfig configures the embedding provider used by semantic
// recall.
type EmbeddingConfig struct {
	Provider   string `json:"provider,omitempty" yaml:"provider,omitempty"` // "openai"
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model      string `json:"model,omitempty" yaml:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// StoresConfig groups the four knowledge store backends.
type StoresConfig struct {
	Facts      FactStoreConfig    `json:"facts" yaml:"facts"`
	Vector     VectorStoreConfig  `json:"vector" yaml:"vector"`
	Timeseries TimeseriesConfig   `json:"timeseries" yaml:"timeseries"`
	Profile    ProfileStoreConfig `json:"profile" yaml:"profile"`
}

// FactStoreConfig configures the relational fact store.
type FactStoreConfig struct {
	Path string `json:"path" yaml:"path"` // sqlite database file
	// MaxResults bounds any single fact lookup.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`
}

// VectorStoreConfig configures the persona vector memory store.
type VectorStoreConfig struct {
	Host       string `json:"host,omitempty" yaml:"host,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	UseTLS     bool   `json:"use_tls,omitempty" yaml:"use_tls,omitempty"`
	Collection string `json:"collection" yaml:"collection"`
	TopK       int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
}

// TimeseriesConfig configures the quality-metrics store.
type TimeseriesConfig struct {
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	// MinSamples below which a trend is reported as insufficient-data.
	MinSamples int `json:"min_samples,omitempty" yaml:"min_samples,omitempty"`
	// StableBand is the relative change treated as "stable".
	StableBand float64 `json:"stable_band,omitempty" yaml:"stable_band,omitempty"`
}

// ProfileStoreConfig configures the static persona profile store.
type ProfileStoreConfig struct {
	Path         string `json:"path" yaml:"path"` // YAML file with persona profiles
	CacheEntries int    `json:"cache_entries,omitempty" yaml:"cache_entries,omitempty"`
	CacheTTLSec  int    `json:"cache_ttl_seconds,omitempty" yaml:"cache_ttl_seconds,omitempty"`
}

// FuserConfig bounds the enriched context.
type FuserConfig struct {
	CharBudget int `json:"char_budget,omitempty" yaml:"char_budget,omitempty"`
	// TokenEncoding names the tiktoken encoding used for token
	// accounting in routing metadata ("" disables counting).
	TokenEncoding string `json:"token_encoding,omitempty" yaml:"token_encoding,omitempty"`
}

// HTTPClientConfig defines common options for outbound HTTP calls.
type HTTPClientConfig struct {
	TimeoutMs              int      `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	Retry                  int      `json:"retry,omitempty" yaml:"retry,omitempty"`
	BackoffMinMs           int      `json:"backoff_min_ms,omitempty" yaml:"backoff_min_ms,omitempty"`
	BackoffMaxMs           int      `json:"backoff_max_ms,omitempty" yaml:"backoff_max_ms,omitempty"`
	HostAllowlist          []string `json:"host_allowlist,omitempty" yaml:"host_allowlist,omitempty"`
	MaxConsecutiveFailures int      `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	CircuitOpenSeconds     int      `json:"circuit_open_seconds,omitempty" yaml:"circuit_open_seconds,omitempty"`
}

// Default returns a complete configuration with production defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Router: RouterConfig{
			ComplexityThreshold: 0.3,
			PerCallTimeoutMs:    200,
			DispatchTimeoutMs:   400,
			WholePathTimeoutMs:  2500,
			FastPathTimeoutMs:   200,
			MaxConcurrentTools:  3,
		},
		Classifier: ClassifierConfig{
			ConjunctionWeight:   0.25,
			TemporalWeight:      0.30,
			MetaWeight:          0.25,
			EntityWeight:        0.20,
			ExtraQuestionWeight: 0.10,
			ExtraQuestionCap:    0.30,
			LongQueryWeight:     0.15,
			LongQueryTokens:     20,
		},
		Decider: DeciderConfig{
			Provider:     "openai",
			Model:        "gpt-4o-mini",
			Temperature:  0.0,
			TimeoutMs:    1500,
			MaxTools:     4,
			HistoryTurns: 6,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Stores: StoresConfig{
			Facts:      FactStoreConfig{Path: "knowrouter.db", MaxResults: 20},
			Vector:     VectorStoreConfig{Host: "localhost", Port: 6334, Collection: "persona_memory", TopK: 8},
			Timeseries: TimeseriesConfig{Addr: "localhost:6379", KeyPrefix: "kr:ts:", MinSamples: 4, StableBand: 0.05},
			Profile:    ProfileStoreConfig{Path: "profiles.yaml", CacheEntries: 256, CacheTTLSec: 300},
		},
		Fuser: FuserConfig{
			CharBudget:    4000,
			TokenEncoding: "cl100k_base",
		},
	}
}
