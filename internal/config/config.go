// Package config loads pipeline configuration from the environment,
// following the teacher repo's flat-struct, env-first convention.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// ProviderKeys holds the API key for each pluggable retrieval adapter. A
// blank key disables that adapter silently (spec.md §6): the system must
// still function with whatever subset remains configured.
type ProviderKeys struct {
	Brave  string
	Google string
	Tavily string
	News   string
}

// Config holds all configuration for a pipeline run.
type Config struct {
	// LLM backend
	LLMAPIKey  string
	LLMBaseURL string
	Model      string

	Providers ProviderKeys

	// Output
	OutputDir string
	Language  string

	// Timeouts (spec.md §5)
	ProviderTimeout  time.Duration
	LLMTimeout       time.Duration
	IterationTimeout time.Duration
	SessionTimeout   time.Duration

	// Budgets (spec.md §4.9)
	MaxIterations    int
	QualityThreshold float64

	// Concurrency (spec.md §4.1, §5)
	SearchWorkerCap  int
	SectionWorkerCap int
	ProviderCaps     map[string]int
	EventBusBacklog  int

	Verbose bool

	// EmitPartialOnCancel, when true, assembles whatever sections had
	// already been written at the point of cancellation into a Report
	// marked metadata["partial"]=true instead of failing the run outright
	// (spec.md §9's resolved open question on emit_partial_on_cancel).
	EmitPartialOnCancel bool
}

// Load reads configuration from the environment (and an optional .env file,
// silently ignored if absent — mirrors the teacher's config.Load()).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LLMAPIKey:  os.Getenv("PIPELINE_LLM_API_KEY"),
		LLMBaseURL: getEnvOrDefault("PIPELINE_LLM_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		Model:      getEnvOrDefault("PIPELINE_LLM_MODEL", "alibaba/tongyi-deepresearch-30b-a3b"),

		Providers: ProviderKeys{
			Brave:  os.Getenv("BRAVE_API_KEY"),
			Google: os.Getenv("GOOGLE_API_KEY"),
			Tavily: os.Getenv("TAVILY_API_KEY"),
			News:   os.Getenv("NEWS_API_KEY"),
		},

		OutputDir: getEnvOrDefault("PIPELINE_OUTPUT_DIR", "./reports"),
		Language:  getEnvOrDefault("PIPELINE_LANGUAGE", "zh-CN"),

		ProviderTimeout:  30 * time.Second,
		LLMTimeout:       120 * time.Second,
		IterationTimeout: 2 * time.Minute,
		SessionTimeout:   10 * time.Minute,

		MaxIterations:    3,
		QualityThreshold: 0.7,

		SearchWorkerCap:  6,
		SectionWorkerCap: 6,
		ProviderCaps: map[string]int{
			"brave":   2,
			"google":  6,
			"tavily":  8,
			"arxiv":   4,
			"news":    5,
			"default": 3,
		},
		EventBusBacklog: 256,

		Verbose: os.Getenv("PIPELINE_VERBOSE") == "true",

		EmitPartialOnCancel: os.Getenv("PIPELINE_EMIT_PARTIAL_ON_CANCEL") == "true",
	}
}

// ConfiguredProviders returns the ids of adapters usable with the present
// configuration. "arxiv" needs no key, so the system still functions on an
// academic-only adapter set when no web keys are present (spec.md §6).
func (c *Config) ConfiguredProviders() []string {
	var ids []string
	if c.Providers.Brave != "" {
		ids = append(ids, "brave")
	}
	if c.Providers.Google != "" {
		ids = append(ids, "google")
	}
	if c.Providers.Tavily != "" {
		ids = append(ids, "tavily")
	}
	if c.Providers.News != "" {
		ids = append(ids, "news")
	}
	ids = append(ids, "arxiv")
	return ids
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
