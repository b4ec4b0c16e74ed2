// Package config handles sowa configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. SOWA_LLM_MODEL.
const EnvPrefix = "SOWA"

// Config holds all sowa configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Search SearchConfig `mapstructure:"search" yaml:"search"`
	RAG    RAGConfig    `mapstructure:"rag" yaml:"rag"`
	Agent  AgentConfig  `mapstructure:"agent" yaml:"agent"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LLMConfig configures the language-model endpoint.
type LLMConfig struct {
	// Provider is "azure", "openai" or "ollama".
	Provider        string  `mapstructure:"provider" yaml:"provider"`
	Endpoint        string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	APIVersion      string  `mapstructure:"api_version" yaml:"api_version"`
	Model           string  `mapstructure:"model" yaml:"model"`
	EmbeddingModel  string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	RiskTemperature float64 `mapstructure:"risk_temperature" yaml:"risk_temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	MaxRetries      int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// SearchConfig configures the Qdrant document index.
type SearchConfig struct {
	Host           string  `mapstructure:"host" yaml:"host"`
	Port           int     `mapstructure:"port" yaml:"port"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	UseTLS         bool    `mapstructure:"use_tls" yaml:"use_tls"`
	Collection     string  `mapstructure:"collection" yaml:"collection"`
	VectorName     string  `mapstructure:"vector_name" yaml:"vector_name"`
	TitleField     string  `mapstructure:"title_field" yaml:"title_field"`
	ChunkField     string  `mapstructure:"chunk_field" yaml:"chunk_field"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MinScore       float32 `mapstructure:"min_score" yaml:"min_score"`
}

// RAGConfig configures grounded answering and the search tool.
type RAGConfig struct {
	TopK            int `mapstructure:"top_k" yaml:"top_k"`
	ToolTopK        int `mapstructure:"tool_top_k" yaml:"tool_top_k"`
	MaxSourceTokens int `mapstructure:"max_source_tokens" yaml:"max_source_tokens"`
}

// AgentConfig configures the agent control loop.
type AgentConfig struct {
	MaxTurns int `mapstructure:"max_turns" yaml:"max_turns"`
	// RiskStrategy is "heuristic" or "model".
	RiskStrategy          string `mapstructure:"risk_strategy" yaml:"risk_strategy"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// RateLimitPerMinute caps requests per client IP. Zero disables it.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "azure",
			APIVersion:      "2025-01-01-preview",
			Model:           "gpt-4o",
			EmbeddingModel:  "text-embedding-3-small",
			TimeoutSeconds:  30,
			Temperature:     0.7,
			RiskTemperature: 0.1,
			MaxTokens:       1024,
			MaxRetries:      2,
		},
		Search: SearchConfig{
			Host:           "localhost",
			Port:           6334,
			Collection:     "sow-index",
			VectorName:     "text_vector",
			TitleField:     "title",
			ChunkField:     "chunk",
			TimeoutSeconds: 10,
		},
		RAG: RAGConfig{
			TopK:            5,
			ToolTopK:        3,
			MaxSourceTokens: 6000,
		},
		Agent: AgentConfig{
			MaxTurns:              8,
			RiskStrategy:          "heuristic",
			RequestTimeoutSeconds: 120,
		},
		Server: ServerConfig{
			Addr:               ":8080",
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 60,
		},
	}
}

// DefaultPaths lists config files searched when no explicit path is given.
func DefaultPaths() []string {
	paths := []string{"config.local.yaml", "config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".sowa", "config.yaml"))
	}
	return paths
}

// Load reads configuration from the given file with environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

// LoadFromPaths loads the first existing file among paths. When none exists
// the defaults are returned, still subject to environment overrides.
func LoadFromPaths(paths ...string) (*Config, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return decode(newViper())
}

// newViper builds a viper instance seeded with defaults and env bindings.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	d := DefaultConfig()
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.api_version", d.LLM.APIVersion)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.embedding_model", d.LLM.EmbeddingModel)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.risk_temperature", d.LLM.RiskTemperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)

	v.SetDefault("search.host", d.Search.Host)
	v.SetDefault("search.port", d.Search.Port)
	v.SetDefault("search.api_key", d.Search.APIKey)
	v.SetDefault("search.use_tls", d.Search.UseTLS)
	v.SetDefault("search.collection", d.Search.Collection)
	v.SetDefault("search.vector_name", d.Search.VectorName)
	v.SetDefault("search.title_field", d.Search.TitleField)
	v.SetDefault("search.chunk_field", d.Search.ChunkField)
	v.SetDefault("search.timeout_seconds", d.Search.TimeoutSeconds)
	v.SetDefault("search.min_score", d.Search.MinScore)

	v.SetDefault("rag.top_k", d.RAG.TopK)
	v.SetDefault("rag.tool_top_k", d.RAG.ToolTopK)
	v.SetDefault("rag.max_source_tokens", d.RAG.MaxSourceTokens)

	v.SetDefault("agent.max_turns", d.Agent.MaxTurns)
	v.SetDefault("agent.risk_strategy", d.Agent.RiskStrategy)
	v.SetDefault("agent.request_timeout_seconds", d.Agent.RequestTimeoutSeconds)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by existing Azure deployments.
	_ = v.BindEnv("llm.endpoint", EnvPrefix+"_LLM_ENDPOINT", "AZURE_OPENAI_ACCOUNT")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "AZURE_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("search.api_key", EnvPrefix+"_SEARCH_API_KEY", "QDRANT_API_KEY")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "azure", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	switch c.Agent.RiskStrategy {
	case "heuristic", "model":
	default:
		errs = append(errs, fmt.Errorf("agent.risk_strategy: unknown strategy %q", c.Agent.RiskStrategy))
	}

	positive := map[string]int{
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"search.port":                   c.Search.Port,
		"search.timeout_seconds":        c.Search.TimeoutSeconds,
		"rag.top_k":                     c.RAG.TopK,
		"rag.tool_top_k":                c.RAG.ToolTopK,
		"agent.max_turns":               c.Agent.MaxTurns,
		"agent.request_timeout_seconds": c.Agent.RequestTimeoutSeconds,
	}
	for key, val := range positive {
		if val <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %d", key, val))
		}
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries: must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LLMTimeout returns the per-call model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SearchTimeout returns the per-call search timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the timeout wrapping one whole request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Agent.RequestTimeoutSeconds) * time.Second
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.LLM.APIKey = mask(c.LLM.APIKey)
	out.Search.APIKey = mask(c.Search.APIKey)
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
