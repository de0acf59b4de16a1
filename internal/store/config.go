package store

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI, CLAUDE or NOOP
		Model       string  `yaml:"model"`
		Deployment  string  `yaml:"deployment"` // Azure deployment name
		APIVersion  string  `yaml:"api_version"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		TimeoutSecs int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Qdrant struct {
		Collection     string  `yaml:"collection"`
		TimeoutSecs    int     `yaml:"timeout_seconds"`
		ScoreThreshold float64 `yaml:"score_threshold"`
		SearchLimit    int     `yaml:"search_limit"`
	} `yaml:"qdrant"`
	Summary struct {
		MaxArticles     int `yaml:"max_articles"`
		MaxContentChars int `yaml:"max_content_chars"`
		MaxChunkSize    int `yaml:"max_chunk_size"`
		CacheSize       int `yaml:"cache_size"`
		CacheTTLSecs    int `yaml:"cache_ttl_seconds"`
	} `yaml:"summary"`
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "OPENAI", "CLAUDE", "NOOP", "":
	default:
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI', 'CLAUDE' or 'NOOP'", c.LLM.Provider)
	}
	if c.Summary.MaxChunkSize <= 0 {
		return fmt.Errorf("summary.max_chunk_size must be positive, got %d", c.Summary.MaxChunkSize)
	}
	if c.Summary.MaxArticles <= 0 {
		return fmt.Errorf("summary.max_articles must be positive, got %d", c.Summary.MaxArticles)
	}
	if c.Summary.CacheSize <= 0 {
		return fmt.Errorf("summary.cache_size must be positive, got %d", c.Summary.CacheSize)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TimeoutSecs == 0 {
		c.LLM.TimeoutSecs = 120
	}
	if c.LLM.APIVersion == "" {
		c.LLM.APIVersion = "2024-02-01"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "news_articles"
	}
	if c.Qdrant.TimeoutSecs == 0 {
		c.Qdrant.TimeoutSecs = 30
	}
	if c.Qdrant.SearchLimit == 0 {
		c.Qdrant.SearchLimit = 100
	}
	if c.Summary.MaxArticles == 0 {
		c.Summary.MaxArticles = 15
	}
	if c.Summary.MaxContentChars == 0 {
		c.Summary.MaxContentChars = 1500
	}
	if c.Summary.MaxChunkSize == 0 {
		c.Summary.MaxChunkSize = 50
	}
	if c.Summary.CacheSize == 0 {
		c.Summary.CacheSize = 100
	}
	if c.Summary.CacheTTLSecs == 0 {
		c.Summary.CacheTTLSecs = 1800
	}
}

// applyEnvOverrides applies the recognized environment options on top of
// file values, so deployments can tune the pipeline without editing yaml.
func (c *Config) applyEnvOverrides() {
	envInt("MAX_SUMMARY_ARTICLES", &c.Summary.MaxArticles)
	envInt("MAX_ARTICLE_CONTENT_CHARS", &c.Summary.MaxContentChars)
	envInt("MAX_CHUNK_SIZE", &c.Summary.MaxChunkSize)
	envInt("SUMMARY_CACHE_SIZE", &c.Summary.CacheSize)
	envInt("SUMMARY_CACHE_TTL", &c.Summary.CacheTTLSecs)
	envInt("LLM_TIMEOUT", &c.LLM.TimeoutSecs)
	envInt("MAX_TOKENS", &c.LLM.MaxTokens)
	envFloat("TEMPERATURE", &c.LLM.Temperature)
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" {
		c.LLM.Deployment = v
	}
	if v := os.Getenv("AZURE_OPENAI_API_VERSION"); v != "" {
		c.LLM.APIVersion = v
	}
	if v := os.Getenv("QDRANT_COLLECTION_NAME"); v != "" {
		c.Qdrant.Collection = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
