package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the recommendation engine.
type Config struct {
	Scoring   ScoringConfig   `yaml:"scoring"`
	Cache     CacheConfig     `yaml:"cache"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScoringConfig holds ranking weights and thresholds.
type ScoringConfig struct {
	HistoryWeight    float64 `yaml:"history_weight"`
	SemanticWeight   float64 `yaml:"semantic_weight"`
	TopK             int     `yaml:"top_k"`
	VeteranThreshold int     `yaml:"veteran_threshold"` // assignment count at which history score saturates
}

// CacheConfig holds recommendation cache settings.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxAgeDays int  `yaml:"max_age_days"`
}

// ResolverConfig holds entity-resolution thresholds. The three course
// thresholds are independently tuned: lexical acceptance is 0.80, the
// semantic fallback only triggers when the best lexical score falls below
// 0.50, and semantic acceptance is deliberately stricter at 0.82.
type ResolverConfig struct {
	InstructorAccept    float64 `yaml:"instructor_accept"`
	InstructorBonus     float64 `yaml:"instructor_bonus"`
	CourseLexicalAccept float64 `yaml:"course_lexical_accept"`
	SemanticTrigger     float64 `yaml:"semantic_trigger"`
	SemanticAccept      float64 `yaml:"semantic_accept"`
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// IngestConfig holds document ingestion configuration.
type IngestConfig struct {
	Workers       int      `yaml:"workers"`
	MaxAttempts   int      `yaml:"max_attempts"`
	BackoffBaseMS int      `yaml:"backoff_base_ms"`
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			HistoryWeight:    0.4,
			SemanticWeight:   0.6,
			TopK:             20,
			VeteranThreshold: 8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxAgeDays: 7,
		},
		Resolver: ResolverConfig{
			InstructorAccept:    0.50,
			InstructorBonus:     0.10,
			CourseLexicalAccept: 0.80,
			SemanticTrigger:     0.50,
			SemanticAccept:      0.82,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Ingest: IngestConfig{
			Workers:       2,
			MaxAttempts:   5,
			BackoffBaseMS: 2000,
			Includes:      []string{"**/*.json", "**/*.pdf", "**/*.docx"},
			Excludes:      []string{"**/.*/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for teachmatch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "teachmatch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".teachmatch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CatalogDBPath returns the path to the catalog database.
func CatalogDBPath(dir string) string {
	return filepath.Join(dir, ".teachmatch", "catalog.db")
}

// EnsureDataDir ensures the .teachmatch directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".teachmatch"), 0755)
}
