package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the recommender.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig describes where the labeled track corpus lives.
type CorpusConfig struct {
	CSVPath  string   `yaml:"csv_path"`
	AudioDir string   `yaml:"audio_dir"` // <audio_dir>/<genre>/<file>.wav
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	Collection  string        `yaml:"collection"`
	Dimension   int           `yaml:"dimension"`
	DBPath      string        `yaml:"db_path"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
	Seed        int64         `yaml:"seed"` // description template seed, 0 = time based
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"` // "ollama", "openai", "hash"
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Dimension   int           `yaml:"dimension"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`

	// Circuit breaker around the embedding endpoint.
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// RecommendConfig holds query-time configuration.
type RecommendConfig struct {
	DefaultK    int    `yaml:"default_k"`
	FetchLimit  int    `yaml:"fetch_limit"`
	AudioPrefix string `yaml:"audio_prefix"`
	Seed        int64  `yaml:"seed"` // tie shuffling seed, 0 = time based
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RateLimit       int           `yaml:"rate_limit"`
	RateWindow      time.Duration `yaml:"rate_window"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"` // empty disables cross-origin access
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			CSVPath:  filepath.Join("data", "gtzan_data.csv"),
			AudioDir: filepath.Join("data", "genres_original"),
			Includes: []string{"*/*.wav"},
			Excludes: []string{"**/.*"},
		},
		Index: IndexConfig{
			Collection:  "music-recommender-v2",
			Dimension:   384,
			DBPath:      filepath.Join(".musicrec", "index.db"),
			OpenTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:        "ollama",
			Model:           "all-minilm",
			APIKeyEnv:       "OPENAI_API_KEY",
			Dimension:       384,
			BatchSize:       64,
			Concurrency:     4,
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			DefaultK:    5,
			FetchLimit:  50,
			AudioPrefix: "/audio",
		},
		Server: ServerConfig{
			Addr:            ":5000",
			RateLimit:       60,
			RateWindow:      time.Minute,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute, // reindex runs inside the request
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
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

// LoadFromDir loads configuration from a directory (looks for musicrec.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "musicrec.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".musicrec", "config.yaml")
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

// Resolve makes relative paths in the config absolute against dir.
func (c *Config) Resolve(dir string) {
	c.Corpus.CSVPath = resolvePath(dir, c.Corpus.CSVPath)
	c.Corpus.AudioDir = resolvePath(dir, c.Corpus.AudioDir)
	c.Index.DBPath = resolvePath(dir, c.Index.DBPath)
}

// EnsureDBDir ensures the directory holding the index database exists.
func (c *Config) EnsureDBDir() error {
	return os.MkdirAll(filepath.Dir(c.Index.DBPath), 0755)
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
