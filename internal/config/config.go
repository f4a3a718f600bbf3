package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	Env         string           `json:"env"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	Storage     StorageConfig    `json:"storage"`
	AI          AIConfig         `json:"ai"`
	Vectorize   VectorizeConfig  `json:"vectorize"`
	CleanupCron string           `json:"cleanup_cron"`
	CORSOrigins []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type StorageConfig struct {
	Type             string      `json:"type"`
	SignedURLTTLSecs int         `json:"signed_url_ttl_seconds"`
	Data             interface{} `json:"data"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	EmbedModel string      `json:"embed_model"`
	EmbedDim   int         `json:"embed_dim"`
	CacheSize  int         `json:"cache_size"`
	Data       interface{} `json:"data"`
}

// VectorizeConfig tunes the extraction pipeline. Strategy selects one of
// the registered chunk producers ("local" or "filesearch").
type VectorizeConfig struct {
	Strategy        string `json:"strategy"`
	ChunkSize       int    `json:"chunk_size"`
	ChunkOverlap    int    `json:"chunk_overlap"`
	MaxChunks       int    `json:"max_chunks"`
	PollIntervalSec int    `json:"poll_interval_seconds"`
	PollMaxAttempts int    `json:"poll_max_attempts"`
	RequestTimeoutS int    `json:"request_timeout_seconds"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.JWTTTLHours == 0 {
		c.JWTTTLHours = 72
	}
	if c.Env == "" {
		c.Env = "production"
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Type == "" {
		return fmt.Errorf("storage.type is required")
	}
	if c.Storage.SignedURLTTLSecs == 0 {
		c.Storage.SignedURLTTLSecs = 3600
	}
	if c.AI.Provider == "" {
		return fmt.Errorf("ai.provider is required")
	}
	if c.AI.EmbedModel == "" {
		return fmt.Errorf("ai.embed_model is required")
	}
	if c.AI.EmbedDim == 0 {
		// Dimension is a deployment constant tied to the documents table
		// width; it is never inferred per call.
		return fmt.Errorf("ai.embed_dim is required")
	}
	if c.AI.CacheSize == 0 {
		c.AI.CacheSize = 10000
	}
	if c.Vectorize.Strategy == "" {
		c.Vectorize.Strategy = "local"
	}
	if c.Vectorize.ChunkSize == 0 {
		c.Vectorize.ChunkSize = 1000
	}
	if c.Vectorize.ChunkOverlap == 0 {
		c.Vectorize.ChunkOverlap = 200
	}
	if c.Vectorize.ChunkOverlap >= c.Vectorize.ChunkSize {
		return fmt.Errorf("vectorize.chunk_overlap must be smaller than chunk_size")
	}
	if c.Vectorize.MaxChunks == 0 {
		c.Vectorize.MaxChunks = 200
	}
	if c.Vectorize.PollIntervalSec == 0 {
		c.Vectorize.PollIntervalSec = 3
	}
	if c.Vectorize.PollMaxAttempts == 0 {
		c.Vectorize.PollMaxAttempts = 60
	}
	if c.Vectorize.RequestTimeoutS == 0 {
		c.Vectorize.RequestTimeoutS = 30
	}
	if c.CleanupCron == "" {
		c.CleanupCron = "*/5 * * * *"
	}
	return nil
}
