package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	GitLab     GitLabConfig
	Webhook    WebhookConfig
	OpenRouter OpenRouterConfig
	Bedrock    BedrockConfig
	LLM        LLMConfig
	Valkey     ValkeyConfig
	Ingest     IngestConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type GitLabConfig struct {
	BaseURL string
	Token   string
}

type WebhookConfig struct {
	Secret string
}

type OpenRouterConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
}

type BedrockConfig struct {
	Region  string
	ModelID string
}

type LLMConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ValkeyConfig struct {
	Addr     string
	Password string
}

type IngestConfig struct {
	WorkDir          string
	BatchSize        int
	BatchDelay       time.Duration
	MaxFileBytes     int
	MaxChunkBytes    int
	FetchConcurrency int
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SECS", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SECS", 60)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "codelens"),
			Password: getEnv("DB_PASSWORD", "codelens"),
			Name:     getEnv("DB_NAME", "codelens"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		GitLab: GitLabConfig{
			BaseURL: getEnv("GITLAB_BASE_URL", "https://gitlab.com/api/v4"),
			Token:   getEnv("GITLAB_TOKEN", ""),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:     getEnv("OPENROUTER_API_KEY", ""),
			Model:      getEnv("OPENROUTER_MODEL", ""),
			BaseURL:    getEnv("OPENROUTER_BASE_URL", ""),
			Dimensions: getEnvInt("OPENROUTER_DIMENSIONS", 1536),
		},
		Bedrock: BedrockConfig{
			Region:  getEnv("BEDROCK_REGION", ""),
			ModelID: getEnv("BEDROCK_MODEL_ID", "cohere.embed-english-v4"),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			Model:   getEnv("LLM_MODEL", ""),
			BaseURL: getEnv("LLM_BASE_URL", ""),
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", ""),
			Password: getEnv("VALKEY_PASSWORD", ""),
		},
		Ingest: IngestConfig{
			WorkDir:          getEnv("INGEST_WORK_DIR", filepath.Join(os.TempDir(), "codelens")),
			BatchSize:        getEnvInt("INGEST_BATCH_SIZE", 5),
			BatchDelay:       time.Duration(getEnvInt("INGEST_BATCH_DELAY_MS", 1000)) * time.Millisecond,
			MaxFileBytes:     getEnvInt("INGEST_MAX_FILE_BYTES", 100*1024),
			MaxChunkBytes:    getEnvInt("INGEST_MAX_CHUNK_BYTES", 8000),
			FetchConcurrency: getEnvInt("INGEST_FETCH_CONCURRENCY", 10),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
