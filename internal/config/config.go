// Package config loads and validates the application's configuration.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/codescribe/internal/logger"
)

// Config holds the application's configuration values. It is constructed once
// at startup and passed by reference to component constructors; it is never
// mutated afterwards.
type Config struct {
	Server   ServerConfig
	Logging  logger.Config
	GitHub   GitHubConfig
	Redis    RedisConfig
	AI       AIConfig
	Worker   WorkerConfig
	Database DBConfig
}

// ServerConfig holds settings for the webhook-receiving HTTP server.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds the GitHub App identity used to authenticate
// installation-scoped clients, plus the webhook shared secret.
type GitHubConfig struct {
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
	// BotLogin is the login of the App's bot account. Reply jobs authored by
	// this login are discarded to keep the bot from answering itself.
	BotLogin string
}

// RedisConfig locates the job broker and names its queues.
type RedisConfig struct {
	Addr        string
	ReviewQueue string
	ReplyQueue  string
}

// AIConfig holds LLM and vector-store settings.
type AIConfig struct {
	OllamaHost          string
	GeneratorModel      string
	EmbedderModel       string
	QdrantHost          string
	StandardsCollection string
	RetrievalTopK       int
}

// WorkerConfig tunes the worker loop.
type WorkerConfig struct {
	// Backoff is how long the loop sleeps after a failed job before
	// dequeuing again.
	Backoff time.Duration
	// JobDeadline bounds the processing time of a single job. Zero means
	// no deadline.
	JobDeadline time.Duration
}

// DBConfig holds PostgreSQL connection settings for the review history store.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REVIEW_QUEUE_NAME", "pr_review_jobs")
	viper.SetDefault("REPLY_QUEUE_NAME", "pr_reply_jobs")
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/codescribe-app.private-key.pem")
	viper.SetDefault("BOT_LOGIN", "codescribe[bot]")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("QDRANT_HOST", "localhost:6334")
	viper.SetDefault("GENERATOR_MODEL_NAME", "gemma3:latest")
	viper.SetDefault("EMBEDDER_MODEL_NAME", "nomic-embed-text")
	viper.SetDefault("STANDARDS_COLLECTION", "codescribe-standards")
	viper.SetDefault("RETRIEVAL_TOP_K", 4)
	viper.SetDefault("WORKER_BACKOFF_SECONDS", 5)
	viper.SetDefault("WORKER_JOB_DEADLINE_SECONDS", 0)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "codescribe")
	viper.SetDefault("DB_NAME", "codescribe")
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("DB_CONN_MAX_IDLE_MINUTES", 5)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetInt64("GITHUB_APP_ID") == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if viper.GetInt("RETRIEVAL_TOP_K") <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be positive")
	}
	if viper.GetInt("WORKER_BACKOFF_SECONDS") < 0 {
		return nil, fmt.Errorf("WORKER_BACKOFF_SECONDS cannot be negative")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		GitHub: GitHubConfig{
			AppID:          viper.GetInt64("GITHUB_APP_ID"),
			WebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
			PrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
			BotLogin:       viper.GetString("BOT_LOGIN"),
		},
		Redis: RedisConfig{
			Addr:        viper.GetString("REDIS_ADDR"),
			ReviewQueue: viper.GetString("REVIEW_QUEUE_NAME"),
			ReplyQueue:  viper.GetString("REPLY_QUEUE_NAME"),
		},
		AI: AIConfig{
			OllamaHost:          viper.GetString("OLLAMA_HOST"),
			GeneratorModel:      viper.GetString("GENERATOR_MODEL_NAME"),
			EmbedderModel:       viper.GetString("EMBEDDER_MODEL_NAME"),
			QdrantHost:          viper.GetString("QDRANT_HOST"),
			StandardsCollection: viper.GetString("STANDARDS_COLLECTION"),
			RetrievalTopK:       viper.GetInt("RETRIEVAL_TOP_K"),
		},
		Worker: WorkerConfig{
			Backoff:     time.Duration(viper.GetInt("WORKER_BACKOFF_SECONDS")) * time.Second,
			JobDeadline: time.Duration(viper.GetInt("WORKER_JOB_DEADLINE_SECONDS")) * time.Second,
		},
		Database: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_MINUTES")) * time.Minute,
		},
	}

	if cfg.GitHub.WebhookSecret == "" {
		slog.Error("GITHUB_WEBHOOK_SECRET is not set; webhook signature verification is DISABLED. Do not run like this outside local development.")
	}

	return cfg, nil
}
