package wire

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/ingest"
	"github.com/sevigo/codescribe/internal/logger"
	"github.com/sevigo/codescribe/internal/queue"
	"github.com/sevigo/codescribe/internal/storage"
)

func provideGeneratorLLM(cfg *config.Config, logger *slog.Logger) (llms.Model, error) {
	return ollama.New(
		ollama.WithServerURL(cfg.AI.OllamaHost),
		ollama.WithHTTPClient(newOllamaHTTPClient()),
		ollama.WithModel(cfg.AI.GeneratorModel),
		ollama.WithLogger(logger),
	)
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) (embeddings.Embedder, error) {
	embedderLLM, err := ollama.New(
		ollama.WithServerURL(cfg.AI.OllamaHost),
		ollama.WithModel(cfg.AI.EmbedderModel),
		ollama.WithHTTPClient(newOllamaHTTPClient()),
		ollama.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder LLM: %w", err)
	}
	return embeddings.NewEmbedder(embedderLLM)
}

func provideVectorStore(cfg *config.Config, embedder embeddings.Embedder, logger *slog.Logger) storage.VectorStore {
	return storage.NewQdrantVectorStore(cfg.AI.QdrantHost, embedder, logger)
}

func provideBroker(cfg *config.Config, logger *slog.Logger) queue.Broker {
	return queue.NewRedisBroker(cfg.Redis.Addr, logger)
}

func provideIngestor(cfg *config.Config, store storage.VectorStore, logger *slog.Logger) *ingest.Ingestor {
	return ingest.NewIngestor(store, cfg.AI.StandardsCollection, logger)
}

// newOllamaHTTPClient creates an HTTP client with generous timeouts; local
// model hosts can take minutes to answer a generation request.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter() io.Writer {
	return os.Stdout
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}
