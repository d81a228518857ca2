// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"fmt"

	"github.com/sevigo/codescribe/internal/app"
	"github.com/sevigo/codescribe/internal/config"
	"github.com/sevigo/codescribe/internal/db"
	"github.com/sevigo/codescribe/internal/github"
	"github.com/sevigo/codescribe/internal/ingest"
	"github.com/sevigo/codescribe/internal/jobs"
	"github.com/sevigo/codescribe/internal/llm"
	"github.com/sevigo/codescribe/internal/server"
	"github.com/sevigo/codescribe/internal/storage"
	"github.com/sevigo/codescribe/internal/worker"
)

// InitializeServerApp builds the webhook receiver process.
func InitializeServerApp() (*app.ServerApp, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := provideSlogLogger(provideLoggerConfig(cfg), provideLogWriter())

	broker := provideBroker(cfg, slogLogger)
	srv := server.NewServer(cfg, broker, slogLogger)

	serverApp, err := app.NewServerApp(cfg, srv, broker, slogLogger)
	if err != nil {
		_ = broker.Close()
		return nil, nil, err
	}

	return serverApp, func() {}, nil
}

// InitializeWorkerApp builds the job consumer process.
func InitializeWorkerApp() (*app.WorkerApp, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := provideSlogLogger(provideLoggerConfig(cfg), provideLogWriter())

	dbConn, dbCleanup, err := db.NewDatabase(provideDBConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := storage.NewStore(dbConn.DB)

	embedder, err := provideEmbedder(cfg, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	vectorStore := provideVectorStore(cfg, embedder, slogLogger)

	generatorLLM, err := provideGeneratorLLM(cfg, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create generator LLM: %w", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	ragService := llm.NewRAGService(cfg, promptMgr, vectorStore, generatorLLM, slogLogger)

	reviewRunner := jobs.NewReviewJobRunner(cfg, ragService, store, slogLogger)
	replyRunner := jobs.NewReplyJobRunner(cfg, ragService, store, slogLogger)
	clientFactory := github.NewInstallationClientFactory(cfg, slogLogger)

	broker := provideBroker(cfg, slogLogger)
	w := worker.New(cfg, broker, clientFactory, reviewRunner, replyRunner, slogLogger)

	workerApp, err := app.NewWorkerApp(cfg, w, broker, slogLogger)
	if err != nil {
		_ = broker.Close()
		dbCleanup()
		return nil, nil, err
	}

	cleanup := func() {
		dbCleanup()
	}
	return workerApp, cleanup, nil
}

// InitializeHistoryStore builds the review history store used by the CLI.
func InitializeHistoryStore() (storage.Store, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbConn, dbCleanup, err := db.NewDatabase(provideDBConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return storage.NewStore(dbConn.DB), dbCleanup, nil
}

// InitializeIngestor builds the standards loader used by the CLI.
func InitializeIngestor() (*ingest.Ingestor, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := provideSlogLogger(provideLoggerConfig(cfg), provideLogWriter())

	embedder, err := provideEmbedder(cfg, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	vectorStore := provideVectorStore(cfg, embedder, slogLogger)

	return provideIngestor(cfg, vectorStore, slogLogger), func() {}, nil
}
