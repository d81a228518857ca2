//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

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
	wire.Build(
		app.NewServerApp,
		server.NewServer,
		config.LoadConfig,
		provideBroker,
		provideLoggerConfig,
		provideLogWriter,
		provideSlogLogger,
	)
	return &app.ServerApp{}, nil, nil
}

// InitializeWorkerApp builds the job consumer process.
func InitializeWorkerApp() (*app.WorkerApp, func(), error) {
	wire.Build(
		app.NewWorkerApp,
		worker.New,
		config.LoadConfig,
		db.NewDatabase,
		storage.NewStore,
		jobs.NewReviewJobRunner,
		jobs.NewReplyJobRunner,
		github.NewInstallationClientFactory,
		llm.NewPromptManager,
		llm.NewRAGService,
		provideBroker,
		provideVectorStore,
		provideGeneratorLLM,
		provideEmbedder,
		provideLoggerConfig,
		provideLogWriter,
		provideDBConfig,
		provideSlogLogger,
	)
	return &app.WorkerApp{}, nil, nil
}

// InitializeHistoryStore builds the review history store used by the CLI.
func InitializeHistoryStore() (storage.Store, func(), error) {
	wire.Build(
		config.LoadConfig,
		db.NewDatabase,
		storage.NewStore,
		provideDBConfig,
	)
	return nil, nil, nil
}

// InitializeIngestor builds the standards loader used by the CLI.
func InitializeIngestor() (*ingest.Ingestor, func(), error) {
	wire.Build(
		config.LoadConfig,
		provideIngestor,
		provideVectorStore,
		provideEmbedder,
		provideLoggerConfig,
		provideLogWriter,
		provideSlogLogger,
	)
	return &ingest.Ingestor{}, nil, nil
}
