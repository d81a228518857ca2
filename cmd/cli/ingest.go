package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sevigo/codescribe/internal/wire"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load coding-standards documents into the retrieval store.",
	Long:  `Walks the given directory for Markdown files, chunks them, and writes the chunks to the vector store the review worker retrieves from.`,
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		dir := args[0]
		slog.Info("ingesting standards documents", "dir", dir)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ingestor, cleanup, err := wire.InitializeIngestor()
		if err != nil {
			slog.Error("failed to initialize ingestor", "error", err)
			return
		}
		defer cleanup()

		n, err := ingestor.IngestDir(ctx, dir)
		if err != nil {
			slog.Error("failed to ingest standards documents", "error", err)
			return
		}

		slog.Info("standards documents ingested", "chunks", n)
	},
}
