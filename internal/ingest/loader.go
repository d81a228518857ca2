// Package ingest loads coding-standards documents into the vector store that
// backs review retrieval.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/goframe/schema"

	"github.com/sevigo/codescribe/internal/storage"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

// Ingestor walks a directory of Markdown standards documents, chunks them,
// and writes the chunks to the vector store.
type Ingestor struct {
	store      storage.VectorStore
	collection string
	logger     *slog.Logger
}

// NewIngestor creates a new Ingestor writing into the given collection.
func NewIngestor(store storage.VectorStore, collection string, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, collection: collection, logger: logger}
}

// IngestDir loads every .md file under dir into the store. It returns the
// number of chunks written.
func (i *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	var docs []schema.Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		chunks := splitText(string(content), chunkSize, chunkOverlap)
		for n, chunk := range chunks {
			docs = append(docs, schema.Document{
				PageContent: chunk,
				Metadata: map[string]any{
					"source": rel,
					"chunk":  n,
				},
			})
		}
		i.logger.Info("loaded standards document", "file", rel, "chunks", len(chunks))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk standards directory: %w", err)
	}

	if len(docs) == 0 {
		return 0, fmt.Errorf("no .md files found under %s", dir)
	}

	if err := i.store.AddDocuments(ctx, i.collection, docs); err != nil {
		return 0, fmt.Errorf("failed to store standards documents: %w", err)
	}
	return len(docs), nil
}

// splitText cuts text into overlapping chunks, preferring to break at a
// paragraph or line boundary near the chunk end so rules stay intact.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	// cut can land as close as size/2 past start, so any larger overlap
	// would move the window backwards.
	if overlap > size/2 {
		overlap = size / 2
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		cut := end
		window := text[start:end]
		if idx := strings.LastIndex(window, "\n\n"); idx > size/2 {
			cut = start + idx
		} else if idx := strings.LastIndex(window, "\n"); idx > size/2 {
			cut = start + idx
		}

		if chunk := strings.TrimSpace(text[start:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = cut - overlap
	}
	return chunks
}
