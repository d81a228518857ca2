package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sevigo/goframe/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVectorStore struct {
	collection string
	docs       []schema.Document
	err        error
}

func (f *fakeVectorStore) AddDocuments(_ context.Context, collection string, docs []schema.Document) error {
	f.collection = collection
	f.docs = append(f.docs, docs...)
	return f.err
}

func (f *fakeVectorStore) SimilaritySearch(context.Context, string, string, int) ([]schema.Document, error) {
	return nil, nil
}

func (f *fakeVectorStore) DeleteCollection(context.Context, string) error { return nil }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestor_IngestDir(t *testing.T) {
	t.Run("loads markdown files with source metadata", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "errors.md", "# Errors\n\nAlways wrap errors with context.")
		writeFile(t, dir, "nested/naming.md", "# Naming\n\nUse short names.")
		writeFile(t, dir, "notes.txt", "not a standards file")

		store := &fakeVectorStore{}
		ing := NewIngestor(store, "standards", slog.Default())

		n, err := ing.IngestDir(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, "standards", store.collection)

		sources := make(map[string]bool)
		for _, d := range store.docs {
			sources[d.Metadata["source"].(string)] = true
		}
		assert.True(t, sources["errors.md"])
		assert.True(t, sources[filepath.Join("nested", "naming.md")])
	})

	t.Run("empty directory is an error", func(t *testing.T) {
		ing := NewIngestor(&fakeVectorStore{}, "standards", slog.Default())
		_, err := ing.IngestDir(context.Background(), t.TempDir())
		require.Error(t, err)
	})

	t.Run("large document is chunked with overlap", func(t *testing.T) {
		dir := t.TempDir()
		var b strings.Builder
		for i := 0; i < 120; i++ {
			b.WriteString("Rule: always check the error return of deferred closes.\n")
		}
		writeFile(t, dir, "big.md", b.String())

		store := &fakeVectorStore{}
		ing := NewIngestor(store, "standards", slog.Default())

		n, err := ing.IngestDir(context.Background(), dir)
		require.NoError(t, err)
		assert.Greater(t, n, 1)
		for _, d := range store.docs {
			assert.LessOrEqual(t, len(d.PageContent), chunkSize)
		}
	})
}

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		got := splitText("hello", 100, 10)
		assert.Equal(t, []string{"hello"}, got)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Nil(t, splitText("  \n ", 100, 10))
	})

	t.Run("prefers paragraph boundaries", func(t *testing.T) {
		para1 := strings.Repeat("a", 70)
		para2 := strings.Repeat("b", 70)
		got := splitText(para1+"\n\n"+para2, 100, 10)
		require.Len(t, got, 2)
		assert.Equal(t, para1, got[0])
		assert.True(t, strings.HasSuffix(got[1], para2), "second chunk should end with the second paragraph")
	})

	t.Run("oversized overlap still advances", func(t *testing.T) {
		text := strings.Repeat("line of a rule\n", 40)
		got := splitText(text, 100, 90)
		require.NotEmpty(t, got)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(text), got[len(got)-1]),
			"last chunk should reach the end of the text")
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		got := splitText(text, 100, 20)
		require.Greater(t, len(got), 1)
		total := 0
		for _, c := range got {
			total += len(c)
		}
		assert.Greater(t, total, len(text), "overlap should duplicate some content")
	})
}
