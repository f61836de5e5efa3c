package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/connectors/filesystem"
	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/logger"
	"github.com/custodia-labs/normrag/internal/normalisers"
)

// brokenAwareExtractor fails for any PDF whose name contains "broken".
type brokenAwareExtractor struct{}

func (brokenAwareExtractor) Extract(_ context.Context, path string) (string, error) {
	if strings.Contains(filepath.Base(path), "broken") {
		return "", errors.New("malformed xref table")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "%PDF-1.4\n"), nil
}

func newTestLoader() *Loader {
	return NewLoader(filesystem.Factory{}, normalisers.DefaultRegistry(brokenAwareExtractor{}))
}

func writeCorpusFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "ПУЭ.pdf", "%PDF-1.4\n1.7.1 Заземление")
	writeCorpusFile(t, dir, "notes.txt", "2. Общие положения")
	writeCorpusFile(t, dir, "sub/guide.md", "# Руководство\n\n4.2 Текст")
	writeCorpusFile(t, dir, "ignored.docx", "binary")

	result, err := newTestLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, result.Documents, 3)
	assert.Empty(t, result.Failures)

	byName := make(map[string]domain.Document)
	for _, doc := range result.Documents {
		byName[doc.Filename] = doc
	}
	assert.Equal(t, domain.FormatPDF, byName["ПУЭ.pdf"].Format)
	assert.Equal(t, "1.7.1 Заземление", byName["ПУЭ.pdf"].Content)
	assert.Equal(t, domain.FormatText, byName["notes.txt"].Format)
	assert.Equal(t, domain.FormatMarkdown, byName["guide.md"].Format)
	assert.Equal(t, filepath.Join(dir, "sub", "guide.md"), byName["guide.md"].SourcePath)
}

func TestLoader_CorruptFileIsSkippedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()

	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.pdf", "%PDF-1.4\nодин")
	writeCorpusFile(t, dir, "b.txt", "два")
	writeCorpusFile(t, dir, "c.pdf", "%PDF-1.4\nтри")
	writeCorpusFile(t, dir, "broken.pdf", "%PDF-1.4\ngarbage")

	result, err := newTestLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 3)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, filepath.Join(dir, "broken.pdf"), result.Failures[0].Path)
	assert.ErrorContains(t, result.Failures[0].Err, "malformed xref table")
	assert.Equal(t, 1, strings.Count(buf.String(), "[WARN] Skipping"))
}

func TestLoader_EmptyDirectory(t *testing.T) {
	result, err := newTestLoader().Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Failures)
}

func TestLoader_EmptyPDFIsAFailure(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "scan.pdf", "%PDF-1.4\n   ")

	result, err := newTestLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	require.Len(t, result.Failures, 1)
}

func TestLoader_MissingRoot(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, domain.ErrCorpusNotFound)
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeCorpusFile(t, dir, "a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader().Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
