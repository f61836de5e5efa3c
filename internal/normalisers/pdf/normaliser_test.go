package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func TestNormaliser_Registration(t *testing.T) {
	var n driven.Normaliser = New()
	assert.Equal(t, []string{"application/pdf"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	result, err := normaliser.Normalise(ctx, nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		uri     string
		want    string
	}{
		{"first line", "СП 4.04.07-2025\n\n4.1 Общие положения", "/n/sp.pdf", "СП 4.04.07-2025"},
		{"leading blank lines", "\n  \n\tПУЭ Глава 1.7\nТекст", "/n/pue.pdf", "ПУЭ Глава 1.7"},
		{"overlong line skipped", strings.Repeat("ж", 201) + "\nРаздел 2", "/n/a.pdf", "Раздел 2"},
		{"filename fallback", "", "/n/ГОСТ_Р_50571-5-54.pdf", "ГОСТ Р 50571-5-54"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTitle(tt.content, tt.uri))
		})
	}
}

func TestCopyMetadata(t *testing.T) {
	assert.Nil(t, copyMetadata(nil))

	src := map[string]any{"corpus": "normative", "size": 42}
	dst := copyMetadata(src)
	assert.Equal(t, src, dst)

	dst["corpus"] = "tt"
	assert.Equal(t, "normative", src["corpus"], "copy is independent")
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

// TestNormalise_WithMockRunner tests normalisation with a mocked pdftotext.
func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{
		output: []byte("PDF Title\n\nThis is the content of the PDF.\n"),
		err:    nil,
	}
	normaliser := NewWithRunner(runner)
	ctx := context.Background()

	raw := &domain.RawDocument{
		URI:      "/path/to/document.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	doc := result.Document
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "/path/to/document.pdf", doc.SourcePath)
	assert.Equal(t, "document.pdf", doc.Filename)
	assert.Equal(t, domain.FormatPDF, doc.Format)
	assert.Equal(t, "PDF Title", doc.Title)
	assert.Contains(t, doc.Content, "This is the content of the PDF.")
	assert.Equal(t, "application/pdf", doc.Metadata["mime_type"])
	assert.Equal(t, "pdf", doc.Metadata["format"])
}

// TestNormalise_RunnerError tests error handling when pdftotext fails.
func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{
		output: nil,
		err:    errors.New("pdftotext crashed"),
	}
	normaliser := NewWithRunner(runner)
	ctx := context.Background()

	raw := &domain.RawDocument{
		URI:      "/path/to/document.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}

	result, err := normaliser.Normalise(ctx, raw)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, result)
}

// fakeExtractor returns fixed text and records the path it was given.
type fakeExtractor struct {
	text string
	err  error
	path string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

func TestNormalise_ReadsFileInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ГОСТ_Р_50571.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	extractor := &fakeExtractor{text: "ГОСТ Р 50571\r\n4.2.3 Требования"}
	normaliser := NewWithExtractor(extractor)

	result, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		URI:      path,
		MIMEType: "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, path, extractor.path)
	assert.Equal(t, "ГОСТ Р 50571\n4.2.3 Требования", result.Document.Content)
	assert.Equal(t, "ГОСТ Р 50571", result.Document.Title)
	assert.Equal(t, "ГОСТ_Р_50571.pdf", result.Document.Filename)
}

func TestNormalise_SpillsContentToTempFile(t *testing.T) {
	extractor := &fakeExtractor{text: "content"}
	normaliser := NewWithExtractor(extractor)

	_, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		URI:     "/does/not/exist.pdf",
		Content: []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, "/does/not/exist.pdf", extractor.path)
	_, statErr := os.Stat(extractor.path)
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestNormalise_NoText(t *testing.T) {
	normaliser := NewWithExtractor(&fakeExtractor{text: "  \n\n "})

	_, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		URI:     "/scan.pdf",
		Content: []byte("%PDF-1.4"),
	})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestNormalise_ExtractorError(t *testing.T) {
	normaliser := NewWithExtractor(&fakeExtractor{err: errors.New("broken xref table")})

	_, err := normaliser.Normalise(context.Background(), &domain.RawDocument{
		URI:     "/broken.pdf",
		Content: []byte("garbage"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken xref table")
}

func TestNormalise_MissingFileWithoutContent(t *testing.T) {
	normaliser := NewWithExtractor(&fakeExtractor{text: "x"})

	_, err := normaliser.Normalise(context.Background(), &domain.RawDocument{URI: "/nowhere.pdf"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTabulaExtractor_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err := TabulaExtractor{}.Extract(context.Background(), path)
	assert.Error(t, err)
}
