// Package pdf extracts text from PDF documents.
//
// The default backend is the pure-Go tabula extractor. A pdftotext backend
// (poppler-utils) can be selected for documents tabula handles poorly.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tsawler/tabula"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound is returned when the pdftotext backend is selected but not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ErrNoText is returned when a PDF yields no extractable text, typically a scan.
var ErrNoText = errors.New("pdf contains no extractable text")

// maxTitleLength bounds, in characters, the first line taken as a title.
const maxTitleLength = 200

// Extractor turns a PDF into plain text.
type Extractor interface {
	// Extract returns the text of the PDF at path.
	Extract(ctx context.Context, path string) (string, error)
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// TabulaExtractor extracts text with the tabula library.
type TabulaExtractor struct{}

// Extract implements Extractor.
func (TabulaExtractor) Extract(_ context.Context, path string) (string, error) {
	text, warnings, err := tabula.Open(path).ExcludeHeadersAndFooters().Text()
	if err != nil {
		return "", fmt.Errorf("tabula: %w", err)
	}
	if len(warnings) > 0 {
		logger.Debug("pdf %s: %d extraction warnings", filepath.Base(path), len(warnings))
	}
	return text, nil
}

// CommandExtractor extracts text by running pdftotext.
type CommandExtractor struct {
	runner CommandRunner
}

// Extract implements Extractor.
func (e CommandExtractor) Extract(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}

// Normaliser handles PDF documents.
type Normaliser struct {
	extractor Extractor
	runner    CommandRunner
}

// New creates a PDF normaliser backed by tabula.
func New() *Normaliser {
	return NewWithExtractor(TabulaExtractor{})
}

// NewWithRunner creates a PDF normaliser backed by pdftotext run through runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		extractor: CommandExtractor{runner: runner},
		runner:    runner,
	}
}

// NewCommand creates a PDF normaliser backed by the installed pdftotext.
func NewCommand() (*Normaliser, error) {
	if err := CheckAvailable(); err != nil {
		return nil, err
	}
	return NewWithRunner(execRunner{}), nil
}

// NewWithExtractor creates a PDF normaliser with a custom extractor.
func NewWithExtractor(extractor Extractor) *Normaliser {
	return &Normaliser{extractor: extractor}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install the pdftotext backend.
func InstallInstructions() string {
	return `pdftotext is part of poppler-utils:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of a PDF document.
// The file named by raw.URI is read directly when it exists; otherwise the
// raw content is spilled to a temporary file first.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	path, cleanup, err := sourceFile(raw)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	text, err := n.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	doc := domain.Document{
		ID:         uuid.New().String(),
		SourcePath: raw.URI,
		Filename:   filepath.Base(raw.URI),
		Title:      extractTitle(text, raw.URI),
		Content:    text,
		Format:     domain.FormatPDF,
		Metadata:   copyMetadata(raw.Metadata),
		LoadedAt:   time.Now(),
	}

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[domain.MetaMIMEType] = raw.MIMEType
	doc.Metadata[domain.MetaFormat] = domain.FormatPDF.String()

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// sourceFile returns a path holding the PDF bytes and a cleanup func.
func sourceFile(raw *domain.RawDocument) (string, func(), error) {
	noop := func() {}
	if raw.URI != "" {
		if info, err := os.Stat(raw.URI); err == nil && info.Mode().IsRegular() {
			return raw.URI, noop, nil
		}
	}
	if len(raw.Content) == 0 {
		return "", noop, fmt.Errorf("%w: pdf %q has no content", domain.ErrInvalidInput, raw.URI)
	}

	f, err := os.CreateTemp("", "normrag-*.pdf")
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	cleanup := func() { os.Remove(name) }

	if _, err := f.Write(raw.Content); err != nil {
		f.Close()
		cleanup()
		return "", noop, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close temp file: %w", err)
	}
	return name, cleanup, nil
}

// extractTitle uses the first reasonably short line, falling back to the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Trim(line, "\x00") == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleLength {
			continue
		}
		return line
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.ReplaceAll(filename, "_", " ")
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
