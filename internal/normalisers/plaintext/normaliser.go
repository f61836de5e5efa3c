package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
// Content that is not valid UTF-8 is decoded as Windows-1251, the usual
// encoding of legacy Russian text exports.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a raw document to a normalised document.
// The Content field contains the full text content.
// Chunking is handled by the PostProcessor pipeline.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, err := decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(raw.URI), err)
	}

	doc := domain.Document{
		ID:         uuid.New().String(),
		SourcePath: raw.URI,
		Filename:   filepath.Base(raw.URI),
		Title:      extractTitleFromMetadataOrURI(raw),
		Content:    strings.ReplaceAll(content, "\r\n", "\n"),
		Format:     domain.FormatText,
		Metadata:   copyMetadata(raw.Metadata),
		LoadedAt:   time.Now(),
	}

	// Add MIME type to metadata for reference
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata[domain.MetaMIMEType] = raw.MIMEType
	doc.Metadata[domain.MetaFormat] = domain.FormatText.String()

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// decode returns content as UTF-8 text.
func decode(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}
	out, err := charmap.Windows1251.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// extractTitleFromMetadataOrURI checks metadata for title first, then falls back to URI.
func extractTitleFromMetadataOrURI(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && title != "" {
			return title
		}
	}
	return extractTitle(raw.URI)
}

// extractTitle extracts a human-readable title from a URI.
func extractTitle(uri string) string {
	// Get filename from path
	filename := filepath.Base(uri)

	// Remove common extensions for cleaner title
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

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
