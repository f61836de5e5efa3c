package domain

import "time"

// Format identifies how a document's text was obtained.
type Format string

const (
	// FormatPDF is text extracted from a PDF file.
	FormatPDF Format = "pdf"

	// FormatText is a plain text file.
	FormatText Format = "text"

	// FormatMarkdown is a markdown file stripped to plain text.
	FormatMarkdown Format = "markdown"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatText, FormatMarkdown:
		return true
	default:
		return false
	}
}

// Metadata keys shared by documents, chunks and index entries.
const (
	MetaFilename = "filename"
	MetaSource   = "source"
	MetaFormat   = "format"
	MetaSections = "sections"
	MetaMIMEType = "mime_type"
)

// Document represents a loaded document with metadata.
// It is immutable after load and owned by the ingestion run.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourcePath is the file path the document was read from.
	SourcePath string

	// Filename is the base name of SourcePath.
	Filename string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Format records how the text was extracted.
	Format Format

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// LoadedAt is when the document was read.
	LoadedAt time.Time
}

// Chunk represents a retrieval unit within a document.
// Chunks are never mutated after the pipeline produces them.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Sections holds the structural references found in Content,
	// deduplicated and in numeric hierarchy order.
	Sections []string

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains the parent document metadata plus the sections field.
	Metadata map[string]any
}

// Filename returns the filename recorded in the chunk metadata.
func (c *Chunk) Filename() string {
	if c.Metadata == nil {
		return ""
	}
	name, _ := c.Metadata[MetaFilename].(string)
	return name
}
