package services

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/normrag/internal/core/domain"
	"github.com/custodia-labs/normrag/internal/postprocessors/sections"
)

// ContextLabels are the tag names used in a formatted context block.
type ContextLabels struct {
	Document string
	Sections string
}

var (
	// EnglishLabels is the default tag set.
	EnglishLabels = ContextLabels{Document: "Document", Sections: "Sections"}

	// RussianLabels matches the tags the prompts were written against.
	RussianLabels = ContextLabels{Document: "Документ", Sections: "Разделы"}
)

// LabelsFor returns the tag set named by a format.labels setting.
// Unknown names select EnglishLabels.
func LabelsFor(name string) ContextLabels {
	if name == domain.LabelsRussian {
		return RussianLabels
	}
	return EnglishLabels
}

// strippedExtensions are removed from filenames before display.
var strippedExtensions = []string{".pdf", ".txt", ".md"}

// DocumentName turns a filename into the name shown in context blocks:
// a known extension is removed and underscores become spaces.
func DocumentName(filename string) string {
	name := filepath.Base(filename)
	ext := filepath.Ext(name)
	if slices.Contains(strippedExtensions, strings.ToLower(ext)) {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ReplaceAll(name, "_", " ")
}

// ContextFormatter renders retrieved chunks into one prompt-ready block.
type ContextFormatter struct {
	labels ContextLabels
}

// NewContextFormatter creates a formatter with the given labels.
func NewContextFormatter(labels ContextLabels) *ContextFormatter {
	return &ContextFormatter{labels: labels}
}

// Format renders chunks in the order given. Each chunk becomes
//
//	[Document: name]
//	[Sections: 4.2, 4.2.3] text
//
// with the sections tag omitted when the chunk has none.
// Blocks are separated by a blank line.
func (f *ContextFormatter) Format(chunks []domain.RetrievedChunk) string {
	blocks := make([]string, 0, len(chunks))
	for i := range chunks {
		blocks = append(blocks, f.block(&chunks[i].Chunk))
	}
	return strings.Join(blocks, "\n\n")
}

func (f *ContextFormatter) block(c *domain.Chunk) string {
	var b strings.Builder
	name := DocumentName(chunkFilename(c))
	b.WriteString("[" + f.labels.Document + ": " + name + "]\n")
	if refs := chunkSections(c); len(refs) > 0 {
		b.WriteString("[" + f.labels.Sections + ": " + strings.Join(refs, ", ") + "] ")
	}
	b.WriteString(c.Content)
	return b.String()
}

func chunkFilename(c *domain.Chunk) string {
	if name := c.Filename(); name != "" {
		return name
	}
	if c.Metadata != nil {
		if src, ok := c.Metadata[domain.MetaSource].(string); ok {
			return filepath.Base(src)
		}
	}
	return ""
}

// chunkSections returns the chunk's sections in numeric order.
func chunkSections(c *domain.Chunk) []string {
	refs := c.Sections
	if len(refs) == 0 && c.Metadata != nil {
		refs, _ = c.Metadata[domain.MetaSections].([]string)
	}
	if len(refs) == 0 {
		return nil
	}
	sorted := slices.Clone(refs)
	slices.SortStableFunc(sorted, sections.Compare)
	return sorted
}

// Sources lists the distinct documents behind a set of chunks in
// retrieval order, merging their sections.
func Sources(chunks []domain.RetrievedChunk) []domain.Source {
	var out []domain.Source
	index := make(map[string]int)
	for i := range chunks {
		c := &chunks[i].Chunk
		name := chunkFilename(c)
		pos, ok := index[name]
		if !ok {
			pos = len(out)
			index[name] = pos
			out = append(out, domain.Source{Filename: name})
		}
		for _, ref := range chunkSections(c) {
			if !slices.Contains(out[pos].Sections, ref) {
				out[pos].Sections = append(out[pos].Sections, ref)
			}
		}
	}
	for i := range out {
		slices.SortStableFunc(out[i].Sections, sections.Compare)
	}
	return out
}
