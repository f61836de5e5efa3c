package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func retrieved(filename, content string, refs ...string) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			Content:  content,
			Sections: refs,
			Metadata: map[string]any{domain.MetaFilename: filename},
		},
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"СП_4.04.07-2025.pdf", "СП 4.04.07-2025"},
		{"ГОСТ_12.1.004.PDF", "ГОСТ 12.1.004"},
		{"notes_on_grounding.txt", "notes on grounding"},
		{"readme.md", "readme"},
		{"archive_2020.docx", "archive 2020.docx"},
		{"/abs/path/СНиП_3.05.pdf", "СНиП 3.05"},
		{"no_extension", "no extension"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentName(tt.in))
		})
	}
}

func TestContextFormatter_Format(t *testing.T) {
	f := NewContextFormatter(EnglishLabels)

	out := f.Format([]domain.RetrievedChunk{
		retrieved("СП_4.04.pdf", "Заземление выполняется...", "4.2.3", "4.10", "4.2"),
		retrieved("notes.txt", "Без разделов."),
	})

	want := "[Document: СП 4.04]\n[Sections: 4.2, 4.2.3, 4.10] Заземление выполняется..." +
		"\n\n" +
		"[Document: notes]\nБез разделов."
	assert.Equal(t, want, out)
}

func TestContextFormatter_KeepsRetrievalOrder(t *testing.T) {
	f := NewContextFormatter(EnglishLabels)

	out := f.Format([]domain.RetrievedChunk{
		retrieved("b.pdf", "second by name, first by rank"),
		retrieved("a.pdf", "first by name"),
	})

	assert.Equal(t, "[Document: b]\nsecond by name, first by rank\n\n[Document: a]\nfirst by name", out)
}

func TestContextFormatter_RussianLabels(t *testing.T) {
	f := NewContextFormatter(LabelsFor(domain.LabelsRussian))

	out := f.Format([]domain.RetrievedChunk{retrieved("ГОСТ_1.pdf", "текст", "2")})

	assert.Equal(t, "[Документ: ГОСТ 1]\n[Разделы: 2] текст", out)
}

func TestContextFormatter_SectionsFromMetadata(t *testing.T) {
	c := domain.RetrievedChunk{Chunk: domain.Chunk{
		Content: "текст",
		Metadata: map[string]any{
			domain.MetaSource:   "/docs/СП_1.pdf",
			domain.MetaSections: []string{"5.1", "3"},
		},
	}}

	out := NewContextFormatter(EnglishLabels).Format([]domain.RetrievedChunk{c})

	assert.Equal(t, "[Document: СП 1]\n[Sections: 3, 5.1] текст", out)
}

func TestContextFormatter_Empty(t *testing.T) {
	assert.Empty(t, NewContextFormatter(EnglishLabels).Format(nil))
}

func TestLabelsFor(t *testing.T) {
	assert.Equal(t, EnglishLabels, LabelsFor(domain.LabelsEnglish))
	assert.Equal(t, RussianLabels, LabelsFor(domain.LabelsRussian))
	assert.Equal(t, EnglishLabels, LabelsFor("fr"))
}

func TestSources(t *testing.T) {
	got := Sources([]domain.RetrievedChunk{
		retrieved("b.pdf", "x", "4.10"),
		retrieved("a.pdf", "y"),
		retrieved("b.pdf", "z", "4.2", "4.10"),
	})

	assert.Equal(t, []domain.Source{
		{Filename: "b.pdf", Sections: []string{"4.2", "4.10"}},
		{Filename: "a.pdf"},
	}, got)
}
