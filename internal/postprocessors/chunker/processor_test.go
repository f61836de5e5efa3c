package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
		if len(p.separators) != len(DefaultSeparators()) {
			t.Errorf("expected default separators, got %d", len(p.separators))
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		p := New(WithOverlap(100))
		if p.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", p.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1), WithSeparators(nil))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
		if len(p.separators) == 0 {
			t.Error("expected default separators to be kept")
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestSplit_WordOverlap(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(5))

	got := p.Split("aaaa bbbb cccc dddd")
	want := []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}

	assertChunks(t, want, got)
}

func TestSplit_CharacterFallback(t *testing.T) {
	p := New(WithChunkSize(4), WithOverlap(1))

	got := p.Split("abcdefghij")
	want := []string{"abcd", "defg", "ghij"}

	assertChunks(t, want, got)
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	p := New(WithChunkSize(5), WithOverlap(0))

	got := p.Split("ааааа ббббб")
	want := []string{"ааааа", "ббббб"}

	assertChunks(t, want, got)
}

func TestSplit_PrefersSubsectionBoundaries(t *testing.T) {
	p := New(WithChunkSize(60), WithOverlap(0))

	text := "4.1 Первый пункт о заземлении оборудования.\n" +
		"4.2 Второй пункт о защите от перенапряжений."

	got := p.Split(text)
	want := []string{
		"4.1 Первый пункт о заземлении оборудования.",
		"4.2 Второй пункт о защите от перенапряжений.",
	}

	assertChunks(t, want, got)
}

func TestSplit_HeadingsStartChunks(t *testing.T) {
	p := New(WithChunkSize(120), WithOverlap(0))

	var b strings.Builder
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, "\n5.%d.1 Пункт номер %d описывает требования к монтажу и эксплуатации оборудования.", i, i)
	}

	for _, chunk := range p.Split(b.String()) {
		if !strings.HasPrefix(chunk, "5.") {
			t.Errorf("expected chunk to start at a heading, got %q", chunk)
		}
	}
}

func TestSplit_SizeBound(t *testing.T) {
	p := New(WithChunkSize(50), WithOverlap(10))

	for _, chunk := range p.Split(numberedWords(300)) {
		if n := utf8.RuneCountInString(chunk); n > 50 {
			t.Errorf("chunk exceeds size: %d runes: %q", n, chunk)
		}
	}
}

func TestSplit_CoversAllText(t *testing.T) {
	configs := []struct{ size, overlap int }{
		{20, 0}, {50, 10}, {100, 99}, {12, 4}, {1000, 200},
	}
	text := "1. Общие положения\n\n" + numberedWords(120) + "\n1.1 Подраздел. " + numberedWords(80)

	for _, cfg := range configs {
		t.Run(fmt.Sprintf("size=%d overlap=%d", cfg.size, cfg.overlap), func(t *testing.T) {
			p := New(WithChunkSize(cfg.size), WithOverlap(cfg.overlap))
			chunks := p.Split(text)

			covered := make([]bool, len(text))
			from := 0
			for _, chunk := range chunks {
				idx := strings.Index(text[from:], chunk)
				if idx < 0 {
					t.Fatalf("chunk %q is not an in-order substring of the text", chunk)
				}
				start := from + idx
				for i := start; i < start+len(chunk); i++ {
					covered[i] = true
				}
				from = start
			}

			for i, r := range text {
				if !unicode.IsSpace(r) && !covered[i] {
					t.Fatalf("character %q at byte %d not covered by any chunk", r, i)
				}
			}
		})
	}
}

func TestSplit_KeepsTrailingText(t *testing.T) {
	p := New(WithChunkSize(30), WithOverlap(5))
	text := numberedWords(40) + " хвост"

	chunks := p.Split(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(last, "хвост") {
		t.Errorf("expected last chunk to end with trailing text, got %q", last)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	p := New(WithChunkSize(40), WithOverlap(15))
	text := numberedWords(100)

	first := p.Split(text)
	second := p.Split(text)
	assertChunks(t, first, second)
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		p := New()
		chunks, err := p.Process(ctx, &domain.Document{ID: "d", Content: "  \n "}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if chunks != nil {
			t.Errorf("expected nil chunks, got %d", len(chunks))
		}
	})

	t.Run("chunks carry document metadata", func(t *testing.T) {
		p := New(WithChunkSize(20), WithOverlap(0))
		doc := &domain.Document{
			ID:         "doc-1",
			SourcePath: "/corpus/ГОСТ_12.pdf",
			Filename:   "ГОСТ_12.pdf",
			Format:     domain.FormatPDF,
			Content:    numberedWords(20),
			Metadata:   map[string]any{"pages": 3},
		}

		chunks, err := p.Process(ctx, doc, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) < 2 {
			t.Fatalf("expected several chunks, got %d", len(chunks))
		}

		ids := make(map[string]bool)
		for i, c := range chunks {
			if c.Position != i {
				t.Errorf("expected position %d, got %d", i, c.Position)
			}
			if c.DocumentID != "doc-1" {
				t.Errorf("expected document id doc-1, got %s", c.DocumentID)
			}
			if ids[c.ID] {
				t.Errorf("duplicate chunk id %s", c.ID)
			}
			ids[c.ID] = true

			if c.Metadata[domain.MetaFilename] != "ГОСТ_12.pdf" {
				t.Errorf("unexpected filename metadata: %v", c.Metadata[domain.MetaFilename])
			}
			if c.Metadata[domain.MetaSource] != "/corpus/ГОСТ_12.pdf" {
				t.Errorf("unexpected source metadata: %v", c.Metadata[domain.MetaSource])
			}
			if c.Metadata[domain.MetaFormat] != "pdf" {
				t.Errorf("unexpected format metadata: %v", c.Metadata[domain.MetaFormat])
			}
			if c.Metadata["pages"] != 3 {
				t.Errorf("expected document metadata to be copied")
			}
		}

		chunks[0].Metadata["pages"] = 4
		if doc.Metadata["pages"] != 3 {
			t.Error("chunk metadata must not alias document metadata")
		}
	})
}

func assertChunks(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d chunks %q, got %d %q", len(want), want, len(got), got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("слово%d", i)
	}
	return strings.Join(words, " ")
}
