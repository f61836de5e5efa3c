package chunker

import "regexp"

// Separator is a candidate split boundary.
type Separator struct {
	// Name identifies the boundary in logs and tests.
	Name string

	// Pattern matches the boundary. A nil Pattern splits between characters.
	Pattern *regexp.Regexp

	// KeepEnd attaches the matched text to the end of the preceding piece.
	// Otherwise it starts the following piece, which keeps headings with
	// their section body.
	KeepEnd bool
}

// DefaultSeparators returns the boundaries in the order they are tried:
// sub-subsection, subsection and main-section headers, then paragraph,
// line, sentence and word breaks, and finally single characters.
func DefaultSeparators() []Separator {
	return []Separator{
		{Name: "subsubsection", Pattern: regexp.MustCompile(`\n[ \t]*\d+\.\d+\.\d+\.?[ \t]`)},
		{Name: "subsection", Pattern: regexp.MustCompile(`\n[ \t]*\d+\.\d+\.?[ \t]`)},
		{Name: "section", Pattern: regexp.MustCompile(`\n[ \t]*\d+\.[ \t]+\p{Lu}`)},
		{Name: "paragraph", Pattern: regexp.MustCompile(`\n[ \t]*\n`), KeepEnd: true},
		{Name: "line", Pattern: regexp.MustCompile(`\n`), KeepEnd: true},
		{Name: "sentence", Pattern: regexp.MustCompile(`[.!?…]\s+`), KeepEnd: true},
		{Name: "word", Pattern: regexp.MustCompile(`\s+`), KeepEnd: true},
		{Name: "character"},
	}
}

// split cuts text at every match of sep. Empty pieces are dropped.
func (sep Separator) split(text string) []string {
	if sep.Pattern == nil {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	var pieces []string
	start := 0
	for _, loc := range sep.Pattern.FindAllStringIndex(text, -1) {
		cut := loc[0]
		if sep.KeepEnd {
			cut = loc[1]
		}
		if cut > start {
			pieces = append(pieces, text[start:cut])
		}
		start = cut
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

// matches reports whether sep occurs in text.
func (sep Separator) matches(text string) bool {
	if sep.Pattern == nil {
		return true
	}
	return sep.Pattern.MatchString(text)
}
