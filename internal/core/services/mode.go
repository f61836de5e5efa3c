package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

// ClassifyMode decides the response mode for a request.
// An explicit UI mode wins. In auto mode the request is TT when it starts
// with the reserved marker or contains a trigger keyword, and search otherwise.
// Matching ignores case. Multiword keywords match anywhere in the text;
// single words must start at a word boundary, so "тт" does not fire on "ватт".
func ClassifyMode(text string, ui domain.UIMode, rules domain.ModeRules) domain.Mode {
	switch ui {
	case domain.UIModeTT:
		return domain.ModeTT
	case domain.UIModeSearch:
		return domain.ModeSearch
	}

	if hasMarker(text, rules.Marker) {
		return domain.ModeTT
	}

	lower := strings.ToLower(text)
	for _, kw := range rules.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.ContainsFunc(kw, unicode.IsSpace) {
			if strings.Contains(lower, kw) {
				return domain.ModeTT
			}
			continue
		}
		if containsWord(lower, kw) {
			return domain.ModeTT
		}
	}
	return domain.ModeSearch
}

// StripMarker removes a leading marker from text so it is not sent to
// retrieval. Text without the marker is returned trimmed.
func StripMarker(text, marker string) string {
	trimmed := strings.TrimSpace(text)
	if hasMarker(trimmed, marker) {
		return strings.TrimSpace(trimmed[len(marker):])
	}
	return trimmed
}

// QueryText is the text sent to retrieval: text without its marker.
// A bare marker keeps the original text.
func QueryText(text, marker string) string {
	if q := StripMarker(text, marker); q != "" {
		return q
	}
	return strings.TrimSpace(text)
}

func hasMarker(text, marker string) bool {
	if marker == "" {
		return false
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(marker) {
		return false
	}
	return strings.EqualFold(trimmed[:len(marker)], marker)
}

// containsWord reports whether word occurs in text at the start of a word.
// The match may end inside a longer word, so inflected forms match too.
func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		offset = pos + size
	}
	return false
}
