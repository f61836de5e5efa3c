// Package sections extracts structural section references such as "4.2.3"
// from document text and attaches them to chunks.
package sections

import (
	"regexp"
	"sort"
	"strings"
)

// maxDepth is the deepest level recognised (sub-subsection).
const maxDepth = 3

var (
	// dottedPattern matches subsection and sub-subsection numbers.
	// Matches are maximal, so "4.2.3" yields one token rather than "4.2" and "4.2.3".
	dottedPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

	// headingPattern matches a main section heading: a number that is not part
	// of a dotted token, followed by ". " and an uppercase letter.
	headingPattern = regexp.MustCompile(`(?m)(?:^|[^\d.])(\d+)\. \p{Lu}`)

	yearPattern = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// Extract returns the distinct section references found in text, sorted by
// numeric hierarchy. Year-like tokens are dropped, and a single digit is kept
// only if the same digit followed by ". " occurs in text. A text without
// references yields an empty, non-nil slice.
func Extract(text string) []string {
	seen := make(map[string]struct{})
	var tokens []string

	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, m := range dottedPattern.FindAllString(text, -1) {
		parts := strings.Split(m, ".")
		if len(parts) > maxDepth {
			parts = parts[:maxDepth]
		}
		add(strings.Join(parts, "."))
	}
	for _, m := range headingPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if yearPattern.MatchString(tok) {
			continue
		}
		if len(tok) == 1 && !digitFollowedByDot(text, tok) {
			continue
		}
		out = append(out, tok)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return Compare(out[i], out[j]) < 0
	})
	return out
}

// digitFollowedByDot reports whether digit occurs in text as a standalone
// number immediately followed by ". ".
func digitFollowedByDot(text, digit string) bool {
	needle := digit + ". "
	for i := 0; ; {
		j := strings.Index(text[i:], needle)
		if j < 0 {
			return false
		}
		pos := i + j
		if pos == 0 || !isDigit(text[pos-1]) {
			return true
		}
		i = pos + 1
	}
}

// Compare orders dotted references by their integer components, so "4.2"
// sorts before "4.10" and a parent sorts before its children.
// It returns -1, 0 or +1.
func Compare(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := compareNumeric(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// compareNumeric compares two decimal digit strings of any length by value.
func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	return strings.Compare(ta, tb)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
