package domain

import "strings"

// Mode is the response mode a request is answered in.
type Mode string

const (
	// ModeSearch answers strictly from retrieved sources.
	ModeSearch Mode = "search"

	// ModeTT synthesises technical requirements from retrieved sources.
	ModeTT Mode = "tt"
)

// IsValid returns true if the mode is recognised.
func (m Mode) IsValid() bool {
	return m == ModeSearch || m == ModeTT
}

// String returns the string representation.
func (m Mode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m Mode) Description() string {
	switch m {
	case ModeSearch:
		return "Поиск информации"
	case ModeTT:
		return "Генерация ТТ"
	default:
		return unknownDescription
	}
}

// Corpus returns the corpus requests in this mode retrieve from.
func (m Mode) Corpus() Corpus {
	if m == ModeTT {
		return CorpusTT
	}
	return CorpusNormative
}

// UIMode is the mode selected by the user interface.
// Any value other than UIModeAuto overrides automatic detection.
type UIMode string

const (
	// UIModeAuto classifies each request from its text.
	UIModeAuto UIMode = "auto"

	// UIModeSearch forces search mode.
	UIModeSearch UIMode = "search"

	// UIModeTT forces TT mode.
	UIModeTT UIMode = "tt"
)

// IsValid returns true if the UI mode is recognised.
func (m UIMode) IsValid() bool {
	switch m {
	case UIModeAuto, UIModeSearch, UIModeTT:
		return true
	default:
		return false
	}
}

// Label returns the label shown in the chat interface.
func (m UIMode) Label() string {
	switch m {
	case UIModeAuto:
		return "Автоматично"
	case UIModeSearch:
		return "Поиск информации"
	case UIModeTT:
		return "Генерация ТТ"
	default:
		return unknownDescription
	}
}

// ParseUIMode accepts either the identifier or the UI label of a mode.
// An empty string selects UIModeAuto.
func ParseUIMode(s string) (UIMode, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UIModeAuto, true
	}
	for _, m := range AllUIModes() {
		if strings.EqualFold(s, string(m)) || s == m.Label() {
			return m, true
		}
	}
	return "", false
}

// AllUIModes returns all UI modes in menu order.
func AllUIModes() []UIMode {
	return []UIMode{UIModeAuto, UIModeTT, UIModeSearch}
}

// ModeRules is the configuration data driving automatic mode detection.
type ModeRules struct {
	// Marker is a reserved prefix that forces TT mode (e.g. "/tt").
	Marker string

	// Keywords trigger TT mode when found in a request, case-insensitively.
	Keywords []string
}

// DefaultModeRules returns the marker and Russian trigger keywords.
func DefaultModeRules() ModeRules {
	return ModeRules{
		Marker: "/tt",
		Keywords: []string{
			"требования",
			"тт",
			"технические требования",
			"генерировать тт",
		},
	}
}
