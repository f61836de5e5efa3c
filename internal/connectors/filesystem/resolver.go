package filesystem

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalPath turns a corpus location from the config into a local path.
// It accepts file:// URIs, percent-encoded or not, and expands a leading
// "~/" to the home directory. Other paths are returned unchanged.
func LocalPath(location string) string {
	if rest, ok := strings.CutPrefix(location, "file://"); ok {
		if unescaped, err := url.PathUnescape(rest); err == nil {
			rest = unescaped
		}
		return rest
	}
	if rest, ok := strings.CutPrefix(location, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return location
}
