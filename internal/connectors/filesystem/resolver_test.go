package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file:// URI is converted to local path",
			uri:  "file:///srv/documents/file.txt",
			want: "/srv/documents/file.txt",
		},
		{
			name: "file:// URI with spaces",
			uri:  "file:///srv/my documents/ПУЭ.pdf",
			want: "/srv/my documents/ПУЭ.pdf",
		},
		{
			name: "percent-encoded file:// URI",
			uri:  "file:///srv/%D0%9F%D0%A3%D0%AD/%D0%A1%D0%9F%2012.pdf",
			want: "/srv/ПУЭ/СП 12.pdf",
		},
		{
			name: "invalid escape is kept",
			uri:  "file:///srv/100%/a.pdf",
			want: "/srv/100%/a.pdf",
		},
		{
			name: "bare path passes through unchanged",
			uri:  "/srv/documents/file.txt",
			want: "/srv/documents/file.txt",
		},
		{
			name: "relative path passes through unchanged",
			uri:  "./documents",
			want: "./documents",
		},
		{
			name: "empty string passes through",
			uri:  "",
			want: "",
		},
		{
			name: "file:// prefix only",
			uri:  "file://",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalPath(tt.uri))
		})
	}
}

func TestLocalPath_HomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "normrag", "docs"), LocalPath("~/normrag/docs"))
	assert.Equal(t, "~user/docs", LocalPath("~user/docs"))
}
