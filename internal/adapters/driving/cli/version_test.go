package cli

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

func setVersion(t *testing.T, v string) {
	t.Helper()
	prev := version
	SetVersion(v)
	t.Cleanup(func() { version = prev })
}

func TestVersionCmd_Flags(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	short := versionCmd.Flags().Lookup("short")
	require.NotNil(t, short)
	assert.Equal(t, "false", short.DefValue)
}

func TestVersionCmd_Full(t *testing.T) {
	setVersion(t, "1.2.0")
	prev := app
	app = nil
	t.Cleanup(func() { app = prev })

	out, err := runCLI(t, nil, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "normrag version 1.2.0\n")
	assert.Contains(t, out, fmt.Sprintf("index format: v%d", domain.ManifestVersion))
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Nil(t, app, "version does not create the app")
}

func TestVersionCmd_Short(t *testing.T) {
	setVersion(t, "dev")

	out, err := runCLI(t, nil, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
