package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "normrag", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"verbose", "v", "false"},
		{"config", "", ""},
		{"ephemeral", "", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "ask", "context", "chat", "sessions", "config", "mcp", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestSetupApp_KeepsPresetApp(t *testing.T) {
	a := setupTestApp(t)

	require.NoError(t, setupApp(rootCmd, nil))

	assert.Same(t, a, app)
}

func TestSetupApp_Ephemeral(t *testing.T) {
	prev := app
	app = nil
	ephemeral = true
	t.Cleanup(func() {
		app = prev
		ephemeral = false
	})

	require.NoError(t, setupApp(rootCmd, nil))

	require.NotNil(t, app)
	assert.Empty(t, app.ConfigPath)
	assert.NotNil(t, app.Settings)
	assert.NotNil(t, app.Sessions())
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")

	assert.Equal(t, "1.2.3", version)
}
