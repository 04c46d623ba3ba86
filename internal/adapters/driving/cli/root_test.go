package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "docqa", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config-dir", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"ask", "chat", "mcp", "serve", "settings", "summarize", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestCommandAnnotations(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		want string
	}{
		{askCmd, needsPipeline},
		{chatCmd, needsPipeline},
		{serveCmd, needsPipeline},
		{summarizeCmd, needsPipeline},
		{mcpServeCmd, needsPipeline},
		{settingsCmd, needsSettings},
		{settingsShowCmd, needsSettings},
		{settingsSetCmd, needsSettings},
		{versionCmd, ""},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.CommandPath(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Annotations[servicesAnnotation])
		})
	}
}

func TestSetupServices_KeepsInstalledServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	require.NoError(t, setupServices(askCmd, nil))

	assert.Same(t, ts.qa, qaService)
	assert.Same(t, ts.settings, settingsService)
}

func TestSetupServices_NoAnnotationWiresNothing(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil
	qaService = nil

	require.NoError(t, setupServices(versionCmd, nil))

	assert.Nil(t, settingsService)
	assert.Nil(t, qaService)
}

func TestSetupServices_SettingsOnly(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil
	qaService = nil
	ephemeral = true

	require.NoError(t, setupServices(settingsShowCmd, nil))

	assert.NotNil(t, settingsService)
	assert.Nil(t, qaService)
}

func TestResolveConfigDir(t *testing.T) {
	defer resetFlags()

	configDir = "/tmp/docqa-test"
	dir, err := resolveConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docqa-test", dir)

	ephemeral = true
	dir, err = resolveConfigDir()
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestMaxFileBytes(t *testing.T) {
	old := appSettings
	defer func() { appSettings = old }()

	appSettings = nil
	assert.Zero(t, maxFileBytes())

	s := domain.DefaultAppSettings()
	s.Server.MaxUploadMB = 2
	appSettings = &s
	assert.Equal(t, int64(2<<20), maxFileBytes())
}

// The built-in oracles need no network, so an ephemeral run wires the
// whole pipeline for real.
func TestAsk_EphemeralPipeline(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	qaService, documentService, summaryService, healthService = nil, nil, nil, nil
	settingsService, appSettings = nil, nil
	defer func() {
		if aiResult != nil {
			aiResult.Close()
			aiResult = nil
		}
	}()

	out, err := execute("--ephemeral", "ask", "What is the capital of France?",
		"--context", "Paris is the capital of France.")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer: Paris")
	assert.NotContains(t, out, "[hallucination]")
	require.NotNil(t, appSettings)
	assert.Equal(t, domain.AIProviderLocal, appSettings.Embedding.Provider)
	assert.NotNil(t, healthService)
}
