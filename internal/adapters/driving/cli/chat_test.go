package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_Description(t *testing.T) {
	assert.Equal(t, "Launch the interactive terminal UI", chatCmd.Short)
	assert.Contains(t, chatCmd.Long, "Controls:")
	assert.Contains(t, chatCmd.Aliases, "tui")
}

func TestChatCmd_HelpOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("chat", "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "interactive terminal user interface")
	assert.Contains(t, out, "--watch")
}

func TestChatCmd_WatchRequiresFiles(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("chat", "--watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires at least one file")
}

func TestChatCmd_ErrorsWithoutServices(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	qaService = nil

	err := runChat(chatCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
