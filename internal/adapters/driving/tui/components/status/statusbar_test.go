package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.WarningCount())
	assert.Nil(t, bar.Init())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		warnings int
		want     string
	}{
		{name: "ready", state: StateReady, want: "Ready"},
		{name: "ready with message", state: StateReady, message: "Indexed 2 documents", want: "Indexed 2 documents"},
		{name: "thinking", state: StateThinking, want: "Thinking..."},
		{name: "ingesting", state: StateIngesting, want: "Indexing documents..."},
		{name: "error", state: StateError, message: "boom", want: "Error: boom"},
		{name: "bare error", state: StateError, want: "Error"},
		{name: "help", state: StateHelp, want: "Help"},
		{name: "answered", state: StateAnswered, want: "Answered"},
		{name: "one warning", state: StateAnswered, warnings: 1, want: "Answered with 1 warning"},
		{name: "warnings", state: StateAnswered, warnings: 3, want: "Answered with 3 warnings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetWarningCount(tt.warnings)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestStatusBar_Hints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	assert.Contains(t, bar.View(), "q: quit")

	bar.SetState(StateAnswered)
	view := bar.View()
	assert.Contains(t, view, "n: new question")
	assert.Contains(t, view, "c: context")
}

func TestStatusBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(100)

	assert.Equal(t, 100, bar.Width())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetWarningCount(2)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.WarningCount())
}
