// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// QuestionAsked is a command to answer a question against the session.
type QuestionAsked struct {
	Question string
}

// AnswerReceived carries the answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewSession shows the indexed documents and loads new ones.
	ViewSession
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewSettings is the settings configuration view.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewSession:
		return "session"
	case ViewHelp:
		return "help"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SessionLoaded carries a snapshot of the document session.
type SessionLoaded struct {
	Session domain.SessionInfo
}

// DocumentsIngested signals an ingest finished, from the TUI or a file watcher.
type DocumentsIngested struct {
	Result *domain.IngestResult
	Err    error
}

// SettingsLoaded carries the application settings and their display entries.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Entries  []driving.SettingEntry
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}
