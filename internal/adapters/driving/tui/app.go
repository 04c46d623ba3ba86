package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/session"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ingestEvent wraps an ingest reported from outside the TUI, such as a
// file watcher reload.
type ingestEvent struct {
	messages.DocumentsIngested
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	menuView     *menu.View
	askView      *ask.View
	sessionView  *session.View
	settingsView *settings.View

	// ingestEvents delivers reloads that happen outside the TUI.
	ingestEvents <-chan messages.DocumentsIngested

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingQAService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	askView := ask.NewView(s, km, ports.QA)
	sessionView := session.NewView(s, km, ports.Document)
	sessionView.SetMaxFileBytes(ports.MaxFileBytes)

	if ports.Settings != nil {
		if cfg, err := ports.Settings.Get(); err == nil {
			askView.SetLowConfidenceThreshold(cfg.QA.LowConfidenceThreshold)
		}
	}

	menuView := menu.NewView(s)
	menuView.SetSession(ports.Document.Current())

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menuView,
		askView:      askView,
		sessionView:  sessionView,
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and the views that call services.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.sessionView.WithContext(ctx)
	return a
}

// WithIngestEvents subscribes the app to ingests performed elsewhere.
// The channel should be closed when no more events will arrive.
func (a *App) WithIngestEvents(events <-chan messages.DocumentsIngested) *App {
	a.ingestEvents = events
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("docqa"),
		a.waitForIngest(),
	)
}

// waitForIngest blocks on the next external ingest event.
func (a *App) waitForIngest() tea.Cmd {
	if a.ingestEvents == nil {
		return nil
	}
	events := a.ingestEvents
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ingestEvent{ev}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
			a.err = a.askView.Err()
		case messages.ViewSession:
			a.sessionView, cmd = a.sessionView.Update(msg)
		case messages.ViewSettings:
			a.settingsView, cmd = a.settingsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			a.askView.Reset()
			return a, a.askView.Init()
		case messages.ViewSession:
			a.sessionView.Reset()
			return a, a.sessionView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu:
			a.menuView.SetSession(a.ports.Document.Current())
		case messages.ViewHelp:
		}
		return a, nil

	case messages.AnswerReceived:
		a.askView, cmd = a.askView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.SessionLoaded:
		a.menuView.SetSession(msg.Session)
		a.sessionView, cmd = a.sessionView.Update(msg)
		return a, cmd

	case messages.DocumentsIngested:
		a.err = msg.Err
		a.sessionView, cmd = a.sessionView.Update(msg)
		a.menuView.SetSession(a.ports.Document.Current())
		return a, cmd

	case ingestEvent:
		a.sessionView, cmd = a.sessionView.Update(msg.DocumentsIngested)
		a.menuView.SetSession(a.ports.Document.Current())
		return a, tea.Batch(cmd, a.waitForIngest())

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewSession:
			a.sessionView, cmd = a.sessionView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp, messages.ViewSettings:
			// Other views don't handle error messages
		}
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blinks) to the active view
	switch a.currentView {
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewSession:
		a.sessionView, cmd = a.sessionView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewMenu, messages.ViewHelp:
	}

	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewSession:
		return a.sessionView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask:
  (type)      Enter a question
  enter       Submit question
  n           New question
  j/k, ↑/↓    Move through sources
  c           Show or hide the retrieved context
  esc         Back to Menu

Documents:
  a           Load files (replaces the current documents)
  r           Refresh
  esc         Back to Menu

Settings:
  enter       Edit the selected setting
  e / l       Choose embedding / LLM provider
  esc         Back

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Question returns the last question asked.
func (a *App) Question() string {
	return a.askView.Question()
}

// Answer returns the current answer, or nil.
func (a *App) Answer() *domain.Answer {
	return a.askView.Answer()
}

// Session returns the session snapshot shown in the documents view.
func (a *App) Session() domain.SessionInfo {
	return a.sessionView.Session()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.sessionView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
