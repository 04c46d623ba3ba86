// Package session provides the document session view for the TUI.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service is required")

// View lists the documents behind the current index and loads new ones.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService
	pathInput       *input.Prompt
	ctx             context.Context

	session      domain.SessionInfo
	lastResult   *domain.IngestResult
	maxFileBytes int64
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	prompting    bool
}

// NewView creates a new session view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	pathInput := input.NewPathInput(s)
	pathInput.Blur()

	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
		pathInput:       pathInput,
		ctx:             context.Background(),
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetMaxFileBytes caps the size of each file loaded from the prompt.
func (v *View) SetMaxFileBytes(n int64) {
	v.maxFileBytes = n
}

// Init loads the current session.
func (v *View) Init() tea.Cmd {
	return v.loadSession()
}

// loadSession returns a command that snapshots the document session.
func (v *View) loadSession() tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.ErrorOccurred{Err: ErrNoDocumentService}
		}
		return messages.SessionLoaded{Session: v.documentService.Current()}
	}
}

// ingest returns a command that reads and indexes the given files.
func (v *View) ingest(paths []string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsIngested{Err: ErrNoDocumentService}
		}
		uploads, err := extractors.ReadFiles(v.maxFileBytes, paths...)
		if err != nil {
			return messages.DocumentsIngested{Err: err}
		}
		result, err := v.documentService.Ingest(v.ctx, uploads)
		return messages.DocumentsIngested{Result: result, Err: err}
	}
}

// Update handles messages for the session view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.prompting {
			return v.handlePromptKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.SessionLoaded:
		v.session = msg.Session
		if v.selected >= len(v.session.DocumentNames) {
			v.selected = 0
		}
		return v, nil

	case messages.DocumentsIngested:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.lastResult = msg.Result
		return v, v.loadSession()

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses while browsing the document list.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(msg.String(), v.keymap.Down):
		if v.selected < len(v.session.DocumentNames)-1 {
			v.selected++
		}
	case keymap.Matches(msg.String(), v.keymap.Load):
		if v.loading {
			return v, nil
		}
		v.prompting = true
		v.err = nil
		v.pathInput.SetValue("")
		return v, v.pathInput.Focus()
	case msg.String() == "r":
		return v, v.loadSession()
	}
	return v, nil
}

// handlePromptKeyMsg handles key presses while typing file paths.
//
//nolint:exhaustive // only enter and esc are special
func (v *View) handlePromptKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.prompting = false
		v.pathInput.Blur()
		return v, nil
	case tea.KeyEnter:
		paths := strings.Fields(v.pathInput.Value())
		if len(paths) == 0 {
			return v, nil
		}
		v.prompting = false
		v.loading = true
		v.pathInput.Blur()
		return v, v.ingest(paths)
	default:
		var cmd tea.Cmd
		v.pathInput, cmd = v.pathInput.Update(msg)
		return v, cmd
	}
}

// View renders the session view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Documents"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + errorMessage(v.err)))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Indexing documents..."))
		b.WriteString("\n")
	case !v.session.Indexed():
		b.WriteString(v.styles.Muted.Render("No documents loaded. Press [a] to add files."))
		b.WriteString("\n")
	default:
		b.WriteString(v.renderSession())
	}

	if v.lastResult != nil && !v.loading {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render(fmt.Sprintf(
			"Indexed %d document(s) into %d chunks", len(v.lastResult.Documents), v.lastResult.ChunkCount)))
		b.WriteString("\n")
	}

	if v.prompting {
		b.WriteString("\n")
		b.WriteString(v.pathInput.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Loading replaces the current documents."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderSession() string {
	var b strings.Builder

	for i, name := range v.session.DocumentNames {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		line := indicator + name
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		if i < len(v.session.DocumentIDs) {
			b.WriteString(v.styles.Muted.Render("  " + v.session.DocumentIDs[i]))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Chunks: %d", v.session.ChunkCount)))
	b.WriteString("\n")
	if v.session.EmbeddingModel != "" {
		b.WriteString(v.styles.Muted.Render("Embedding model: " + v.session.EmbeddingModel))
		b.WriteString("\n")
	}
	if !v.session.BuiltAt.IsZero() {
		b.WriteString(v.styles.Muted.Render("Built: " + v.session.BuiltAt.Format(time.DateTime)))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	if v.prompting {
		return v.styles.Help.Render("[enter] load  [esc] cancel")
	}
	return v.styles.Help.Render("[j/k] navigate  [a] add files  [r] refresh  [esc] back")
}

// errorMessage returns the user-facing text for err.
func errorMessage(err error) string {
	if domain.KindOf(err) == domain.KindInternal {
		return err.Error()
	}
	return domain.NewRequestError(err).Message
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.pathInput.SetWidth(width)
}

// Session returns the last loaded session snapshot.
func (v *View) Session() domain.SessionInfo {
	return v.session
}

// Selected returns the index of the highlighted document.
func (v *View) Selected() int {
	return v.selected
}

// Prompting returns whether the path prompt is open.
func (v *View) Prompting() bool {
	return v.prompting
}

// Loading returns whether an ingest is running.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset closes the prompt and clears transient state.
func (v *View) Reset() {
	v.prompting = false
	v.pathInput.Blur()
	v.pathInput.SetValue("")
	v.err = nil
	v.lastResult = nil
	v.selected = 0
}
