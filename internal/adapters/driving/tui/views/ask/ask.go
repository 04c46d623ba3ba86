// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// passageDelimiter separates retrieved passages in Answer.Context.
const passageDelimiter = "\n\n"

// defaultLowConfidence matches the default qa.low_confidence_threshold.
const defaultLowConfidence = 0.3

// View represents the ask view with question input, answer panel, sources and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Prompt
	sources   *list.SourceList
	statusbar *status.Bar

	qaService driving.QAService
	ctx       context.Context

	width       int
	height      int
	ready       bool
	err         error
	focusInput  bool // true = input mode (typing), false = answer mode (navigating)
	question    string
	answer      *domain.Answer
	showContext bool
	threshold   float64
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, qaService driving.QAService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		qaService:  qaService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
		threshold:  defaultLowConfidence,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetLowConfidenceThreshold sets the score below which confidence renders as poor.
func (v *View) SetLowConfidenceThreshold(threshold float64) {
	v.threshold = threshold
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyEnter && v.focusInput {
		question := strings.TrimSpace(v.input.Value())
		if question == "" {
			return v, nil
		}
		v.question = question
		v.err = nil
		v.statusbar.SetState(status.StateThinking)
		v.focusInput = false
		v.input.Blur()
		return v, v.ask(question)
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.sources.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.sources.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.NewQuestion):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.ToggleContext):
		v.showContext = !v.showContext
	}

	return v, nil
}

// ask runs the question through the QA service.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.qaService == nil {
			return messages.ErrorOccurred{Err: ErrNoQAService}
		}
		answer, err := v.qaService.Ask(v.ctx, domain.Query{Question: question})
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// handleAnswer processes a completed question.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = msg.Answer
	v.showContext = false
	v.sources.SetSources(msg.Answer.Sources, splitPassages(msg.Answer.Context, len(msg.Answer.Sources)))
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetWarningCount(len(msg.Answer.Warnings))
}

// setError shows err and returns focus to the input so the question can be edited.
func (v *View) setError(err error) {
	v.err = err
	v.answer = nil
	v.sources.SetSources(nil, nil)
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(errorMessage(err))
	v.focusInput = true
	v.input.Focus()
}

// errorMessage returns the user-facing text for err. Unexpected errors are
// shown as-is since the TUI runs locally.
func errorMessage(err error) string {
	if domain.KindOf(err) == domain.KindInternal {
		return err.Error()
	}
	return domain.NewRequestError(err).Message
}

// splitPassages recovers per-source passages from the joined context.
// It returns nil when the split does not line up with the sources.
func splitPassages(joined string, n int) []string {
	if joined == "" || n == 0 {
		return nil
	}
	passages := strings.Split(joined, passageDelimiter)
	if len(passages) != n {
		return nil
	}
	return passages
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 16)
	sections = append(sections, v.styles.Title.Render("docqa"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+errorMessage(v.err)), "")
	}

	if v.answer != nil {
		sections = append(sections, v.renderAnswer()...)
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAnswer renders the answer panel: text, confidence, supporting
// passage, warnings, sources and optionally the full context.
func (v *View) renderAnswer() []string {
	a := v.answer
	wrap := v.width - 4
	if wrap < 20 {
		wrap = 20
	}

	out := []string{
		v.styles.Muted.Render("Q: " + v.question),
		v.styles.Answer.Width(wrap).Render(a.Text),
		v.styles.Confidence(a.Confidence, v.threshold).Render(fmt.Sprintf("confidence %.2f", a.Confidence)),
	}

	if a.SupportingContext != "" {
		out = append(out, "", v.styles.Subtitle.Render("Supporting context"),
			v.styles.Quote.Width(wrap).Render(a.SupportingContext))
	}

	if len(a.Warnings) > 0 {
		out = append(out, "", v.styles.Subtitle.Render(fmt.Sprintf("Warnings (%d)", len(a.Warnings))))
		for _, w := range a.Warnings {
			out = append(out, v.styles.Warning.Render(fmt.Sprintf("  ! [%s] %s", w.Kind, w.Message)))
		}
	}

	out = append(out, "", v.sources.View())

	if v.showContext && a.Context != "" {
		out = append(out, "", v.styles.Subtitle.Render("Context"),
			v.styles.Quote.Width(wrap).Render(a.Context))
	}
	return out
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, height/3)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Answer returns the current answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ContextVisible returns whether the full retrieval context is shown.
func (v *View) ContextVisible() bool {
	return v.showContext
}

// SelectedSource returns the highlighted source, or nil.
func (v *View) SelectedSource() *domain.Source {
	return v.sources.SelectedSource()
}

// Reset resets the view to initial input mode.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.sources.SetSources(nil, nil)
	v.question = ""
	v.answer = nil
	v.showContext = false
	v.err = nil
	v.statusbar.Clear()
}
