// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionEdit
	SectionEmbedding
	SectionLLM
)

// Key constants for key handling.
const (
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// secretSuffix marks settings whose value is masked and never prefilled.
const secretSuffix = ".api_key"

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	// Current settings
	settings *domain.AppSettings
	entries  []driving.SettingEntry
	err      error
	notice   string

	// Navigation state
	section      Section
	selected     int // selection within current section
	entryIndex   int // entry being edited
	focusedField int // for text input focus

	valueInput           textinput.Model
	embeddingAPIKeyInput textinput.Model
	llmAPIKeyInput       textinput.Model

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	valueInput := textinput.New()
	valueInput.CharLimit = 512

	return &View{
		styles:               s,
		settingsService:      settingsService,
		section:              SectionOverview,
		valueInput:           valueInput,
		embeddingAPIKeyInput: newAPIKeyInput(),
		llmAPIKeyInput:       newAPIKeyInput(),
	}
}

func newAPIKeyInput() textinput.Model {
	in := textinput.New()
	in.Placeholder = "Enter API key (blank keeps the current or environment key)"
	in.EchoMode = textinput.EchoPassword
	in.CharLimit = 256
	return in
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

// loadSettings returns a command that loads current settings.
func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		if err != nil {
			return messages.SettingsLoaded{Err: err}
		}
		entries, err := v.settingsService.Entries()
		return messages.SettingsLoaded{Settings: settings, Entries: entries, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.settings = msg.Settings
			v.entries = msg.Entries
			v.err = nil
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = "Saved. Restart to apply oracle changes."
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses based on current section.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionEdit:
		return v.handleEditKeys(msg)
	case SectionEmbedding:
		return v.handleProviderKeys(msg, domain.AllEmbeddingProviders(), &v.embeddingAPIKeyInput, v.setEmbeddingProvider)
	case SectionLLM:
		return v.handleProviderKeys(msg, domain.AllLLMProviders(), &v.llmAPIKeyInput, v.setLLMProvider)
	}

	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(v.entries)-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < len(v.entries) {
			return v, v.startEdit(v.selected)
		}
	case "e":
		v.notice = ""
		v.section = SectionEmbedding
		v.selected = v.getEmbeddingProviderIndex()
	case "l":
		v.notice = ""
		v.section = SectionLLM
		v.selected = v.getLLMProviderIndex()
	}
	return v, nil
}

// startEdit opens the value editor for entry i.
func (v *View) startEdit(i int) tea.Cmd {
	entry := v.entries[i]
	v.notice = ""
	v.section = SectionEdit
	v.entryIndex = i
	v.valueInput.EchoMode = textinput.EchoNormal
	v.valueInput.SetValue(entry.Value)
	if strings.HasSuffix(entry.Key, secretSuffix) {
		v.valueInput.EchoMode = textinput.EchoPassword
		v.valueInput.SetValue("")
	}
	v.valueInput.CursorEnd()
	return v.valueInput.Focus()
}

func (v *View) handleEditKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == keyEnter {
		return v, v.setValue(v.entries[v.entryIndex].Key, strings.TrimSpace(v.valueInput.Value()))
	}
	var cmd tea.Cmd
	v.valueInput, cmd = v.valueInput.Update(msg)
	return v, cmd
}

// handleProviderKeys drives the provider pickers. The API key input is
// focused with tab, or automatically when the chosen provider needs one.
func (v *View) handleProviderKeys(
	msg tea.KeyMsg,
	providers []domain.AIProvider,
	apiKeyInput *textinput.Model,
	save func(domain.AIProvider, string) tea.Cmd,
) (*View, tea.Cmd) {
	if v.focusedField == 1 {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.focusedField = 0
			apiKeyInput.Blur()
			return v, nil
		case keyEnter:
			if v.selected >= 0 && v.selected < len(providers) {
				return v, save(providers[v.selected], apiKeyInput.Value())
			}
			return v, nil
		default:
			var cmd tea.Cmd
			*apiKeyInput, cmd = apiKeyInput.Update(msg)
			return v, cmd
		}
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(providers)-1 {
			v.selected++
		}
	case keyTab:
		if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v, apiKeyInput.Focus()
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < len(providers) {
			provider := providers[v.selected]
			if provider.RequiresAPIKey() {
				v.focusedField = 1
				return v, apiKeyInput.Focus()
			}
			return v, save(provider, "")
		}
	}
	return v, nil
}

// Commands to update settings.

func (v *View) setValue(key, value string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: v.settingsService.Set(key, value)}
	}
}

func (v *View) setEmbeddingProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		model := domain.DefaultEmbeddingModels()[provider]
		return messages.SettingsSaved{Err: v.settingsService.SetEmbeddingProvider(provider, model, apiKey)}
	}
}

func (v *View) setLLMProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		model := domain.DefaultLLMModels()[provider]
		return messages.SettingsSaved{Err: v.settingsService.SetLLMProvider(provider, model, apiKey)}
	}
}

// backToOverview closes any editor and clears its inputs.
func (v *View) backToOverview() {
	if v.section == SectionEdit {
		v.selected = v.entryIndex
	} else {
		v.selected = 0
	}
	v.section = SectionOverview
	v.focusedField = 0
	v.valueInput.Blur()
	v.valueInput.SetValue("")
	v.embeddingAPIKeyInput.SetValue("")
	v.embeddingAPIKeyInput.Blur()
	v.llmAPIKeyInput.SetValue("")
	v.llmAPIKeyInput.Blur()
}

// Helper methods to get current selection indices.

func (v *View) getEmbeddingProviderIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, p := range domain.AllEmbeddingProviders() {
		if p == v.settings.Embedding.Provider {
			return i
		}
	}
	return 0
}

func (v *View) getLLMProviderIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, p := range domain.AllLLMProviders() {
		if p == v.settings.LLM.Provider {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionEdit:
		b.WriteString(v.renderEdit())
	case SectionEmbedding:
		b.WriteString(v.renderProviderSelect("Select Embedding Provider", domain.AllEmbeddingProviders(),
			v.settings.Embedding.Provider, domain.DefaultEmbeddingModels(), v.embeddingAPIKeyInput))
	case SectionLLM:
		b.WriteString(v.renderProviderSelect("Select LLM Provider", domain.AllLLMProviders(),
			v.settings.LLM.Provider, domain.DefaultLLMModels(), v.llmAPIKeyInput))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// visibleEntries returns the window of entries that fits the view height.
func (v *View) visibleEntries() (start, end int) {
	rows := v.height - 10
	if rows < 5 {
		rows = 5
	}
	if v.selected >= rows {
		start = v.selected - rows + 1
	}
	end = start + rows
	if end > len(v.entries) {
		end = len(v.entries)
	}
	return start, end
}

func (v *View) renderOverview() string {
	var b strings.Builder

	b.WriteString(v.renderStatus())
	b.WriteString("\n\n")

	start, end := v.visibleEntries()
	for i := start; i < end; i++ {
		entry := v.entries[i]
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}

		value := entry.Value
		if value == "" {
			value = "(unset)"
		}
		line := fmt.Sprintf("%s%-36s %s", indicator, entry.Key, value)

		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		if entry.Default {
			b.WriteString(v.styles.Muted.Render("  default"))
		}
		b.WriteString("\n")
	}

	if len(v.entries) > end-start {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(v.entries))))
		b.WriteString("\n")
	}

	return b.String()
}

// renderStatus summarises the oracle configuration and validity.
func (v *View) renderStatus() string {
	embedding := fmt.Sprintf("Embedding: %s (%s) %s", v.settings.Embedding.Provider.Description(),
		v.settings.Embedding.Model, v.configuredBadge(v.settings.Embedding.IsConfigured()))

	llm := "LLM: " + v.styles.Muted.Render("disabled")
	if v.settings.LLM.Provider != "" {
		llm = fmt.Sprintf("LLM: %s (%s) %s", v.settings.LLM.Provider.Description(),
			v.settings.LLM.Model, v.configuredBadge(v.settings.LLM.IsConfigured()))
	}

	validity := v.styles.Success.Render("Configuration is valid")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			validity = v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error()))
		}
	}

	return strings.Join([]string{v.styles.Normal.Render(embedding), v.styles.Normal.Render(llm), validity}, "\n")
}

func (v *View) configuredBadge(ok bool) string {
	if ok {
		return v.styles.Success.Render("[configured]")
	}
	return v.styles.Warning.Render("[needs API key]")
}

func (v *View) renderEdit() string {
	var b strings.Builder
	entry := v.entries[v.entryIndex]

	b.WriteString(v.styles.Subtitle.Render("Edit " + entry.Key))
	b.WriteString("\n\n")
	b.WriteString(v.valueInput.View())
	b.WriteString("\n")
	if strings.HasSuffix(entry.Key, secretSuffix) {
		b.WriteString(v.styles.Muted.Render("API keys are read from the environment when left blank."))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderProviderSelect(
	title string,
	providers []domain.AIProvider,
	current domain.AIProvider,
	defaults map[domain.AIProvider]string,
	apiKeyInput textinput.Model,
) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n\n")

	for i, provider := range providers {
		indicator := "  "
		if i == v.selected && v.focusedField == 0 {
			indicator = "> "
		}

		marker := ""
		if provider == current {
			marker = v.styles.Success.Render(" (current)")
		}

		line := fmt.Sprintf("%s%s%s", indicator, provider.Description(), marker)
		if i == v.selected && v.focusedField == 0 {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")

		if model, ok := defaults[provider]; ok {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Model: %s", model)))
			b.WriteString("\n")
		}
	}

	if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(apiKeyInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [e] embedding  [l] LLM  [esc] back")
	case SectionEdit:
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	case SectionEmbedding, SectionLLM:
		if v.focusedField == 1 {
			return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	default:
		return ""
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the selection within the active section.
func (v *View) Selected() int {
	return v.selected
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.backToOverview()
	v.selected = 0
	v.err = nil
	v.notice = ""
}
