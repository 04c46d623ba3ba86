// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SourceList displays the chunks an answer was drawn from in a navigable list.
type SourceList struct {
	sources  []domain.Source
	passages []string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		selected: 0,
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the source list.
func (r *SourceList) View() string {
	if len(r.sources) == 0 {
		return r.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(r.sources)*2+2)

	header := r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.sources)))
	lines = append(lines, header, "")

	// Each source takes 1-2 lines, so divide by 2 for safety
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.sources) {
		end = len(r.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderSource(i))
	}

	return strings.Join(lines, "\n")
}

// renderSource formats a single source with an optional passage preview.
func (r *SourceList) renderSource(index int) string {
	src := r.sources[index]

	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("%s#%d  chunk %d", indicator, index+1, src.Position)
	distance := fmt.Sprintf("distance %.3f", src.Distance)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(label + "  " + distance)
	} else {
		titleLine = r.styles.Normal.Render(label+"  ") + r.styles.Muted.Render(distance)
	}

	if index >= len(r.passages) || r.passages[index] == "" {
		return titleLine
	}

	maxPreviewLen := r.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := truncate(r.passages[index], maxPreviewLen)

	return titleLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// truncate shortens s to max runes, ending with an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// SetSources updates the list. Passages are previews aligned with sources
// by index; pass nil when they are unknown.
func (r *SourceList) SetSources(sources []domain.Source, passages []string) {
	r.sources = sources
	r.passages = passages
	r.selected = 0
}

// Sources returns the current sources.
func (r *SourceList) Sources() []domain.Source {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *SourceList) SetSelected(index int) {
	if index >= 0 && index < len(r.sources) {
		r.selected = index
	}
}

// SelectedSource returns the currently selected source, or nil if none.
func (r *SourceList) SelectedSource() *domain.Source {
	if len(r.sources) == 0 || r.selected < 0 || r.selected >= len(r.sources) {
		return nil
	}
	return &r.sources[r.selected]
}

// SelectedPassage returns the preview for the selected source, if any.
func (r *SourceList) SelectedPassage() string {
	if r.selected < 0 || r.selected >= len(r.passages) {
		return ""
	}
	return r.passages[r.selected]
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}

// IsEmpty returns whether the list is empty.
func (r *SourceList) IsEmpty() bool {
	return len(r.sources) == 0
}
