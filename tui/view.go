package tui

import (
	"fmt"
	"strings"
	"time"

	"notepin/notepin/models"
	"notepin/notepin/viewstate"

	"github.com/charmbracelet/lipgloss"
)

var (
	noteColors = map[string]lipgloss.Color{
		"yellow": lipgloss.Color("#F6C343"),
		"blue":   lipgloss.Color("#5DADE2"),
		"green":  lipgloss.Color("#58D68D"),
		"purple": lipgloss.Color("#AF7AC5"),
		"gray":   lipgloss.Color("#AAB7B8"),
	}

	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	activeTab     = lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1)
	inactiveTab   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	focusedPane   = paneStyle.BorderForeground(lipgloss.Color("63"))
)

const timeLayout = "2006-01-02 15:04"

func colorDot(color string) string {
	c, ok := noteColors[color]
	if !ok {
		c = noteColors[models.DefaultColor]
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m *Model) paneWidths() (list, editor, inspector int) {
	usable := m.width - 6*2
	if usable < 30 {
		usable = 30
	}
	list = usable * 35 / 100
	inspector = usable * 20 / 100
	editor = usable - list - inspector
	return list, editor, inspector
}

func (m *Model) paneHeight() int {
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) resize() {
	_, editor, _ := m.paneWidths()
	m.search.Width = m.width / 3
	m.title.Width = editor
	m.body.SetWidth(editor)
	m.body.SetHeight(m.paneHeight() - 3)
}

func (m *Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTabs(), "  ", m.renderSearch())

	listW, editorW, inspectorW := m.paneWidths()
	h := m.paneHeight()

	listStyle := paneStyle
	editorStyle := paneStyle
	if m.state.IsEditing() {
		editorStyle = focusedPane
	} else {
		listStyle = focusedPane
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		listStyle.Width(listW).Height(h).Render(m.renderList(listW)),
		editorStyle.Width(editorW).Height(h).Render(m.renderEditor()),
		paneStyle.Width(inspectorW).Height(h).Render(m.renderInspector()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, panes, m.renderFooter())
}

func (m *Model) renderTabs() string {
	tabs := []struct {
		tab   viewstate.Tab
		label string
	}{
		{viewstate.TabAll, "1 All"},
		{viewstate.TabPinned, "2 Pinned"},
		{viewstate.TabTrash, "3 Trash"},
	}

	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.tab == m.state.Tab() {
			parts = append(parts, activeTab.Render(t.label))
		} else {
			parts = append(parts, inactiveTab.Render(t.label))
		}
	}
	return strings.Join(parts, "")
}

func (m *Model) renderSearch() string {
	if m.state.InTrash() {
		return mutedStyle.Render("search is off in trash")
	}
	return m.search.View()
}

func (m *Model) renderList(width int) string {
	var b strings.Builder

	if len(m.state.Notes()) == 0 {
		switch {
		case m.state.InTrash():
			b.WriteString(mutedStyle.Render("Trash is empty"))
		case m.state.Search() != "":
			b.WriteString(mutedStyle.Render("No matching notes"))
		default:
			b.WriteString(mutedStyle.Render("No notes yet. Press n to create one."))
		}
		return b.String()
	}

	if m.state.Tab() == viewstate.TabAll {
		pinned, others := m.state.Pinned(), m.state.Others()
		if len(pinned) > 0 {
			b.WriteString(headingStyle.Render("Pinned") + "\n")
			m.writeNotes(&b, pinned, width)
			if len(others) > 0 {
				b.WriteString("\n" + headingStyle.Render("Others") + "\n")
			}
		}
		m.writeNotes(&b, others, width)
		return b.String()
	}

	m.writeNotes(&b, m.state.Ordered(), width)
	return b.String()
}

func (m *Model) writeNotes(b *strings.Builder, notes []models.Note, width int) {
	for _, note := range notes {
		line := colorDot(note.Color) + " " + truncate(note.Title, width-4)
		if note.ID.String() == m.state.SelectedID() {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
		if summary := viewstate.Summary(note); summary != "" {
			b.WriteString("  " + mutedStyle.Render(truncate(summary, width-4)) + "\n")
		}
	}
}

func (m *Model) renderEditor() string {
	if m.state.IsEditing() {
		return headingStyle.Render("Title") + "\n" + m.title.View() + "\n\n" + m.body.View()
	}

	note, ok := m.state.Selected()
	if !ok {
		return mutedStyle.Render("Select a note")
	}
	body := viewstate.PlainText(note.Body)
	if body == "" {
		body = mutedStyle.Render("Empty note")
	}
	return headingStyle.Render(note.Title) + "\n\n" + body
}

func (m *Model) renderInspector() string {
	note, ok := m.state.Selected()
	if !ok {
		return mutedStyle.Render("No selection")
	}

	pinned := "no"
	if note.Pinned {
		pinned = "yes"
	}
	lines := []string{
		headingStyle.Render("Color"),
		colorDot(note.Color) + " " + note.Color,
		"",
		headingStyle.Render("Pinned"),
		pinned,
		"",
		headingStyle.Render("Created"),
		time.UnixMilli(note.CreatedAt).Format(timeLayout),
		"",
		headingStyle.Render("Updated"),
		time.UnixMilli(note.UpdatedAt).Format(timeLayout),
	}
	if note.Trashed {
		lines = append(lines, "", mutedStyle.Render("In trash"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	switch m.state.Pending() {
	case viewstate.ConfirmTrash:
		return confirmStyle.Render("Move this note to the trash? (y/n)")
	case viewstate.ConfirmDeleteForever:
		return confirmStyle.Render("Delete this note forever? (y/n)")
	case viewstate.ConfirmEmptyTrash:
		return confirmStyle.Render(fmt.Sprintf("Delete all %d notes in the trash forever? (y/n)", len(m.state.Notes())))
	}

	var help string
	switch {
	case m.searching:
		help = "enter/esc done"
	case m.state.IsEditing():
		help = "ctrl+s save • esc cancel • tab title/body"
	case m.state.InTrash():
		help = "j/k move • u restore • d delete forever • X empty trash • 1/2 tabs • q quit"
	default:
		help = "j/k move • n new • e edit • r rename • p pin • c color • d trash • / search • 1/2/3 tabs • q quit"
	}

	if m.status != "" {
		return m.status + "  " + mutedStyle.Render(help)
	}
	return mutedStyle.Render(help)
}

func truncate(s string, width int) string {
	if width <= 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
