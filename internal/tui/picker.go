package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codelane/codelane/internal/session"
)

// pickerModel is the bubbletea model for the session picker: a filterable
// list of recorded sessions, newest first.
type pickerModel struct {
	entries  []session.Entry
	filtered []session.Entry

	filter textinput.Model
	cursor int
	status string

	selected string
	quitting bool

	width  int
	height int
}

func newPickerModel(entries []session.Entry) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.CharLimit = 128
	ti.Focus()

	return pickerModel{
		entries:  entries,
		filtered: entries,
		filter:   ti,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if len(m.filtered) > 0 {
				m.selected = m.filtered[m.cursor].Path
			}
			m.quitting = true
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		case "ctrl+y":
			if len(m.filtered) > 0 {
				if err := clipboard.WriteAll(m.filtered[m.cursor].Path); err != nil {
					m.status = "clipboard unavailable"
				} else {
					m.status = "✓ path copied to clipboard"
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *pickerModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if query == "" {
		m.filtered = m.entries
	} else {
		filtered := make([]session.Entry, 0, len(m.entries))
		for _, e := range m.entries {
			haystack := strings.ToLower(e.Title() + " " + e.ID + " " + e.Cwd)
			if strings.Contains(haystack, query) {
				filtered = append(filtered, e)
			}
		}
		m.filtered = filtered
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Resume a session"))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(metaStyle.Render("  no sessions match"))
		b.WriteString("\n")
	}

	visible := m.filtered
	const maxRows = 15
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	if start+maxRows < len(visible) {
		visible = visible[start : start+maxRows]
	} else {
		visible = visible[start:]
	}

	for i, e := range visible {
		idx := start + i
		id8 := e.ID
		if len(id8) > 8 {
			id8 = id8[:8]
		}
		line := fmt.Sprintf("%s  %s  %s", session.CompactTime(e.Timestamp), id8, e.Title())
		if idx == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render("  " + line))
		}
		b.WriteString("\n")

		if idx == m.cursor {
			var meta []string
			if e.Cwd != "" {
				meta = append(meta, "cwd: "+session.ShortenPath(e.Cwd))
			}
			if !e.LastModified.IsZero() {
				meta = append(meta, "last: "+session.HumanDuration(time.Since(e.LastModified))+" ago")
			}
			meta = append(meta, session.ShortenPath(e.Path))
			b.WriteString(metaStyle.Render("    " + strings.Join(meta, "  ")))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move · enter select · ctrl+y copy path · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

// RunSessionPicker shows the picker over the given entries and returns the
// selected rollout path, or "" when the user cancels.
func RunSessionPicker(entries []session.Entry) (string, error) {
	model := newPickerModel(entries)
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("tui: picker failed: %w", err)
	}
	if picked, ok := final.(pickerModel); ok {
		return picked.selected, nil
	}
	return "", nil
}
