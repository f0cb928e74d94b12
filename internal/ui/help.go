package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	rows := m.keys.FullHelp()
	sections := []helpSection{
		{title: "Navigation", items: helpItems(rows[0], rows[1])},
		{title: "Printer", items: helpItems(rows[2], rows[3])},
		{title: "Console", items: helpItems(rows[4])},
		{title: "General", items: helpItems(rows[5])},
	}

	// Build help content
	var b strings.Builder

	// Title
	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")

	for i, section := range sections {
		// Section title
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			// Key
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(14)
			b.WriteString(keyStyle.Render(item.key))
			// Description
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	// Build the modal
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(58)

	return placeOverlay(m.theme, m.width, m.height, modal.Render(b.String()))
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// helpItems flattens key binding rows into help lines.
func helpItems(rows ...[]key.Binding) []helpItem {
	var items []helpItem
	for _, row := range rows {
		for _, b := range row {
			h := b.Help()
			items = append(items, helpItem{key: h.Key, desc: h.Desc})
		}
	}
	return items
}
