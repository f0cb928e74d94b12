package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/krui/internal/console"
	"github.com/five82/krui/internal/state"
)

// contentHeight is the space left below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// renderOverview renders the heater and history lists side by side, with
// the running print below them.
func (m Model) renderOverview() string {
	height := m.contentHeight()
	printH := 0
	if m.printer.CurrentPrint != nil {
		printH = 7
	}
	listH := max(height-printH, 3)

	leftW := m.width * 2 / 5
	rightW := m.width - leftW

	heaters := m.panel("Temperatures", m.heaterLines(listH-3), leftW, listH, m.focus == paneHeaters)
	history := m.panel("History", m.historyLines(rightW-4, listH-3), rightW, listH, m.focus == paneHistory)
	out := lipgloss.JoinHorizontal(lipgloss.Top, heaters, history)

	if printH > 0 {
		out = lipgloss.JoinVertical(lipgloss.Left, out,
			m.panel("Printing", m.printLines(), m.width, printH, false))
	}
	return out
}

func (m Model) heaterLines(rows int) string {
	styles := m.theme.Styles()
	if len(m.printer.Heaters) == 0 {
		return styles.MutedText.Render("no heaters reported")
	}
	var b strings.Builder
	start := scrollStart(m.heaterRow, len(m.printer.Heaters), rows)
	for i := start; i < len(m.printer.Heaters) && i < start+rows; i++ {
		h := m.printer.Heaters[i]
		power := "pwr " + formatPercent(h.Power)
		if h.Kind == state.KindTemperatureFan {
			power = "fan " + formatPercent(h.Power)
		}
		line := fmt.Sprintf("%-14s %-16s %s", truncate(heaterLabel(h.Name), 14), formatTemp(h.Temperature, h.Target), power)
		if m.focus == paneHeaters && i == m.heaterRow {
			line = styles.Selected.Render(line)
		} else {
			line = m.heaterStyle(h).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// heaterStyle colors a heater by how far it is from its target.
func (m Model) heaterStyle(h state.Heater) lipgloss.Style {
	styles := m.theme.Styles()
	switch {
	case h.Target <= 0:
		return styles.Text
	case h.Temperature < h.Target-2:
		return styles.WarningText
	default:
		return styles.SuccessText
	}
}

func (m Model) historyLines(width, rows int) string {
	styles := m.theme.Styles()
	if len(m.jobs) == 0 {
		return styles.MutedText.Render("no jobs")
	}
	nameW := max(width-38, 10)
	var b strings.Builder
	start := scrollStart(m.historyRow, len(m.jobs), rows)
	for i := start; i < len(m.jobs) && i < start+rows; i++ {
		j := m.jobs[i]
		line := fmt.Sprintf("%s %-*s %-10s %s",
			jobMark(j.Status),
			nameW, truncate(j.Filename, nameW),
			truncate(j.Status, 10),
			formatEndTime(j.EndTime))
		if m.focus == paneHistory && i == m.historyRow {
			line = styles.Selected.Render(line)
		} else {
			line = m.jobStyle(j.Status).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func jobMark(status string) string {
	switch status {
	case "completed":
		return "✔"
	case "cancelled", "klippy_shutdown", "klippy_disconnect", "error", "server_exit":
		return "✕"
	case "in_progress":
		return "…"
	default:
		return " "
	}
}

func (m Model) jobStyle(status string) lipgloss.Style {
	styles := m.theme.Styles()
	switch jobMark(status) {
	case "✔":
		return styles.Text
	case "✕":
		return styles.DangerText.Bold(false)
	default:
		return styles.MutedText
	}
}

func (m Model) printLines() string {
	styles := m.theme.Styles()
	cp := m.printer.CurrentPrint
	if cp == nil {
		return ""
	}
	barW := max(m.width-20, 10)
	filled := int(cp.Progress * float64(barW))
	filled = min(max(filled, 0), barW)
	bar := styles.AccentText.Render(strings.Repeat("█", filled)) +
		styles.FaintText.Render(strings.Repeat("░", barW-filled))

	lines := []string{
		styles.Text.Render(cp.Filename),
		bar + " " + styles.AccentText.Render(formatPercent(cp.Progress)),
		fmt.Sprintf("elapsed %s  printing %s  filament %s",
			formatSeconds(cp.TotalDuration), formatSeconds(cp.PrintDuration), formatFilament(cp.FilamentUsed)),
	}
	layer := ""
	if cp.TotalLayers > 0 {
		layer = fmt.Sprintf("layer %.0f/%.0f  ", cp.CurrentLayer, cp.TotalLayers)
	}
	if meta := cp.Metadata; meta != nil {
		lines = append(lines, styles.MutedText.Render(fmt.Sprintf("%sestimate %s  slicer %s  layer height %.2fmm",
			layer, formatSeconds(meta.EstimatedTime), meta.Slicer, meta.LayerHeight)))
	} else if layer != "" {
		lines = append(lines, styles.MutedText.Render(strings.TrimSpace(layer)))
	}
	return strings.Join(lines, "\n")
}

// renderToolhead renders position, homing and motion readings.
func (m Model) renderToolhead() string {
	styles := m.theme.Styles()
	th := m.printer.Toolhead
	axis := func(name string, pos float64, homed bool) string {
		mark := styles.DangerText.Render("✕")
		if homed {
			mark = styles.SuccessText.Render("✔")
		}
		return fmt.Sprintf("%s %s %8.2f", mark, styles.AccentText.Render(name), pos)
	}
	qgl := styles.DangerText.Render("not leveled")
	if th.Homed.QGL {
		qgl = styles.SuccessText.Render("leveled")
	}

	lines := []string{
		axis("X", th.Position.X, th.Homed.X),
		axis("Y", th.Position.Y, th.Homed.Y),
		axis("Z", th.Position.Z, th.Homed.Z),
		"",
		styles.MutedText.Render("QGL      ") + qgl,
		styles.MutedText.Render("speed    ") + fmt.Sprintf("%.1f mm/s", th.Speed),
		styles.MutedText.Render("extruder ") + fmt.Sprintf("%.2f mm/s", th.ExtruderVelocity),
		styles.MutedText.Render("part fan ") + formatPercent(th.FanSpeed),
	}
	if m.server.MoonrakerVersion != "" {
		lines = append(lines, "", styles.FaintText.Render("moonraker "+m.server.MoonrakerVersion))
	}
	return m.panel("Toolhead", strings.Join(lines, "\n"), m.width, m.contentHeight(), true)
}

// renderConsole renders the console viewport and the gcode input.
func (m Model) renderConsole() string {
	input := m.input.View()
	if !m.inputActive {
		input = m.theme.Styles().FaintText.Render("press : to send gcode")
	}
	body := lipgloss.JoinVertical(lipgloss.Left, m.console.View(), input)
	return m.panel("Console", body, m.width, m.contentHeight(), m.inputActive)
}

// consoleSize is the viewport size inside the console panel.
func (m Model) consoleSize() (int, int) {
	// Border, padding, title and the input line.
	return max(m.width-4, 10), max(m.contentHeight()-4, 1)
}

// updateConsole refreshes the viewport content from the copied lines.
func (m *Model) updateConsole() {
	if !m.ready {
		return
	}
	m.console.SetContent(m.consoleContent())
	if m.follow {
		m.console.GotoBottom()
	}
}

func (m Model) consoleContent() string {
	styles := m.theme.Styles()
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(styles.FaintText.Render(line.Time.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(m.lineStyle(line.Kind).Render(line.Text))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) lineStyle(k console.Kind) lipgloss.Style {
	styles := m.theme.Styles()
	switch k {
	case console.KindCommand:
		return styles.AccentText
	case console.KindError:
		return styles.DangerText
	case console.KindInfo:
		return styles.MutedText
	default:
		return styles.Text
	}
}

// scrollStart returns the first visible row of a list so the cursor stays
// on screen.
func scrollStart(cursor, n, rows int) int {
	if rows <= 0 || n <= rows {
		return 0
	}
	start := cursor - rows + 1
	if start < 0 {
		start = 0
	}
	if start > n-rows {
		start = n - rows
	}
	return start
}
