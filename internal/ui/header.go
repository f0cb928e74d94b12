package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/krui/internal/state"
	"github.com/five82/krui/internal/transport"
)

// renderHeader renders the status bar: link, Klipper state and the
// printer indicators.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.conn != transport.StateLive {
		return m.renderConnectingHeader(styles, bg)
	}

	fg := m.theme.Background
	onOff := func(label string, on bool) string {
		color := m.theme.Danger
		if on {
			color = m.theme.Success
		}
		return bg.Badge(label, fg, color)
	}

	var parts []string
	parts = append(parts, bg.Render("krui", styles.Logo))

	if m.printer.Connected {
		parts = append(parts, bg.Badge("✔", fg, m.theme.Success))
	} else {
		parts = append(parts, bg.Badge("✕", fg, m.theme.Danger))
	}

	status := m.printer.State
	if m.printer.Printing() {
		status = m.printer.PrintState
	}
	parts = append(parts, styles.StatusStyle(status).Render(status))

	parts = append(parts,
		onOff("Home", m.printer.Toolhead.Homed.All()),
		onOff("QGL", m.printer.Toolhead.Homed.QGL),
		onOff("Step", m.printer.StepperEnabled),
		onOff("Fil", m.printer.FilamentOK),
		bg.Badge("Fan "+formatPercent(m.printer.Toolhead.FanSpeed), fg, m.levelColor(m.printer.Toolhead.FanSpeed)),
	)

	if cp := m.printer.CurrentPrint; cp != nil {
		name := truncate(cp.Filename, 24)
		if m.width < 100 {
			name = truncate(cp.Filename, 12)
		}
		parts = append(parts,
			bg.Render(name, styles.Text)+bg.Space()+
				bg.Render(formatPercent(cp.Progress), styles.AccentText))
	}

	parts = append(parts,
		bg.Render("load", styles.MutedText)+bg.Space()+
			bg.Badge(fmt.Sprintf("%.2f", m.printer.SystemLoad), fg, m.levelColor(m.printer.SystemLoad)))

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderConnectingHeader shows the link state while no session is live.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)
	label := "Connecting to Moonraker..."
	style := styles.WarningText.Bold(true)
	switch m.conn {
	case transport.StateHandshaking:
		label = "Identifying with Moonraker..."
	case transport.StateDisconnected:
		label = "Moonraker disconnected, retrying..."
		style = styles.DangerText.Bold(true)
	}

	parts := []string{
		bg.Render("krui", styles.Logo),
		bg.Render(label, style),
	}
	if m.endpoint != "" {
		parts = append(parts, bg.Render(truncate(m.endpoint, 50), styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) levelColor(ratio float64) string {
	switch levelOf(ratio) {
	case levelLow:
		return m.theme.Success
	case levelMid:
		return m.theme.Warning
	default:
		return m.theme.Danger
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.view {
	case ViewToolhead:
		commands = []cmd{
			{"a", "Home"},
			{"x/y/z", "Axis"},
			{"Q", "QGL"},
			{"1", "Main"},
		}
	case ViewConsole:
		followLabel := "Pause"
		if !m.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{":", "GCode"},
			{"f", followLabel},
			{"pgup/pgdn", "Scroll"},
			{"1", "Main"},
		}
	default:
		commands = []cmd{
			{"tab", "Focus"},
			{"j/k", "Navigate"},
			{"enter", "Select"},
			{"2", "Toolhead"},
			{"3", "Console"},
		}
	}
	switch m.printer.PrintState {
	case state.PrintPrinting:
		commands = append(commands, cmd{"p", "Pause"}, cmd{"C", "Cancel"})
	case state.PrintPaused:
		commands = append(commands, cmd{"p", "Resume"}, cmd{"C", "Cancel"})
	}
	commands = append(commands, cmd{"F10", "E-stop"}, cmd{"?", "More"})

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	if m.flash != "" {
		segments = append(segments,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.flash, 60), styles.WarningText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// panel wraps body in a bordered, titled box of the given outer size.
func (m Model) panel(title, body string, width, height int, focused bool) string {
	styles := m.theme.Styles()
	box := styles.Panel
	if focused {
		box = styles.FocusedPanel
	}
	// Border takes two columns and two rows.
	inner := max(width-2, 0)
	innerH := max(height-2, 1)
	head := styles.AccentText.Bold(true).Render(title)
	content := lipgloss.JoinVertical(lipgloss.Left, head, body)
	return box.Width(inner).Height(innerH).MaxHeight(height).Render(content)
}
