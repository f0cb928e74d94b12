package ui

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/krui/internal/link"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// actionMsg asks the model to run a command against the link. Link calls
// must happen on the Update goroutine, so modals hand them back as
// messages instead of running them from a tea.Cmd.
type actionMsg struct {
	label string
	run   func(*link.Link) error
}

func actionCmd(a actionMsg) tea.Cmd {
	return func() tea.Msg { return a }
}

// confirmModal asks a yes/no question before running an action.
type confirmModal struct {
	title  string
	body   string
	action actionMsg
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Confirm), km.String() == "y":
		return c, actionCmd(c.action), true
	case key.Matches(km, keys.Deny):
		return c, nil, true
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(c.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(c.body))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("enter/y"))
	b.WriteString(styles.MutedText.Render(" confirm  "))
	b.WriteString(styles.AccentText.Render("esc/n"))
	b.WriteString(styles.MutedText.Render(" cancel"))
	return placeOverlay(theme, width, height, modalBox(theme, theme.Accent, 50).Render(b.String()))
}

// targetModal edits the target temperature of one heater.
type targetModal struct {
	heater string
	input  textinput.Model
	err    string
}

func newTargetModal(heater string, current float64) targetModal {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "target °C"
	in.CharLimit = 6
	in.Width = 10
	if current > 0 {
		in.SetValue(strconv.FormatFloat(current, 'f', -1, 64))
	}
	in.Focus()
	return targetModal{heater: heater, input: in}
}

func (t targetModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Confirm):
			target, err := parseTarget(t.input.Value())
			if err != nil {
				t.err = err.Error()
				return t, nil, false
			}
			name := t.heater
			return t, actionCmd(actionMsg{
				label: "set " + heaterLabel(name),
				run:   func(l *link.Link) error { return l.SetTarget(name, target) },
			}), true
		case km.String() == "esc":
			return t, nil, true
		}
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd, false
}

func (t targetModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Target for " + heaterLabel(t.heater)))
	b.WriteString("\n\n")
	b.WriteString(t.input.View())
	b.WriteString("\n")
	if t.err != "" {
		b.WriteString(styles.DangerText.Render(t.err))
	}
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render("enter"))
	b.WriteString(styles.MutedText.Render(" apply  "))
	b.WriteString(styles.AccentText.Render("esc"))
	b.WriteString(styles.MutedText.Render(" cancel"))
	return placeOverlay(theme, width, height, modalBox(theme, theme.Accent, 40).Render(b.String()))
}

var errBadTarget = errors.New("target must be a number from 0 to 500")

// parseTarget reads a target temperature typed by the user.
func parseTarget(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 500 {
		return 0, errBadTarget
	}
	return v, nil
}

// shutdownView is shown while Klipper reports shutdown. It is not a Modal:
// it has no keys of its own and goes away when the printer recovers.
func (m Model) shutdownView() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Klipper shutdown"))
	b.WriteString("\n\n")
	msg := strings.TrimSpace(m.printer.StateMessage)
	if msg == "" {
		msg = "No message from Klipper."
	}
	b.WriteString(styles.Text.Render(msg))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("F10"))
	b.WriteString(styles.MutedText.Render(" firmware restart  "))
	b.WriteString(styles.AccentText.Render("F2"))
	b.WriteString(styles.MutedText.Render(" quit"))
	width := 60
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	return placeOverlay(m.theme, m.width, m.height, modalBox(m.theme, m.theme.Danger, width).Render(b.String()))
}

func modalBox(theme Theme, border string, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(1, 2).
		Width(width)
}

// placeOverlay centers box on an empty screen.
func placeOverlay(theme Theme, width, height int, box string) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func printConfirm(filename string) confirmModal {
	return confirmModal{
		title: "Start print",
		body:  fmt.Sprintf("Print %s?", filename),
		action: actionMsg{
			label: "start print",
			run:   func(l *link.Link) error { return l.StartPrint(filename) },
		},
	}
}

func cancelConfirm(filename string) confirmModal {
	body := "Cancel the current print?"
	if filename != "" {
		body = fmt.Sprintf("Cancel printing %s?", filename)
	}
	return confirmModal{
		title: "Cancel print",
		body:  body,
		action: actionMsg{
			label: "cancel print",
			run:   func(l *link.Link) error { return l.CancelPrint() },
		},
	}
}
