package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/krui/internal/console"
	"github.com/five82/krui/internal/link"
	"github.com/five82/krui/internal/moonraker"
	"github.com/five82/krui/internal/prefs"
	"github.com/five82/krui/internal/state"
	"github.com/five82/krui/internal/transport"
)

// View represents the current active view.
type View int

const (
	ViewMain View = iota
	ViewToolhead
	ViewConsole
)

// pane is the focused list on the main view.
type pane int

const (
	paneHeaters pane = iota
	paneHistory
)

const (
	defaultTick  = 100 * time.Millisecond
	consoleLines = 1000
	flashTTL     = 5 * time.Second
)

// Options configures the UI.
type Options struct {
	// Context ends the program when cancelled.
	Context   context.Context
	Link      *link.Link
	Tick      time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Endpoint  string
	Logger    zerolog.Logger
}

// Model is the root application state for Bubble Tea. The link is only
// touched from Update, which Bubble Tea runs on a single goroutine.
type Model struct {
	// Configuration
	link      *link.Link
	logger    zerolog.Logger
	keys      keyMap
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration
	endpoint  string

	// UI state
	theme  Theme
	view   View
	focus  pane
	width  int
	height int
	ready  bool

	// Data copied from the link on every tick
	conn    transport.State
	server  moonraker.ServerInfo
	printer state.Printer
	jobs    []state.Job
	lines   []console.Line

	// Selection
	heaterRow  int
	historyRow int

	// Console
	console     viewport.Model
	follow      bool
	input       textinput.Model
	inputActive bool

	// Overlays
	modal    Modal
	showHelp bool

	// flash is the result of the last failed user action.
	flash   string
	flashAt time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	in := textinput.New()
	in.Prompt = "gcode> "
	in.Placeholder = "G28, M104 S200, ..."
	in.CharLimit = 256

	m := Model{
		link:      opts.Link,
		logger:    opts.Logger.With().Str("component", "ui").Logger(),
		keys:      DefaultKeyMap(),
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		tick:      tick,
		endpoint:  opts.Endpoint,
		theme:     GetTheme(opts.Prefs.Theme),
		view:      ViewMain,
		printer:   state.NewPrinter(),
		follow:    opts.Prefs.Follow(),
		input:     in,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd(m.tick))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.console = viewport.New(m.consoleSize())
		}
		m.ready = true
		m.console.Width, m.console.Height = m.consoleSize()
		m.input.Width = max(m.width-12, 10)
		m.updateConsole()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case actionMsg:
		m.runAction(msg)
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.inputActive {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.shutdown() {
		return m.shutdownView()
	}
	return m.renderMain()
}

// shutdown reports whether Klipper is in the shutdown state.
func (m Model) shutdown() bool {
	return !m.printer.Connected && m.printer.State == "shutdown"
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Emergency stop works from every screen.
	if key.Matches(msg, m.keys.EmergencyStop) {
		m.emergencyStop()
		return m, nil
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.inputActive {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.ViewMain):
		m.view = ViewMain
		return m, nil
	case key.Matches(msg, m.keys.ViewToolhead):
		m.view = toggleView(m.view, ViewToolhead)
		return m, nil
	case key.Matches(msg, m.keys.ViewConsole):
		m.view = toggleView(m.view, ViewConsole)
		m.updateConsole()
		return m, nil
	case key.Matches(msg, m.keys.PauseResume):
		m.pauseResume()
		return m, nil
	case key.Matches(msg, m.keys.CancelPrint):
		if m.printer.PrintState == state.PrintPrinting || m.printer.PrintState == state.PrintPaused {
			m.modal = cancelConfirm(m.printFilename())
		}
		return m, nil
	case key.Matches(msg, m.keys.GCode):
		m.view = ViewConsole
		m.inputActive = true
		m.updateConsole()
		return m, m.input.Focus()
	}

	switch m.view {
	case ViewMain:
		return m.handleMainKey(msg)
	case ViewToolhead:
		return m.handleToolheadKey(msg)
	case ViewConsole:
		return m.handleConsoleKey(msg)
	}
	return m, nil
}

func toggleView(current, target View) View {
	if current == target {
		return ViewMain
	}
	return target
}

// handleMainKey moves through the heater and history lists.
func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.printer.Heaters)
	row := &m.heaterRow
	if m.focus == paneHistory {
		n = len(m.jobs)
		row = &m.historyRow
	}

	switch {
	case key.Matches(msg, m.keys.Tab):
		if m.focus == paneHeaters {
			m.focus = paneHistory
		} else {
			m.focus = paneHeaters
		}
	case key.Matches(msg, m.keys.Up):
		*row = clamp(*row-1, n)
	case key.Matches(msg, m.keys.Down):
		*row = clamp(*row+1, n)
	case key.Matches(msg, m.keys.Top):
		*row = 0
	case key.Matches(msg, m.keys.Bottom):
		*row = clamp(n-1, n)
	case key.Matches(msg, m.keys.Confirm):
		m.openSelection()
	}
	return m, nil
}

// openSelection opens the modal for the selected heater or job.
func (m *Model) openSelection() {
	switch m.focus {
	case paneHeaters:
		if len(m.printer.Heaters) == 0 {
			return
		}
		h := m.printer.Heaters[clamp(m.heaterRow, len(m.printer.Heaters))]
		m.modal = newTargetModal(h.Name, h.Target)
	case paneHistory:
		if len(m.jobs) == 0 {
			return
		}
		if m.printer.Printing() {
			m.setFlash("a print is already running")
			return
		}
		m.modal = printConfirm(m.jobs[clamp(m.historyRow, len(m.jobs))].Filename)
	}
}

// handleToolheadKey runs homing and leveling.
func (m Model) handleToolheadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	label := ""
	switch {
	case key.Matches(msg, m.keys.HomeAll):
		label, err = "home", m.link.Home()
	case key.Matches(msg, m.keys.HomeX):
		label, err = "home x", m.link.Home("X")
	case key.Matches(msg, m.keys.HomeY):
		label, err = "home y", m.link.Home("Y")
	case key.Matches(msg, m.keys.HomeZ):
		label, err = "home z", m.link.Home("Z")
	case key.Matches(msg, m.keys.QGL):
		label, err = "quad gantry level", m.link.QuadGantryLevel()
	default:
		return m, nil
	}
	m.report(label, err)
	return m, nil
}

// handleConsoleKey scrolls the console.
func (m Model) handleConsoleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		follow := m.follow
		m.prefs.ConsoleFollow = &follow
		m.savePrefs()
		if m.follow {
			m.console.GotoBottom()
		}
	case key.Matches(msg, m.keys.Up):
		m.follow = false
		m.console.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.console.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.console.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.console.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.console.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.console.GotoBottom()
	}
	return m, nil
}

// handleInputKey edits and sends the gcode line.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputActive = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		script := strings.TrimSpace(m.input.Value())
		if script == "" {
			return m, nil
		}
		if err := m.link.GCode(script); err != nil {
			m.report("gcode", err)
			return m, nil
		}
		m.input.Reset()
		m.follow = true
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, done := m.modal.Update(msg, m.keys)
	if done {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// emergencyStop stops the printer, or restarts the firmware when Klipper
// is already down.
func (m *Model) emergencyStop() {
	m.modal = nil
	if m.printer.Connected {
		m.report("emergency stop", m.link.EmergencyStop())
	} else {
		m.report("firmware restart", m.link.FirmwareRestart())
	}
	m.refresh()
}

func (m *Model) pauseResume() {
	switch m.printer.PrintState {
	case state.PrintPrinting:
		m.report("pause", m.link.PausePrint())
	case state.PrintPaused:
		m.report("resume", m.link.ResumePrint())
	}
}

func (m *Model) runAction(a actionMsg) {
	m.report(a.label, a.run(m.link))
	m.refresh()
}

// report shows a failed action in the command bar and logs it.
func (m *Model) report(label string, err error) {
	if err == nil {
		return
	}
	m.logger.Warn().Err(err).Str("action", label).Msg("action failed")
	m.setFlash(label + ": " + err.Error())
}

func (m *Model) setFlash(s string) {
	m.flash = s
	m.flashAt = time.Now()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs")
	}
}

func (m Model) printFilename() string {
	if m.printer.CurrentPrint != nil {
		return m.printer.CurrentPrint.Filename
	}
	return ""
}

// handleTick drains the link and copies what the views need.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.link != nil {
		m.link.Tick()
	}
	m.refresh()
	if m.flash != "" && time.Since(m.flashAt) > flashTTL {
		m.flash = ""
	}
	return m, tickCmd(m.tick)
}

// refresh copies the link's presentation state into the model.
func (m *Model) refresh() {
	if m.link == nil {
		return
	}
	m.conn = m.link.State()
	m.server = m.link.ServerInfo()
	m.printer = m.link.Snapshot()
	m.jobs = m.link.History()
	m.lines = m.link.Console(consoleLines)
	m.heaterRow = clamp(m.heaterRow, len(m.printer.Heaters))
	m.historyRow = clamp(m.historyRow, len(m.jobs))
	m.updateConsole()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.view {
	case ViewToolhead:
		b.WriteString(m.renderToolhead())
	case ViewConsole:
		b.WriteString(m.renderConsole())
	default:
		b.WriteString(m.renderOverview())
	}
	return b.String()
}

// Messages

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
