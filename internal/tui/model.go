// Package tui renders the ground-station console: live values, the
// reliable-command panel, the operator log and command entry. It only
// reads store/tracker snapshots; all mutation goes through the ingest
// loop and its gate.
package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lh2uav/groundlink/internal/command"
	"github.com/lh2uav/groundlink/internal/config"
	"github.com/lh2uav/groundlink/internal/ingest"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/store"
)

const (
	refreshInterval = 200 * time.Millisecond

	// MaxLogLines bounds the operator log, matching the desktop host.
	MaxLogLines = 4000
)

type tickMsg time.Time

// Model is the Bubble Tea model for the station console.
type Model struct {
	loop    *ingest.Loop
	store   *store.Store
	tracker *reliable.Tracker

	settings config.Settings
	connInfo string

	logBuf  *LogBuffer
	showLog bool

	cmdInput     textinput.Model
	inputFocused bool

	heaterPct int
	valvePct  int
	loraRaw   bool

	status string

	width  int
	height int
}

// New builds the model. logBuf is shared with the ingest loop's log
// sink so console lines reach the operator log.
func New(loop *ingest.Loop, st *store.Store, tr *reliable.Tracker, settings config.Settings, connInfo string, logBuf *LogBuffer) *Model {
	ti := textinput.New()
	ti.Placeholder = "lora stat"
	ti.CharLimit = 128
	ti.Width = 40

	return &Model{
		loop:     loop,
		store:    st,
		tracker:  tr,
		settings: settings,
		connInfo: connInfo,
		logBuf:   logBuf,
		showLog:  settings.ShowLog,
		cmdInput: ti,
		width:    100,
		height:   30,
	}
}

// Settings returns the settings as adjusted during the session, for
// persisting on shutdown.
func (m *Model) Settings() config.Settings {
	s := m.settings
	s.WaitAckGate = m.tracker.Gate()
	s.ShowLog = m.showLog
	return s
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputFocused {
		switch msg.Type {
		case tea.KeyEnter:
			text := command.Sanitize(m.cmdInput.Value())
			if text != "" {
				m.sendFreeText(text)
			}
			m.cmdInput.Reset()
			return m, nil
		case tea.KeyEsc, tea.KeyTab:
			m.inputFocused = false
			m.cmdInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.cmdInput, cmd = m.cmdInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", ":":
		m.inputFocused = true
		return m, m.cmdInput.Focus()
	case "r":
		on := m.store.ToggleRecording()
		m.status = fmt.Sprintf("recording %s", onOff(on))
	case "C":
		m.store.Clear()
		m.status = "buffers cleared"
	case "e":
		m.exportCSV()
	case "g":
		next := !m.tracker.Gate()
		m.tracker.SetGate(next)
		m.status = fmt.Sprintf("ack gate %s", onOff(next))
	case "l":
		m.showLog = !m.showLog
	case "1", "2", "3":
		m.sendMode(msg.String())
	case "+", "=":
		m.heaterPct = clamp(m.heaterPct + 5)
		m.sendReliable(command.SetHeater(m.heaterPct))
	case "-":
		m.heaterPct = clamp(m.heaterPct - 5)
		m.sendReliable(command.SetHeater(m.heaterPct))
	case "]":
		m.valvePct = clamp(m.valvePct + 5)
		m.sendReliable(command.SetValve(m.valvePct))
	case "[":
		m.valvePct = clamp(m.valvePct - 5)
		m.sendReliable(command.SetValve(m.valvePct))
	case "t":
		m.sendDirect(command.LoraStat())
	case "p":
		m.sendDirect(command.LoraPing())
	case "w":
		m.loraRaw = !m.loraRaw
		m.sendDirect(command.LoraRaw(m.loraRaw))
	}
	return m, nil
}

// sendReliable routes heater/valve commands through the ack gate, as
// the gateway retries these on the radio side.
func (m *Model) sendReliable(text string) {
	err := m.loop.SendReliable(text, text)
	switch {
	case errors.Is(err, reliable.ErrCommandPending):
		m.status = "previous command still awaiting ACK/FAIL; send blocked"
	case err != nil:
		m.status = fmt.Sprintf("send failed: %v", err)
	default:
		m.status = fmt.Sprintf("sent: %s", text)
	}
}

// sendDirect is for mode switches and link queries, which the gateway
// answers immediately.
func (m *Model) sendDirect(text string) {
	if err := m.loop.Send(text); err != nil {
		m.status = fmt.Sprintf("send failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("sent: %s", text)
}

func (m *Model) sendMode(key string) {
	var op command.OpMode
	switch key {
	case "1":
		op = command.ModeSafe
	case "2":
		op = command.ModeManual
	case "3":
		op = command.ModeAuto
	}
	text, err := command.Mode(op)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.sendDirect(text)
}

func (m *Model) sendFreeText(text string) {
	if err := m.loop.Send(text); err != nil {
		m.status = fmt.Sprintf("send failed: %v", err)
		return
	}
	m.logBuf.Append(">>> " + text)
}

func (m *Model) exportCSV() {
	name := m.store.DefaultCSVName()
	path := name
	if m.settings.SaveDir != "" {
		path = filepath.Join(m.settings.SaveDir, name)
	}
	if err := m.store.ExportCSV(path); err != nil {
		m.status = fmt.Sprintf("export failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("saved %s (%d points)", path, m.store.RecPoints())
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
