package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lh2uav/groundlink/internal/reliable"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("groundlink — %s", m.connInfo)))
	b.WriteString("\n\n")

	left := panelStyle.Render(m.currentPanel())
	right := panelStyle.Render(m.commandPanel())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	b.WriteString(panelStyle.Render(m.recordingPanel()))
	b.WriteString("\n")

	if m.showLog {
		b.WriteString(panelStyle.Render(m.logPanel()))
		b.WriteString("\n")
	}

	if m.inputFocused {
		b.WriteString("cmd> " + m.cmdInput.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render(
		"q quit · tab cmd · r record · C clear · e export · g gate · l log · 1/2/3 mode · +/- heater · [/] valve · t stat · p ping · w raw"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) currentPanel() string {
	cv := m.store.Current()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Telemetry"))
	b.WriteString("\n")
	b.WriteString(row("T0", fmtVal(cv.T0C, "%.2f °C")))
	b.WriteString(row("T1", fmtVal(cv.T1C, "%.2f °C")))
	b.WriteString(row("P", fmtVal(cv.PkPa, "%.3f kPa")))
	b.WriteString(row("heater", fmtVal(cv.HeaterPct, "%.1f %%")))
	b.WriteString(row("valve", fmtVal(cv.ValvePct, "%.1f %%")))
	last := "--"
	if cv.HasData {
		last = fmt.Sprintf("%d ms", cv.TelemMs)
	}
	b.WriteString(row("last", last))
	return b.String()
}

func (m *Model) commandPanel() string {
	snap := m.tracker.Snapshot()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reliable command"))
	b.WriteString("\n")

	state := string(snap.State)
	switch snap.State {
	case reliable.StateAcked:
		state = okStyle.Render(state)
	case reliable.StateFailed:
		state = failStyle.Render(state)
	case reliable.StateRetry, reliable.StateWaitAck:
		state = warnStyle.Render(state)
	}
	b.WriteString(row("state", state))

	desc := snap.Description
	if desc == "" {
		desc = "--"
	}
	b.WriteString(row("cmd", desc))
	b.WriteString(row("retries", fmt.Sprintf("%d", snap.RetryN)))
	seq := "--"
	if snap.HasLast {
		seq = fmt.Sprintf("0x%02X #%d", snap.LastMsgType, snap.LastSeq)
	}
	b.WriteString(row("last msg", seq))
	if snap.HasBusy {
		b.WriteString(row("busy", warnStyle.Render(fmt.Sprintf(">%.1fs", snap.BusyS))))
	}
	b.WriteString(row("gate", onOff(m.tracker.Gate())))
	return b.String()
}

func (m *Model) recordingPanel() string {
	ps := m.store.PlotSeries()
	rec := "off"
	if m.store.Recording() {
		rec = okStyle.Render("on")
	}
	return fmt.Sprintf("%s  %s   %s %d pts / %.1fs   %s %d",
		labelStyle.Render("recording"), rec,
		labelStyle.Render("history"), m.store.RecPoints(), m.store.RecDuration(),
		labelStyle.Render("live"), ps.Len())
}

func (m *Model) logPanel() string {
	n := m.height / 3
	if n < 5 {
		n = 5
	}
	lines := m.logBuf.Tail(n)
	if len(lines) == 0 {
		return labelStyle.Render("(log empty)")
	}
	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", label)), valueStyle.Render(value))
}

func fmtVal(v float64, format string) string {
	if math.IsNaN(v) {
		return "--"
	}
	return fmt.Sprintf(format, v)
}
