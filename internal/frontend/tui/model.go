// Package tui implements the interactive terminal frontend. It drains the
// packet channel on a UI tick instead of using the default poll loop, which
// keeps the interface responsive under high packet rates.
package tui

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/internal/frontend"
)

const Name = "tui"

// maxRows bounds the packet table so a long capture cannot grow the UI state
// without limit.
const maxRows = 512

const tickInterval = 50 * time.Millisecond

// Frontend renders packets in a live terminal table.
type Frontend struct {
	*frontend.Base

	// pending accumulates packets dispatched during a drain; only the
	// bubbletea update loop touches it.
	pending []core.Packet
	total   int
}

// New creates a tui frontend.
func New() *Frontend {
	f := &Frontend{}
	f.Base = frontend.NewBase(f)
	return f
}

// OnPacket collects packets drained during the current UI tick.
func (f *Frontend) OnPacket(p core.Packet) {
	f.pending = append(f.pending, p)
	f.total++
}

// OnTerminate has nothing to clean up; the terminal is restored by bubbletea.
func (f *Frontend) OnTerminate() {}

// Run drives the bubbletea program until the user quits or the capture side
// terminates the run.
func (f *Frontend) Run() error {
	opts := []tea.ProgramOption{}
	if stdin := f.Stdin(); stdin != nil {
		opts = append(opts, tea.WithInput(stdin))
	}
	_, err := tea.NewProgram(newModel(f), opts...).Run()

	// Quitting the UI ends the run for the capture side too.
	f.RequestStop()
	f.Terminate()
	return err
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	fe    *Frontend
	table table.Model
}

func newModel(fe *Frontend) model {
	columns := []table.Column{
		{Title: "Time", Width: 15},
		{Title: "PID", Width: 6},
		{Title: "Len", Width: 5},
		{Title: "Flags", Width: 6},
		{Title: "Payload", Width: 48},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return model{fe: fe, table: t}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func packetRow(p core.Packet) table.Row {
	payload := hex.EncodeToString(p.Payload)
	if len(payload) > 46 {
		payload = payload[:46] + ".."
	}
	return table.Row{
		p.Timestamp.Format("15:04:05.000000"),
		core.PIDName(p.PID()),
		fmt.Sprintf("%d", len(p.Payload)),
		fmt.Sprintf("%#04x", p.Flags),
		payload,
	}
}
