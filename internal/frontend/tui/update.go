package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tickMsg:
		// Per-tick unit of work: drain whatever the backend produced. This
		// also runs on the final tick so packets queued when the capture
		// side ended the run still reach the table.
		m.fe.DrainAvailable()
		if len(m.fe.pending) > 0 {
			rows := m.table.Rows()
			for _, p := range m.fe.pending {
				rows = append(rows, packetRow(p))
			}
			if len(rows) > maxRows {
				rows = rows[len(rows)-maxRows:]
			}
			m.table.SetRows(rows)
			m.fe.pending = m.fe.pending[:0]
		}
		if m.fe.Terminated() {
			return m, tea.Quit
		}
		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}
