package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/usbscope/usbscope/pkg/plugin"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
)

func (m model) View() string {
	title := titleStyle.Render("usbscope — live USB capture")
	status := statusStyle.Render(fmt.Sprintf("%d packets captured  •  q to quit", m.fe.total))
	return title + "\n" + borderStyle.Render(m.table.View()) + "\n" + status + "\n"
}

func init() {
	plugin.MustRegister(plugin.RoleFrontend, plugin.Descriptor{
		Name:        Name,
		Description: "interactive terminal packet table",
		New: func(opts any) (any, error) {
			return New(), nil
		},
	})
}
