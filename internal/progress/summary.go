package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

// View renders the summary as a bordered panel
func (s Summary) View(elapsed time.Duration) string {
	rate := 0.0
	if done := s.Sent + s.Failed; done > 0 {
		rate = float64(s.Sent) / float64(done) * 100
	}

	stats := []struct {
		label string
		value string
	}{
		{"Connections", fmt.Sprintf("%d", s.Total)},
		{"Sent", fmt.Sprintf("%d", s.Sent)},
		{"Failed", fmt.Sprintf("%d", s.Failed)},
		{"Success Rate", fmt.Sprintf("%.1f%%", rate)},
		{"Elapsed Time", formatElapsed(elapsed)},
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Outreach Summary") + "\n\n")
	for i, stat := range stats {
		content.WriteString(fmt.Sprintf("%-14s %s",
			labelStyle.Render(stat.label+":"),
			valueStyle.Render(stat.value),
		))
		if i < len(stats)-1 {
			content.WriteString("\n")
		}
	}
	return panelStyle.Render(content.String())
}

func formatElapsed(elapsed time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d",
		int(elapsed.Hours()),
		int(elapsed.Minutes())%60,
		int(elapsed.Seconds())%60,
	)
}
