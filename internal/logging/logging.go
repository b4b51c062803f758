package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// New returns a console logger at the named level (debug, info, warn, error)
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           lvl,
	})
	logger.SetStyles(styles())
	return logger, nil
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("196")).
		Foreground(lipgloss.Color("0"))
	s.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("214")).
		Foreground(lipgloss.Color("0"))
	s.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Keys["url"] = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	return s
}
