package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette is the operator-facing colour scheme.
var palette = struct {
	Primary, Muted, Success, Warning, Error, Border lipgloss.Color
}{
	Primary: lipgloss.Color("#7C3AED"), // Purple
	Muted:   lipgloss.Color("#6C7086"), // Medium gray
	Success: lipgloss.Color("#A6E3A1"), // Green
	Warning: lipgloss.Color("#F9E2AF"), // Yellow
	Error:   lipgloss.Color("#F38BA8"), // Red
	Border:  lipgloss.Color("#45475A"), // Border gray
}

// styles renders command output. Plain styles are used off a terminal so
// piped output carries no escape codes.
type styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{Title: plain, Label: plain.Width(26), Value: plain, Success: plain, Warning: plain, Error: plain, Box: plain}
	}
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(palette.Primary),
		Label:   lipgloss.NewStyle().Foreground(palette.Muted).Width(26),
		Value:   lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Bold(true).Foreground(palette.Success),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(palette.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(palette.Error),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Border).
			Padding(0, 1),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
