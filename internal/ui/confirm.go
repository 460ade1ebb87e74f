package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and asks for a yes/no answer on in.
// Returns true only for "y" or "yes". Read errors count as no.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	for _, warning := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+warning))
	}
	lines = append(lines, "")

	fmt.Fprintln(out, WarningBoxStyle(width).Render(strings.Join(lines, "\n")))
	fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Fprint(out, promptStyle.Render("Continue? [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}

	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
