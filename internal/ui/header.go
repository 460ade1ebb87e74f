package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header represents a command header with title, command, and parameters.
type Header struct {
	Title   string            // e.g., "DISCOVERY RESPONDER"
	Command string            // e.g., "wemo-ssdp serve"
	Params  map[string]string // e.g., {"Port": "1900", "Devices": "2"}
	Width   int               // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params map[string]string) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) == 0 {
		return HeaderBorderStyle(width).Render(topSection)
	}

	dividerWidth := width - 6 // Account for border and padding
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := RenderHorizontalDivider(dividerWidth, "─")

	var paramLines []string
	for _, key := range sortedKeys(h.Params) {
		keyStyled := HeaderParamKeyStyle.Render(key + ":")
		valueStyled := HeaderParamValueStyle.Render(h.Params[key])
		paramLines = append(paramLines, keyStyled+" "+valueStyled)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, topSection, divider, strings.Join(paramLines, "\n"))
	return HeaderBorderStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// sortedKeys returns map keys in a stable order for rendering
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
