// Package ui renders terminal output for the wemo-ssdp CLI.
//
// Components use Lipgloss styles and follow a "run once and exit" pattern:
// they format output but never wait for interaction, apart from Confirm.
//
//   - Header: command banner with sorted parameters
//   - Result: success, failure and warning boxes
//   - Table: device listings built on the bubbles table widget
//
// Printer writes components to any io.Writer. Tables printed to a terminal
// go through Bubble Tea's renderer via RenderOnce.
//
// Logging is controlled separately via WEMO_SSDP_LOG_LEVEL. When it is unset
// zap is silent so the styled output is shown cleanly.
package ui
