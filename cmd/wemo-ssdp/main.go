// Wemo-ssdp answers SSDP discovery queries on behalf of virtual Belkin
// WeMo-style sockets, so that voice assistants and home automation hubs on
// the LAN find them.
//
// It listens on UDP 1900, validates each M-SEARCH and replies once per
// configured device with a response pointing at the device's setup.xml.
//
// Usage:
//
//	wemo-ssdp [command] [flags]
//
// See 'wemo-ssdp --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/muurk/wemo-ssdp/internal/version"
)

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wemo-ssdp",
	Short: "SSDP discovery responder for virtual WeMo devices",
	Long: `An SSDP discovery responder for virtual Belkin WeMo-style sockets.

The responder listens for M-SEARCH queries on UDP port 1900 and answers each
valid query with one discovery response per configured device. Devices and
responder settings are read from a YAML configuration file.

The setup.xml HTTP endpoint each response points at is served separately.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $WEMO_SSDP_LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wemo-ssdp %s\n", version.Full())
	},
}
