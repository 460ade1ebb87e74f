package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wemo-ssdp/internal/config"
	"github.com/muurk/wemo-ssdp/internal/device"
	"github.com/muurk/wemo-ssdp/internal/discovery"
	"github.com/muurk/wemo-ssdp/internal/logging"
	"github.com/muurk/wemo-ssdp/internal/ssdp"
	"github.com/muurk/wemo-ssdp/internal/ui"
)

// Output format shared by listing commands
var outputFormat string

// devicesCmd lists the configured device table
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the configured virtual devices",
	Long: `List the virtual devices the responder would announce.

Identifiers, names and ports left empty in the config file are shown as
derived from this host's id and the device's position in the list.`,
	Example: `  # Show the device table
  wemo-ssdp devices

  # Machine readable output
  wemo-ssdp devices --format json`,
	RunE: runDevices,
}

// probeCmd sends an M-SEARCH and lists responders
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Search the network for virtual devices",
	Long: `Send an SSDP M-SEARCH and list the virtual sockets that answer.

This is a quick way to check a running responder from another host. Only
responses carrying a Belkin socket USN are listed. With --mdns the devices
announced over mDNS are browsed as well.`,
	Example: `  # Search the way Alexa does
  wemo-ssdp probe

  # Search the way Home Assistant does, waiting 5 seconds
  wemo-ssdp probe --target hass --wait 5s

  # Search from a specific local address
  wemo-ssdp probe --local-addr 192.168.1.20:0`,
	RunE: runProbe,
}

// initCmd writes a default config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a configuration file with the default responder settings and a
generated device table.

An existing file is only replaced after confirmation, or with --force.`,
	Example: `  # Create the default config with one device
  wemo-ssdp init

  # Create a config with four devices at a custom path
  wemo-ssdp init --devices 4 --config ./wemo.yaml`,
	RunE: runInit,
}

// Probe and init flags
var (
	probeTarget    string
	probeWait      time.Duration
	probeLocalAddr string
	probeMDNS      bool

	initDevices int
	initForce   bool
)

func init() {
	devicesCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")

	probeCmd.Flags().StringVar(&probeTarget, "target", "alexa", "Search target: a family (alexa, hass) or a literal ST value")
	probeCmd.Flags().DurationVar(&probeWait, "wait", discovery.DefaultProbeWait, "How long to collect responses")
	probeCmd.Flags().StringVar(&probeLocalAddr, "local-addr", "", "Local address to search from (default all interfaces)")
	probeCmd.Flags().BoolVar(&probeMDNS, "mdns", false, "Also browse for devices announced over mDNS")
	probeCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")

	initCmd.Flags().IntVar(&initDevices, "devices", config.DefaultDeviceCount, "Number of devices to generate")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file without asking")
}

func runDevices(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	hostID, err := device.HostID()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry(hostID)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return writeJSON(cmd, reg.All())
	}

	tbl := ui.NewTable("#", "ID", "Name", "Port")
	tbl.Empty = "No devices configured. Run 'wemo-ssdp init' to create some."
	for i, r := range reg.All() {
		tbl.AddRow(strconv.Itoa(i), r.ID, r.Name, strconv.Itoa(r.Port))
	}
	return ui.NewPrinter(cmd.OutOrStdout()).PrintTable(tbl)
}

// searchTarget maps a family name to its ST value, passing literals through
func searchTarget(target string) string {
	if st, ok := ssdp.Families[target]; ok {
		return st
	}
	return target
}

func runProbe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	st := searchTarget(probeTarget)
	devices, err := discovery.Probe(st, probeWait, probeLocalAddr)
	if err != nil {
		return err
	}

	if probeMDNS {
		scanner := discovery.NewScanner()
		scanner.Timeout = probeWait
		found, err := scanner.ScanForDevices(context.Background())
		if err != nil {
			return err
		}
		devices = append(devices, found...)
	}

	if outputFormat == "json" {
		return writeJSON(cmd, devices)
	}

	tbl := ui.NewTable("ID", "Name", "Address", "Source", "Setup URL")
	tbl.Empty = fmt.Sprintf("No devices answered %q within %s", st, probeWait)
	for _, d := range devices {
		tbl.AddRow(d.ID, d.Name, fmt.Sprintf("%s:%d", d.IP, d.Port), d.Source, d.SetupURL())
	}
	return ui.NewPrinter(cmd.OutOrStdout()).PrintTable(tbl)
}

func runInit(cmd *cobra.Command, args []string) error {
	if initDevices < 0 || initDevices > device.MaxDevices {
		return fmt.Errorf("--devices must be between 0 and %d", device.MaxDevices)
	}

	path, err := config.ResolvePath(configPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		ok := ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Config file exists", []string{
			path,
			"The responder settings and device table will be replaced",
		})
		if !ok {
			return nil
		}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	cfg := config.Default()
	cfg.Devices = make([]config.DeviceConfig, initDevices)
	for i := range cfg.Devices {
		cfg.Devices[i] = config.DeviceConfig{Name: device.DefaultName(i)}
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration written", map[string]string{
		"Path":    path,
		"Devices": strconv.Itoa(initDevices),
	})
	return nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
