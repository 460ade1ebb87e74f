package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/config"
	"github.com/muurk/wemo-ssdp/internal/device"
	"github.com/muurk/wemo-ssdp/internal/discovery"
	"github.com/muurk/wemo-ssdp/internal/logging"
	"github.com/muurk/wemo-ssdp/internal/responder"
	"github.com/muurk/wemo-ssdp/internal/ui"
)

// Serve command flags
var (
	servePort          int
	serveTimeout       time.Duration
	serveTargets       []string
	serveAdvertiseIP   string
	serveInterface     string
	serveDualInterface bool
	serveMDNS          bool
	serveWatch         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery responder",
	Long: `Run the SSDP discovery responder in the foreground.

The responder binds UDP port 1900 (retrying while the port is busy), joins the
SSDP multicast group and answers every valid M-SEARCH with one response per
configured device. Flags override the matching config file settings.

With --watch the config file is reloaded when it changes: the responder is
stopped, rebuilt with the new device table and started again.`,
	Example: `  # Serve the devices from the default config file
  wemo-ssdp serve

  # Answer Alexa queries only, with debug logging
  wemo-ssdp serve --targets alexa --log-level debug

  # Advertise a fixed address and reload on config edits
  wemo-ssdp serve --advertise-ip 192.168.1.50 --watch

  # Also announce the devices over mDNS
  wemo-ssdp serve --mdns`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "UDP port to listen on (default from config, 1900)")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "Receive timeout, bounds how long stop takes (default from config, 1s)")
	serveCmd.Flags().StringSliceVar(&serveTargets, "targets", nil, "Search target families to answer (alexa, hass)")
	serveCmd.Flags().StringVar(&serveAdvertiseIP, "advertise-ip", "", "Fixed IPv4 address to put in LOCATION")
	serveCmd.Flags().StringVar(&serveInterface, "interface", "", "Primary network interface")
	serveCmd.Flags().BoolVar(&serveDualInterface, "dual-interface", false, "Advertise the address on the querier's subnet")
	serveCmd.Flags().BoolVar(&serveMDNS, "mdns", false, "Also announce devices over mDNS")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when the config file changes")
}

// applyServeFlags overrides config settings with explicitly set flags
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	r := &cfg.Responder

	if flags.Changed("port") {
		r.Port = servePort
	}
	if flags.Changed("timeout") {
		r.ReceiveTimeout = config.Duration(serveTimeout)
	}
	if flags.Changed("targets") {
		r.Targets = serveTargets
	}
	if flags.Changed("advertise-ip") {
		r.AdvertiseIP = serveAdvertiseIP
	}
	if flags.Changed("interface") {
		r.Interface = serveInterface
	}
	if flags.Changed("dual-interface") {
		r.DualInterface = serveDualInterface
	}
	if flags.Changed("mdns") {
		r.MDNS = serveMDNS
	}

	return cfg.Validate()
}

// instance is one configured responder ready to run
type instance struct {
	cfg      *config.Config
	registry *device.Registry
	listener *responder.Listener
}

func buildInstance(cfg *config.Config, hostID uint32) (*instance, error) {
	registry, err := cfg.Registry(hostID)
	if err != nil {
		return nil, err
	}
	lc, err := cfg.ListenerConfig()
	if err != nil {
		return nil, err
	}
	return &instance{
		cfg:      cfg,
		registry: registry,
		listener: responder.NewListener(lc, registry, cfg.Resolver()),
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(serveLogLevel()); err != nil {
		return err
	}
	defer logging.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	hostID, err := device.HostID()
	if err != nil {
		return err
	}

	inst, err := buildInstance(cfg, hostID)
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintHeader("Discovery responder", "wemo-ssdp serve", serveParams(inst))
	warnEmpty(printer, inst)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	announcer := discovery.NewAnnouncer()
	defer announcer.Shutdown()
	announce(printer, announcer, inst)

	ctrl := responder.Default()
	if err := ctrl.SetRunner(inst.listener); err != nil {
		return err
	}
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	reloads := make(chan *config.Config, 1)
	if serveWatch {
		path, err := config.ResolvePath(configPath)
		if err != nil {
			return err
		}
		go func() {
			err := config.Watch(ctx, path, func(c *config.Config) {
				select {
				case <-reloads:
				default:
				}
				reloads <- c
			})
			if err != nil {
				logging.Error("Config watch failed", zap.Error(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("Shutdown signal received, stopping responder")
			ctrl.Stop()
			<-ctrl.Done()
			printer.Println(stopSummary(inst).SetWidth(printer.Width()).Render())
			return nil

		case <-ctrl.Done():
			if err := ctrl.Err(); err != nil {
				printer.PrintError("Responder stopped", err, startupTips(err))
				return err
			}
			return nil

		case c := <-reloads:
			if err := applyServeFlags(cmd, c); err != nil {
				logging.Warn("Ignoring reloaded config", zap.Error(err))
				continue
			}
			next, err := buildInstance(c, hostID)
			if err != nil {
				logging.Warn("Ignoring reloaded config", zap.Error(err))
				continue
			}

			ctrl.Stop()
			select {
			case <-ctrl.Done():
			case <-ctx.Done():
				logging.Info("Shutdown signal received during reload")
				return nil
			}
			if err := ctrl.SetRunner(next.listener); err != nil {
				return err
			}
			if err := ctrl.Start(ctx); err != nil {
				return err
			}
			inst = next
			warnEmpty(printer, inst)
			announce(printer, announcer, inst)
			logging.Info("Responder restarted with new config", zap.Int("devices", inst.registry.Count()))
		}
	}
}

// serveLogLevel defaults serve to info logging so the responder is not silent
func serveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	if os.Getenv(logging.LogLevelEnvVar) != "" {
		return ""
	}
	return "info"
}

func announce(printer *ui.Printer, a *discovery.Announcer, inst *instance) {
	if !inst.cfg.Responder.MDNS {
		a.Shutdown()
		return
	}
	if err := a.Announce(inst.registry, nil); err != nil {
		logging.Warn("mDNS announcement failed", zap.Error(err))
		printer.PrintWarning("mDNS announcement failed", map[string]string{
			"Error":   err.Error(),
			"Devices": "still answering SSDP searches",
		})
	}
}

// warnEmpty tells the user that an empty device table answers nothing
func warnEmpty(printer *ui.Printer, inst *instance) {
	if inst.registry.Count() > 0 {
		return
	}
	printer.PrintWarning("No devices configured", map[string]string{
		"Effect": "valid searches get no response",
		"Fix":    "wemo-ssdp init --devices N --force",
	})
}

// stopSummary reports the counters of the last run
func stopSummary(inst *instance) *ui.Result {
	stats := inst.listener.Stats()
	res := ui.NewSuccessResult("Responder stopped", nil).
		AddDetail("Queries", strconv.FormatUint(stats.Received, 10)).
		AddDetail("Answered", strconv.FormatUint(stats.Accepted, 10)).
		AddDetail("Responses", strconv.FormatUint(stats.Sent, 10))
	if stats.Failed > 0 {
		res.AddDetail("Failed sends", strconv.FormatUint(stats.Failed, 10))
	}
	return res
}

func serveParams(inst *instance) map[string]string {
	r := inst.cfg.Responder
	params := map[string]string{
		"Port":    strconv.Itoa(r.Port),
		"Devices": strconv.Itoa(inst.registry.Count()),
		"Targets": strings.Join(r.Targets, ", "),
		"Timeout": time.Duration(r.ReceiveTimeout).String(),
	}
	switch {
	case r.AdvertiseIP != "":
		params["Address"] = r.AdvertiseIP
	case r.DualInterface:
		params["Address"] = "querier's subnet"
	case r.Interface != "":
		params["Address"] = "from " + r.Interface
	}
	if r.MDNS {
		params["mDNS"] = discovery.ServiceType
	}
	return params
}

func startupTips(err error) []string {
	var se *responder.StartupError
	if !errors.As(err, &se) {
		return nil
	}
	return []string{
		fmt.Sprintf("Check that no other SSDP service holds UDP port %d", se.Port),
		"Stop other UPnP responders on this host (media servers, other bridges)",
		"Use --port to listen on a different port for testing",
	}
}
