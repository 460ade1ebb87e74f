package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wemo-ssdp/internal/config"
	"github.com/muurk/wemo-ssdp/internal/ssdp"
	"github.com/muurk/wemo-ssdp/internal/ui"
)

func newServeFlags(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().IntVar(&servePort, "port", 0, "")
	cmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "")
	cmd.Flags().StringSliceVar(&serveTargets, "targets", nil, "")
	t.Cleanup(func() {
		servePort = 0
		serveTimeout = 0
		serveTargets = nil
	})
	return cmd
}

func TestApplyServeFlags_OnlyChangedFlags(t *testing.T) {
	cmd := newServeFlags(t)
	if err := cmd.Flags().Set("port", "11900"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("timeout", "5s"); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Responder.Interface = "eth0"
	if err := applyServeFlags(cmd, cfg); err != nil {
		t.Fatalf("applyServeFlags() error = %v", err)
	}

	if cfg.Responder.Port != 11900 {
		t.Errorf("Port = %d, want 11900", cfg.Responder.Port)
	}
	if time.Duration(cfg.Responder.ReceiveTimeout) != 5*time.Second {
		t.Errorf("ReceiveTimeout = %v, want 5s", time.Duration(cfg.Responder.ReceiveTimeout))
	}
	if cfg.Responder.Interface != "eth0" {
		t.Errorf("Interface = %q, unset flag should keep config value", cfg.Responder.Interface)
	}
}

func TestApplyServeFlags_InvalidTarget(t *testing.T) {
	cmd := newServeFlags(t)
	if err := cmd.Flags().Set("targets", "sonos"); err != nil {
		t.Fatal(err)
	}

	if err := applyServeFlags(cmd, config.Default()); err == nil {
		t.Fatal("applyServeFlags() expected error for unknown target family")
	}
}

func TestWarnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		devices []config.DeviceConfig
		warned  bool
	}{
		{"no devices", []config.DeviceConfig{}, true},
		{"default devices", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.devices != nil {
				cfg.Devices = tt.devices
			}
			inst, err := buildInstance(cfg, 0x3f2a9c10)
			if err != nil {
				t.Fatalf("buildInstance() error = %v", err)
			}

			var out bytes.Buffer
			warnEmpty(ui.NewPrinter(&out).SetWidth(80), inst)
			if got := strings.Contains(out.String(), "No devices configured"); got != tt.warned {
				t.Errorf("warned = %v, want %v:\n%s", got, tt.warned, out.String())
			}
		})
	}
}

func TestStopSummary(t *testing.T) {
	inst, err := buildInstance(config.Default(), 0x3f2a9c10)
	if err != nil {
		t.Fatalf("buildInstance() error = %v", err)
	}

	res := stopSummary(inst)
	for _, key := range []string{"Queries", "Answered", "Responses"} {
		if res.Details[key] != "0" {
			t.Errorf("Details[%q] = %q, want \"0\"", key, res.Details[key])
		}
	}
	if _, ok := res.Details["Failed sends"]; ok {
		t.Error("Failed sends reported with no failures")
	}
}

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alexa", ssdp.TargetBelkin},
		{"hass", ssdp.TargetAll},
		{"upnp:rootdevice", "upnp:rootdevice"},
	}
	for _, tt := range tests {
		if got := searchTarget(tt.in); got != tt.want {
			t.Errorf("searchTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInitAndDevices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	configPath = path
	initDevices = 2
	initForce = true
	outputFormat = "json"
	t.Cleanup(func() {
		configPath = ""
		initDevices = config.DefaultDeviceCount
		initForce = false
		outputFormat = "table"
	})

	var out bytes.Buffer
	initCmd.SetOut(&out)
	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Devices) != 2 {
		t.Fatalf("len(Devices) = %d, want 2", len(cfg.Devices))
	}

	out.Reset()
	devicesCmd.SetOut(&out)
	if err := runDevices(devicesCmd, nil); err != nil {
		t.Fatalf("runDevices() error = %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Simulater 01"`) || !strings.Contains(out.String(), `"port": 5001`) {
		t.Errorf("unexpected devices output:\n%s", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "wemo-ssdp ") {
		t.Errorf("version output = %q", out.String())
	}
}
