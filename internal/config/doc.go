// Package config loads and saves the wemo-ssdp YAML configuration.
//
// The file holds the responder settings and the virtual device table. It is
// stored in the platform config directory unless a path is given:
//   - Linux: $XDG_CONFIG_HOME/wemo-ssdp/config.yaml or $HOME/.config/wemo-ssdp/config.yaml
//   - macOS: $HOME/.config/wemo-ssdp/config.yaml
//   - Windows: %LOCALAPPDATA%\wemo-ssdp\config.yaml
//
// # Example
//
//	version: 1
//	responder:
//	  port: 1900
//	  receive_timeout: 1s
//	  targets: [alexa, hass]
//	  dual_interface: false
//	  mdns: false
//	  max_retries: 20
//	  retry_delay: 1s
//	devices:
//	  - name: Kitchen Light
//	  - name: Porch
//	    id: porch01
//	    port: 5011
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := cfg.Registry(device.HostID())
//
// Watch reloads the file on change so that a running responder can pick up
// an edited device table.
package config
