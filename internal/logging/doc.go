// Package logging provides structured logging for the wemo-ssdp responder.
//
// This package wraps a zap logger with package-level helpers so that the
// responder, configuration loader and CLI all log through the same sink.
//
// # Log Levels
//
//   - Debug: datagram dumps, rejected queries, per-device sends
//   - Info: start/stop, socket bound, config reloads
//   - Warn: send failures, socket retries, address resolution failures
//   - Error: startup failures, response build failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given the WEMO_SSDP_LOG_LEVEL environment variable is
// consulted. With neither set the logger is a no-op, so CLI subcommands stay
// quiet by default.
//
// # Datagram Logging
//
//	logging.LogDatagram("received", peer.String(), payload)
//	logging.LogRawBytes("Rejected M-SEARCH", payload)
//
// Non-printable bytes are rendered as '.' and dumps are capped at 256 bytes.
package logging
