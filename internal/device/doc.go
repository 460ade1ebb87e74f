// Package device holds the table of virtual devices the responder answers for.
//
// A Registry is an ordered, read-only list of Records assembled once at
// startup (from the config file or from generated defaults) and handed to the
// responder. Each Record carries the identifier echoed into discovery
// responses and the TCP port its setup.xml would be served on.
//
// Identifiers follow the "%08x%02x" layout: a 32-bit host id followed by the
// device index, for example "3f2a9c1000".
package device
