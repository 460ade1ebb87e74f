// Package discovery finds and announces virtual devices on the local network.
//
// Probe is an SSDP client: it sends an M-SEARCH and collects the responses
// carrying a Belkin socket USN, which is how a running responder (this one
// or another) can be verified from the LAN.
//
//	devices, err := discovery.Probe(ssdp.TargetBelkin, discovery.DefaultProbeWait, "")
//
// Announcer publishes each device in a registry as a "_wemo._tcp" mDNS
// service with its id in a TXT record. Scanner browses for those services.
//
//	a := discovery.NewAnnouncer()
//	if err := a.Announce(reg, nil); err != nil {
//	    return err
//	}
//	defer a.Shutdown()
package discovery
