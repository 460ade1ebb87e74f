// Package ssdp implements the protocol half of the discovery responder:
// deciding whether a datagram is an M-SEARCH we answer, and formatting the
// unicast response for one virtual device.
//
// # Accepted Queries
//
// A query is accepted when it contains all of these literal substrings:
//
//	M-SEARCH * HTTP/1.1
//	HOST: 239.255.255.250:1900
//	MAN: "ssdp:discover"
//
// and, when search targets are configured, an ST header whose value starts
// with one of them. Targets are literal prefixes; "urn:Belkin:device:**" is
// not a pattern.
//
// # Response Format
//
// Discovery clients that look for Belkin sockets compare headers literally,
// so the response is reproduced byte for byte:
//
//	HTTP/1.1 200 OK
//	CACHE-CONTROL: max-age=86400
//	DATE: Sat, 26 Nov 2016 04:56:29 GMT
//	EXT:
//	LOCATION: http://<ip>:<port>/setup.xml
//	OPT: "http://schemas.upnp.org/upnp/1/0/"; ns=01
//	01-NLS: b9200ebb-736d-4b93-bf03-<id>
//	SERVER: Unspecified, UPnP/1.0, Unspecified
//	ST: urn:Belkin:device:**
//	USN: uuid:Socket-1_0-<id>::urn:Belkin:device:**
//	X-User-Agent: redsonic
//
// Every line ends in CRLF and the message ends with an empty line.
//
// BuildResponse writes into a caller buffer and fails with a BuildError
// rather than truncating; MaxResponseSize is always large enough for a
// valid device record and an IPv4 address.
package ssdp
