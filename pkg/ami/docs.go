// Package ami provides a Go client for the Asterisk Manager Interface, the
// line-oriented, text-based request/response protocol spoken over a
// persistent TCP connection to an Asterisk server.
//
// The package provides a [Client] struct that owns one logical connection:
// it frames the byte stream into packets, correlates responses (including
// multi-packet list results) to the actions that caused them, and drives
// connect, authenticate, keepalive and reconnect.
//
// For an example of how to use this package, see the examples in the
// `examples` directory.
//
// Unsolicited server events are not modeled here; every decoded packet is
// still visible on the channel returned by [Client.GetPacketChan] for
// collaborators that want more than request/response pairing.
package ami
