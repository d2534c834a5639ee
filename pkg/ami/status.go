package ami

import (
	"regexp"
	"strconv"
	"strings"
)

// PeerStatus is the normalized form of a peer's Status field.
type PeerStatus struct {
	// Online is true when the peer is reachable.
	Online bool
	// Time is the round-trip latency in milliseconds, when reported.
	Time int
	// Status is the bare status word with any latency annotation removed.
	Status string
}

// peerLatencyRe matches status values of the form "OK (5 ms)".
var peerLatencyRe = regexp.MustCompile(`^(\S+)\s+\((\d+)\s*ms\)$`)

// ParsePeerStatus normalizes the cosmetic Status values the server reports
// for peers, such as "OK (5 ms)", "UNREACHABLE" or "Unmonitored".
func ParsePeerStatus(raw string) PeerStatus {
	raw = strings.TrimSpace(raw)

	if m := peerLatencyRe.FindStringSubmatch(raw); m != nil {
		t, _ := strconv.Atoi(m[2])
		return PeerStatus{
			Online: strings.EqualFold(m[1], "OK"),
			Time:   t,
			Status: m[1],
		}
	}

	return PeerStatus{
		Online: strings.EqualFold(raw, "OK"),
		Status: raw,
	}
}
