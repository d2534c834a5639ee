package ami

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePeerStatus(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected PeerStatus
	}{
		{"ok with latency", "OK (5 ms)", PeerStatus{Online: true, Time: 5, Status: "OK"}},
		{"ok with bigger latency", "OK (250 ms)", PeerStatus{Online: true, Time: 250, Status: "OK"}},
		{"bare ok", "OK", PeerStatus{Online: true, Status: "OK"}},
		{"lagged", "LAGGED (1503 ms)", PeerStatus{Online: false, Time: 1503, Status: "LAGGED"}},
		{"unreachable", "UNREACHABLE", PeerStatus{Online: false, Status: "UNREACHABLE"}},
		{"unknown", "UNKNOWN", PeerStatus{Online: false, Status: "UNKNOWN"}},
		{"unmonitored", "Unmonitored", PeerStatus{Online: false, Status: "Unmonitored"}},
		{"surrounding whitespace", "  OK (5 ms)  ", PeerStatus{Online: true, Time: 5, Status: "OK"}},
		{"empty", "", PeerStatus{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePeerStatus(tt.raw))
		})
	}
}
