package ami

import (
	"bytes"
	"strings"
	"sync"
)

// greetingBanner is the text the server sends on connect, before any packet.
// It is not a field line and must not end up inside a packet.
const greetingBanner = "Asterisk Call Manager"

// frameDecoder turns the raw byte stream of the manager connection into
// discrete packets. Feed is called from the transport read path and only
// appends; actual decoding happens in Decode, which the session runs on a
// periodic schedule. The mutex serializes the two and prevents overlapping
// decode passes.
type frameDecoder struct {
	mu  sync.Mutex
	buf []byte
	cur *Packet

	// onGreeting fires once per greeting banner observed in the stream.
	onGreeting func()
}

func newFrameDecoder() *frameDecoder {
	return &frameDecoder{cur: NewPacket()}
}

// Feed appends raw bytes to the accumulator. It never decodes.
func (d *frameDecoder) Feed(p []byte) {
	d.mu.Lock()
	d.buf = append(d.buf, p...)
	d.mu.Unlock()
}

// Decode extracts every complete line currently buffered and returns the
// packets completed by them. A partial trailing line stays buffered for the
// next pass, so the result is independent of how the bytes were chunked.
func (d *frameDecoder) Decode() []*Packet {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*Packet
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return out
		}
		line := strings.TrimSpace(string(d.buf[:i]))
		d.buf = d.buf[i+1:]

		switch {
		case strings.Contains(line, greetingBanner):
			if d.onGreeting != nil {
				d.onGreeting()
			}

		case line == "":
			if d.cur.Len() > 0 {
				out = append(out, d.cur)
			}
			d.cur = NewPacket()

		default:
			name, value, ok := strings.Cut(line, ":")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				// Malformed line, tolerated and dropped.
				continue
			}
			d.cur.Set(name, coerceValue(name, value))
		}
	}
}

// Reset discards all buffered bytes and any in-progress packet. Used when
// the session is torn down or restarted.
func (d *frameDecoder) Reset() {
	d.mu.Lock()
	d.buf = nil
	d.cur = NewPacket()
	d.mu.Unlock()
}
