package ami

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Packet is one complete key-value block of the manager protocol, delimited
// on the wire by a blank line. The field set is protocol-defined and
// open-ended, so Packet is an ordered field bag rather than a fixed struct:
// unknown fields are preserved, and insertion order matches wire order.
//
// Values are coerced on receipt (see the package documentation), so a field
// may hold a string, bool, int or float64.
type Packet struct {
	keys   []string
	fields map[string]any
}

// NewPacket returns an empty packet.
func NewPacket() *Packet {
	return &Packet{fields: make(map[string]any)}
}

// Set stores a field value, overwriting any prior value for that name.
// First-seen order of names is preserved.
func (p *Packet) Set(name string, value any) {
	if _, ok := p.fields[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.fields[name] = value
}

// Get returns the raw value of a field and whether it was present.
func (p *Packet) Get(name string) (any, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// GetString returns the field as a string, or "" if absent or not a string.
func (p *Packet) GetString(name string) string {
	s, _ := p.fields[name].(string)
	return s
}

// GetBool returns the field as a bool, or false if absent or not a bool.
func (p *Packet) GetBool(name string) bool {
	b, _ := p.fields[name].(bool)
	return b
}

// GetInt returns the field as an int. String and float values that parse as
// integers are accepted, since not every numeric field is coerced on receipt.
func (p *Packet) GetInt(name string) int {
	switch v := p.fields[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		var n int
		if err := json.Unmarshal([]byte(v), &n); err == nil {
			return n
		}
	}
	return 0
}

// GetFloat returns the field as a float64, accepting int values too.
func (p *Packet) GetFloat(name string) float64 {
	switch v := p.fields[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// Keys returns the field names in wire order.
func (p *Packet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of fields in the packet.
func (p *Packet) Len() int {
	return len(p.keys)
}

// ActionID returns the correlation identifier field, if any.
func (p *Packet) ActionID() string {
	return p.GetString("ActionID")
}

// Response returns the status field ("Success", "Error", ...) of the packet.
func (p *Packet) Response() string {
	return p.GetString("Response")
}

// Message returns the human-readable message field of the packet.
func (p *Packet) Message() string {
	return p.GetString("Message")
}

// MarshalJSON encodes the packet as a JSON object preserving wire order.
func (p *Packet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(p.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Packet) String() string {
	b, err := p.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
