package ami

import (
	"bytes"
	"strings"
	"sync"
)

const crlf = "\r\n"

// listFollowsMarker is the substring of the header packet's message that
// announces a multi-packet list response ("... will follow").
const listFollowsMarker = "follow"

// listCountField is the trailer field declaring how many items were sent.
const listCountField = "ListItems"

// Field is one additional "Name: Value" line of an outgoing action.
type Field struct {
	Name  string
	Value string
}

// Action is a named request to the manager interface. The correlation
// identifier is attached by the client, never by the caller.
type Action struct {
	Name   string
	Fields []Field
}

// NewAction builds an action with the given name and extra fields.
func NewAction(name string, fields ...Field) Action {
	return Action{Name: name, Fields: fields}
}

// Response is the outcome of a completed action. For single-packet
// responses Items is nil. For list responses, Packet is the header packet,
// Items holds the item packets in receipt order (header and trailer
// excluded), and ItemCount is the count declared by the trailer.
type Response struct {
	Packet    *Packet
	Items     []*Packet
	ItemCount int
}

// Success reports whether the response status is Success.
func (r *Response) Success() bool {
	return r.Packet != nil && r.Packet.Response() == "Success"
}

type pendingResult struct {
	resp *Response
	err  error
}

// pendingRequest tracks one in-flight action: its identifier, the packets
// accumulated so far (for list responses) and the completion channel the
// sender is blocked on.
type pendingRequest struct {
	id      string
	action  Action
	packets []*Packet
	done    chan pendingResult
}

func (p *pendingRequest) resolve(resp *Response) {
	p.done <- pendingResult{resp: resp}
}

func (p *pendingRequest) reject(err error) {
	p.done <- pendingResult{err: err}
}

// correlator matches decoded packets to pending requests by correlation
// identifier. Dispatch is O(1) per packet: a registry keyed by identifier
// rather than a broadcast to every waiter. The mutex is the single-writer
// boundary around the registry; completion channels are buffered so no
// completion ever blocks under the lock.
type correlator struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func newCorrelator() *correlator {
	return &correlator{pending: make(map[string]*pendingRequest)}
}

// register creates and tracks a pending request for id. It must be called
// before the corresponding bytes are written, so a fast response cannot
// arrive ahead of registration.
func (c *correlator) register(id string, action Action) *pendingRequest {
	pr := &pendingRequest{
		id:     id,
		action: action,
		done:   make(chan pendingResult, 1),
	}
	c.mu.Lock()
	c.pending[id] = pr
	c.mu.Unlock()
	return pr
}

// drop removes a pending request without completing it. Used when the write
// fails or the caller gives up; any later packets for id are then ignored.
func (c *correlator) drop(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// dispatch consumes one decoded packet. Packets whose identifier matches no
// pending request are ignored; identifiers are deregistered before their
// request completes, so stale retransmissions cannot reopen a finished one.
func (c *correlator) dispatch(pkt *Packet) {
	id := pkt.ActionID()
	if id == "" {
		return
	}

	c.mu.Lock()
	pr, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return
	}

	if len(pr.packets) == 0 {
		if pkt.Response() != "Success" {
			delete(c.pending, id)
			c.mu.Unlock()
			pr.reject(&ActionError{ActionID: id, Message: pkt.Message()})
			return
		}
		if !strings.Contains(strings.ToLower(pkt.Message()), listFollowsMarker) {
			delete(c.pending, id)
			c.mu.Unlock()
			pr.resolve(&Response{Packet: pkt})
			return
		}
	}

	// List response in progress: accumulate until the trailer declares the
	// item count.
	pr.packets = append(pr.packets, pkt)
	if _, terminal := pkt.Get(listCountField); !terminal || len(pr.packets) < 2 {
		c.mu.Unlock()
		return
	}

	delete(c.pending, id)
	c.mu.Unlock()

	header := pr.packets[0]
	items := pr.packets[1 : len(pr.packets)-1]
	pr.resolve(&Response{
		Packet:    header,
		Items:     items,
		ItemCount: pkt.GetInt(listCountField),
	})
}

// rejectAll fails every pending request with err and empties the registry.
func (c *correlator) rejectAll(err error) {
	c.mu.Lock()
	dropped := make([]*pendingRequest, 0, len(c.pending))
	for id, pr := range c.pending {
		dropped = append(dropped, pr)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, pr := range dropped {
		pr.reject(err)
	}
}

// marshalAction serializes an action to wire format: one "Name: Value" line
// per field, CRLF terminated, with a blank line closing the packet.
func marshalAction(action Action, id string) []byte {
	var buf bytes.Buffer
	buf.WriteString("Action: " + action.Name + crlf)
	buf.WriteString("ActionID: " + id + crlf)
	for _, f := range action.Fields {
		buf.WriteString(f.Name + ": " + f.Value + crlf)
	}
	buf.WriteString(crlf)
	return buf.Bytes()
}
