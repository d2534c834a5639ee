package ami

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respPacket(fields ...[2]string) *Packet {
	p := NewPacket()
	for _, f := range fields {
		p.Set(f[0], coerceValue(f[0], f[1]))
	}
	return p
}

func TestCorrelatorSinglePacketResponse(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("Ping"))

	c.dispatch(respPacket(
		[2]string{"Response", "Success"},
		[2]string{"Ping", "Pong"},
		[2]string{"ActionID", "id-1"},
	))

	res := <-pr.done
	require.NoError(t, res.err)
	assert.True(t, res.resp.Success())
	assert.Empty(t, res.resp.Items)
	assert.Equal(t, "Pong", res.resp.Packet.GetString("Ping"))
}

func TestCorrelatorErrorResponseCarriesMessage(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("Originate"))

	c.dispatch(respPacket(
		[2]string{"Response", "Error"},
		[2]string{"Message", "Permission denied"},
		[2]string{"ActionID", "id-1"},
	))

	res := <-pr.done
	require.Error(t, res.err)

	var ae *ActionError
	require.ErrorAs(t, res.err, &ae)
	assert.Equal(t, "Permission denied", ae.Message)
	assert.Equal(t, "id-1", ae.ActionID)
}

func TestCorrelatorListAggregation(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("SIPpeers"))

	c.dispatch(respPacket(
		[2]string{"Response", "Success"},
		[2]string{"Message", "Peer status list will follow"},
		[2]string{"ActionID", "id-1"},
	))
	c.dispatch(respPacket(
		[2]string{"Event", "PeerEntry"},
		[2]string{"ObjectName", "alice"},
		[2]string{"ActionID", "id-1"},
	))
	c.dispatch(respPacket(
		[2]string{"Event", "PeerEntry"},
		[2]string{"ObjectName", "bob"},
		[2]string{"ActionID", "id-1"},
	))
	c.dispatch(respPacket(
		[2]string{"Event", "PeerlistComplete"},
		[2]string{"ListItems", "2"},
		[2]string{"ActionID", "id-1"},
	))

	res := <-pr.done
	require.NoError(t, res.err)
	require.Len(t, res.resp.Items, 2)
	assert.Equal(t, 2, res.resp.ItemCount)
	assert.Equal(t, "alice", res.resp.Items[0].GetString("ObjectName"))
	assert.Equal(t, "bob", res.resp.Items[1].GetString("ObjectName"))
	// Header packet survives as the response packet, trailer is stripped.
	assert.Contains(t, res.resp.Packet.Message(), "follow")
}

func TestCorrelatorEmptyListAggregation(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("SIPpeers"))

	c.dispatch(respPacket(
		[2]string{"Response", "Success"},
		[2]string{"Message", "Peer status list will follow"},
		[2]string{"ActionID", "id-1"},
	))
	c.dispatch(respPacket(
		[2]string{"Event", "PeerlistComplete"},
		[2]string{"ListItems", "0"},
		[2]string{"ActionID", "id-1"},
	))

	res := <-pr.done
	require.NoError(t, res.err)
	assert.Empty(t, res.resp.Items)
	assert.Equal(t, 0, res.resp.ItemCount)
}

func TestCorrelatorIgnoresUnsolicitedPackets(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("Ping"))

	// No identifier at all, then an identifier that matches nothing.
	c.dispatch(respPacket([2]string{"Event", "FullyBooted"}))
	c.dispatch(respPacket(
		[2]string{"Response", "Success"},
		[2]string{"ActionID", "someone-else"},
	))

	assert.Empty(t, pr.done)
	c.rejectAll(ErrSessionClosed)
}

func TestCorrelatorStalePacketsCannotReopen(t *testing.T) {
	c := newCorrelator()
	pr := c.register("id-1", NewAction("Ping"))

	first := respPacket(
		[2]string{"Response", "Success"},
		[2]string{"ActionID", "id-1"},
	)
	c.dispatch(first)
	<-pr.done

	// A retransmission of the same packet finds no pending request.
	c.dispatch(first)
	assert.Empty(t, pr.done)
}

func TestCorrelatorRejectAll(t *testing.T) {
	c := newCorrelator()
	a := c.register("id-a", NewAction("Ping"))
	b := c.register("id-b", NewAction("Status"))

	c.rejectAll(ErrSessionClosed)

	resA := <-a.done
	resB := <-b.done
	assert.True(t, errors.Is(resA.err, ErrSessionClosed))
	assert.True(t, errors.Is(resB.err, ErrSessionClosed))
}

func TestMarshalAction(t *testing.T) {
	a := NewAction("Login",
		Field{Name: "Username", Value: "admin"},
		Field{Name: "Secret", Value: "hunter2"},
	)

	got := marshalAction(a, "id-1")
	expected := "Action: Login\r\n" +
		"ActionID: id-1\r\n" +
		"Username: admin\r\n" +
		"Secret: hunter2\r\n" +
		"\r\n"
	assert.Equal(t, expected, string(got))
}
