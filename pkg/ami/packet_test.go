package ami

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketFieldOrder(t *testing.T) {
	p := NewPacket()
	p.Set("Response", "Success")
	p.Set("Message", "OK")
	p.Set("ActionID", "1")

	assert.Equal(t, []string{"Response", "Message", "ActionID"}, p.Keys())
	assert.Equal(t, 3, p.Len())

	// Overwriting keeps the original position.
	p.Set("Message", "changed")
	assert.Equal(t, []string{"Response", "Message", "ActionID"}, p.Keys())
	assert.Equal(t, "changed", p.GetString("Message"))
}

func TestPacketTypedAccessors(t *testing.T) {
	p := NewPacket()
	p.Set("Response", "Success")
	p.Set("Message", "Authentication accepted")
	p.Set("ActionID", "abc-123")
	p.Set("Dynamic", true)
	p.Set("Port", 5060)
	p.Set("QualifyTimeout", 2.5)
	p.Set("ListItems", "2")

	assert.Equal(t, "Success", p.Response())
	assert.Equal(t, "Authentication accepted", p.Message())
	assert.Equal(t, "abc-123", p.ActionID())
	assert.True(t, p.GetBool("Dynamic"))
	assert.Equal(t, 5060, p.GetInt("Port"))
	assert.Equal(t, 2.5, p.GetFloat("QualifyTimeout"))

	// GetInt parses string-valued fields too.
	assert.Equal(t, 2, p.GetInt("ListItems"))

	_, ok := p.Get("Missing")
	assert.False(t, ok)
	assert.Equal(t, "", p.GetString("Missing"))
	assert.Equal(t, 0, p.GetInt("Missing"))
}

func TestPacketMarshalJSONPreservesOrder(t *testing.T) {
	p := NewPacket()
	p.Set("Response", "Success")
	p.Set("Port", 5060)
	p.Set("Dynamic", false)

	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Response":"Success","Port":5060,"Dynamic":false}`, string(b))
	assert.Equal(t, string(b), p.String())
}
