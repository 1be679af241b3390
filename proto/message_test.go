package proto

import (
	"testing"

	"github.com/Polqt/crdtcollab/crdt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Insert(t *testing.T) {
	raw := `{"type":"insert","node":{"id":{"client_id":1,"seq":1},"origin":null,"value":"a","visible":true}}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.Node)
	assert.Equal(t, crdt.OpId{ClientID: 1, Seq: 1}, msg.Node.ID)
	assert.Equal(t, 'a', msg.Node.Value)
	assert.True(t, msg.Mutates())
}

func TestDecode_Delete(t *testing.T) {
	raw := `{"type":"delete","id":{"client_id":2,"seq":3}}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, msg.ID)
	assert.Equal(t, crdt.OpId{ClientID: 2, Seq: 3}, *msg.ID)
}

func TestDecode_Cursor(t *testing.T) {
	raw := `{"type":"cursor","client_id":7,"index":12,"name":"ada","color":"#ff00ff"}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), msg.ClientID)
	assert.False(t, msg.Mutates())
}

func TestDecode_Language(t *testing.T) {
	raw := `{"type":"language","name":"rust"}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "rust", msg.Name)
}

func TestDecode_RejectsMissingFields(t *testing.T) {
	cases := []string{
		`{"type":"insert"}`,
		`{"type":"delete"}`,
		`{"type":"language"}`,
		`{"type":"bogus"}`,
		`not json`,
	}
	for _, raw := range cases {
		_, err := Decode([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	orig := ClientMessage{Type: TypeCursor, ClientID: 4, Index: 9, Name: "bob", Color: "#00ff00"}
	b, err := orig.Encode()
	require.NoError(t, err)
	back, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}
