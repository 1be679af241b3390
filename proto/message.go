// Package proto defines the ClientMessage wire schema shared by the
// client↔server stream and the server↔server pub/sub channel.
package proto

import (
	"encoding/json"
	"fmt"

	"github.com/Polqt/crdtcollab/crdt"
)

// Message type discriminators — the "type" tag in the wire JSON.
const (
	TypeInsert   = "insert"
	TypeDelete   = "delete"
	TypeCursor   = "cursor"
	TypeLanguage = "language"
)

// ClientMessage is the tagged union of every operation that can cross the
// wire, in either direction: client→server, server→client, or (JSON
// re-encoded, unchanged) server→server over the pub/sub channel.
//
// A flat struct with one set of fields per variant mirrors the wire schema
// directly; unmarshalling never needs to resolve a variant before it knows
// which fields to expect.
type ClientMessage struct {
	Type string `json:"type"`

	// insert
	Node *crdt.Node `json:"node,omitempty"`

	// delete
	ID *crdt.OpId `json:"id,omitempty"`

	// cursor — client_id and index are always present, including their
	// zero values (client id 0 and index 0, the start of the document, are
	// both legitimate), so neither carries omitempty.
	ClientID uint64 `json:"client_id"`
	Index    uint64 `json:"index"`
	Name     string `json:"name,omitempty"`
	Color    string `json:"color,omitempty"`

	// language (reuses Name above for "name")
}

// Decode parses and validates a ClientMessage from wire bytes. Malformed or
// schema-violating frames return an error; callers drop the frame and
// continue rather than propagating the error to the client.
func Decode(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("proto: decode: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return ClientMessage{}, err
	}
	return msg, nil
}

// Validate reports whether msg carries the fields its Type requires.
func (m ClientMessage) Validate() error {
	switch m.Type {
	case TypeInsert:
		if m.Node == nil {
			return fmt.Errorf("proto: insert message missing node")
		}
	case TypeDelete:
		if m.ID == nil {
			return fmt.Errorf("proto: delete message missing id")
		}
	case TypeCursor:
		// client_id/index/name/color are all permitted to be zero-valued;
		// a cursor message carries no durable state to validate against.
	case TypeLanguage:
		if m.Name == "" {
			return fmt.Errorf("proto: language message missing name")
		}
	default:
		return fmt.Errorf("proto: unknown message type %q", m.Type)
	}
	return nil
}

// Encode serialises msg back to wire bytes (identical encoding whether it
// is headed to a client, to the local broadcast fanout, or to the
// cross-instance pub/sub channel).
func (m ClientMessage) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("proto: encode: %w", err)
	}
	return b, nil
}

// Mutates reports whether this message type ever changes RGA state
// (insert, delete, language) as opposed to being purely ephemeral (cursor).
func (m ClientMessage) Mutates() bool {
	return m.Type != TypeCursor
}
