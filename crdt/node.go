package crdt

import (
	"encoding/json"
	"fmt"
)

// Node is one character cell in the RGA. Visible=false nodes are tombstones:
// they are retained forever so future inserts that name them as Origin still
// resolve.
type Node struct {
	ID      OpId
	Origin  *OpId // nil means "inserted at the beginning"
	Value   rune  // a single Unicode scalar
	Visible bool
}

// nodeWire is Node's wire shape: value is encoded as a one-rune string, not
// a numeric code point.
type nodeWire struct {
	ID      OpId   `json:"id"`
	Origin  *OpId  `json:"origin"`
	Value   string `json:"value"`
	Visible bool   `json:"visible"`
}

// MarshalJSON encodes Value as a single-character string per the wire schema.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeWire{
		ID:      n.ID,
		Origin:  n.Origin,
		Value:   string(n.Value),
		Visible: n.Visible,
	})
}

// UnmarshalJSON decodes Value from a single-character string.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	runes := []rune(w.Value)
	if len(runes) != 1 {
		return fmt.Errorf("crdt: node value must be exactly one Unicode scalar, got %q", w.Value)
	}
	n.ID = w.ID
	n.Origin = w.Origin
	n.Value = runes[0]
	n.Visible = w.Visible
	return nil
}
