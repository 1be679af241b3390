package crdt

import (
	"errors"
	"strings"
)

// ErrUnknownOrigin is returned by Insert when new_node.origin names a node
// that has not been integrated yet. The caller violated causality — a
// client can only author an insert after it with an origin it has already
// seen — so the operation is rejected rather than silently reordered.
var ErrUnknownOrigin = errors.New("crdt: origin node not found")

// Document is the RGA document state: an ordered sequence of tombstoned
// character nodes plus the editor's language mode.
//
// Document has exactly one owner at a time — the document actor — and is
// never protected by a lock here. Single-writer access is an invariant of
// the surrounding system, not of this type; see the actor package.
type Document struct {
	Nodes    []Node `json:"nodes"`
	Language string `json:"language"`
}

// NewDocument returns an empty document with the default editor language.
func NewDocument() *Document {
	return &Document{Language: "javascript"}
}

// Contains reports whether a node with id has already been integrated.
func (d *Document) Contains(id OpId) bool {
	return d.indexOf(id) >= 0
}

func (d *Document) indexOf(id OpId) int {
	for i, n := range d.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Delete tombstones the node with target_id. Deleting a node that is
// already a tombstone leaves it a tombstone, so repeated deletes are
// idempotent. A target that is absent (its insert has not arrived yet) is a
// silent no-op: the delete is not remembered, so a later insert of that id
// integrates as visible. Delete never removes a node's slot, only its
// visibility.
func (d *Document) Delete(target OpId) {
	if i := d.indexOf(target); i >= 0 {
		d.Nodes[i].Visible = false
	}
}

// Insert integrates newNode into the sequence.
//
// The anchor position is the slot right after newNode.Origin (or the very
// start, if Origin is nil). From there we scan forward over every sibling —
// a node sharing the same Origin — that outranks newNode by OpId, and stop
// at the first sibling that doesn't, or at a node with a different Origin,
// or at the end. That rule alone, applied by every replica regardless of
// delivery order, converges: descending OpId order within a sibling group is
// the canonical order, and crossing into another Origin never gets
// disturbed because the scan stops there.
func (d *Document) Insert(newNode Node) error {
	anchor := 0
	if newNode.Origin != nil {
		idx := d.indexOf(*newNode.Origin)
		if idx < 0 {
			return ErrUnknownOrigin
		}
		anchor = idx + 1
	}

	i := anchor
	for i < len(d.Nodes) {
		candidate := d.Nodes[i]
		if originEqual(candidate.Origin, newNode.Origin) && candidate.ID.Greater(newNode.ID) {
			i++
			continue
		}
		break
	}

	d.Nodes = append(d.Nodes, Node{})
	copy(d.Nodes[i+1:], d.Nodes[i:])
	d.Nodes[i] = newNode
	return nil
}

// Text renders the visible document: the concatenation of Value for every
// node where Visible is true, in sequence order. This is a derived view —
// Nodes remains the canonical state.
func (d *Document) Text() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		if n.Visible {
			b.WriteRune(n.Value)
		}
	}
	return b.String()
}
