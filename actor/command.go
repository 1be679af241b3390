// Package actor implements the per-document actor: the single-writer owner
// of one document's RGA. It serialises edits arriving from three sources —
// local clients, the cross-instance pub/sub bridge, and its own persistence
// timer — applies them, fans them out to local subscribers, and persists
// snapshots.
package actor

import "github.com/Polqt/crdtcollab/proto"

// Command is a mailbox message. The actor processes commands strictly in
// mailbox order; that order is the system's linearisation point.
type Command interface {
	isCommand()
}

// Join requests a one-shot snapshot of the live document, used by a newly
// connected client for initial sync. Response receives exactly one value,
// or is closed without one if the snapshot cannot be encoded.
type Join struct {
	Response chan []byte
}

// LocalMessage is a ClientMessage that originated on this instance.
type LocalMessage struct {
	Msg proto.ClientMessage
}

// RemoteMessage is a ClientMessage relayed from another instance via the
// pub/sub bridge.
type RemoteMessage struct {
	Msg proto.ClientMessage
}

func (Join) isCommand()          {}
func (LocalMessage) isCommand()  {}
func (RemoteMessage) isCommand() {}
