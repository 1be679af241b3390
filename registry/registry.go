// Package registry maps document ids to running document actors, spawning
// one lazily on first access, and bridges each actor to the cross-instance
// pub/sub channel.
package registry

import (
	"context"
	"sync"

	"github.com/Polqt/crdtcollab/actor"
)

// mailboxCapacity and broadcastBufferSize are the bound shared by the actor
// mailbox and the broadcast fanout buffer: generous enough to absorb a
// burst without blocking, small enough that a stuck consumer is noticed
// and dropped quickly.
const (
	mailboxCapacity     = 100
	broadcastBufferSize = 100
)

// Handle is everything a connection handler needs to talk to one
// document's actor: where to send commands, and where to subscribe for
// broadcast frames.
type Handle struct {
	Mailbox chan<- actor.Command
	Fanout  *actor.Fanout
}

// Registry is the concurrent document-id → Handle map. Entries are never
// evicted during a process's lifetime — the simplest policy, bounded by
// the number of distinct documents touched.
//
// Registry owns a single ctx spanning the process's lifetime. Actors and
// bridges run under that ctx, not under any one connection's request
// context — a document must keep running after the client that happened
// to create it disconnects.
type Registry struct {
	mu    sync.Mutex
	docs  map[string]*Handle
	store actor.Store
	ctx   context.Context
}

// New creates a registry backed by store (the shared snapshot + pub/sub
// service). ctx bounds the lifetime of every actor and bridge the registry
// spawns; cancelling it shuts the whole fleet of documents down.
func New(ctx context.Context, store actor.Store) *Registry {
	return &Registry{docs: make(map[string]*Handle), store: store, ctx: ctx}
}

// GetOrCreate returns the handle for docID, spawning its actor and pub/sub
// bridge on first access. Lookup and creation happen under the same lock
// so two concurrent callers can never double-spawn an actor for the same
// document — a double-spawn would have two actors contending for the same
// snapshot key and pub/sub channel, violating the single-writer invariant.
func (r *Registry) GetOrCreate(docID string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.docs[docID]; ok {
		return h
	}

	fanout := actor.NewFanout(broadcastBufferSize)
	a := actor.New(docID, fanout, r.store, mailboxCapacity)
	mailbox := a.Mailbox()

	go a.Run(r.ctx)
	actor.StartBridge(r.ctx, docID, r.store, mailbox)

	h := &Handle{Mailbox: mailbox, Fanout: fanout}
	r.docs[docID] = h
	return h
}
