package actor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Polqt/crdtcollab/crdt"
	"github.com/Polqt/crdtcollab/proto"
)

// persistInterval is how often a dirty document is flushed to the store.
const persistInterval = 2 * time.Second

// Actor is the single-writer owner of one document's RGA. It holds the
// mutable document, a mailbox of commands, a fan-out handle, a persistence
// handle, and a dirty flag — nothing else touches the document directly.
type Actor struct {
	docID   string
	doc     *crdt.Document
	mailbox chan Command
	fanout  *Fanout
	store   Store
	dirty   bool
	logger  *slog.Logger
}

// New creates an actor for docID. The caller is responsible for starting
// Run in its own goroutine and for spawning the pub/sub bridge (see
// StartBridge) with the same mailbox.
func New(docID string, fanout *Fanout, store Store, mailboxCap int) *Actor {
	return &Actor{
		docID:   docID,
		doc:     crdt.NewDocument(),
		mailbox: make(chan Command, mailboxCap),
		fanout:  fanout,
		store:   store,
		logger:  slog.With("doc_id", docID),
	}
}

// Mailbox returns the send side of the actor's command channel.
func (a *Actor) Mailbox() chan<- Command {
	return a.mailbox
}

// Run is the actor's main loop: a select across the mailbox and the
// persistence timer. It blocks until ctx is cancelled. The base design has
// no other cancellation path — an actor runs for the lifetime of the
// process once created.
func (a *Actor) Run(ctx context.Context) {
	a.load(ctx)

	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.mailbox:
			a.handle(ctx, cmd)
		case <-ticker.C:
			a.persist(ctx)
		}
	}
}

func (a *Actor) load(ctx context.Context) {
	b, err := a.store.Load(ctx, a.docID)
	if err != nil {
		if err != ErrNotFound {
			a.logger.Warn("snapshot load failed, starting fresh", "err", err)
		}
		return
	}
	doc := crdt.NewDocument()
	if err := json.Unmarshal(b, doc); err != nil {
		a.logger.Warn("snapshot decode failed, starting fresh", "err", err)
		return
	}
	a.doc = doc
}

func (a *Actor) persist(ctx context.Context) {
	if !a.dirty {
		return
	}
	b, err := json.Marshal(a.doc)
	if err != nil {
		a.logger.Error("snapshot encode failed", "err", err)
		return
	}
	if err := a.store.Save(ctx, a.docID, b); err != nil {
		a.logger.Warn("snapshot save failed, will retry next tick", "err", err)
		return
	}
	a.dirty = false
}

func (a *Actor) handle(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case Join:
		b, err := json.Marshal(a.doc)
		if err != nil {
			a.logger.Error("join snapshot encode failed", "err", err)
			close(c.Response)
			return
		}
		c.Response <- b
	case LocalMessage:
		a.apply(ctx, c.Msg, true)
	case RemoteMessage:
		a.apply(ctx, c.Msg, false)
	default:
		a.logger.Warn("unknown mailbox command", "type", cmd)
	}
}

// apply dispatches one ClientMessage against the document: which mutations
// happen, whether the dirty flag is set, whether it is broadcast locally,
// and — only for local messages — whether it is republished cross-instance.
// A remote message is never republished; that single rule, combined with
// dedup-by-id on insert, is what keeps the cross-instance loop cycle-free.
func (a *Actor) apply(ctx context.Context, msg proto.ClientMessage, local bool) {
	broadcast := false

	switch msg.Type {
	case proto.TypeInsert:
		if msg.Node == nil {
			a.logger.Warn("insert message missing node")
			return
		}
		if a.doc.Contains(msg.Node.ID) {
			return // duplicate: no mutation, no broadcast, no publish
		}
		if err := a.doc.Insert(*msg.Node); err != nil {
			a.logger.Warn("causality violation, dropping insert", "id", msg.Node.ID, "err", err)
			return
		}
		a.dirty = true
		broadcast = true

	case proto.TypeDelete:
		if msg.ID == nil {
			a.logger.Warn("delete message missing id")
			return
		}
		a.doc.Delete(*msg.ID)
		a.dirty = true
		broadcast = true

	case proto.TypeCursor:
		// Ephemeral presence: never mutates the RGA, never persisted.
		broadcast = true

	case proto.TypeLanguage:
		a.doc.Language = msg.Name
		a.dirty = true
		broadcast = true

	default:
		a.logger.Warn("unknown message type", "type", msg.Type)
		return
	}

	if !broadcast {
		return
	}

	payload, err := msg.Encode()
	if err != nil {
		a.logger.Error("broadcast encode failed", "err", err)
		return
	}
	a.fanout.Publish(payload)

	if local {
		if err := a.store.Publish(ctx, a.docID, payload); err != nil {
			a.logger.Warn("cross-instance publish failed", "err", err)
		}
	}
}
