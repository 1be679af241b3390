package actor

import (
	"context"
	"log/slog"

	"github.com/Polqt/crdtcollab/proto"
)

// StartBridge subscribes to docID's cross-instance channel and forwards
// every message it receives into mailbox as a RemoteMessage. It shares a
// mailbox with the actor, not state — all RGA mutation stays on the
// actor's single goroutine.
//
// If the subscription itself fails (pub/sub unreachable), the bridge logs
// and returns without starting: the actor continues running, just without
// cross-instance replication. This is graceful degradation to
// single-instance correctness, not a fatal error.
func StartBridge(ctx context.Context, docID string, store Store, mailbox chan<- Command) {
	ch, cancel, err := store.Subscribe(ctx, docID)
	if err != nil {
		slog.Warn("pub/sub bridge: subscribe failed, running without cross-instance replication",
			"doc_id", docID, "err", err)
		return
	}

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				msg, err := proto.Decode(payload)
				if err != nil {
					slog.Warn("pub/sub bridge: dropping unparseable message", "doc_id", docID, "err", err)
					continue
				}
				select {
				case mailbox <- RemoteMessage{Msg: msg}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}
