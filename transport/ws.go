// Package transport implements the client stream endpoint: upgrading an
// HTTP request to a WebSocket, performing the initial document sync, and
// pumping frames between the socket and the document's actor.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Polqt/crdtcollab/actor"
	"github.com/Polqt/crdtcollab/proto"
	"github.com/Polqt/crdtcollab/registry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Collaborative editing clients are expected to come from any origin
	// configured by the deployment's own reverse proxy; origin policy is
	// handled there, not here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades GET /ws/{doc_id} requests and bridges the resulting
// WebSocket connection with the document registry.
type Handler struct {
	registry *registry.Registry
}

// NewHandler creates a Handler backed by reg.
func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{registry: reg}
}

// ServeHTTP upgrades the connection, sends the initial document snapshot,
// then bridges the socket with the document's actor until either side
// disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("doc_id")
	if docID == "" {
		http.Error(w, "missing document id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "doc_id", docID, "err", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := slog.With("doc_id", docID, "session_id", sessionID)

	handle := h.registry.GetOrCreate(docID)

	// 1. Resolve a one-shot snapshot and forward it as the INIT frame.
	resp := make(chan []byte, 1)
	select {
	case handle.Mailbox <- actor.Join{Response: resp}:
	case <-r.Context().Done():
		return
	}
	var snapshot []byte
	select {
	case snapshot = <-resp:
	case <-time.After(5 * time.Second):
		logger.Warn("timed out waiting for join snapshot")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, append([]byte("INIT:"), snapshot...)); err != nil {
		logger.Warn("failed to send initial sync frame", "err", err)
		return
	}

	// 2. Subscribe to the document's broadcast channel and spawn the send
	// pump; 3. spawn the receive pump. Either exiting tears down the other.
	subID, subCh := handle.Fanout.Subscribe()
	defer handle.Fanout.Unsubscribe(subID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{}, 2)
	go sendPump(ctx, conn, subCh, logger, done)
	go receivePump(ctx, conn, handle.Mailbox, logger, done)

	<-done
	cancel()
}

// sendPump forwards broadcast frames to the client as text frames until the
// subscription channel closes (client gone, or dropped for lag) or ctx is
// cancelled.
func sendPump(ctx context.Context, conn *websocket.Conn, sub <-chan []byte, logger *slog.Logger, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				logger.Info("broadcast subscription closed, disconnecting")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("send pump write failed", "err", err)
				return
			}
		}
	}
}

// receivePump reads client frames, decodes them as ClientMessage, and
// forwards each to the actor's mailbox as a LocalMessage. Unknown or
// undecodable frames are silently dropped rather than disconnecting the
// client over one bad message.
func receivePump(ctx context.Context, conn *websocket.Conn, mailbox chan<- actor.Command, logger *slog.Logger, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := proto.Decode(payload)
		if err != nil {
			logger.Warn("dropping malformed client frame", "err", err)
			continue
		}
		select {
		case mailbox <- actor.LocalMessage{Msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}
