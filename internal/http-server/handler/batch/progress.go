package batch

import (
	"net/http"
	"time"

	"print-packager/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamProgress upgrades to a websocket and pushes progress of one batch
// until it completes or the client goes away.
func (h *BatchHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")

	// Subscribe before reading the stored state so no update slips between.
	updates, unsubscribe := h.hub.Subscribe(batchID)
	defer unsubscribe()

	b, err := h.usecase.Get(r.Context(), batchID)
	if err != nil {
		h.handleError(w, err, "Failed to get batch")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("batch_id", batchID).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	snapshot := b.Progress
	if b.Status == domain.StatusCompleted || b.Status == domain.StatusFailed || b.Status == domain.StatusDeleted {
		snapshot.IsComplete = true
	}
	if err := h.writeProgress(conn, snapshot); err != nil || snapshot.IsComplete {
		h.closeNormal(conn)
		return
	}

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			if err := h.writeProgress(conn, p); err != nil {
				h.logger.Debug().Err(err).Str("batch_id", batchID).Msg("Progress client gone")
				return
			}
			if p.IsComplete {
				h.closeNormal(conn)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are handled and a
// closed connection is noticed.
func (h *BatchHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *BatchHandler) writeProgress(conn *websocket.Conn, p domain.Progress) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(p)
}

func (h *BatchHandler) closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
