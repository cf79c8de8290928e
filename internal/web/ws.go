package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleCollectWS streams workflow snapshots to the collect page. The
// current snapshot is sent first so a reconnecting page catches up.
func (s *Server) handleCollectWS(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.get(w, r)
	conn, err := upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	snap := sess.wf.Snapshot()
	initial, err := json.Marshal(event{Type: "snapshot", Snapshot: &snap})
	if err != nil {
		s.logger.Error("failed to marshal snapshot", "error", err)
		_ = conn.Close()
		return
	}
	sub := sess.subscribe(initial)

	go writePump(conn, sub)
	readPump(conn, func() { sess.unsubscribe(sub) }, s)
}

// readPump discards client messages and keeps the read deadline alive
// until the connection drops.
func readPump(conn *websocket.Conn, done func(), s *Server) {
	defer func() {
		done()
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
