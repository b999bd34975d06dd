package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"dwellwatch/internal/logger"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHub keeps the set of connected viewers.
type LiveHub interface {
	Register(conn *websocket.Conn, session string)
	Unregister(conn *websocket.Conn)
}

// LiveWebsocketHandler streams per-frame status to a viewer. The optional
// "session" query parameter limits the stream to one session.
func LiveWebsocketHandler(hub LiveHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := r.URL.Query().Get("session")
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection, session)
		defer hub.Unregister(connection)

		logger.Info("Viewer connected (session filter %q)", session)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
