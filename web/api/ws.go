package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/datenai/datalab/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHandler streams one execution's events over a websocket, for clients
// that cannot hold an SSE response open. Same delivery contract as SSE:
// cached history, then live events, connection closed when the stream ends.
func (s *Server) wsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, err := s.bus.Subscribe(ctx, id)
		if errors.Is(err, stream.ErrStreamNotFound) {
			writeError(w, http.StatusNotFound, "stream not found or not started yet")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Drain reads so close frames from the client cancel the follower
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		for event := range events {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}

		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
