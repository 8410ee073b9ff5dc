package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/datenai/datalab/internal/stream"
)

// sseHandler streams one execution's events as server-sent events: cached
// history first, then live events, one JSON object per message, in publish
// order. The response ends when the stream closes; there is no explicit
// end-marker message.
func (s *Server) sseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		events, err := s.bus.Subscribe(r.Context(), id)
		if errors.Is(err, stream.ErrStreamNotFound) {
			writeError(w, http.StatusNotFound, "stream not found or not started yet")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		for event := range events {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
