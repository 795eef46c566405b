package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamKeepalive bounds how long a quiet stream goes without a comment line.
const streamKeepalive = 15 * time.Second

// handleStream pushes store updates to the client as server-sent events.
// Each event carries the symbol and the record category that changed; the
// client re-fetches whatever it cares about.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id, updates := s.store.Watch()
	defer s.store.Unwatch(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// SSE connections outlive the server's write timeout.
	rc := http.NewResponseController(w)
	rc.SetWriteDeadline(time.Time{})

	fmt.Fprintf(w, ": connected active=%s\n\n", s.store.ActiveSymbol())
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case u, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]string{
				"symbol": u.Symbol,
				"kind":   string(u.Kind),
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Kind, data)
			flusher.Flush()
		}
	}
}
