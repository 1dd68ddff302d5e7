package httpserver

import (
	"fmt"
	"net/http"
	"time"
)

var heartbeat = 25 * time.Second

// apiEvents emite un evento SSE por cada topic notificado para que el tablero
// recargue la vista afectada.
func (s *Server) apiEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if s.events == nil {
		writeMsg(w, 503, "eventos no disponibles")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMsg(w, 500, "streaming no soportado")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": conectado\n\n")
	flusher.Flush()

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)
	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case topic, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: {\"topic\":%q}\n\n", topic, topic)
			flusher.Flush()
		case <-tick.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
