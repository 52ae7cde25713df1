package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vfswatch/internal/event"
)

// EventsHandler streams watch notifications to websocket clients.
type EventsHandler struct {
	Bus            *event.Bus[event.Notification]
	AuthToken      string
	AllowedOrigins []string
}

type notificationPayload struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind,omitempty"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !validateToken(r, h.AuthToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if h.Bus == nil {
		http.Error(w, "watch events unavailable", http.StatusInternalServerError)
		return
	}
	output, cancel := h.Bus.Subscribe()
	defer cancel()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, h.AllowedOrigins)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case notification, ok := <-output:
				if !ok {
					return
				}
				payload := notificationPayload{
					Type:      notification.EventType,
					Kind:      notification.Kind,
					Path:      notification.Path,
					Timestamp: notification.OccurredAt,
				}
				if payload.Timestamp.IsZero() {
					payload.Timestamp = time.Now().UTC()
				}
				if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
					return
				}
				if err := conn.WriteJSON(payload); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
