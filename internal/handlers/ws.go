package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hivedesk/hivedesk-backend/internal/middleware"
	"github.com/hivedesk/hivedesk-backend/internal/realtime"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front.
		return true
	},
}

const (
	wsReadDeadline  = 90 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingInterval  = 30 * time.Second
)

// WSHandler is the realtime gateway. One connection carries every event
// addressed to the authenticated user; clients send nothing but control
// frames.
type WSHandler struct {
	sessions *services.SessionService
	hub      *realtime.Hub
}

func NewWSHandler(sessions *services.SessionService, hub *realtime.Hub) *WSHandler {
	return &WSHandler{sessions: sessions, hub: hub}
}

// Serve handles GET /ws. Authentication uses the session token from the
// Authorization header or the token query parameter.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	p, err := h.sessions.Resolve(r.Context(), middleware.BearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	eventsCh, unsubscribe := h.hub.Subscribe(p.ID)
	defer unsubscribe()

	done := make(chan struct{})

	// Writer: forward hub events and keep the connection alive with pings.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()

		for {
			select {
			case evt, ok := <-eventsCh:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
				if err := conn.WriteJSON(evt); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reader: drain control frames and detect disconnect.
	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			close(done)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	}
}
