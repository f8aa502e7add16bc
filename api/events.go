package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/coder/websocket"
)

const (
	eventInterval   = 1 * time.Second
	eventWriteGrace = 5 * time.Second
)

// handleEvents upgrades the request to a websocket and pushes the playback
// status snapshot once per second until the client disconnects or the server
// shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warnf("events: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(eventInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "shutting down")
			return
		case <-ticker.C:
			payload, err := json.Marshal(s.player.Status())
			if err != nil {
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, eventWriteGrace)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
