package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/nearbyplaces/internal/core/domain"
	"github.com/samirrijal/nearbyplaces/internal/core/usecases"
	"github.com/samirrijal/nearbyplaces/internal/pkg/metrics"
)

// WebSocketHandler returns a handler that upgrades to WebSocket and answers
// chat messages on the open connection.
// Clients send JSON: {"text":"find a cafe","location":{"lat":43.26,"lon":-2.93}}
// Each message gets exactly one ChatReply back.
func WebSocketHandler(chat *usecases.ChatService, timeout time.Duration) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Debug("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var req domain.ChatRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			reply := chat.Handle(ctx, req)
			cancel()

			metrics.ChatReplies.WithLabelValues(string(reply.Kind), "ws").Inc()
			if err := writeJSON(reply); err != nil {
				break
			}
		}

		close(done)
		slog.Debug("ws client disconnected", "remote", remoteAddr)
	}
}
