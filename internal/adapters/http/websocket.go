package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geofotos/internal/adapters/nats"
	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to completions.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Geohash string `json:"geohash"` // region prefix filter (optional, "" = everywhere)
}

// completionSubject maps a geohash prefix to the NATS subject that carries
// it. Prefixes shorter than the subject precision subscribe to everything
// and are filtered per message.
func completionSubject(prefix string) string {
	if len(prefix) < 4 {
		return natsadapter.SubjectDoneWildcard
	}
	return natsadapter.DoneSubject(prefix)
}

// matchesGeohash reports whether a completion payload lies under prefix.
func matchesGeohash(data []byte, prefix string) bool {
	if prefix == "" {
		return true
	}
	var ev struct {
		Geohash string `json:"geohash"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return false
	}
	return strings.HasPrefix(ev.Geohash, prefix)
}

// WebSocketHandler returns a handler that relays enrichment completions
// from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","geohash":"6gkz"}
// Nothing is relayed until the first subscribe; an empty geohash means
// every region.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // geohash prefix -> subscription

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

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			prefix := strings.ToLower(strings.TrimSpace(m.Geohash))

			switch m.Action {
			case "subscribe":
				if nc == nil {
					_ = writeJSON(map[string]string{"error": "live updates are not available"})
					continue
				}
				if _, exists := subs[prefix]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "geohash": prefix})
					continue
				}
				s, err := nc.Subscribe(completionSubject(prefix), func(msg *nats.Msg) {
					if matchesGeohash(msg.Data, prefix) {
						_ = writeJSON(json.RawMessage(msg.Data))
					}
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[prefix] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "geohash": prefix})

			case "unsubscribe":
				if s, exists := subs[prefix]; exists {
					_ = s.Unsubscribe()
					delete(subs, prefix)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "geohash": prefix})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + prefix})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
