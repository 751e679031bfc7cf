package stream

import (
	"encoding/json"

	"backend-fittrack/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SnapshotLookup returns the current snapshot of a session, if it exists.
type SnapshotLookup func(sessionID string) (workout.Snapshot, bool)

// RegisterRoutes exposes the live snapshot socket. When lookup is set, a new
// watcher first receives the session's current snapshot.
func RegisterRoutes(r fiber.Router, hub *Hub, lookup SnapshotLookup) {
	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)

		done := make(chan struct{})
		go func() {
			defer close(done)
			if lookup != nil {
				if s, ok := lookup(sessionID); ok {
					if err := writeSnapshot(c, s); err != nil {
						return
					}
				}
			}
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}

// writeSnapshot sends s on its own. An encoding failure is skipped rather
// than sent as an empty frame.
func writeSnapshot(c *websocket.Conn, s workout.Snapshot) error {
	payload, err := json.Marshal(Message{Snapshot: s, Display: s.Display()})
	if err != nil {
		return nil
	}
	return c.WriteMessage(websocket.TextMessage, payload)
}
