package httpapi

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"greenpulse/internal/stream"
)

// registerStream mounts the live snapshot feed at /ws/stream.
func registerStream(app *fiber.App, hub *stream.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/stream", websocket.New(streamConn(hub)))
}

func streamConn(hub *stream.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		sub := newConnSubscriber(conn)
		hub.Register(sub)
		defer hub.Unregister(sub.ID())

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "ping" {
				if err := sub.Send([]byte("pong")); err != nil {
					return
				}
			}
		}
	}
}

// connSubscriber adapts a websocket connection to the hub. The mutex
// serializes hub broadcasts with pong replies; the connection allows only
// one concurrent writer.
type connSubscriber struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnSubscriber(conn *websocket.Conn) *connSubscriber {
	return &connSubscriber{id: uuid.NewString(), conn: conn}
}

func (s *connSubscriber) ID() string { return s.id }

func (s *connSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
