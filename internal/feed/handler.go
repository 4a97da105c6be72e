package feed

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"analysis-backend/internal/shared/telemetry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the dashboard origin; the handler sits
	// behind the shared CORS middleware, so origin checks happen there.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Event
}

// Handler upgrades the connection and attaches it to the hub. The dashboard
// supplies its own client id in the path; absent one, the server assigns one.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.Param("client_id")
		if clientID == "" {
			clientID = uuid.NewString()
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			telemetry.Error("feed.upgrade_failed", map[string]any{"error": err.Error()})
			return
		}
		cl := &client{
			id:   clientID,
			hub:  hub,
			conn: conn,
			send: make(chan Event, sendBufferSize),
		}
		hub.register <- cl
		go cl.writeLoop()
		go cl.readLoop()
	}
}

// readLoop discards inbound frames; the feed is push-only. Its job is to
// notice client disconnects and keep the pong deadline fresh.
func (c *client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
