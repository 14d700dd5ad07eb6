package notifications

import (
	"encoding/json"
	"log"
	"time"

	"mealbridge/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second

	// A peer that hasn't ponged within this window is considered gone.
	pongTimeout  = 60 * time.Second
	pingInterval = (pongTimeout * 9) / 10

	inboundLimit   = 16384
	sendBufferSize = 256
)

// WSHub is the minimal hub surface a Client needs: somewhere to report its
// own teardown, and a label for metrics.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client wraps one websocket connection. Outbound traffic goes through the
// buffered Send channel so hubs never block on a slow peer; inbound frames
// are handed to IncomingHandler when one is set.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	UserID uint

	Send chan []byte

	IncomingHandler func(*Client, []byte)
}

func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// ReadPump consumes inbound frames until the connection dies, then
// unregisters the client. Run it on the connection's own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(inboundLimit)
	c.resetReadDeadline()
	c.Conn.SetPongHandler(func(string) error {
		c.resetReadDeadline()
		return nil
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read (user %d): %v", c.UserID, err)
			}
			return
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, frame)
		}
	}
}

func (c *Client) resetReadDeadline() {
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongTimeout))
}

// WritePump drains the Send channel onto the wire and keeps the connection
// alive with periodic pings. It exits when Send is closed or a write fails.
func (c *Client) WritePump() {
	pings := time.NewTicker(pingInterval)
	defer func() {
		pings.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case frame, open := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !open {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-pings.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend enqueues a frame without ever blocking the caller. When the buffer
// is full the frame is dropped and the peer gets a gap marker so it can
// re-fetch; sends on an already-closed channel are swallowed and counted.
func (c *Client) TrySend(frame []byte) {
	defer func() {
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- frame:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
	log.Printf("websocket user %d (%s): send buffer full, frame dropped", c.UserID, c.Hub.Name())

	gap, err := json.Marshal(Envelope{
		Type:    "messages_dropped",
		Payload: map[string]string{"reason": "buffer_full"},
	})
	if err != nil {
		return
	}
	select {
	case c.Send <- gap:
	default:
	}
}
