package ws

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	idleWait  = 60 * time.Second
	// pingEvery stays below idleWait so a live page always answers in time.
	pingEvery = idleWait * 9 / 10

	// The page only sends control frames.
	maxInbound = 512
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 4096,
	// The page is served from the Telegram WebApp origin; CORS on the API
	// routes is the only origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one open mini-app page. Every event the hub queues on send is
// written as its own text frame holding one JSON Event.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	id       uuid.UUID
	clientID string
	send     chan []byte
}

func (c *Client) logger() *zap.Logger {
	return c.hub.log.With(zap.String("client_id", c.clientID), zap.Stringer("conn_id", c.id))
}

// watch blocks until the page disconnects, then leaves the hub. Anything
// the page writes is discarded; pongs push the idle deadline forward.
func (c *Client) watch() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idleWait)) }
	if err := extend(); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger().Warn("websocket closed", zap.Error(err))
			}
			return
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			return
		}
	}
}

// deliver writes queued events and keepalive pings until the hub closes
// send or a write fails.
func (c *Client) deliver() {
	keepalive := time.NewTicker(pingEvery)
	defer func() {
		keepalive.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, open := <-c.send:
			if !open {
				// Dropped by the hub; the page refetches the cart when it reconnects.
				c.frame(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.frame(websocket.TextMessage, event); err != nil {
				c.logger().Debug("websocket write", zap.Error(err))
				return
			}
		case <-keepalive.C:
			if err := c.frame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) frame(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// ServeWS upgrades GET /ws/clients/{cid} and registers the connection.
// valid reports whether cid is an acceptable client id.
func ServeWS(hub *Hub, valid func(string) bool, w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "cid")
	if valid != nil && !valid(clientID) {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade", zap.String("client_id", clientID), zap.Error(err))
		return
	}

	c := &Client{
		hub:      hub,
		conn:     conn,
		id:       uuid.New(),
		clientID: clientID,
		send:     make(chan []byte, sendBuffer),
	}
	hub.register <- c

	go c.deliver()
	go c.watch()
}
