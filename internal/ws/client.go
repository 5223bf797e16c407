package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live websocket connection for a user. A user may hold
// several clients at once (multiple tabs or devices).
type Client struct {
	ID          string
	UserID      int
	ConnectedAt time.Time

	conn *websocket.Conn
	// gorilla conns support one concurrent writer; personal and group
	// channels can broadcast to the same client at the same time.
	writeMu sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(userID int, conn *websocket.Conn) *Client {
	return &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// Send writes one text frame to the client.
func (c *Client) Send(payload []byte) error {
	if c.conn == nil {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
