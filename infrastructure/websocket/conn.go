package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn adapts a gorilla websocket connection to the dispatch loop's
// contract.Connection. Writes are serialized by a mutex and bounded by a
// deadline; there is no outbound queue — a write either completes in time or
// the connection is considered dead.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

func (c *Conn) Deliver(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// ReadEvent returns the next text frame. Non-text frames are skipped.
func (c *Conn) ReadEvent() ([]byte, error) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
