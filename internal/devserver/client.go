package devserver

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arko-chat/pwashell/internal/bridge"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 1 << 20
)

// frame is what travels server to page: exactly one of Response or Event.
type frame struct {
	Kind     string           `json:"kind"`
	Response *bridge.Response `json:"response,omitempty"`
	Event    *bridge.Event    `json:"event,omitempty"`
}

func responseFrame(resp bridge.Response) ([]byte, error) {
	return json.Marshal(frame{Kind: "response", Response: &resp})
}

func eventFrame(ev bridge.Event) ([]byte, error) {
	return json.Marshal(frame{Kind: "event", Event: &ev})
}

// Client is one connected page.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	hub  *Hub
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
		hub:  hub,
	}
}

// Emit sends an event to this page only. Events raised while serving one
// page's call go back to that page.
func (c *Client) Emit(ev bridge.Event) error {
	data, err := eventFrame(ev)
	if err != nil {
		return err
	}
	c.hub.SendTo(c, data)
	return nil
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump blocks until the connection drops, handing every text frame to
// onMessage.
func (c *Client) ReadPump(onMessage func(raw []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		kind, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage {
			continue
		}
		onMessage(raw)
	}
}
