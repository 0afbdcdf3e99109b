package main

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket connection. Writes go through the buffered send
// channel so a slow reader never blocks a room; full buffers drop the frame
// and the next state broadcast resyncs the client.
type Client struct {
	identity Identity
	send     chan []byte

	mu     sync.Mutex
	room   *RoomSession
	closed bool
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewClient(identity Identity) *Client {
	return &Client{identity: identity, send: make(chan []byte, 16)}
}

func (c *Client) Identity() Identity { return c.identity }

func (c *Client) Room() *RoomSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) setRoom(room *RoomSession) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// Close shuts the send channel exactly once.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- data:
	default:
	}
	c.mu.Unlock()
}

func (c *Client) sendEvent(eventType string, payload any) {
	if payload == nil {
		c.sendJSON(wsMessage{Type: eventType})
		return
	}
	c.sendJSON(wsMessage{Type: eventType, Payload: mustMarshal(payload)})
}
