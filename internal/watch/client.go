// Package watch is the remote spectator: it follows a moodballoon spectator
// feed and shows the preview frames with the live mood.
package watch

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/spectate"
)

// Handler callbacks for incoming spectator messages. Called from the read
// goroutine.
type Handler struct {
	OnWelcome func(id string)
	OnMood    func(m spectate.MoodUpdate)
	OnAnswer  func(payload json.RawMessage)
	OnError   func(msg string)
}

// Client is the websocket side of a spectator connection.
type Client struct {
	url     string
	handler Handler

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a client for the feed at url (ws://host:port/ws).
func NewClient(url string, handler Handler) *Client {
	return &Client{
		url:     url,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Connect dials the feed and starts reading messages.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("spectator dial: %w", err)
	}
	c.conn = conn

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer to the feed.
func (c *Client) SendOffer(payload json.RawMessage) error {
	return c.send(spectate.Message{Type: spectate.TypeOffer, Payload: payload})
}

// SendICECandidate sends a local ICE candidate to the feed.
func (c *Client) SendICECandidate(payload json.RawMessage) error {
	return c.send(spectate.Message{Type: spectate.TypeICECandidate, Payload: payload})
}

func (c *Client) send(msg spectate.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return fmt.Errorf("not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg spectate.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				log.WithError(err).Warn("Spectator read error")
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg spectate.Message) {
	switch msg.Type {
	case spectate.TypeWelcome:
		if c.handler.OnWelcome != nil {
			c.handler.OnWelcome(msg.ID)
		}
	case spectate.TypeMood:
		if c.handler.OnMood != nil && msg.Mood != nil {
			c.handler.OnMood(*msg.Mood)
		}
	case spectate.TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.Payload)
		}
	case spectate.TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case spectate.TypePong:
		// heartbeat response, nothing to do
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(spectate.Message{Type: spectate.TypePing})
		}
	}
}
