// Package spectate serves the live mood and annotated preview frames to
// remote viewers: mood events over a websocket, frames over WebRTC data
// channels negotiated on the same socket.
package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	log "github.com/sirupsen/logrus"

	"github.com/junsooki/moodballoon/internal/emotion"
	"github.com/junsooki/moodballoon/internal/mood"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // signaling only, frames go over WebRTC
	sendBuffer     = 32
)

// MoodReader is the read side of the shared mood slot.
type MoodReader interface {
	Read() mood.Mood
}

// Option configures a Hub.
type Option func(*Hub)

// WithICEServers overrides DefaultICEServers. An empty list means host
// candidates only.
func WithICEServers(servers []webrtc.ICEServer) Option {
	return func(h *Hub) { h.ice = servers }
}

// Hub tracks connected viewers and fans mood changes and frames out to them.
type Hub struct {
	moods    MoodReader
	ice      []webrtc.ICEServer
	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	viewers map[string]*viewer
	last    *mood.Mood
}

// NewHub builds the hub and its HTTP routes.
func NewHub(moods MoodReader, opts ...Option) *Hub {
	h := &Hub{
		moods:   moods,
		ice:     DefaultICEServers,
		viewers: make(map[string]*viewer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())
	r.GET("/healthz", h.handleHealth)
	r.GET("/api/mood", h.handleMood)
	r.GET("/ws", h.handleWS)
	h.engine = r
	return h
}

// Handler exposes the routes for embedding or tests.
func (h *Hub) Handler() http.Handler {
	return h.engine
}

// Serve listens on addr until ctx is done, then disconnects every viewer.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	defer h.closeAll()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Spectator feed listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Observe publishes the slot's current mood. Chain it after the slot's own
// observer so the slot already holds the new label.
func (h *Hub) Observe(emotion.Label) {
	h.Publish(h.moods.Read())
}

// Publish broadcasts m when its label differs from the last one sent.
func (h *Hub) Publish(m mood.Mood) {
	h.mu.Lock()
	if h.last != nil && h.last.Label == m.Label {
		h.mu.Unlock()
		return
	}
	h.last = &m
	targets := h.snapshot()
	h.mu.Unlock()

	upd := NewMoodUpdate(m)
	for _, v := range targets {
		v.enqueue(Message{Type: TypeMood, Mood: &upd, Timestamp: m.Updated.UnixMilli()})
	}
	log.WithFields(log.Fields{"label": m.Label, "viewers": len(targets)}).Debug("Mood published")
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Watching reports whether any viewer has an open frames channel.
func (h *Hub) Watching() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, v := range h.viewers {
		if s := v.getSession(); s != nil && s.open() {
			return true
		}
	}
	return false
}

// SendFrame sends an encoded frame to every viewer with an open frames
// channel and returns how many received it.
func (h *Hub) SendFrame(data []byte) int {
	h.mu.RLock()
	targets := h.snapshot()
	h.mu.RUnlock()

	sent := 0
	for _, v := range targets {
		s := v.getSession()
		if s == nil {
			continue
		}
		if err := s.sendFrame(data); err != nil {
			if !errors.Is(err, errNoChannel) {
				log.WithField("viewer", v.id).WithError(err).Debug("Send frame")
			}
			continue
		}
		sent++
	}
	return sent
}

// snapshot must be called with h.mu held.
func (h *Hub) snapshot() []*viewer {
	out := make([]*viewer, 0, len(h.viewers))
	for _, v := range h.viewers {
		out = append(out, v)
	}
	return out
}

func (h *Hub) register(v *viewer) {
	h.mu.Lock()
	h.viewers[v.id] = v
	n := len(h.viewers)
	h.mu.Unlock()
	log.WithFields(log.Fields{"viewer": v.id, "viewers": n}).Info("Viewer connected")
}

func (h *Hub) unregister(v *viewer) {
	h.mu.Lock()
	delete(h.viewers, v.id)
	n := len(h.viewers)
	h.mu.Unlock()
	v.shutdown()
	log.WithFields(log.Fields{"viewer": v.id, "viewers": n}).Info("Viewer disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	targets := h.snapshot()
	h.mu.Unlock()
	for _, v := range targets {
		v.conn.Close()
	}
}

// --- HTTP handlers ---

func (h *Hub) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "viewers": h.Viewers()})
}

func (h *Hub) handleMood(c *gin.Context) {
	c.JSON(http.StatusOK, NewMoodUpdate(h.moods.Read()))
}

func (h *Hub) handleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	v := &viewer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	h.register(v)

	upd := NewMoodUpdate(h.moods.Read())
	v.enqueue(Message{Type: TypeWelcome, ID: v.id})
	v.enqueue(Message{Type: TypeMood, Mood: &upd})

	go v.writePump()
	v.readPump(h)
}

// viewer is one websocket connection. Only writePump writes to conn.
type viewer struct {
	id   string
	conn *websocket.Conn
	send chan Message

	mu      sync.Mutex
	closed  bool
	session *session
}

func (v *viewer) enqueue(msg Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.send <- msg:
	default:
		log.WithField("viewer", v.id).Warn("Viewer send buffer full, dropping message")
	}
}

func (v *viewer) getSession() *session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

func (v *viewer) shutdown() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	close(v.send)
	s := v.session
	v.session = nil
	v.mu.Unlock()

	if s != nil {
		s.close()
	}
}

func (v *viewer) readPump(h *Hub) {
	defer func() {
		h.unregister(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := v.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("viewer", v.id).WithError(err).Debug("Websocket read")
			}
			return
		}
		v.dispatch(h, msg)
	}
}

func (v *viewer) dispatch(h *Hub, msg Message) {
	logger := log.WithField("viewer", v.id)
	switch msg.Type {
	case TypeOffer:
		answer, err := v.handleOffer(h, msg.Payload)
		if err != nil {
			logger.WithError(err).Warn("Handle offer")
			v.enqueue(Message{Type: TypeError, Msg: err.Error()})
			return
		}
		v.enqueue(Message{Type: TypeAnswer, Payload: answer})
	case TypeICECandidate:
		s := v.getSession()
		if s == nil {
			v.enqueue(Message{Type: TypeError, Msg: "ice candidate before offer"})
			return
		}
		if err := s.addCandidate(msg.Payload); err != nil {
			logger.WithError(err).Warn("Add ICE candidate")
		}
	case TypePing:
		v.enqueue(Message{Type: TypePong, Timestamp: time.Now().UnixMilli()})
	default:
		v.enqueue(Message{Type: TypeError, Msg: "unknown message type: " + msg.Type})
	}
}

func (v *viewer) handleOffer(h *Hub, payload json.RawMessage) (json.RawMessage, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, errors.New("viewer closed")
	}
	if v.session != nil {
		v.session.close()
		v.session = nil
	}
	v.mu.Unlock()

	s, err := newSession(v.id, h.ice)
	if err != nil {
		return nil, err
	}
	answer, err := s.answer(payload)
	if err != nil {
		s.close()
		return nil, err
	}

	v.mu.Lock()
	v.session = s
	v.mu.Unlock()
	return answer, nil
}

func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
