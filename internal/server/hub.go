package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/prefs"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 256
)

// Message types sent to browsers.
const (
	MessageReload = "reload"
	MessageLocale = "locale"
	MessageTheme  = "theme"
)

// Message is pushed to every connected browser.
type Message struct {
	Type string `json:"type"`
	// Paths lists the changed content files of a reload.
	Paths                 []string     `json:"paths,omitempty"`
	Locale                i18n.Locale  `json:"locale,omitempty"`
	Theme                 *prefs.Theme `json:"theme,omitempty"`
	TransitionsSuppressed bool         `json:"transitionsSuppressed,omitempty"`
	Source                prefs.Source `json:"source,omitempty"`
	Timestamp             time.Time    `json:"timestamp"`
}

// ClientMessage is read from browsers. The only type is "color-scheme",
// reporting the prefers-color-scheme media query.
type ClientMessage struct {
	Type string `json:"type"`
	Dark bool   `json:"dark"`
}

// MessageHandler receives decoded client messages.
type MessageHandler func(ctx context.Context, clientID string, msg ClientMessage)

// Client is one websocket connection.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// ID returns the client identifier.
func (c *Client) ID() string { return c.id }

// Hub tracks connected browsers and fans messages out to them.
type Hub struct {
	clients    map[string]*Client
	mu         sync.RWMutex
	unregister chan *Client
	broadcast  chan []byte
	onMessage  MessageHandler
	logger     logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewHub returns a Hub. Run must be called to start delivering messages.
func NewHub(onMessage MessageHandler, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		unregister: make(chan *Client, 32),
		broadcast:  make(chan []byte, sendBuffer),
		onMessage:  onMessage,
		logger:     logger.WithComponent("hub"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run delivers registrations and broadcasts until ctx is done or the hub is
// shut down.
func (h *Hub) Run(ctx context.Context) {
	defer h.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Debug(context.Background(), "client disconnected", "client", client.id, "clients", count)
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	var slow []*Client
	for _, client := range h.clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(context.Background(), nil, "dropping slow client", "client", client.id)
		h.remove(client)
	}
}

// Broadcast queues msg for every client. A full queue drops the message.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(context.Background(), err, "failed to marshal message", "type", msg.Type)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(context.Background(), nil, "broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn and pumps it until either side closes.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}

	if !h.add(client) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.writePump()
	client.readPump()
}

// add registers client unless the hub is shut down. Shutdown cancels the
// context before taking the lock, so a client added here is always closed by
// it.
func (h *Hub) add(client *Client) bool {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return false
	}
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug(context.Background(), "client connected", "client", client.id, "clients", count)
	return true
}

// Shutdown closes every connection. It is safe to call more than once.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.cancel()

		h.mu.Lock()
		for id, client := range h.clients {
			close(client.send)
			delete(h.clients, id)
		}
		h.mu.Unlock()
	})
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(c.hub.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.hub.ctx.Err() == nil {
				c.hub.logger.Debug(c.hub.ctx, "websocket read ended", "client", c.id, "error", err.Error())
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Debug(c.hub.ctx, "ignoring malformed client message", "client", c.id)
			continue
		}
		if c.hub.onMessage != nil {
			c.hub.onMessage(c.hub.ctx, c.id, msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(context.Background(), "websocket write failed", "client", c.id, "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
