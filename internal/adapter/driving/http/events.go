package httphandler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
	eventBuffer     = 32
)

var _ driven.ChangeNotifier = (*EventHub)(nil)

// EventMessage is one mapping change as sent to subscribers. Credentials
// never leave the process on this stream; HasCredentials says whether a
// complete pair is stored.
type EventMessage struct {
	Type        string      `json:"type"`
	ContainerID string      `json:"containerId"`
	Proxy       *EventProxy `json:"proxy"`
	At          string      `json:"at"`
}

// EventProxy is the credential-free view of a proxy config.
type EventProxy struct {
	Type           string `json:"type"`
	Host           string `json:"host"`
	Port           string `json:"port"`
	Label          string `json:"label,omitempty"`
	Enabled        bool   `json:"enabled"`
	HasCredentials bool   `json:"hasCredentials"`
}

func toEventMessage(e model.ChangeEvent) EventMessage {
	msg := EventMessage{
		Type:        string(e.Kind),
		ContainerID: e.ContainerID,
		At:          e.At.UTC().Format(time.RFC3339Nano),
	}
	if e.Proxy != nil {
		_, _, ok := e.Proxy.Credentials()
		msg.Proxy = &EventProxy{
			Type:           string(e.Proxy.Type),
			Host:           e.Proxy.Host,
			Port:           string(e.Proxy.Port),
			Label:          e.Proxy.Label,
			Enabled:        e.Proxy.Enabled,
			HasCredentials: ok,
		}
	}
	return msg
}

type eventClient struct {
	send chan EventMessage
}

// EventHub fans mapping changes out to websocket subscribers so that open
// presentation screens refresh instead of showing stale state. Publish never
// blocks: a subscriber whose buffer is full is disconnected.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*eventClient]struct{}
	closed  bool
}

// NewEventHub creates an EventHub.
func NewEventHub(logger *slog.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkEventOrigin,
		},
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}
}

// checkEventOrigin admits same-origin pages, browser extension pages, and
// non-browser clients that send no Origin header.
func checkEventOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "moz-extension", "chrome-extension":
		return true
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Publish delivers event to every subscriber.
func (h *EventHub) Publish(event model.ChangeEvent) {
	msg := toEventMessage(event)

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("event subscriber too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client goes away or the hub is closed.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &eventClient{send: make(chan EventMessage, eventBuffer)}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(eventWriteWait))
		_ = conn.Close()
		return
	}
	h.logger.Debug("event subscriber connected", "remote_addr", r.RemoteAddr)

	go h.readPump(conn, c)
	h.writePump(conn, c)
}

func (h *EventHub) add(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventHub) remove(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client messages and notices when the peer disconnects.
func (h *EventHub) readPump(conn *websocket.Conn, c *eventClient) {
	defer h.remove(c)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHub) writePump(conn *websocket.Conn, c *eventClient) {
	ticker := time.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("event write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
