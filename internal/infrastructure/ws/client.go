package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

type ClientOptions struct {
	SendBuffer      int
	FramesPerSecond float64
	FrameBurst      int
	AllowedOrigins  []string
}

func NewUpgrader(opts ClientOptions) *websocket.Upgrader {
	allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		allowed[o] = struct{}{}
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if _, wildcard := allowed["*"]; wildcard || len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

// Client is one live connection. It is bound to a session and member once
// the peer joins; before that it can only create or join.
type Client struct {
	ID string

	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	mu        sync.RWMutex
	sessionID string
	memberID  string

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient wraps conn. A nil conn yields a detached client whose frames can
// only be observed through its send buffer.
func NewClient(conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}

	limit := rate.Inf
	if opts.FramesPerSecond > 0 {
		limit = rate.Limit(opts.FramesPerSecond)
	}
	burst := opts.FrameBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		limiter: rate.NewLimiter(limit, burst),
		closed:  make(chan struct{}),
	}
}

func (c *Client) Bind(sessionID, memberID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.memberID = memberID
}

func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) MemberID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberID
}

// Send queues frame without blocking. A full buffer drops the frame.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// SendMessage encodes and queues msg.
func (c *Client) SendMessage(msg Message) bool {
	frame, err := Encode(msg)
	if err != nil {
		return false
	}
	return c.Send(frame)
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Client) Done() <-chan struct{} {
	return c.closed
}

// ReadPump feeds every inbound frame to handle until the peer goes away.
// Frames above the per-connection rate are answered with an error and dropped.
func (c *Client) ReadPump(handle func(frame []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			c.SendMessage(NewError(c.SessionID(), "Too many messages, slow down"))
			continue
		}

		handle(frame)
	}
}

// WritePump drains the send buffer onto the socket and keeps it alive with
// pings. Pending frames are flushed before a close.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.closed:
			for {
				select {
				case frame := <-c.send:
					if err := c.write(websocket.TextMessage, frame); err != nil {
						return
					}
				default:
					_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}
