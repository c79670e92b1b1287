// Package ws adapts gorilla websockets to the text-frame connection the bot
// runtime reads and writes.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nicebartender/runbot/errs"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 15 * time.Second
	maxMsgSize       = 16 << 20 // forwarded messages can be large
)

// ErrUnauthorized is returned by Accept when the access token does not match.
var ErrUnauthorized = errors.New("ws: unauthorized")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn is a websocket carrying JSON text frames. Writes are serialized; a
// single goroutine may read.
type Conn struct {
	conn *websocket.Conn
	mu   sync.Mutex

	pongWait time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(c *websocket.Conn) *Conn {
	c.SetReadLimit(maxMsgSize)
	return &Conn{conn: c, done: make(chan struct{})}
}

// Dial opens a client connection. A non-empty token is sent as a bearer
// Authorization header.
func Dial(ctx context.Context, url, token string) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	c, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, errs.Transport("dial "+url, err)
	}
	return newConn(c), nil
}

// Accept authorizes and upgrades an inbound request. On failure the
// response has already been written.
func Accept(w http.ResponseWriter, r *http.Request, token string) (*Conn, error) {
	if !Authorize(r, token) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, ErrUnauthorized
	}
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errs.Transport("accept", err)
	}
	return newConn(c), nil
}

// ReadMessage returns the next text frame. Binary frames are skipped.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if c.pongWait > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		}
		if typ == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *Conn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and closes the socket. It is safe to call more
// than once and concurrently with a blocked ReadMessage.
func (c *Conn) Close() error {
	err := net.ErrClosed
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

// Keepalive pings the peer every interval and fails reads when neither a
// frame nor a pong arrives for two intervals. Call it before the first read.
func (c *Conn) Keepalive(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.pongWait = 2 * interval
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()
}

// RemoteAddr is the peer address, for logging.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// IsClosed reports whether err, possibly wrapped, is the normal end of a
// connection.
func IsClosed(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var ce *websocket.CloseError
	return errors.As(err, &ce) &&
		(ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway)
}
