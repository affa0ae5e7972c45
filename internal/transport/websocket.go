package transport

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketConn carries lines as text frames. A frame holding several
// newline-separated lines is split and handed out one line at a time.
type WebSocketConn struct {
	conn    *websocket.Conn
	pending []string

	closeOnce sync.Once
	closeErr  error
}

func NewWebSocket(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

func (c *WebSocketConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return "", io.EOF
			}
			return "", fmt.Errorf("read: %w", err)
		}
		text := strings.TrimRight(string(data), "\r\n")
		for _, line := range strings.Split(text, "\n") {
			c.pending = append(c.pending, strings.TrimRight(line, "\r"))
		}
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func (c *WebSocketConn) WriteLine(line string) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *WebSocketConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *WebSocketConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
