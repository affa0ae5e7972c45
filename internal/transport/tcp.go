package transport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
)

// TCPConn frames a net.Conn as newline-terminated lines.
type TCPConn struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	closeOnce sync.Once
	closeErr  error
}

// NewTCP wraps conn. Works with any net.Conn, including net.Pipe ends.
func NewTCP(conn net.Conn) *TCPConn {
	return &TCPConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
}

func (c *TCPConn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}

func (c *TCPConn) WriteLine(line string) error {
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *TCPConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *TCPConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
