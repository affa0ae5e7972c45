// Package transport adapts byte streams into the line-oriented duplex
// connection a chat session runs on.
package transport

import (
	"errors"
	"io"
	"net"
)

// Conn is one client connection seen as a stream of lines.
//
// ReadLine and WriteLine may be called from different goroutines, but each
// of them from one goroutine at a time. Close may be called from anywhere,
// more than once, and unblocks a pending ReadLine.
type Conn interface {
	// ReadLine blocks for the next line, without its terminator.
	// It returns io.EOF when the peer ends the stream.
	ReadLine() (string, error)

	// WriteLine sends one line; the terminator is added by the transport.
	WriteLine(line string) error

	Close() error

	// RemoteAddr identifies the peer, typically host:port.
	RemoteAddr() string
}

// IsClosed reports whether err only says the stream is over.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
