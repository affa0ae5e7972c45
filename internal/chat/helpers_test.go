package chat

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/andy6609/room-chat-server/internal/config"
)

// nopConn is a transport that is never read; tests drain Session.out directly.
type nopConn struct{ addr string }

func (c nopConn) ReadLine() (string, error) { return "", io.EOF }
func (c nopConn) WriteLine(string) error    { return nil }
func (c nopConn) Close() error              { return nil }
func (c nopConn) RemoteAddr() string        { return c.addr }

func newTestSession(t *testing.T, name string, deps SessionDeps) *Session {
	t.Helper()
	if deps.OutboundBuffer == 0 {
		deps.OutboundBuffer = 256
	}
	s := NewSession(nopConn{addr: "127.0.0.1:40000"}, deps)
	s.setName(name)
	return s
}

func startDirectory(t *testing.T) *Directory {
	t.Helper()
	d := NewDirectory(128, nil)
	go d.Run()
	t.Cleanup(func() {
		d.Stop()
		d.Wait()
	})
	return d
}

func waitForPrefix(t *testing.T, ch <-chan string, prefix string) string {
	t.Helper()
	deadline := time.NewTimer(1 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case s := <-ch:
			if strings.HasPrefix(s, prefix) {
				return s
			}
			// ignore other lines (announcements, echoes, etc.)
		case <-deadline.C:
			t.Fatalf("timeout waiting for prefix %q", prefix)
		}
	}
}

func drain(ch <-chan string) []string {
	var lines []string
	for {
		select {
		case s := <-ch:
			lines = append(lines, s)
		default:
			return lines
		}
	}
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", what)
}

func startTestServer(t *testing.T, rooms string) *Server {
	t.Helper()
	specs, err := config.ParseRooms(rooms)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.StatusInterval = 0
	cfg.Rooms = specs
	cfg.DefaultRoom = specs[0].Name

	srv := NewServer(cfg, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv
}

type testClient struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := &testClient{t: t, conn: conn, lines: make(chan string, 512)}
	go func() {
		defer close(c.lines)
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			c.lines <- strings.TrimRight(line, "\r\n")
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return c
}

// login answers the username prompt and waits for the end of the help text.
func (c *testClient) login(name string) {
	c.t.Helper()
	c.expect("Welcome!")
	c.send(name)
	c.expect("/quit")
}

func (c *testClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// expect reads until a line containing substr arrives.
func (c *testClient) expect(substr string) string {
	c.t.Helper()
	return c.expectBefore(substr, "")
}

// expectBefore is expect that also fails if a line containing forbidden
// shows up first. An empty forbidden disables the check.
func (c *testClient) expectBefore(substr, forbidden string) string {
	c.t.Helper()
	timeout := time.NewTimer(2 * time.Second)
	defer timeout.Stop()
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %q", substr)
			}
			if forbidden != "" && strings.Contains(line, forbidden) {
				c.t.Fatalf("unexpected line %q while waiting for %q", line, substr)
			}
			if strings.Contains(line, substr) {
				return line
			}
		case <-timeout.C:
			c.t.Fatalf("timeout waiting for %q", substr)
		}
	}
}

// expectClosed waits for the server to close the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	timeout := time.NewTimer(2 * time.Second)
	defer timeout.Stop()
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		case <-timeout.C:
			c.t.Fatal("connection still open")
		}
	}
}
