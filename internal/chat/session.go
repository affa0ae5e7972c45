package chat

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/andy6609/room-chat-server/internal/protocol"
	"github.com/andy6609/room-chat-server/internal/transport"
)

// SessionDeps are the shared collaborators every session is built with.
type SessionDeps struct {
	Rooms          *RoomRegistry
	Directory      *Directory
	DefaultRoom    string
	OutboundBuffer int
	Logger         *slog.Logger
}

// Session owns one client connection for its whole life. Run drives it
// from a single goroutine; a second goroutine drains the outbound queue
// so peers broadcasting to this session never wait on its socket.
type Session struct {
	id          string
	conn        transport.Conn
	rooms       *RoomRegistry
	dir         *Directory
	defaultRoom string
	logger      *slog.Logger
	actions     map[Command]func()

	mu    sync.RWMutex
	name  string
	room  *Room
	state State

	out        chan string
	closing    chan struct{}
	writerDone chan struct{}

	stopOnce    sync.Once
	closeOnce   sync.Once
	cleanupOnce sync.Once
}

func NewSession(conn transport.Conn, deps SessionDeps) *Session {
	if deps.OutboundBuffer <= 0 {
		deps.OutboundBuffer = 64
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	id := clientID(conn.RemoteAddr())
	s := &Session{
		id:          id,
		conn:        conn,
		rooms:       deps.Rooms,
		dir:         deps.Directory,
		defaultRoom: deps.DefaultRoom,
		logger:      deps.Logger.With("session", uuid.NewString(), "client", id),
		out:         make(chan string, deps.OutboundBuffer),
		closing:     make(chan struct{}),
	}
	s.actions = s.commandActions()
	return s
}

// clientID derives the default identity from the peer port, like "Client-51234".
func clientID(remote string) string {
	if _, port, err := net.SplitHostPort(remote); err == nil && port != "" {
		return "Client-" + port
	}
	return "Client-" + uuid.NewString()[:8]
}

func (s *Session) ID() string { return s.id }

// Name is the display name, or the id before login.
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.name == "" {
		return s.id
	}
	return s.name
}

func (s *Session) CurrentRoom() *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Session) setRoom(room *Room) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run performs the login handshake, auto-joins the default room and then
// serves input lines until the stream ends. Cleanup runs exactly once on
// every exit path.
func (s *Session) Run() {
	s.writerDone = make(chan struct{})
	go s.writeLoop()
	defer s.cleanup()

	if err := s.dir.Register(s); err != nil {
		s.logger.Warn("directory unavailable", "error", err)
		return
	}
	s.logger.Info("session opened")

	s.setState(StateAuthenticating)
	s.SendLine("Welcome! Please enter your username: ")
	line, err := s.conn.ReadLine()
	if err != nil {
		s.logReadError(err)
		return
	}
	name := strings.TrimSpace(line)
	if name == "" {
		name = s.id
	}
	s.setName(name)
	if err := s.dir.Login(s, name); err != nil {
		s.logger.Warn("directory unavailable", "error", err)
		return
	}
	s.logger.Info("login", "user", name, "message", protocol.Serialize(protocol.NewLogin(s.id, name)))
	s.SendLine(fmt.Sprintf("Hello %s! You are now connected to the chat server.", name))
	s.setState(StateActive)

	if room, err := s.rooms.Join(s, s.defaultRoom); err == nil {
		s.setRoom(room)
		s.SendLine(fmt.Sprintf("You automatically joined the %s room!", room.Name()))
	} else {
		s.logger.Warn("auto-join failed", "room", s.defaultRoom, "error", err)
	}
	s.sendHelp()

	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			s.logReadError(err)
			return
		}
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	switch protocol.ClassifyLine(line) {
	case protocol.LineCommand:
		MessagesTotal.WithLabelValues("command").Inc()
		s.handleCommand(line)
	case protocol.LineProtocol:
		MessagesTotal.WithLabelValues("protocol").Inc()
		s.handleProtocol(line)
	default:
		s.handleText(line)
	}
}

// Close ends the session from outside by closing its connection; the read
// loop then exits and runs the normal cleanup.
func (s *Session) Close() {
	s.closeConn()
}

func (s *Session) logReadError(err error) {
	if transport.IsClosed(err) {
		s.logger.Debug("stream ended")
		return
	}
	s.logger.Warn("read failed", "error", err)
}

// Deliver queues a line from another goroutine without blocking. When the
// session's queue is full the line is dropped and Deliver reports false.
func (s *Session) Deliver(line string) bool {
	select {
	case <-s.closing:
		return false
	default:
	}
	select {
	case s.out <- line:
		return true
	default:
		DroppedLines.Inc()
		s.logger.Debug("outbound queue full, line dropped")
		return false
	}
}

// SendLine queues a reply to this session's own client. It waits for queue
// space rather than dropping, and gives up silently once the session is
// closing. Never call it while holding a room lock.
func (s *Session) SendLine(line string) {
	select {
	case s.out <- line:
	case <-s.closing:
	}
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case line := <-s.out:
			if !s.write(line) {
				return
			}
		case <-s.closing:
			// flush what is already queued
			for {
				select {
				case line := <-s.out:
					if !s.write(line) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Session) write(line string) bool {
	if err := s.conn.WriteLine(line); err != nil {
		if !transport.IsClosed(err) {
			s.logger.Debug("write failed", "error", err)
		}
		s.stopWriter()
		s.closeConn()
		return false
	}
	return true
}

func (s *Session) stopWriter() {
	s.stopOnce.Do(func() { close(s.closing) })
}

func (s *Session) waitWriter() {
	if s.writerDone != nil {
		<-s.writerDone
	}
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil && !transport.IsClosed(err) {
			s.logger.Warn("close failed", "error", err)
		}
	})
}

// quit says goodbye, flushes the queue and closes the connection. The read
// loop sees the closed stream and runs cleanup.
func (s *Session) quit() {
	s.SendLine("Goodbye!")
	s.stopWriter()
	s.waitWriter()
	s.closeConn()
}

func (s *Session) cleanup() {
	s.cleanupOnce.Do(func() {
		s.setState(StateClosing)

		if room := s.CurrentRoom(); room != nil {
			room.Remove(s)
			s.setRoom(nil)
		}
		s.rooms.LeaveAll(s)
		s.dir.Unregister(s)

		s.stopWriter()
		s.closeConn()
		s.waitWriter()

		s.setState(StateClosed)
		s.logger.Info("session closed", "name", s.Name())
	})
}
