package chat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andy6609/room-chat-server/internal/config"
	"github.com/andy6609/room-chat-server/internal/transport"
)

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	rooms  *RoomRegistry
	dir    *Directory

	listener   net.Listener
	acceptDone chan struct{}
	httpSrvs   []*http.Server
	statusStop chan struct{}
	upgrader   websocket.Upgrader

	stopOnce sync.Once
	mu       sync.Mutex
	closed   bool
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		rooms:      NewRoomRegistry(cfg.Rooms),
		dir:        NewDirectory(128, logger),
		acceptDone: make(chan struct{}),
		statusStop: make(chan struct{}),
		sessions:   make(map[*Session]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

func (s *Server) Rooms() *RoomRegistry  { return s.rooms }
func (s *Server) Directory() *Directory { return s.dir }

// Addr is the bound chat address, valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds every configured endpoint and starts serving. A bind failure
// is returned and nothing keeps running.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	var httpLns []net.Listener
	var httpSrvs []*http.Server
	bind := func(addr, path string, h http.Handler) error {
		hln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle(path, h)
		httpLns = append(httpLns, hln)
		httpSrvs = append(httpSrvs, &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second})
		return nil
	}
	if s.cfg.MetricsAddr != "" {
		err = bind(s.cfg.MetricsAddr, "/metrics", promhttp.Handler())
	}
	if err == nil && s.cfg.WSAddr != "" {
		err = bind(s.cfg.WSAddr, "/ws", s.WebSocketHandler())
	}
	if err != nil {
		ln.Close()
		for _, hln := range httpLns {
			hln.Close()
		}
		return err
	}

	s.listener = ln
	s.httpSrvs = httpSrvs

	go s.dir.Run()
	go s.acceptLoop(ln)
	for i, srv := range httpSrvs {
		go func(srv *http.Server, hln net.Listener) {
			if err := srv.Serve(hln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("http endpoint failed", "addr", hln.Addr().String(), "error", err)
			}
		}(srv, httpLns[i])
		s.logger.Info("http endpoint started", "addr", httpLns[i].Addr().String())
	}
	if s.cfg.StatusInterval > 0 {
		go s.statusLoop(s.cfg.StatusInterval)
	}

	s.logger.Info("server started", "addr", ln.Addr().String(), "rooms", s.rooms.Names())
	return nil
}

// Stop closes the listeners, disconnects every session, waits for their
// cleanup and stops the directory. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		s.listener.Close()
		<-s.acceptDone
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range s.httpSrvs {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("http shutdown", "error", err)
		}
	}
	close(s.statusStop)

	s.mu.Lock()
	s.closed = true
	for sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()

	if s.listener != nil {
		s.dir.Stop()
		s.dir.Wait()
	}
	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer close(s.acceptDone)
	for {
		conn, err := ln.Accept()
		if err != nil {
			// listener closed: normal shutdown
			return
		}
		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.ServeConn(transport.NewTCP(conn))
	}
}

// ServeConn runs a session on conn until it ends.
func (s *Server) ServeConn(conn transport.Conn) {
	sess := NewSession(conn, SessionDeps{
		Rooms:          s.rooms,
		Directory:      s.dir,
		DefaultRoom:    s.cfg.DefaultRoom,
		OutboundBuffer: s.cfg.OutboundBuffer,
		Logger:         s.logger,
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.sessions[sess] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		s.wg.Done()
	}()
	sess.Run()
}

// WebSocketHandler upgrades requests and runs a session per socket, one
// text frame per line.
func (s *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Debug("websocket upgrade failed", "error", err)
			return
		}
		s.logger.Info("websocket client connected", "addr", ws.RemoteAddr().String())
		s.ServeConn(transport.NewWebSocket(ws))
	})
}

// checkOrigin allows any origin when none are configured, and requests
// without an Origin header, which come from non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) statusLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.logStatus()
		case <-s.statusStop:
			return
		}
	}
}

func (s *Server) logStatus() {
	occupancy := make([]any, 0, len(s.rooms.rooms))
	for _, room := range s.rooms.ListAll() {
		occupancy = append(occupancy, slog.Int(room.Name(), room.Occupancy()))
	}
	s.logger.Info("server status", "sessions", s.dir.Count(), slog.Group("rooms", occupancy...))
}
