package chat

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andy6609/room-chat-server/internal/config"
)

func TestServer_WebSocketClientsShareRoomsWithTCP(t *testing.T) {
	srv := startTestServer(t, testRooms)
	hs := httptest.NewServer(srv.WebSocketHandler())
	defer hs.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	readUntil := func(substr string) {
		t.Helper()
		ws.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				t.Fatalf("waiting for %q: %v", substr, err)
			}
			if strings.Contains(string(data), substr) {
				return
			}
		}
	}

	readUntil("Welcome!")
	ws.WriteMessage(websocket.TextMessage, []byte("webby")) //nolint:errcheck
	readUntil("/quit")

	tcp := dial(t, srv)
	tcp.login("tess")

	ws.WriteMessage(websocket.TextMessage, []byte("hi from the browser")) //nolint:errcheck
	tcp.expect("webby: hi from the browser")
	readUntil("[You]: hi from the browser")

	tcp.send("/pm webby back at you")
	readUntil("[PM from tess]: back at you")
}

func TestServer_CheckOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"http://chat.example"}
	srv := NewServer(cfg, nil)

	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	if !srv.checkOrigin(req("http://chat.example")) {
		t.Error("allowed origin refused")
	}
	if srv.checkOrigin(req("http://evil.example")) {
		t.Error("foreign origin accepted")
	}
	if !srv.checkOrigin(req("")) {
		t.Error("request without origin refused")
	}

	open := NewServer(config.Default(), nil)
	if !open.checkOrigin(req("http://anything.example")) {
		t.Error("empty allow-list should accept any origin")
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.StatusInterval = 0
	srv := NewServer(cfg, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop()

	// The metrics listener is bound on an ephemeral port; serve the same
	// handler through the mux it was registered on.
	if len(srv.httpSrvs) != 1 {
		t.Fatalf("expected one http endpoint, got %d", len(srv.httpSrvs))
	}
	rec := httptest.NewRecorder()
	srv.httpSrvs[0].Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "chat_connected_sessions") {
		t.Fatalf("metrics output missing gauge:\n%s", body)
	}
}

func TestServer_StartFailsOnBusyAddress(t *testing.T) {
	first := startTestServer(t, testRooms)

	cfg := config.Default()
	cfg.Addr = first.Addr().String()
	cfg.MetricsAddr = ""
	second := NewServer(cfg, nil)
	if err := second.Start(); err == nil {
		second.Stop()
		t.Fatal("expected bind error")
	}
	second.Stop()
}

func TestServer_LogStatus(t *testing.T) {
	srv := startTestServer(t, testRooms)
	c := dial(t, srv)
	c.login("alice")
	srv.logStatus()
}
