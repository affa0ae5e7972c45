package chat

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/andy6609/room-chat-server/internal/config"
	"github.com/andy6609/room-chat-server/internal/protocol"
)

const testRooms = "Lobby:3,Gaming:3,Tiny:1"

func TestSession_EmptyUsernameFallsBackToClientID(t *testing.T) {
	srv := startTestServer(t, testRooms)
	c := dial(t, srv)

	c.expect("Welcome!")
	c.send("   ")
	hello := c.expect("Hello ")
	if !strings.HasPrefix(hello, "Hello Client-") {
		t.Fatalf("unexpected greeting %q", hello)
	}
	c.expect("You automatically joined the Lobby room!")

	lobby := srv.Rooms().FindByName("Lobby")
	eventually(t, "lobby has one member", func() bool { return lobby.Occupancy() == 1 })
	if names := lobby.MemberNames(); !strings.HasPrefix(names[0], "Client-") {
		t.Fatalf("member name %q", names[0])
	}
}

func TestSession_ChatReachesRoomAndEchoes(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	bob := dial(t, srv)
	bob.login("bob")

	alice.send("hello")
	bob.expect("alice: hello")
	alice.expect("alice: hello")
	alice.expect("[You]: hello")
}

func TestSession_EmojiAndFile(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	bob := dial(t, srv)
	bob.login("bob")

	alice.send(":fire:")
	bob.expect("alice: 🔥")
	alice.expect("[You]: 🔥")

	alice.send(":wave:")
	bob.expect("alice: :wave:")

	alice.send("notes.PDF")
	bob.expect("[FILE] alice shared: notes.PDF")
	alice.expect("[You] shared file: notes.PDF")
}

func TestSession_PrivateMessages(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	carol := dial(t, srv)
	carol.login("Carol")

	alice.send("/pm Bob hi")
	alice.expect("User 'Bob' not found.")
	alice.send("marker")
	carol.expectBefore("alice: marker", "PM from")

	alice.send("/pm carol hey there")
	carol.expect("[PM from alice]: hey there")
	alice.expect("[PM to Carol]: hey there")

	alice.send("/pm CAROL song.mp3")
	carol.expect("[FILE from alice]: song.mp3")
	alice.expect("[FILE to Carol]: song.mp3")

	alice.send("/pm carol")
	alice.expect("Usage: /pm <user> <message>")
	alice.send("/pm")
	alice.expect("Usage: /pm <user> <message>")
}

func TestSession_JoinFullRoom(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	bob := dial(t, srv)
	bob.login("bob")

	alice.send("/join Tiny")
	alice.expect("You joined room: Tiny")

	bob.send("/join tiny")
	bob.expect("Room 'tiny' is full!")

	tiny := srv.Rooms().FindByName("Tiny")
	if tiny.Occupancy() != 1 {
		t.Fatalf("Tiny occupancy %d", tiny.Occupancy())
	}
	bob.send("/who")
	bob.expect("=== USERS IN LOBBY ===")
	bob.expect("- bob")
}

func TestSession_JoinUnknownRoomAndUsage(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")

	alice.send("/join Attic")
	alice.expect("Room 'Attic' does not exist.")
	alice.expect("Available rooms: Lobby, Gaming, Tiny")

	alice.send("/JOIN")
	alice.expect("Usage: /join <roomname>")

	alice.send("/join gaming")
	alice.expect("You joined room: Gaming")
	if srv.Rooms().FindByName("Lobby").Occupancy() != 0 {
		t.Fatal("alice still counted in Lobby")
	}
}

func TestSession_LeaveWhoRooms(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")

	alice.send("/rooms")
	alice.expect("-----AVAILABLE ROOMS------")
	alice.expect("Lobby 1/3")
	alice.expect("Gaming 0/3")
	alice.expect("Tiny 0/1")

	alice.send("/who")
	alice.expect("=== USERS IN LOBBY ===")
	alice.expect("- alice")

	alice.send("/leave")
	alice.expect("You have left the room Lobby")

	alice.send("anyone?")
	alice.expect("You are not in any room!")
	alice.expect("Use /join <roomname> to join a room")

	alice.send(":smile:")
	alice.expect("You are not in any room!")

	alice.send("/leave")
	alice.expect("You are not in a room")

	alice.send("/who")
	alice.expect("You are not in any room.")
}

func TestSession_UnknownCommandKeepsConnection(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")

	alice.send("/dance now")
	alice.expect("Unknown command: /dance")
	alice.expect("Type /help for available commands.")

	alice.send("/HELP")
	alice.expect("=== CHAT COMMANDS ===")
	alice.expect("/join <room>       - Join a room (Lobby, Gaming, Tiny)")
}

func TestSession_ProtocolMessages(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	bob := dial(t, srv)
	bob.login("bob")

	alice.send(protocol.Serialize(protocol.NewPrivate("x", "bob yo")))
	bob.expect("[PM from alice]: yo")

	alice.send(protocol.Serialize(protocol.NewText("x", "via wire")))
	bob.expect("alice: via wire")

	alice.send(protocol.Serialize(protocol.NewLogin("x", "mallory")))
	alice.expect("Already logged in as alice.")

	alice.send("a|b")
	alice.expect("Could not parse message, sending it as text.")
	bob.expect("alice: a|b")

	alice.send(protocol.Serialize(protocol.NewJoinRoom("x", "Gaming")))
	alice.expect("You joined room: Gaming")
	bob.expect("[alice] has left the room!")
}

func TestSession_QuitCleansUp(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")
	bob := dial(t, srv)
	bob.login("bob")

	eventually(t, "two sessions registered", func() bool { return srv.Directory().Count() == 2 })

	alice.send("/quit")
	alice.expect("Goodbye!")
	alice.expectClosed()
	bob.expect("[alice] has left the room!")

	eventually(t, "alice unregistered", func() bool { return srv.Directory().Count() == 1 })
	if occ := srv.Rooms().FindByName("Lobby").Occupancy(); occ != 1 {
		t.Fatalf("Lobby occupancy %d", occ)
	}
	if _, ok := srv.Directory().Lookup("alice"); ok {
		t.Fatal("alice still addressable")
	}

	bob.send("/exit")
	bob.expect("Goodbye!")
	bob.expectClosed()
}

func TestSession_DisconnectCleansUp(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")

	alice.conn.Close()
	eventually(t, "alice cleaned up", func() bool {
		return srv.Directory().Count() == 0 && srv.Rooms().FindByName("Lobby").Occupancy() == 0
	})
}

func TestServer_StopDisconnectsSessions(t *testing.T) {
	srv := startTestServer(t, testRooms)
	alice := dial(t, srv)
	alice.login("alice")

	srv.Stop()
	alice.expectClosed()
	srv.Stop()
}

func TestSession_DeliverDropsWhenQueueFull(t *testing.T) {
	s := newTestSession(t, "slow", SessionDeps{OutboundBuffer: 1})
	before := testutil.ToFloat64(DroppedLines)

	if !s.Deliver("one") {
		t.Fatal("first line dropped")
	}
	if s.Deliver("two") {
		t.Fatal("second line accepted by a full queue")
	}
	if got := testutil.ToFloat64(DroppedLines) - before; got != 1 {
		t.Fatalf("dropped counter moved by %v", got)
	}
}

func TestSession_CleanupIsIdempotent(t *testing.T) {
	d := startDirectory(t)
	rooms := NewRoomRegistry([]config.RoomSpec{{Name: "Lobby", Capacity: 2}})
	s := newTestSession(t, "alice", SessionDeps{Rooms: rooms, Directory: d})

	d.Register(s) //nolint:errcheck
	room, err := rooms.Join(s, "Lobby")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	s.setRoom(room)

	s.cleanup()
	s.cleanup()

	if s.State() != StateClosed {
		t.Fatalf("state = %v", s.State())
	}
	if room.Occupancy() != 0 || s.CurrentRoom() != nil {
		t.Fatal("session still in room")
	}
	if d.Count() != 0 {
		t.Fatal("session still registered")
	}
	if s.Deliver("late") {
		t.Fatal("closed session accepted a line")
	}
	s.SendLine("late") // must not block
}

func TestMessageHandlersCoverEveryType(t *testing.T) {
	for _, name := range []string{"TEXT", "EMOJI", "PRIVATE", "JOIN_ROOM", "LOGIN", "FILE_TRANSFER"} {
		mt, _ := protocol.ParseType(name)
		if _, ok := messageHandlers[mt]; !ok {
			t.Errorf("no handler for %s", name)
		}
	}
}

func TestClientID(t *testing.T) {
	if got := clientID("10.0.0.1:5123"); got != "Client-5123" {
		t.Fatalf("clientID = %q", got)
	}
	if got := clientID("pipe"); !strings.HasPrefix(got, "Client-") || len(got) != len("Client-")+8 {
		t.Fatalf("clientID fallback = %q", got)
	}
}
