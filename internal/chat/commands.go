package chat

import (
	"fmt"
	"strings"
	"unicode"
)

// Command is a zero-argument slash command. /join and /pm take arguments
// and are parsed separately.
type Command int

const (
	CmdHelp Command = iota
	CmdRooms
	CmdLeave
	CmdWho
	CmdQuit
)

var commandTable = map[string]Command{
	"/help":  CmdHelp,
	"/rooms": CmdRooms,
	"/leave": CmdLeave,
	"/who":   CmdWho,
	"/quit":  CmdQuit,
	"/exit":  CmdQuit,
}

// LookupCommand resolves a lowercase command token.
func LookupCommand(token string) (Command, bool) {
	cmd, ok := commandTable[token]
	return cmd, ok
}

func (s *Session) commandActions() map[Command]func() {
	return map[Command]func(){
		CmdHelp:  s.sendHelp,
		CmdRooms: s.listRooms,
		CmdLeave: s.leaveRoom,
		CmdWho:   s.showWho,
		CmdQuit:  s.quit,
	}
}

// splitFirst cuts s at its first run of whitespace.
func splitFirst(s string) (head, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func (s *Session) handleCommand(line string) {
	token, arg := splitFirst(line)
	token = strings.ToLower(token)

	switch token {
	case "/join":
		if arg == "" {
			s.SendLine("Usage: /join <roomname>")
			return
		}
		s.joinRoom(arg)
		return
	case "/pm":
		if arg == "" {
			s.SendLine("Usage: /pm <user> <message>")
			return
		}
		s.privateMessage(arg)
		return
	}

	if cmd, ok := LookupCommand(token); ok {
		s.actions[cmd]()
		return
	}
	s.SendLine("Unknown command: " + token)
	s.SendLine("Type /help for available commands.")
}

func (s *Session) sendHelp() {
	s.SendLine("=== CHAT COMMANDS ===")
	s.SendLine(fmt.Sprintf("/join <room>       - Join a room (%s)", strings.Join(s.rooms.Names(), ", ")))
	s.SendLine("/leave             - Leave current room")
	s.SendLine("/rooms             - List all rooms")
	s.SendLine("/who               - Show users in current room")
	s.SendLine("/pm <user> <text>  - Send a private message")
	s.SendLine("/help              - Show this message again")
	s.SendLine("/quit              - Leave the chat")
}

func (s *Session) listRooms() {
	s.SendLine("-----AVAILABLE ROOMS------")
	for _, room := range s.rooms.ListAll() {
		s.SendLine(fmt.Sprintf("%s %d/%d", room.Name(), room.Occupancy(), room.Capacity()))
	}
}

func (s *Session) leaveRoom() {
	room := s.CurrentRoom()
	if room == nil {
		s.SendLine("You are not in a room")
		return
	}
	room.Remove(s)
	s.setRoom(nil)
	s.SendLine("You have left the room " + room.Name())
}

func (s *Session) showWho() {
	room := s.CurrentRoom()
	if room == nil {
		s.SendLine("You are not in any room.")
		return
	}
	s.SendLine("=== USERS IN " + strings.ToUpper(room.Name()) + " ===")
	for _, name := range room.MemberNames() {
		s.SendLine("- " + name)
	}
}

func (s *Session) joinRoom(name string) {
	name = strings.TrimSpace(name)
	room, err := s.rooms.Join(s, name)
	if err == nil {
		s.setRoom(room)
		s.SendLine("You joined room: " + room.Name())
		return
	}
	s.logger.Debug("join refused", "room", name, "error", err)

	switch existing := s.rooms.FindByName(name); {
	case existing == nil:
		s.SendLine(fmt.Sprintf("Room '%s' does not exist.", name))
		s.SendLine("Available rooms: " + strings.Join(s.rooms.Names(), ", "))
	case existing.IsFull():
		s.SendLine(fmt.Sprintf("Room '%s' is full!", name))
	default:
		s.SendLine("Could not join room: " + name)
	}
}
