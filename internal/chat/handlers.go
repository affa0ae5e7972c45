package chat

import (
	"fmt"

	"github.com/andy6609/room-chat-server/internal/protocol"
)

type messageHandler func(s *Session, m protocol.Message)

var messageHandlers = map[protocol.MessageType]messageHandler{
	protocol.TypeText:         func(s *Session, m protocol.Message) { s.sendText(m.Payload) },
	protocol.TypeEmoji:        func(s *Session, m protocol.Message) { s.sendEmoji(m.Payload) },
	protocol.TypeFileTransfer: func(s *Session, m protocol.Message) { s.sendFile(m.Payload) },
	protocol.TypePrivate:      func(s *Session, m protocol.Message) { s.privateMessage(m.Payload) },
	protocol.TypeJoinRoom:     func(s *Session, m protocol.Message) { s.joinRoom(m.Payload) },
	protocol.TypeLogin: func(s *Session, m protocol.Message) {
		s.SendLine("Already logged in as " + s.Name() + ".")
	},
}

func (s *Session) handleProtocol(line string) {
	msg, ok := protocol.Parse(line)
	if !ok {
		MessagesTotal.WithLabelValues("fallback").Inc()
		s.SendLine("Could not parse message, sending it as text.")
	}
	handler, found := messageHandlers[msg.Type]
	if !found {
		s.SendLine("Unsupported message type: " + msg.Type.String())
		return
	}
	handler(s, msg)
}

func (s *Session) handleText(text string) {
	switch protocol.ClassifyText(text) {
	case protocol.TypeFileTransfer:
		s.sendFile(text)
	case protocol.TypeEmoji:
		s.sendEmoji(text)
	default:
		s.sendText(text)
	}
}

func (s *Session) sendText(text string) {
	room := s.CurrentRoom()
	if room == nil {
		s.notInRoom()
		return
	}
	MessagesTotal.WithLabelValues("text").Inc()
	s.logMessage(room, protocol.NewText(s.id, text))
	room.Broadcast(s.Name()+": "+text, nil)
	s.SendLine("[You]: " + text)
}

func (s *Session) sendEmoji(code string) {
	room := s.CurrentRoom()
	if room == nil {
		s.notInRoom()
		return
	}
	MessagesTotal.WithLabelValues("emoji").Inc()
	s.logMessage(room, protocol.NewEmoji(s.id, code))
	glyph := protocol.Emoji(code)
	room.Broadcast(s.Name()+": "+glyph, nil)
	s.SendLine("[You]: " + glyph)
}

func (s *Session) sendFile(file string) {
	room := s.CurrentRoom()
	if room == nil {
		s.notInRoom()
		return
	}
	MessagesTotal.WithLabelValues("file").Inc()
	s.logMessage(room, protocol.NewFileTransfer(s.id, file))
	room.Broadcast(fmt.Sprintf("[FILE] %s shared: %s", s.Name(), file), nil)
	s.SendLine("[You] shared file: " + file)
}

func (s *Session) logMessage(room *Room, m protocol.Message) {
	s.logger.Info("chat", "room", room.Name(), "from", s.Name(), "type", m.Type.String(), "text", m.Payload)
}

func (s *Session) notInRoom() {
	s.SendLine("You are not in any room!")
	s.SendLine("Use /join <roomname> to join a room")
	s.SendLine("Available rooms: /rooms")
}

// privateMessage handles "<user> <text>" from /pm or a PRIVATE message.
func (s *Session) privateMessage(arg string) {
	to, text := splitFirst(arg)
	if to == "" || text == "" {
		s.SendLine("Usage: /pm <user> <message>")
		return
	}
	target, ok := s.dir.Lookup(to)
	if !ok {
		s.SendLine(fmt.Sprintf("User '%s' not found.", to))
		return
	}

	MessagesTotal.WithLabelValues("private").Inc()
	msg := protocol.NewPrivate(s.id, to+" "+text)
	s.logger.Info("private", "from", s.Name(), "to", target.Name(), "type", msg.Type.String())

	if protocol.IsFile(text) {
		target.Deliver(fmt.Sprintf("[FILE from %s]: %s", s.Name(), text))
		s.SendLine(fmt.Sprintf("[FILE to %s]: %s", target.Name(), text))
		return
	}
	target.Deliver(fmt.Sprintf("[PM from %s]: %s", s.Name(), text))
	s.SendLine(fmt.Sprintf("[PM to %s]: %s", target.Name(), text))
}
