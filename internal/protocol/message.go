// Package protocol implements the pipe-delimited wire format exchanged
// between chat clients and the server:
//
//	<clientId>|<timestamp>|<TYPE>|<payload>
package protocol

import "time"

// TimestampLayout is the layout of the timestamp field.
const TimestampLayout = "2006-01-02 15:04:05"

// Separator splits the four wire fields.
const Separator = "|"

// FallbackClientID is the client id stamped on lines that could not be parsed.
const FallbackClientID = "unknown"

type MessageType int

const (
	TypeText MessageType = iota
	TypeEmoji
	TypePrivate
	TypeJoinRoom
	TypeLogin
	TypeFileTransfer
)

var typeNames = [...]string{
	TypeText:         "TEXT",
	TypeEmoji:        "EMOJI",
	TypePrivate:      "PRIVATE",
	TypeJoinRoom:     "JOIN_ROOM",
	TypeLogin:        "LOGIN",
	TypeFileTransfer: "FILE_TRANSFER",
}

func (t MessageType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// ParseType resolves a wire type name. Matching is case-sensitive.
func ParseType(name string) (MessageType, bool) {
	for i, n := range typeNames {
		if n == name {
			return MessageType(i), true
		}
	}
	return 0, false
}

// Message is immutable once built; all fields are exported for reading only.
type Message struct {
	ClientID  string
	Timestamp string
	Type      MessageType
	Payload   string
}

// Now returns the current time formatted for the timestamp field.
func Now() string {
	return time.Now().Format(TimestampLayout)
}

func newMessage(clientID string, t MessageType, payload string) Message {
	return Message{ClientID: clientID, Timestamp: Now(), Type: t, Payload: payload}
}

func NewText(clientID, text string) Message {
	return newMessage(clientID, TypeText, text)
}

func NewEmoji(clientID, code string) Message {
	return newMessage(clientID, TypeEmoji, code)
}

func NewLogin(clientID, username string) Message {
	return newMessage(clientID, TypeLogin, username)
}

func NewJoinRoom(clientID, room string) Message {
	return newMessage(clientID, TypeJoinRoom, room)
}

// NewPrivate builds a PRIVATE message whose payload is "<recipient> <text>".
func NewPrivate(clientID, recipientAndText string) Message {
	return newMessage(clientID, TypePrivate, recipientAndText)
}

func NewFileTransfer(clientID, fileInfo string) Message {
	return newMessage(clientID, TypeFileTransfer, fileInfo)
}
