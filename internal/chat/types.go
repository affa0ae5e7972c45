package chat

// State is a session lifecycle stage. Only the session's own read loop
// moves it forward.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type directoryEventType int

const (
	eventRegister directoryEventType = iota
	eventLogin
	eventUnregister
	eventLookup
	eventCount
)

func (t directoryEventType) String() string {
	switch t {
	case eventRegister:
		return "register"
	case eventLogin:
		return "login"
	case eventUnregister:
		return "unregister"
	case eventLookup:
		return "lookup"
	case eventCount:
		return "count"
	}
	return "unknown"
}

type directoryEvent struct {
	Type    directoryEventType
	Session *Session
	Name    string
	Reply   chan directoryReply
}

type directoryReply struct {
	Session *Session
	Count   int
}

var (
	ErrRoomNotFound     = errorString("room_not_found")
	ErrRoomFull         = errorString("room_full")
	ErrDirectoryStopped = errorString("directory_stopped")
)

type errorString string

func (e errorString) Error() string { return string(e) }
