package chat

import (
	"strings"
	"sync"

	"github.com/andy6609/room-chat-server/internal/config"
)

// RoomRegistry is the fixed room catalog built at startup. Rooms are never
// added or removed afterwards.
type RoomRegistry struct {
	rooms  []*Room
	byName map[string]*Room

	// joinMu serializes Join so a session moves between rooms in one step.
	joinMu sync.Mutex
}

// NewRoomRegistry builds one room per catalog entry in declaration order. A
// later entry whose name repeats an earlier one, case-insensitively, is ignored.
func NewRoomRegistry(specs []config.RoomSpec) *RoomRegistry {
	r := &RoomRegistry{byName: make(map[string]*Room, len(specs))}
	for _, spec := range specs {
		key := strings.ToLower(spec.Name)
		if _, dup := r.byName[key]; dup {
			continue
		}
		room := NewRoom(spec.Name, spec.Capacity)
		r.rooms = append(r.rooms, room)
		r.byName[key] = room
	}
	return r
}

// FindByName is a case-insensitive exact match; nil when unknown.
func (r *RoomRegistry) FindByName(name string) *Room {
	return r.byName[strings.ToLower(strings.TrimSpace(name))]
}

// Join moves s into the named room, leaving whatever room it was in.
// A full target is refused before s leaves its current room, unless s is
// already a member of the target, in which case it re-joins.
func (r *RoomRegistry) Join(s *Session, name string) (*Room, error) {
	target := r.FindByName(name)
	if target == nil {
		return nil, ErrRoomNotFound
	}

	r.joinMu.Lock()
	defer r.joinMu.Unlock()

	if target.IsFull() && !target.Has(s) {
		return nil, ErrRoomFull
	}
	r.leaveAll(s)
	if !target.Add(s) {
		return nil, ErrRoomFull
	}
	return target, nil
}

// LeaveAll removes s from every room it occupies.
func (r *RoomRegistry) LeaveAll(s *Session) {
	r.joinMu.Lock()
	defer r.joinMu.Unlock()
	r.leaveAll(s)
}

func (r *RoomRegistry) leaveAll(s *Session) {
	for _, room := range r.rooms {
		room.Remove(s)
	}
}

// ListAll returns the rooms in declaration order.
func (r *RoomRegistry) ListAll() []*Room {
	out := make([]*Room, len(r.rooms))
	copy(out, r.rooms)
	return out
}

// Names returns the room names in declaration order.
func (r *RoomRegistry) Names() []string {
	names := make([]string, len(r.rooms))
	for i, room := range r.rooms {
		names[i] = room.Name()
	}
	return names
}
