package chat

import (
	"fmt"
	"sync"
)

// Room is a bounded, insertion-ordered member set. Add, Remove and
// Broadcast hold the room lock for their whole duration, so a broadcast
// always sees one consistent membership snapshot. Delivery only queues
// lines on each member, it never blocks on a connection.
type Room struct {
	name     string
	capacity int

	mu      sync.Mutex
	members []*Session
}

// NewRoom builds an empty room. Capacities below one are raised to one.
func NewRoom(name string, capacity int) *Room {
	if capacity < 1 {
		capacity = 1
	}
	RoomMembers.WithLabelValues(name).Set(0)
	return &Room{name: name, capacity: capacity}
}

func (r *Room) Name() string  { return r.name }
func (r *Room) Capacity() int { return r.capacity }

// Add inserts s and announces it to every member, s included. It refuses
// when the room is full or s is already a member.
func (r *Room) Add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) >= r.capacity || r.indexOf(s) >= 0 {
		return false
	}
	r.members = append(r.members, s)
	RoomMembers.WithLabelValues(r.name).Set(float64(len(r.members)))

	r.broadcastLocked(fmt.Sprintf("[%s] has joined the room!", s.Name()), nil)
	return true
}

// Remove drops s and announces the departure to the remaining members.
// Removing a non-member changes nothing and announces nothing.
func (r *Room) Remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(s)
	if i < 0 {
		return false
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	RoomMembers.WithLabelValues(r.name).Set(float64(len(r.members)))

	r.broadcastLocked(fmt.Sprintf("[%s] has left the room!", s.Name()), nil)
	return true
}

// Broadcast queues line on every member except exclude, which may be nil.
func (r *Room) Broadcast(line string, exclude *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(line, exclude)
}

func (r *Room) broadcastLocked(line string, exclude *Session) {
	for _, m := range r.members {
		if m == exclude {
			continue
		}
		m.Deliver(line)
	}
}

func (r *Room) Has(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(s) >= 0
}

func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) >= r.capacity
}

func (r *Room) Occupancy() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// MemberNames returns display names in join order.
func (r *Room) MemberNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.members))
	for i, m := range r.members {
		names[i] = m.Name()
	}
	return names
}

func (r *Room) indexOf(s *Session) int {
	for i, m := range r.members {
		if m == s {
			return i
		}
	}
	return -1
}
