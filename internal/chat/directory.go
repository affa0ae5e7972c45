package chat

import (
	"log/slog"
	"strings"
	"time"
)

// Directory is the set of live sessions, indexed by display name for
// private messages. All state is owned by the Run goroutine; callers talk
// to it through events.
type Directory struct {
	events chan directoryEvent
	stopCh chan struct{}
	doneCh chan struct{}
	logger *slog.Logger
}

func NewDirectory(buffer int, logger *slog.Logger) *Directory {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		events: make(chan directoryEvent, buffer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// Stop signals the Run loop to exit.
func (d *Directory) Stop() {
	close(d.stopCh)
}

// Wait blocks until the Run loop has completely finished.
func (d *Directory) Wait() {
	<-d.doneCh
}

func (d *Directory) Run() {
	defer close(d.doneCh)
	// Single-writer ownership: these maps are only accessed in this goroutine.
	sessions := make(map[*Session]string)
	byName := make(map[string][]*Session)

	for {
		select {
		case ev := <-d.events:
			start := time.Now()

			var reply directoryReply
			switch ev.Type {
			case eventRegister:
				if _, ok := sessions[ev.Session]; !ok {
					sessions[ev.Session] = ""
				}
				ConnectedSessions.Set(float64(len(sessions)))
			case eventLogin:
				d.handleLogin(sessions, byName, ev)
			case eventUnregister:
				d.handleUnregister(sessions, byName, ev)
				ConnectedSessions.Set(float64(len(sessions)))
			case eventLookup:
				// Names are not unique; the most recent login wins.
				if list := byName[normalizeName(ev.Name)]; len(list) > 0 {
					reply.Session = list[len(list)-1]
				}
			case eventCount:
				reply.Count = len(sessions)
			}

			if ev.Reply != nil {
				ev.Reply <- reply
			}
			EventProcessingDuration.WithLabelValues(ev.Type.String()).Observe(time.Since(start).Seconds())
		case <-d.stopCh:
			return
		}
	}
}

func (d *Directory) handleLogin(sessions map[*Session]string, byName map[string][]*Session, ev directoryEvent) {
	key := normalizeName(ev.Name)
	if old, ok := sessions[ev.Session]; ok && old != "" {
		byName[old] = without(byName[old], ev.Session)
	}
	sessions[ev.Session] = key
	byName[key] = append(byName[key], ev.Session)
	if len(byName[key]) > 1 {
		d.logger.Warn("display name shared by several sessions", "name", ev.Name, "count", len(byName[key]))
	}
}

func (d *Directory) handleUnregister(sessions map[*Session]string, byName map[string][]*Session, ev directoryEvent) {
	key, ok := sessions[ev.Session]
	if !ok {
		return
	}
	delete(sessions, ev.Session)
	if key == "" {
		return
	}
	if rest := without(byName[key], ev.Session); len(rest) > 0 {
		byName[key] = rest
	} else {
		delete(byName, key)
	}
}

// Register adds s to the live set. Idempotent.
func (d *Directory) Register(s *Session) error {
	_, err := d.call(directoryEvent{Type: eventRegister, Session: s})
	return err
}

// Login makes s addressable under name.
func (d *Directory) Login(s *Session, name string) error {
	_, err := d.call(directoryEvent{Type: eventLogin, Session: s, Name: name})
	return err
}

// Unregister removes s. Unknown sessions are ignored.
func (d *Directory) Unregister(s *Session) {
	_, _ = d.call(directoryEvent{Type: eventUnregister, Session: s})
}

// Lookup finds a session by display name, case-insensitively.
func (d *Directory) Lookup(name string) (*Session, bool) {
	reply, err := d.call(directoryEvent{Type: eventLookup, Name: name})
	if err != nil || reply.Session == nil {
		return nil, false
	}
	return reply.Session, true
}

// Count returns the number of registered sessions.
func (d *Directory) Count() int {
	reply, err := d.call(directoryEvent{Type: eventCount})
	if err != nil {
		return 0
	}
	return reply.Count
}

func (d *Directory) call(ev directoryEvent) (directoryReply, error) {
	ev.Reply = make(chan directoryReply, 1)
	select {
	case d.events <- ev:
	case <-d.doneCh:
		return directoryReply{}, ErrDirectoryStopped
	}
	select {
	case reply := <-ev.Reply:
		return reply, nil
	case <-d.doneCh:
		return directoryReply{}, ErrDirectoryStopped
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func without(list []*Session, s *Session) []*Session {
	out := list[:0]
	for _, x := range list {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
