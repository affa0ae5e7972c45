// Package config defines the runtime configuration of the chat server and
// the parser for its room catalog.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds every tuneable of a server process.
type Config struct {
	Addr           string
	MetricsAddr    string
	WSAddr         string
	AllowedOrigins []string

	Rooms       []RoomSpec
	DefaultRoom string

	OutboundBuffer int
	StatusInterval time.Duration

	Verbose   int
	Quiet     bool
	LogFormat string
}

// Default returns a Config populated with the package defaults.
func Default() *Config {
	rooms, _ := ParseRooms(DefaultRooms)
	return &Config{
		Addr:           DefaultAddr,
		MetricsAddr:    DefaultMetricsAddr,
		Rooms:          rooms,
		DefaultRoom:    DefaultRoom,
		OutboundBuffer: DefaultOutboundBuffer,
		StatusInterval: DefaultStatusInterval,
		LogFormat:      DefaultLogFormat,
	}
}

// RoomSpec declares one room of the startup catalog.
type RoomSpec struct {
	Name     string
	Capacity int
}

func (r RoomSpec) String() string {
	return fmt.Sprintf("%s:%d", r.Name, r.Capacity)
}

// ParseRooms accepts "Lobby:10,Gaming:5". Order is preserved.
func ParseRooms(spec string) ([]RoomSpec, error) {
	var rooms []RoomSpec
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		idx := strings.LastIndex(item, ":")
		if idx < 0 {
			return nil, fmt.Errorf("room %q: expected name:capacity", item)
		}
		name := strings.TrimSpace(item[:idx])
		if name == "" {
			return nil, fmt.Errorf("room %q: empty name", item)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(item[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("room %q: invalid capacity", item)
		}
		rooms = append(rooms, RoomSpec{Name: name, Capacity: capacity})
	}
	return rooms, nil
}

// FormatRooms is the inverse of ParseRooms.
func FormatRooms(rooms []RoomSpec) string {
	parts := make([]string, len(rooms))
	for i, r := range rooms {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return &Error{Field: "addr", Message: "listen address is required"}
	}
	if len(c.Rooms) == 0 {
		return &Error{Field: "rooms", Message: "at least one room is required", Hint: "--rooms Lobby:10"}
	}

	seen := make(map[string]bool, len(c.Rooms))
	for _, r := range c.Rooms {
		if strings.TrimSpace(r.Name) == "" {
			return &Error{Field: "rooms", Message: "room name is empty"}
		}
		if strings.Contains(r.Name, ",") {
			return &Error{Field: "rooms", Value: r.Name, Message: "room name contains a comma"}
		}
		if r.Capacity < 1 {
			return &Error{Field: "rooms", Value: r.String(), Message: "capacity must be at least 1"}
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return &Error{Field: "rooms", Value: r.Name, Message: "duplicate room name"}
		}
		seen[key] = true
	}

	if !seen[strings.ToLower(c.DefaultRoom)] {
		return &Error{
			Field:   "default-room",
			Value:   c.DefaultRoom,
			Message: "not in the room catalog",
			Hint:    "pick one of " + FormatRooms(c.Rooms),
		}
	}
	if c.OutboundBuffer < 1 {
		return &Error{Field: "outbound-buffer", Value: c.OutboundBuffer, Message: "must be at least 1"}
	}
	if c.StatusInterval < 0 {
		return &Error{Field: "status-interval", Value: c.StatusInterval, Message: "must not be negative"}
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return &Error{Field: "log-format", Value: c.LogFormat, Message: "unknown format", Hint: "json or text"}
	}
	return nil
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Value   interface{}
	Message string
	Hint    string
}

func (e *Error) Error() string {
	msg := "config: --" + e.Field
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}
