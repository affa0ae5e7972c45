package config

import "time"

const (
	// DefaultAddr is the chat listen address.
	DefaultAddr = ":5001"

	// DefaultMetricsAddr serves /metrics. Empty disables the endpoint.
	DefaultMetricsAddr = ":9090"

	// DefaultRooms is the canonical room catalog.
	DefaultRooms = "Lobby:10,Gaming:5,Study:5,Random:5,VIP:1"

	// DefaultRoom is the room every session joins after login.
	DefaultRoom = "Lobby"

	// DefaultOutboundBuffer is the per-session outbound queue length.
	DefaultOutboundBuffer = 64

	// DefaultStatusInterval is how often the server logs a status report.
	DefaultStatusInterval = 5 * time.Minute

	// DefaultLogFormat is the slog handler used when none is requested.
	DefaultLogFormat = "json"
)
