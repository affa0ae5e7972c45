package config

// Precedence order (highest wins):
//   1. CLI flags  (cmd/server)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv overlays CHAT_* environment variables onto cfg. Only
// non-empty, well-formed values override. Call it before flag parsing so
// flags take precedence.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("CHAT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("CHAT_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CHAT_WS_ADDR"); v != "" {
		cfg.WSAddr = v
	}
	if v := os.Getenv("CHAT_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("CHAT_ROOMS"); v != "" {
		rooms, err := ParseRooms(v)
		if err != nil {
			return &Error{Field: "rooms", Value: v, Message: err.Error()}
		}
		cfg.Rooms = rooms
	}
	if v := os.Getenv("CHAT_DEFAULT_ROOM"); v != "" {
		cfg.DefaultRoom = v
	}
	if v := envInt("CHAT_OUTBOUND_BUFFER"); v > 0 {
		cfg.OutboundBuffer = v
	}
	if v := os.Getenv("CHAT_STATUS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StatusInterval = d
		}
	}
	if v := envInt("CHAT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("CHAT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	return nil
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
