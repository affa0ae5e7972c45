package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/andy6609/room-chat-server/internal/chat"
	"github.com/andy6609/room-chat-server/internal/config"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "chat-server: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(cfg)

	srv := chat.NewServer(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}

// loadConfig layers flags over CHAT_* env vars over defaults.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.Default()
	if err := config.LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("chat-server", flag.ContinueOnError)
	fs.StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "chat listen address")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "prometheus listen address (empty disables)")
	fs.StringVar(&cfg.WSAddr, "ws-addr", cfg.WSAddr, "websocket listen address (empty disables)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origin", cfg.AllowedOrigins, "allowed websocket origins (repeatable)")
	rooms := fs.String("rooms", config.FormatRooms(cfg.Rooms), "room catalog as name:capacity,...")
	fs.StringVar(&cfg.DefaultRoom, "default-room", cfg.DefaultRoom, "room joined after login")
	fs.IntVar(&cfg.OutboundBuffer, "outbound-buffer", cfg.OutboundBuffer, "per-session outbound queue length")
	fs.DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "status report interval (0 disables)")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "increase verbosity (repeatable)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "log warnings and errors only")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log output format: json or text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.Changed("rooms") {
		parsed, err := config.ParseRooms(*rooms)
		if err != nil {
			return nil, &config.Error{Field: "rooms", Value: *rooms, Message: err.Error()}
		}
		cfg.Rooms = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.Quiet:
		level = slog.LevelWarn
	case cfg.Verbose > 0:
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
