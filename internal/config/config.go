// Package config loads the server settings from flags, falling back to
// CHESS_* environment variables and then to defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig indicates invalid configuration values.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr             string
	AllowOrigins     string
	LogLevel         string
	ClockSeconds     int
	IncrementSeconds int
	ReadBufferSize   int
	WriteBufferSize  int
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		AllowOrigins:     "http://localhost:5173",
		LogLevel:         "info",
		ClockSeconds:     600,
		IncrementSeconds: 0,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

// Load parses args (without the program name). Environment variables
// override the defaults; explicit flags override both.
func Load(args []string) (Config, error) {
	cfg := Default()
	cfg.Addr = envString("CHESS_ADDR", cfg.Addr)
	cfg.AllowOrigins = envString("CHESS_ALLOW_ORIGINS", cfg.AllowOrigins)
	cfg.LogLevel = envString("CHESS_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.ClockSeconds, err = envInt("CHESS_CLOCK_SECONDS", cfg.ClockSeconds); err != nil {
		return cfg, err
	}
	if cfg.IncrementSeconds, err = envInt("CHESS_INCREMENT_SECONDS", cfg.IncrementSeconds); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.AllowOrigins, "allow-origins", cfg.AllowOrigins, "comma separated CORS origins")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.ClockSeconds, "clock", cfg.ClockSeconds, "default clock per side in seconds (0 = untimed)")
	fs.IntVar(&cfg.IncrementSeconds, "increment", cfg.IncrementSeconds, "default increment per move in seconds")
	fs.IntVar(&cfg.ReadBufferSize, "ws-read-buffer", cfg.ReadBufferSize, "websocket read buffer size")
	fs.IntVar(&cfg.WriteBufferSize, "ws-write-buffer", cfg.WriteBufferSize, "websocket write buffer size")
	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("empty listen address: %w", ErrInvalidConfig)
	case c.ClockSeconds < 0:
		return fmt.Errorf("clock %d: %w", c.ClockSeconds, ErrInvalidConfig)
	case c.IncrementSeconds < 0:
		return fmt.Errorf("increment %d: %w", c.IncrementSeconds, ErrInvalidConfig)
	case c.ReadBufferSize <= 0 || c.WriteBufferSize <= 0:
		return fmt.Errorf("websocket buffers must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Clock() time.Duration {
	return time.Duration(c.ClockSeconds) * time.Second
}

func (c Config) Increment() time.Duration {
	return time.Duration(c.IncrementSeconds) * time.Second
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q: %w", key, v, ErrInvalidConfig)
	}
	return n, nil
}
