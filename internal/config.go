package internal

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the full environment of the relay process. Every field maps to an
// env variable; validation happens once at startup.
type Config struct {
	Host      string `env:"HOST,required=true" validate:"required"`
	Port      int    `env:"PORT,required=true" validate:"gt=0,lte=65535"`
	DebugPort int    `env:"DEBUG_PORT" validate:"gte=0,lte=65535"`

	LogLevel       string `env:"LOG_LEVEL,required=true" validate:"oneof=DEBUG INFO WARN ERROR"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true" validate:"required"`

	// Comma-separated list; empty means any origin (local development).
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	JWTSecret         string        `env:"JWT_SECRET"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true" validate:"gt=0"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,required=true" validate:"gt=0"`
}

// Origins splits the configured origin allow-list.
func (c Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Level maps the configured log level string to slog's representation,
// defaulting to Info on anything unexpected.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
