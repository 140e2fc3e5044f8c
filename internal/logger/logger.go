// Package logger wraps zerolog behind a small interface so the rest of the
// application never imports zerolog directly.
package logger

import (
	"io"
	"os"
	"strings"

	"soulbalance/internal/config"

	"github.com/rs/zerolog"
)

// Logger is the logging surface used by services, handlers and middleware.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error, msg string)
	Fatal(err error, msg string)
	With(fields map[string]interface{}) Logger
}

// AppName is stamped on every entry written by a logger from New.
const AppName = "soulbalance"

type zlog struct {
	z zerolog.Logger
}

// New builds a Logger from cfg. Format "console" gives human-readable lines,
// anything else gives one JSON object per line. out defaults to stdout.
func New(cfg config.LogConfig, out io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}
	w := out
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout, TimeFormat: "15:04:05"}
	}

	level, ok := parseLevel(cfg.Level)
	z := zerolog.New(w).Level(level).With().Timestamp().Str("app", AppName).Logger()
	if !ok {
		z.Warn().Str("configured_level", cfg.Level).Msg("Unknown log level, using info")
	}
	return &zlog{z: z}
}

// parseLevel maps a config level to zerolog, falling back to info.
// ok is false only when a non-empty level could not be parsed.
func parseLevel(s string) (zerolog.Level, bool) {
	if s == "" {
		return zerolog.InfoLevel, true
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}

// Nop discards everything.
func Nop() Logger {
	return &zlog{z: zerolog.Nop()}
}

func (l *zlog) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l *zlog) Info(msg string)  { l.z.Info().Msg(msg) }
func (l *zlog) Warn(msg string)  { l.z.Warn().Msg(msg) }

// Error omits the error field when err is nil.
func (l *zlog) Error(err error, msg string) {
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(msg)
}

func (l *zlog) Fatal(err error, msg string) {
	l.z.Fatal().Err(err).Msg(msg)
}

// With returns a child logger carrying fields on every entry.
func (l *zlog) With(fields map[string]interface{}) Logger {
	return &zlog{z: l.z.With().Fields(fields).Logger()}
}
