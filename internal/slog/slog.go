// Package slog brokers between log/slog and golang.org/x/exp/slog depending on the Go version, and carries a logger
// in a context so that workers can tag everything they log about a request.
package slog

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Init replaces the default logger with a text logger writing to w at debug level.
func Init(w io.Writer) {
	setDefault(newLogger(newTextHandler(w, &handlerOptions{Level: levelDebug})))
}

// InitLevel is like Init, but only logs messages at or above the named level, which is one of "debug", "info",
// "warn" or "error".  An empty name is treated as "info".
func InitLevel(w io.Writer, name string) error {
	level := levelInfo
	switch strings.ToLower(name) {
	case ``, `info`:
	case `debug`:
		level = levelDebug
	case `warn`, `warning`:
		level = levelWarn
	case `error`:
		level = levelError
	default:
		return fmt.Errorf(`unknown log level %q`, name)
	}
	setDefault(newLogger(newTextHandler(w, &handlerOptions{Level: level})))
	return nil
}

func Error(msg string, keyvals ...any) { Background().Error(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Background().Warn(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Background().Info(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { Background().Debug(msg, keyvals...) }

// Background returns the default logger.
func Background() Interface { return wrap{context.Background(), defaultLogger()} }

// From returns the logger associated with ctx by With, or the default logger, extended with keyvals.
func From(ctx context.Context, keyvals ...any) Interface {
	logger, ok := ctx.Value(ctxLogger{}).(Interface)
	if !ok {
		return wrap{ctx, defaultLogger().With(keyvals...)}
	}
	if len(keyvals) == 0 {
		return logger
	}
	return logger.With(keyvals...)
}

// With returns a context whose logger includes keyvals in every message.
func With(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals) == 0 {
		return ctx
	}
	logger, ok := ctx.Value(ctxLogger{}).(Interface)
	if ok {
		return context.WithValue(ctx, ctxLogger{}, logger.With(keyvals...))
	}
	return context.WithValue(ctx, ctxLogger{}, wrap{ctx, defaultLogger().With(keyvals...)})
}

type ctxLogger struct{}

type wrap struct {
	ctx context.Context
	log *logger
}

func (w wrap) With(keyvals ...any) Interface {
	return wrap{w.ctx, w.log.With(keyvals...)}
}

func (w wrap) Error(msg string, keyvals ...any) { w.log.Log(w.ctx, levelError, msg, keyvals...) }
func (w wrap) Warn(msg string, keyvals ...any)  { w.log.Log(w.ctx, levelWarn, msg, keyvals...) }
func (w wrap) Info(msg string, keyvals ...any)  { w.log.Log(w.ctx, levelInfo, msg, keyvals...) }
func (w wrap) Debug(msg string, keyvals ...any) { w.log.Log(w.ctx, levelDebug, msg, keyvals...) }

// Interface is the structured logger returned by From and Background.
type Interface interface {
	With(keyvals ...any) Interface
	Error(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
}
