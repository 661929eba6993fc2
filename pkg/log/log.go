// Package log provides structured logging for the routing daemon. It
// wraps Go's log/slog with per-module child loggers and a couple of
// helpers keyed to this repository's own domain types, so callers
// logging a peer or a change set don't hand-assemble the same
// id/link/counts attributes at every call site.
package log

import (
	"log/slog"
	"os"

	"github.com/dustan1/kademlia/pkg/routing"
)

// Logger wraps slog.Logger with module-scoped context.
type Logger struct {
	inner *slog.Logger
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler.
// Useful for tests or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// Module returns a child logger with an additional "module" attribute.
// This is the primary way subsystems (routing, transport, cmd) obtain
// their own contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// Peer returns a child logger with node's id and link attached as
// structured fields. pkg/transport uses this instead of passing "id"/
// "link" key-value pairs at every PeerAdmitted/PeerEvicted/PeerUpdated
// call site.
func (l *Logger) Peer(node routing.Node) *Logger {
	return &Logger{inner: l.inner.With("id", node.Id.String(), "link", node.Link)}
}

// ChangeSet returns a child logger with the size of cs's Added,
// Removed, and Updated lists attached as structured fields, for a
// single audit line summarizing what a Touch/Stale/Lock/Unlock call
// actually changed.
func (l *Logger) ChangeSet(cs routing.ActivityChangeSet) *Logger {
	return &Logger{inner: l.inner.With(
		"added", len(cs.Added),
		"removed", len(cs.Removed),
		"updated", len(cs.Updated),
	)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
