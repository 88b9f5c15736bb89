// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides the contextual logger used across the ledger.
// It is a thin layer over log/slog so packages can do
//
//	var logger = log.WithContext("pkg", "ledger")
//
// at init time; the output handler is swapped in later by the process
// entry point and applies to every logger already created.
package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// Logger is the leveled key/value logger used by all packages.
type Logger = *slog.Logger

var current atomic.Pointer[slog.Handler]

func init() {
	store(DiscardHandler())
}

func store(h slog.Handler) {
	current.Store(&h)
}

// SetDefault replaces the process-wide output handler. Loggers obtained
// from WithContext before the call pick the new handler up.
func SetDefault(h slog.Handler) {
	store(h)
}

var root = slog.New(&swapHandler{})

// Root returns the process-wide root logger.
func Root() Logger {
	return root
}

// WithContext returns a logger carrying the given key/value context.
func WithContext(kv ...any) Logger {
	return root.With(kv...)
}

// NewTerminalHandler returns a handler printing human-readable records.
func NewTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// NewJSONHandler returns a handler printing one JSON record per line.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// swapHandler forwards records to the current output handler, carrying
// the attrs accumulated via Logger.With.
type swapHandler struct {
	attrs []slog.Attr
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*current.Load()).Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	h := *current.Load()
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return h.Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, attrs...)
	return &swapHandler{attrs: merged}
}

func (s *swapHandler) WithGroup(string) slog.Handler {
	// groups are not used in this codebase
	return s
}

// Convenience level helpers on the root logger.

func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
