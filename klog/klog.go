// Kernel logging over the serial console
// https://github.com/kestrel-kernel/kestrel
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package klog wraps log/slog so kernel log lines go out over the serial
// UART, independent of (and available long before) the VESA framebuffer
// comes up (spec.md §4.11/§4.13).
package klog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Handler is an slog.Handler that serializes every record to a single
// line of "time level msg attrs" and writes it to a serial port under a
// mutex, mirroring rcornwell-S370's util/logger.LogHandler but re-pointed
// at an io.Writer (the kernel wires in a *soc/intel/uart.UART, which
// implements Write) instead of a file/os.Stderr.
type Handler struct {
	port  io.Writer
	mu    *sync.Mutex
	level slog.Level
}

// NewHandler returns a Handler writing to port at the given minimum
// level.
func NewHandler(port io.Writer, level slog.Level) *Handler {
	return &Handler{
		port:  port,
		mu:    &sync.Mutex{},
		level: level,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) WithAttrs(_ []slog.Attr) slog.Handler {
	// Attrs are folded into the line at Handle time; a record carrying
	// its own attrs already renders them, so grouped attrs from
	// WithAttrs would require per-handler state this kernel logger has
	// no caller for. Returning h unchanged keeps the single shared port
	// and mutex intact.
	return h
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

// Handle formats the record as "time level msg [attrs]" and writes it to
// the UART, one line per record, serialized by the handler's mutex so
// concurrent log calls never interleave mid-line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{
		r.Time.Format("15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}

	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})

	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.port.Write([]byte(line))
	return err
}

// New returns an slog.Logger writing through Handler to port.
func New(port io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(port, level))
}
