package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// colorHandler is a human-oriented stderr handler for local debugging.
// One line per record: time, colored level, message, key=value attrs.
type colorHandler struct {
	out   io.Writer
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
}

var levelColors = map[slog.Level]*color.Color{
	slog.LevelDebug: color.New(color.FgHiBlack),
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed),
}

func newColorHandler(out io.Writer, level slog.Level) *colorHandler {
	return &colorHandler{
		out:   out,
		level: level,
		mu:    &sync.Mutex{},
	}
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(r.Time.Format("15:04:05.000"))
	b.WriteString(" ")

	c, ok := levelColors[r.Level]
	if !ok {
		c = color.New(color.FgWhite)
	}
	b.WriteString(c.Sprintf("%-5s", r.Level.String()))
	b.WriteString(" ")
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})

	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &colorHandler{
		out:   h.out,
		level: h.level,
		attrs: merged,
		mu:    h.mu,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the runner never nests them.
	return h
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	b.WriteString(" ")
	b.WriteString(color.New(color.FgCyan).Sprint(a.Key))
	b.WriteString("=")
	b.WriteString(fmt.Sprint(a.Value.Any()))
}
