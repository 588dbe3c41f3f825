package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Layout picks which attributes a TextHandler prints on the header line, in
// order, ahead of the message. Everything else goes below it, one per line.
type Layout struct {
	Columns []string
	// Code is printed in brackets in front of the message when present.
	Code string
	// Quote wraps the message in double quotes.
	Quote bool
}

var (
	LayoutHTTP    = Layout{Columns: []string{"proto", "method", "procedure", "status"}}
	LayoutConnect = Layout{Columns: []string{"method", "stream_type", "procedure"}, Code: "code", Quote: true}
	LayoutEngine  = Layout{Columns: []string{ViewAttributeKey, EventAttributeKey}}
)

type TextHandlerConfig struct {
	Color  bool
	Level  *slog.Level
	Layout Layout
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = &level
	}
}

func WithLayout(l Layout) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Layout = l
	}
}

// TextHandler writes human readable, optionally coloured records.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
	w     io.Writer
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{Color: true, Layout: LayoutConnect}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, mu: &sync.Mutex{}, w: w}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = *h.cfg.Level
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = slices.Concat(h.attrs, h.qualify(attrs))
	return &nh
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	nh.group = name
	return &nh
}

func (h *TextHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *TextHandler) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	}
	return color.FgCyan
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	kv := make(map[string]slog.Value, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		kv[a.Key] = a.Value
	}
	record.Attrs(func(a slog.Attr) bool {
		for _, q := range h.qualify([]slog.Attr{a}) {
			kv[q.Key] = q.Value
		}
		return true
	})

	buf := &bytes.Buffer{}
	plain := h.paint()
	plain.Fprintf(buf, "%s ", record.Time.Format(time.RFC3339))
	h.paint(levelColor(record.Level)).Fprintf(buf, "%s ", record.Level)
	for _, key := range h.cfg.Layout.Columns {
		if v, ok := kv[key]; ok {
			plain.Fprintf(buf, "%s ", v)
			delete(kv, key)
		}
	}

	msg := h.paint(color.FgGreen)
	quote := ""
	if h.cfg.Layout.Quote {
		quote = `"`
	}
	msg.Fprint(buf, quote)
	if key := h.cfg.Layout.Code; key != "" {
		if v, ok := kv[key]; ok {
			msg.Fprintf(buf, "[%s] ", v)
			delete(kv, key)
		}
	}
	msg.Fprintf(buf, "%s%s", record.Message, quote)
	if e, ok := kv[ErrorAttributeKey]; ok {
		h.paint(color.FgRed).Fprintf(buf, " %s%s%s", quote, e, quote)
		delete(kv, ErrorAttributeKey)
	}
	buf.WriteByte('\n')

	for _, k := range slices.Sorted(maps.Keys(kv)) {
		plain.Fprintf(buf, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("can't write log record: %w", err)
	}
	return nil
}
