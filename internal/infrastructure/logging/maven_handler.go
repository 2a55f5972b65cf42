package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// systemKey is lifted out of the attributes into the [SYSTEM] bracket.
const systemKey = "system"

type levelStyle struct {
	name  string
	color string
}

var levelStyles = map[slog.Level]levelStyle{
	slog.LevelDebug: {"DEBUG", colorGray},
	slog.LevelInfo:  {"INFO", colorCyan},
	slog.LevelWarn:  {"WARN", colorYellow},
	slog.LevelError: {"ERROR", colorRed},
}

func styleFor(level slog.Level) levelStyle {
	if s, ok := levelStyles[level]; ok {
		return s
	}
	return levelStyle{name: fmt.Sprintf("LEVEL(%d)", level), color: colorReset}
}

// MavenHandler is a slog.Handler that formats logs in Maven-style:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value key=value
//
// Groups are flattened into dotted keys (run.rows.hub=3).
type MavenHandler struct {
	w              io.Writer
	level          slog.Leveler
	mu             *sync.Mutex
	system         string // e.g., "engine", "api", "storage"
	showTimestamps bool
	useColors      bool
	prefix         string // open groups, joined and dot-terminated
	preformatted   string // attrs from WithAttrs, already rendered
}

// NewMavenHandler creates a new Maven-style handler
func NewMavenHandler(w io.Writer, opts *slog.HandlerOptions) *MavenHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &MavenHandler{
		w:              w,
		level:          level,
		mu:             &sync.Mutex{},
		showTimestamps: true,
		useColors:      isTerminal(w),
	}
}

// isTerminal checks if the writer is a terminal (for color output)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *MavenHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record
func (h *MavenHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	style := styleFor(r.Level)
	h.bracket(&buf, style.name, style.color)
	if h.system != "" {
		buf.WriteByte(' ')
		h.bracket(&buf, h.system, "")
	}
	if h.showTimestamps {
		buf.WriteByte(' ')
		h.bracket(&buf, r.Time.Format("15:04:05"), colorGray)
	}

	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.preformatted)

	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *MavenHandler) bracket(buf *strings.Builder, text, color string) {
	colored := h.useColors && color != ""
	if colored {
		buf.WriteString(color)
	}
	buf.WriteByte('[')
	buf.WriteString(text)
	buf.WriteByte(']')
	if colored {
		buf.WriteString(colorReset)
	}
}

// appendAttr writes " key=value", recursing into groups. Values with
// whitespace or quotes are quoted.
func appendAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, prefix, ga)
		}
		return
	}

	val := fmt.Sprint(a.Value.Any())
	if strings.ContainsAny(val, " \t\n\"") {
		val = strconv.Quote(val)
	}

	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(val)
}

func (h *MavenHandler) clone() *MavenHandler {
	c := *h
	return &c
}

// WithAttrs returns a new handler with the given attributes added. A
// top-level "system" attribute sets the bracket instead of being printed.
func (h *MavenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := h.clone()
	var buf strings.Builder
	buf.WriteString(h.preformatted)
	for _, a := range attrs {
		if a.Key == systemKey && h.prefix == "" {
			c.system = a.Value.String()
			continue
		}
		appendAttr(&buf, h.prefix, a)
	}
	c.preformatted = buf.String()
	return c
}

// WithGroup returns a new handler that qualifies later keys with name
func (h *MavenHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}
