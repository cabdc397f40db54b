package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers. Styles are bound to
// a renderer for the handler's writer, so color is dropped automatically when
// the output is not a terminal.
type palette struct {
	key, str, num, time, dur lipgloss.Style
	yes, no, null            lipgloss.Style
	trace, debug, info       lipgloss.Style
	warn, err                lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		time:  fg("4"),
		dur:   fg("5"),
		yes:   fg("2"),
		no:    fg("1"),
		null:  fg("8"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyBase holds state shared by the pretty handlers.
type prettyBase struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	colors palette
	attrs  []slog.Attr
	group  string
}

func newPrettyBase(w io.Writer, opts *slog.HandlerOptions) prettyBase {
	return prettyBase{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		colors: newPalette(w),
	}
}

func (h prettyBase) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

// record flattens r into the ordered attribute list written by a handler,
// applying ReplaceAttr to the built-in keys.
func (h prettyBase) record(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs)+4)

	add := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if !a.Equal(slog.Attr{}) {
			out = append(out, a)
		}
	}

	if !r.Time.IsZero() {
		add(slog.Time(slog.TimeKey, r.Time))
	}

	add(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			add(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	add(slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		out = append(out, h.qualify(a))
	}

	r.Attrs(func(a slog.Attr) bool {
		out = append(out, h.qualify(a))

		return true
	})

	return out
}

func (h prettyBase) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}

	return a
}

func (h prettyBase) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h prettyBase) withAttrs(attrs []slog.Attr) prettyBase {
	for _, a := range attrs {
		h.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(a))
	}

	return h
}

func (h prettyBase) withGroup(name string) prettyBase {
	if h.group == "" {
		h.group = name
	} else {
		h.group += "." + name
	}

	return h
}

// prettyTextHandler writes one colorized key=value line per record.
type prettyTextHandler struct{ prettyBase }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{newPrettyBase(w, opts)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for i, a := range h.record(r) {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.text(a.Key, a.Value.Resolve()))
	}

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) text(key string, v slog.Value) string {
	p := h.colors

	switch v.Kind() {
	case slog.KindString:
		if key == slog.LevelKey {
			return p.level(slog.Level(ParseLevel(v.String()))).Render(v.String())
		}

		return p.str.Render(v.String())

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.num.Render(v.String())

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(v.Time().Format(time.RFC3339))

	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, p.key.Render(a.Key)+"="+h.text(a.Key, a.Value.Resolve()))
		}

		return "{" + strings.Join(parts, " ") + "}"

	case slog.KindAny:
		if level, ok := v.Any().(slog.Level); ok {
			return p.level(level).Render(strings.ToUpper(Level(level).String()))
		}

		if v.Any() == nil {
			return p.null.Render("<nil>")
		}
	}

	return p.str.Render(v.String())
}

// prettyJSONHandler writes one indented JSON object per record, with keys
// in record order.
type prettyJSONHandler struct{ prettyBase }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{newPrettyBase(w, opts)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	h.object(buf, h.record(r), "")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) object(buf *bytes.Buffer, attrs []slog.Attr, indent string) {
	buf.WriteString("{")

	for i, a := range attrs {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteString("\n" + indent + "  ")
		buf.WriteString(h.colors.key.Render(strconv.Quote(a.Key)))
		buf.WriteString(": ")
		h.value(buf, a.Key, a.Value.Resolve(), indent+"  ")
	}

	if len(attrs) > 0 {
		buf.WriteString("\n" + indent)
	}

	buf.WriteString("}")
}

func (h *prettyJSONHandler) value(buf *bytes.Buffer, key string, v slog.Value, indent string) {
	p := h.colors

	switch v.Kind() {
	case slog.KindGroup:
		h.object(buf, v.Group(), indent)

		return

	case slog.KindString:
		style := p.str
		if key == slog.LevelKey {
			style = p.level(slog.Level(ParseLevel(v.String())))
		}

		buf.WriteString(style.Render(strconv.Quote(v.String())))

		return

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		buf.WriteString(p.num.Render(v.String()))

		return

	case slog.KindBool:
		if v.Bool() {
			buf.WriteString(p.yes.Render("true"))
		} else {
			buf.WriteString(p.no.Render("false"))
		}

		return

	case slog.KindDuration:
		buf.WriteString(p.dur.Render(strconv.Quote(v.Duration().String())))

		return

	case slog.KindTime:
		buf.WriteString(p.time.Render(strconv.Quote(v.Time().Format(time.RFC3339Nano))))

		return
	}

	val := v.Any()
	if level, ok := val.(slog.Level); ok {
		buf.WriteString(p.level(level).Render(strconv.Quote(strings.ToUpper(Level(level).String()))))

		return
	}

	if err, ok := val.(error); ok {
		val = err.Error()
	}

	enc, err := json.Marshal(val)
	if err != nil {
		enc = []byte(strconv.Quote(fmt.Sprint(val)))
	}

	if string(enc) == "null" {
		buf.WriteString(p.null.Render("null"))

		return
	}

	buf.WriteString(p.str.Render(string(enc)))
}
