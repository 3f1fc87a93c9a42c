package alerting

import (
	"context"
	"log/slog"

	"go.uber.org/zap/zapcore"
)

type slogHandler struct {
	layer  *Layer
	attrs  []Field
	prefix string
}

var _ slog.Handler = (*slogHandler)(nil)

// zapLevel maps slog levels onto the zap scale; levels between the named
// slog levels round down.
func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l >= slog.LevelError:
		return zapcore.ErrorLevel
	case l >= slog.LevelWarn:
		return zapcore.WarnLevel
	case l >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.layer.Enabled(zapLevel(level))
}

func (h *slogHandler) Handle(_ context.Context, r slog.Record) error {
	level := zapLevel(r.Level)
	if !h.layer.Enabled(level) {
		return nil
	}
	fields := make([]Field, 0, len(h.attrs)+r.NumAttrs()+1)
	if r.Message != "" {
		fields = append(fields, String(FieldMessage, r.Message))
	}
	fields = append(fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendSlogAttr(fields, h.prefix, a)
		return true
	})
	h.layer.Observe(level, fields...)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]Field, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = appendSlogAttr(merged, h.prefix, a)
	}
	return &slogHandler{layer: h.layer, attrs: merged, prefix: h.prefix}
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &slogHandler{layer: h.layer, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func appendSlogAttr(dst []Field, prefix string, a slog.Attr) []Field {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return dst
	}
	switch v.Kind() {
	case slog.KindGroup:
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			dst = appendSlogAttr(dst, p, ga)
		}
		return dst
	case slog.KindBool:
		return append(dst, Bool(prefix+a.Key, v.Bool()))
	case slog.KindString:
		return append(dst, String(prefix+a.Key, v.String()))
	default:
		return append(dst, Field{Name: prefix + a.Key, Kind: OpaqueKind, Opaque: v.Any()})
	}
}
