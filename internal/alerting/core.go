package alerting

import (
	"go.uber.org/zap/zapcore"
)

// alertCore is the zap front end of a Layer. Fields attached with With are
// kept and replayed ahead of each entry's own fields.
type alertCore struct {
	layer  *Layer
	fields []zapcore.Field
}

var _ zapcore.Core = (*alertCore)(nil)

func (c *alertCore) Enabled(level zapcore.Level) bool {
	return c.layer.Enabled(level)
}

func (c *alertCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &alertCore{layer: c.layer, fields: merged}
}

func (c *alertCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *alertCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if !c.layer.Enabled(ent.Level) {
		return nil
	}
	converted := make([]Field, 0, len(c.fields)+len(fields)+1)
	if ent.Message != "" {
		converted = append(converted, String(FieldMessage, ent.Message))
	}
	converted = appendZapFields(converted, c.fields)
	converted = appendZapFields(converted, fields)
	c.layer.Observe(ent.Level, converted...)
	return nil
}

func (c *alertCore) Sync() error {
	return nil
}

// FromZap converts zap fields to pipeline fields.
func FromZap(fields ...zapcore.Field) []Field {
	return appendZapFields(make([]Field, 0, len(fields)), fields)
}

func appendZapFields(dst []Field, fields []zapcore.Field) []Field {
	for _, f := range fields {
		switch f.Type {
		case zapcore.SkipType, zapcore.NamespaceType:
			continue
		case zapcore.BoolType:
			dst = append(dst, Bool(f.Key, f.Integer == 1))
		case zapcore.StringType:
			dst = append(dst, String(f.Key, f.String))
		case zapcore.ByteStringType:
			if b, ok := f.Interface.([]byte); ok {
				dst = append(dst, String(f.Key, string(b)))
			}
		case zapcore.ErrorType, zapcore.StringerType:
			dst = append(dst, Field{Name: f.Key, Kind: OpaqueKind, Opaque: f.Interface})
		default:
			enc := zapcore.NewMapObjectEncoder()
			f.AddTo(enc)
			dst = append(dst, Field{Name: f.Key, Kind: OpaqueKind, Opaque: enc.Fields[f.Key]})
		}
	}
	return dst
}
