package alerting

import (
	"go.uber.org/zap/zapcore"
)

// Classifier turns an event's level and fields into an AlertRecord.
type Classifier struct {
	minLevel zapcore.Level
}

// NewClassifier returns a Classifier that ignores events less severe than minLevel.
func NewClassifier(minLevel zapcore.Level) *Classifier {
	return &Classifier{minLevel: minLevel}
}

func (c *Classifier) Enabled(level zapcore.Level) bool {
	return level >= c.minLevel
}

// Classify returns nil when level is filtered out; no field is looked at in
// that case. Repeated names keep their last value.
func (c *Classifier) Classify(level zapcore.Level, fields []Field) *AlertRecord {
	if !c.Enabled(level) {
		return nil
	}
	rec := &AlertRecord{
		level:  level,
		fields: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		rec.record(f)
	}
	return rec
}

func (r *AlertRecord) record(f Field) {
	if f.Kind == BoolKind && f.Name == FieldAlert {
		r.isAlert = f.Bool
	}
	r.fields[f.Name] = f.Text()
}
