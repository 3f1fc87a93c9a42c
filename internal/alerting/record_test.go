package alerting

import (
	"crypto/sha256"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestClassifier_FiltersByLevel(t *testing.T) {
	c := NewClassifier(zapcore.WarnLevel)
	tests := []struct {
		level zapcore.Level
		want  bool
	}{
		{zapcore.DebugLevel, false},
		{zapcore.InfoLevel, false},
		{zapcore.WarnLevel, true},
		{zapcore.ErrorLevel, true},
		{zapcore.FatalLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			rec := c.Classify(tt.level, []Field{Bool(FieldAlert, true)})
			if (rec != nil) != tt.want {
				t.Errorf("Classify(%v) returned record=%v, want %v", tt.level, rec != nil, tt.want)
			}
		})
	}
}

func TestClassifier_FilteredEventsSkipFieldWork(t *testing.T) {
	c := NewClassifier(zapcore.ErrorLevel)
	called := false
	// Text() on this value would set called.
	fields := []Field{{Name: "x", Kind: OpaqueKind, Opaque: stringerFunc(func() string {
		called = true
		return "x"
	})}}
	if rec := c.Classify(zapcore.InfoLevel, fields); rec != nil {
		t.Fatal("Expected nil record for filtered level")
	}
	if called {
		t.Error("Field values should not be rendered for filtered events")
	}
}

type stringerFunc func() string

func (f stringerFunc) String() string { return f() }

func TestClassifier_IsAlert(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	tests := []struct {
		name   string
		fields []Field
		want   bool
	}{
		{"bool true", []Field{Bool(FieldAlert, true)}, true},
		{"bool false still present", []Field{Bool(FieldAlert, false)}, true},
		{"string value", []Field{String(FieldAlert, "yes")}, true},
		{"opaque value", []Field{Any(FieldAlert, 1)}, true},
		{"absent", []Field{String(FieldMessage, "hello")}, false},
		{"no fields", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(zapcore.ErrorLevel, tt.fields)
			if rec.IsAlert() != tt.want {
				t.Errorf("IsAlert() = %v, want %v", rec.IsAlert(), tt.want)
			}
		})
	}
}

func TestClassifier_Coercion(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	rec := c.Classify(zapcore.ErrorLevel, []Field{
		Bool("flag", true),
		String("name", "db-1"),
		Any("count", 42),
		Any("ratio", 0.5),
		Any("err", errors.New("boom")),
		Any("wait", 2*time.Second),
		Any("nothing", nil),
		Any("raw", []byte("bytes")),
	})
	want := map[string]string{
		"flag":    "true",
		"name":    "db-1",
		"count":   "42",
		"ratio":   "0.5",
		"err":     "boom",
		"wait":    "2s",
		"nothing": "<nil>",
		"raw":     "bytes",
	}
	if got := rec.Fields(); !reflect.DeepEqual(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}
}

type panicStringer struct{}

func (panicStringer) String() string { panic("bad stringer") }

func TestField_TextNeverFails(t *testing.T) {
	f := Any("p", panicStringer{})
	if got := f.Text(); got != "alerting.panicStringer" {
		t.Errorf("Text() = %q", got)
	}
}

func TestClassifier_LastWriteWins(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	rec := c.Classify(zapcore.ErrorLevel, []Field{
		String(FieldMessage, "first"),
		String(FieldMessage, "second"),
	})
	if rec.Message() != "second" {
		t.Errorf("Message() = %q, want %q", rec.Message(), "second")
	}
}

func TestClassifier_OrderIndependent(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	fields := []Field{
		Bool(FieldAlert, true),
		String(FieldMessage, "disk full"),
		String(FieldDedupKey, "disk"),
		Any("free_bytes", 0),
	}
	base := c.Classify(zapcore.ErrorLevel, fields)
	perms := [][]int{{3, 2, 1, 0}, {1, 0, 3, 2}, {2, 3, 0, 1}, {0, 2, 1, 3}}
	for _, p := range perms {
		permuted := make([]Field, len(fields))
		for i, idx := range p {
			permuted[i] = fields[idx]
		}
		rec := c.Classify(zapcore.ErrorLevel, permuted)
		if !reflect.DeepEqual(rec, base) {
			t.Errorf("permutation %v produced %+v, want %+v", p, rec, base)
		}
	}
}

func TestAlertRecord_MessageFallback(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	rec := c.Classify(zapcore.WarnLevel, []Field{Bool(FieldAlert, true)})
	if rec.Message() != MissingMessage {
		t.Errorf("Message() = %q, want %q", rec.Message(), MissingMessage)
	}
	if rec.FormattedMessage() != "WARN: "+MissingMessage {
		t.Errorf("FormattedMessage() = %q", rec.FormattedMessage())
	}
}

func TestAlertRecord_DedupIdentity(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{"message only", []Field{String(FieldMessage, "disk full")}, "disk full"},
		{"explicit key", []Field{String(FieldMessage, "disk full"), String(FieldDedupKey, "disk")}, "disk"},
		{"neither", nil, MissingMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(zapcore.ErrorLevel, tt.fields)
			if got := rec.DedupIdentity(); got != tt.want {
				t.Errorf("DedupIdentity() = %q, want %q", got, tt.want)
			}
			if rec.IdentityHash() != sha256.Sum256([]byte(tt.want)) {
				t.Error("IdentityHash() should be the SHA-256 of the dedup identity")
			}
		})
	}
}

func TestAlertRecord_FormattedMessage(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	rec := c.Classify(zapcore.ErrorLevel, []Field{String(FieldMessage, "disk full")})
	if got := rec.FormattedMessage(); got != "ERROR: disk full" {
		t.Errorf("FormattedMessage() = %q, want %q", got, "ERROR: disk full")
	}
}

func TestAlertRecord_FieldsIsCopy(t *testing.T) {
	c := NewClassifier(zapcore.DebugLevel)
	rec := c.Classify(zapcore.ErrorLevel, []Field{String(FieldMessage, "m")})
	f := rec.Fields()
	f[FieldMessage] = "changed"
	if rec.Message() != "m" {
		t.Error("Mutating Fields() result must not change the record")
	}
	if _, ok := rec.Field("missing"); ok {
		t.Error("Field() should report absence")
	}
}
