package alerting

import (
	"fmt"
	"strconv"
)

// Recognized field names.
const (
	FieldAlert    = "alert"
	FieldMessage  = "message"
	FieldDedupKey = "dedup_key"
)

type FieldKind uint8

const (
	BoolKind FieldKind = iota
	StringKind
	OpaqueKind
)

// Field is one named value attached to an event. Exactly one of the value
// slots is meaningful, selected by Kind.
type Field struct {
	Name   string
	Kind   FieldKind
	Bool   bool
	Str    string
	Opaque interface{}
}

func Bool(name string, v bool) Field {
	return Field{Name: name, Kind: BoolKind, Bool: v}
}

func String(name, v string) Field {
	return Field{Name: name, Kind: StringKind, Str: v}
}

// Any stores v as an opaque value rendered with its most generic string form.
func Any(name string, v interface{}) Field {
	switch val := v.(type) {
	case bool:
		return Bool(name, val)
	case string:
		return String(name, val)
	}
	return Field{Name: name, Kind: OpaqueKind, Opaque: v}
}

// Text coerces the value to its string form. It never fails.
func (f Field) Text() string {
	switch f.Kind {
	case BoolKind:
		return strconv.FormatBool(f.Bool)
	case StringKind:
		return f.Str
	}
	return opaqueText(f.Opaque)
}

func opaqueText(v interface{}) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("%T", v)
		}
	}()
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case []byte:
		return string(val)
	}
	return fmt.Sprintf("%v", v)
}
