package alerting

import (
	"crypto/sha256"

	"go.uber.org/zap/zapcore"
)

// MissingMessage is used as the alert body when the event carries no message.
const MissingMessage = "alert missing message"

// AlertRecord is one classified event. It is built once by the Classifier and
// never mutated afterwards.
type AlertRecord struct {
	level   zapcore.Level
	isAlert bool
	fields  map[string]string
}

func (r *AlertRecord) Level() zapcore.Level {
	return r.level
}

// IsAlert reports whether the event was flagged with a true "alert" field or
// carries an "alert" field under any value.
func (r *AlertRecord) IsAlert() bool {
	if r.isAlert {
		return true
	}
	_, ok := r.fields[FieldAlert]
	return ok
}

func (r *AlertRecord) Field(name string) (string, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns a copy of the string-coerced fields.
func (r *AlertRecord) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

func (r *AlertRecord) Message() string {
	if msg, ok := r.fields[FieldMessage]; ok {
		return msg
	}
	return MissingMessage
}

// DedupIdentity is the explicit dedup_key when present, the message otherwise.
func (r *AlertRecord) DedupIdentity() string {
	if key, ok := r.fields[FieldDedupKey]; ok {
		return key
	}
	return r.Message()
}

func (r *AlertRecord) IdentityHash() [32]byte {
	return sha256.Sum256([]byte(r.DedupIdentity()))
}

// FormattedMessage renders "LEVEL: message", the text handed to a Deliverer.
func (r *AlertRecord) FormattedMessage() string {
	return r.level.CapitalString() + ": " + r.Message()
}
