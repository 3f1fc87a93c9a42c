// Package events decodes newline-delimited JSON log lines into the level and
// fields the alert pipeline observes.
package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
)

var ErrNotObject = errors.New("log line is not a JSON object")

var (
	levelKeys   = []string{"level", "L", "lvl", "severity"}
	messageKeys = []string{"msg", "M"}
	timeKeys    = map[string]bool{"ts": true, "time": true, "T": true, "timestamp": true}
)

type Entry struct {
	Level  zapcore.Level
	Fields []alerting.Field
}

// rawValue keeps non-scalar JSON values in their compact encoded form.
type rawValue []byte

func (r rawValue) String() string {
	return string(r)
}

// Decode parses one log line. Lines with no recognizable level are treated as
// info. "msg" and "M" become the message field unless the line already
// carries one.
func Decode(line []byte) (Entry, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return Entry{}, ErrNotObject
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(line, &obj); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	entry := Entry{Level: zapcore.InfoLevel}
	consumed := make(map[string]bool, 4)
	for _, key := range levelKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		consumed[key] = true
		if lvl, ok := parseLevel(raw); ok {
			entry.Level = lvl
			break
		}
	}
	if _, ok := obj[alerting.FieldMessage]; !ok {
		for _, key := range messageKeys {
			if raw, ok := obj[key]; ok {
				consumed[key] = true
				entry.Fields = append(entry.Fields, decodeField(alerting.FieldMessage, raw))
				break
			}
		}
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		if consumed[key] || timeKeys[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry.Fields = append(entry.Fields, decodeField(key, obj[key]))
	}
	return entry, nil
}

func decodeField(name string, raw json.RawMessage) alerting.Field {
	switch {
	case bytes.Equal(raw, []byte("true")):
		return alerting.Bool(name, true)
	case bytes.Equal(raw, []byte("false")):
		return alerting.Bool(name, false)
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return alerting.String(name, s)
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return alerting.Any(name, rawValue(raw))
	}
	return alerting.Any(name, rawValue(compact.Bytes()))
}

// parseLevel accepts zap, logrus and slog level names, and slog's numeric
// levels.
func parseLevel(raw json.RawMessage) (zapcore.Level, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		n, err := strconv.Atoi(string(raw))
		if err != nil {
			return zapcore.InfoLevel, false
		}
		return slogLevel(n), true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return zapcore.DebugLevel, true
	case "info", "information", "notice":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error", "err":
		return zapcore.ErrorLevel, true
	case "dpanic", "critical", "crit":
		return zapcore.DPanicLevel, true
	case "panic", "alert", "emerg", "emergency":
		return zapcore.PanicLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	}
	return zapcore.InfoLevel, false
}

func slogLevel(n int) zapcore.Level {
	switch {
	case n >= 8:
		return zapcore.ErrorLevel
	case n >= 4:
		return zapcore.WarnLevel
	case n >= 0:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

type Stats struct {
	Lines   int
	Decoded int
	Invalid int
}

// Stream decodes r line by line and calls handle for every decoded entry. It
// stops at EOF, on a read error, or when ctx is done.
func Stream(ctx context.Context, r io.Reader, handle func(Entry)) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), config.MaxLogLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Lines++
		entry, err := Decode(scanner.Bytes())
		if err != nil {
			stats.Invalid++
			logger.Diagnostics().Debug("Skipping undecodable log line",
				zap.Int("line", stats.Lines), zap.Error(err))
			continue
		}
		stats.Decoded++
		handle(entry)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read log stream: %w", err)
	}
	return stats, nil
}
