package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/config"
)

type delivery struct {
	level   zapcore.Level
	message string
}

type recordingSink struct {
	mu         sync.Mutex
	deliveries []delivery
	closed     bool
}

func (r *recordingSink) Deliver(_ context.Context, level zapcore.Level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{level, message})
	return nil
}

func (r *recordingSink) Name() string {
	return "recording"
}

func (r *recordingSink) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingSink) snapshot() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

// useRecordingSink swaps the sink factory for the duration of the test.
func useRecordingSink(t *testing.T) *recordingSink {
	t.Helper()
	rec := &recordingSink{}
	original := sinkFactory
	sinkFactory = func() (Sink, error) { return rec, nil }
	t.Cleanup(func() { sinkFactory = original })
	return rec
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != config.GetUserAgent() {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestEmit_DeliversFormattedAlert(t *testing.T) {
	rec := useRecordingSink(t)

	if _, err := runCLI(t, "", "emit", "--level", "error", "--message", "disk full"); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].level != zapcore.ErrorLevel || got[0].message != "ERROR: disk full" {
		t.Errorf("unexpected delivery %+v", got[0])
	}
	if !rec.closed {
		t.Error("sink should be closed on shutdown")
	}
}

func TestEmit_FatalBypassesLogger(t *testing.T) {
	rec := useRecordingSink(t)

	if _, err := runCLI(t, "", "emit", "--level", "fatal", "--message", "meltdown"); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	got := rec.snapshot()
	if len(got) != 1 || got[0].message != "FATAL: meltdown" {
		t.Errorf("unexpected deliveries %+v", got)
	}
}

func TestEmit_BelowThreshold(t *testing.T) {
	rec := useRecordingSink(t)

	_, err := runCLI(t, "", "emit", "--level", "info", "--message", "fyi")
	if err == nil || !strings.Contains(err.Error(), "below the alert threshold") {
		t.Fatalf("expected threshold error, got %v", err)
	}
	if len(rec.snapshot()) != 0 {
		t.Error("nothing should be delivered")
	}
}

func TestEmit_InvalidLevel(t *testing.T) {
	useRecordingSink(t)
	if _, err := runCLI(t, "", "emit", "--level", "loud"); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestWatch_FileDeduplicates(t *testing.T) {
	rec := useRecordingSink(t)

	path := filepath.Join(t.TempDir(), "app.log")
	lines := strings.Join([]string{
		`{"level":"error","msg":"disk full","alert":true}`,
		`{"level":"error","msg":"disk full","alert":true}`,
		`{"level":"error","msg":"no alert flag"}`,
		`{"level":"info","msg":"too quiet","alert":true}`,
		`garbage`,
		`{"level":"warn","msg":"slow","alert":true,"dedup_key":"latency"}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "", "watch", path); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %+v", got)
	}
	if got[0].message != "ERROR: disk full" || got[1].message != "WARN: slow" {
		t.Errorf("unexpected deliveries %+v", got)
	}
}

func TestWatch_ZeroDedupTTLDeliversRepeats(t *testing.T) {
	rec := useRecordingSink(t)

	stdin := strings.Repeat(`{"level":"error","msg":"disk full","alert":true}`+"\n", 3)
	if _, err := runCLI(t, stdin, "watch", "--dedup-ttl", "0"); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	if got := rec.snapshot(); len(got) != 3 {
		t.Errorf("expected every repeat delivered, got %+v", got)
	}
}

func TestWatch_Stdin(t *testing.T) {
	rec := useRecordingSink(t)

	stdin := `{"L":"ERROR","M":"from stdin","alert":true}` + "\n"
	if _, err := runCLI(t, stdin, "watch", "--min-level", "error"); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	got := rec.snapshot()
	if len(got) != 1 || got[0].message != "ERROR: from stdin" {
		t.Errorf("unexpected deliveries %+v", got)
	}
}

func TestWatch_MissingFile(t *testing.T) {
	useRecordingSink(t)
	if _, err := runCLI(t, "", "watch", filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatch_InvalidFlags(t *testing.T) {
	useRecordingSink(t)
	tests := [][]string{
		{"watch", "--queue-size", "0"},
		{"watch", "--dedup-ttl", "-1s"},
		{"watch", "--purge-interval", "10ms"},
		{"watch", "--min-level", "nope"},
	}
	for _, args := range tests {
		if _, err := runCLI(t, "", args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestWatch_SinkFactoryError(t *testing.T) {
	original := sinkFactory
	sinkFactory = func() (Sink, error) { return nil, errors.New("no sinks") }
	defer func() { sinkFactory = original }()

	_, err := runCLI(t, "", "watch")
	if err == nil || !strings.Contains(err.Error(), "no sinks") {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestEnvFile(t *testing.T) {
	useRecordingSink(t)
	t.Cleanup(func() {
		_ = os.Unsetenv("ALERTSUB_MIN_LEVEL")
		config.Reload()
	})

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ALERTSUB_MIN_LEVEL=error\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, "", "emit", "--env-file", path, "--level", "warn", "--message", "x")
	if err == nil || !strings.Contains(err.Error(), "below the alert threshold") {
		t.Fatalf("expected env file threshold to apply, got %v", err)
	}
}

func TestEnvFile_Missing(t *testing.T) {
	if _, err := runCLI(t, "", "version", "--env-file", filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
