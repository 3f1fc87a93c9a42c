package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/logger"
	"github.com/podtrace/alertsub/internal/validation"
)

var (
	emitLevel    string
	emitMessage  string
	emitDedupKey string
)

func newEmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Log a single alert through the pipeline and wait for it to be delivered",
		Args:  cobra.NoArgs,
		RunE:  runEmit,
	}
	cmd.Flags().StringVar(&emitLevel, "level", "error", "Level of the emitted event")
	cmd.Flags().StringVar(&emitMessage, "message", "", "Alert message")
	cmd.Flags().StringVar(&emitDedupKey, "dedup-key", "", "Dedup identity; defaults to the message")
	return cmd
}

func runEmit(cmd *cobra.Command, args []string) error {
	level, err := validation.ParseLevel(emitLevel)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if !opts.MinLevel.Enabled(level) {
		return fmt.Errorf("level %s is below the alert threshold %s", level, opts.MinLevel)
	}

	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	p, err := startPipeline(ctx, opts)
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.Bool(alerting.FieldAlert, true)}
	if emitDedupKey != "" {
		fields = append(fields, zap.String(alerting.FieldDedupKey, emitDedupKey))
	}
	emit(p.layer, level, emitMessage, fields)

	return p.shutdown()
}

// emit logs through the application logger so the event takes the same path
// as any other. Panic and fatal entries would end the process in zap, so they
// go straight to the alert core.
func emit(layer *alerting.Layer, level zapcore.Level, message string, fields []zap.Field) {
	if level >= zapcore.PanicLevel {
		_ = layer.Core().Write(zapcore.Entry{Level: level, Time: time.Now(), Message: message}, fields)
		return
	}
	if ce := logger.Logger().Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}
