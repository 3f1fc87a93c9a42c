package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/events"
	"github.com/podtrace/alertsub/internal/logger"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [file]",
		Short: "Read JSON log lines from a file or stdin and deliver the alerts among them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	var input io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		input = f
	}

	ctx, cancel := interruptContext(cmd.Context())
	defer cancel()

	p, err := startPipeline(ctx, opts)
	if err != nil {
		return err
	}

	summary, streamErr := watch(ctx, input, p.layer)
	shutdownErr := p.shutdown()

	logger.Info("Watch finished",
		zap.Int("lines", summary.stats.Lines),
		zap.Int("invalid", summary.stats.Invalid),
		zap.Int("enqueued", summary.outcomes[alerting.OutcomeEnqueued]),
		zap.Int("suppressed", summary.outcomes[alerting.OutcomeSuppressed]),
		zap.Int("dropped", summary.outcomes[alerting.OutcomeDroppedBackpressure]))

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		return streamErr
	}
	return shutdownErr
}

type watchSummary struct {
	stats    events.Stats
	outcomes map[alerting.Outcome]int
}

// watch returns as soon as ctx is done even if the reader is still blocked,
// which is the normal case for an idle stdin.
func watch(ctx context.Context, r io.Reader, layer *alerting.Layer) (watchSummary, error) {
	type result struct {
		stats events.Stats
		err   error
	}
	outcomes := make(chan alerting.Outcome, 64)
	done := make(chan result, 1)
	go func() {
		stats, err := events.Stream(ctx, r, func(e events.Entry) {
			select {
			case outcomes <- layer.Observe(e.Level, e.Fields...):
			case <-ctx.Done():
			}
		})
		close(outcomes)
		done <- result{stats, err}
	}()

	summary := watchSummary{outcomes: make(map[alerting.Outcome]int)}
	for {
		select {
		case o, ok := <-outcomes:
			if !ok {
				res := <-done
				summary.stats = res.stats
				return summary, res.err
			}
			summary.outcomes[o]++
		case <-ctx.Done():
			return summary, ctx.Err()
		}
	}
}
