package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/podtrace/alertsub/internal/alerting"
	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
	"github.com/podtrace/alertsub/internal/sink"
	"github.com/podtrace/alertsub/internal/validation"
)

var (
	logLevel      string
	envFile       string
	enableMetrics bool
	enableTracing bool
	minLevel      string
	dedupTTL      time.Duration
	queueSize     int
	purgeInterval time.Duration

	sinkFactory func() (Sink, error)
	exitFunc    func(int)
)

// Sink is the delivery backend the CLI hands alerts to.
type Sink interface {
	alerting.Deliverer
	Name() string
}

func init() {
	sinkFactory = func() (Sink, error) {
		return sink.FromConfig()
	}
	exitFunc = os.Exit
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		logger.Sync()
		exitFunc(1)
	}
	logger.Sync()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "alertsub",
		Short:        "Turn alert-marked log events into deduplicated notifications",
		Long:         `alertsub picks log events marked with alert=true, suppresses repeats of the same alert inside a time window, and delivers the rest to the configured sinks without blocking the code that logged them.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error, fatal). Overrides ALERTSUB_LOG_LEVEL environment variable")
	flags.StringVar(&envFile, "env-file", "", "Load environment variables from a .env file before reading configuration")
	flags.BoolVar(&enableMetrics, "metrics", false, "Enable Prometheus metrics server")
	flags.BoolVar(&enableTracing, "tracing", false, "Enable OpenTelemetry tracing of deliveries")
	flags.StringVar(&minLevel, "min-level", config.DefaultAlertMinLevel, "Least severe level that can raise an alert")
	flags.DurationVar(&dedupTTL, "dedup-ttl", config.DefaultDedupTTL, "Window in which repeats of the same alert are suppressed (0 disables)")
	flags.IntVar(&queueSize, "queue-size", config.DefaultQueueSize, "Alerts buffered for delivery before new ones are dropped")
	flags.DurationVar(&purgeInterval, "purge-interval", config.DefaultPurgeInterval, "How often expired dedup entries are removed")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file: %w", err)
			}
			config.Reload()
		}
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
		for _, w := range config.Warnings() {
			logger.Warn("Ignoring invalid configuration value", zap.String("detail", w))
		}
		return nil
	}

	rootCmd.AddCommand(newWatchCmd(), newEmitCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the alertsub version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserAgent())
		},
	}
}

// buildOptions starts from the environment and applies only the flags the
// user actually set.
func buildOptions(cmd *cobra.Command) (alerting.Options, error) {
	opts := alerting.DefaultOptions()
	flags := cmd.Flags()

	if flags.Changed("min-level") {
		lvl, err := validation.ParseLevel(minLevel)
		if err != nil {
			return opts, fmt.Errorf("invalid min level: %w", err)
		}
		opts.MinLevel = lvl
	}
	if flags.Changed("dedup-ttl") {
		opts.DedupTTL = dedupTTL
		opts.DisableDedup = dedupTTL == 0
	}
	if flags.Changed("queue-size") {
		opts.QueueSize = queueSize
	}
	if flags.Changed("purge-interval") {
		opts.PurgeInterval = purgeInterval
	}

	if err := validation.ValidateDedupTTL(opts.DedupTTL); err != nil {
		return opts, fmt.Errorf("invalid dedup TTL: %w", err)
	}
	if err := validation.ValidateQueueSize(opts.QueueSize); err != nil {
		return opts, fmt.Errorf("invalid queue size: %w", err)
	}
	if err := validation.ValidatePurgeInterval(opts.PurgeInterval); err != nil {
		return opts, fmt.Errorf("invalid purge interval: %w", err)
	}
	if config.NATSURL != "" {
		if err := validation.ValidateNATSSubject(config.NATSSubject); err != nil {
			return opts, err
		}
	}
	if config.K8sEventsEnabled {
		if err := validation.ValidateNamespace(config.K8sNamespace); err != nil {
			return opts, fmt.Errorf("invalid kubernetes namespace: %w", err)
		}
		if err := validation.ValidateObjectKind(config.K8sObjectKind); err != nil {
			return opts, err
		}
		if err := validation.ValidateObjectName(config.K8sObjectName); err != nil {
			return opts, fmt.Errorf("invalid kubernetes object: %w", err)
		}
	}

	opts.Logger = logger.Diagnostics()
	return opts, nil
}
