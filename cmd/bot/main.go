package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"irc-chatter/internal/analytics"
	"irc-chatter/internal/config"
	"irc-chatter/internal/console"
	"irc-chatter/internal/history"
	"irc-chatter/internal/irc"
	"irc-chatter/internal/llm"
	"irc-chatter/internal/relay"
	"irc-chatter/internal/scheduler"
	"irc-chatter/internal/session"
	"irc-chatter/internal/storage"
	"irc-chatter/internal/telemetry"
)

const dialTimeout = 30 * time.Second

var (
	cfgPath string
	verbose bool
	logsDir string
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:          "irc-chatter",
	Short:        "Relay IRC channel messages to an LLM and post the replies",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the per-key chat logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := storage.NewFileRecorder(logsDir)
		if err != nil {
			return err
		}
		stats, err := analytics.Analyze(rec)
		if err != nil {
			return err
		}
		if asJSON {
			out, err := stats.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), stats.Summary())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "path to the JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	statsCmd.Flags().StringVar(&logsDir, "logs-dir", "logs", "directory holding <key>_log.txt files")
	statsCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func runBot(ctx context.Context) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(".env"); err != nil {
		logger.Debug(".env file not loaded", zap.Error(err))
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return err
	}

	llmClient, err := llm.NewFactory(cfg).CreateClient(ctx, cfg.Provider, cfg.Model)
	if err != nil {
		logger.Error("failed to create llm client", zap.Error(err))
		return err
	}

	rec, err := storage.NewFileRecorder(cfg.LogsDir)
	if err != nil {
		logger.Error("failed to init chat logs", zap.Error(err))
		return err
	}
	runLog, err := storage.OpenRunLog(cfg.RunLogPath)
	if err != nil {
		logger.Error("failed to open run log", zap.Error(err))
		return err
	}
	defer func() { _ = runLog.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)
	printer := console.New(os.Stdout)

	sched := scheduler.New(logger.Named("scheduler"))
	sched.SetReportFunction(func(ctx context.Context) error {
		stats, err := analytics.Analyze(rec)
		if err != nil {
			return err
		}
		logger.Info("chat log report",
			zap.Int("keys", stats.Keys),
			zap.Int("exchanges", stats.UserTurns),
			zap.Int("failures", stats.Failures),
			zap.Strings("unbalanced", stats.Unbalanced))
		return nil
	})
	if err := sched.Start(cfg.ReportSchedule); err != nil {
		logger.Error("invalid report_schedule", zap.Error(err))
		return err
	}
	defer sched.Stop()

	conn, err := irc.Dial(ctx, cfg.Addr(), dialTimeout)
	if err != nil {
		printer.Error("An error occurred during IRC login", err)
		logger.Error("connect failed", zap.String("addr", cfg.Addr()), zap.Error(err))
		return err
	}

	sessLogger := logger.With(zap.String("run_id", uuid.NewString()), zap.String("server", cfg.Addr()))
	store := history.NewStore(cfg.StorageMode, rec, history.Options{
		HistoryLimit:      cfg.HistoryLimit,
		RememberUserTurns: cfg.RememberUserTurns,
	})
	sessLogger.Info("starting relay",
		zap.String("channel", cfg.Channel),
		zap.String("history_mode", string(store.Mode())),
		zap.String("parse_mode", string(cfg.ParseMode)),
		zap.String("provider", string(cfg.Provider)),
		zap.Bool("report_scheduled", sched.IsRunning()))
	replier := relay.New(llmClient, store, conn, printer, metrics, sessLogger.Named("relay"), relay.Options{
		Nickname:     cfg.Nickname,
		Target:       cfg.Channel,
		SystemPrompt: readSystemPrompt(cfg.SystemPromptPath, logger),
		Timeout:      cfg.BackendTimeout.Duration,
	})
	sess := session.New(conn, newDecoder(cfg.ParseMode), replier, printer, runLog, metrics, sessLogger.Named("session"), session.Options{
		Nickname:  cfg.Nickname,
		Channel:   cfg.Channel,
		QueueSize: cfg.QueueSize,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.MetricsAddr, reg, logger)
		})
	}
	g.Go(func() error {
		// The process ends with the session.
		defer cancel()
		return sess.Run(gctx)
	})
	return g.Wait()
}

func newDecoder(mode config.ParseMode) irc.Decoder {
	if mode == config.ParseLine {
		return irc.NewLineDecoder()
	}
	return irc.ChunkDecoder{}
}

func readSystemPrompt(path string, logger *zap.Logger) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system prompt file not found or unreadable", zap.String("path", path), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(data))
}
