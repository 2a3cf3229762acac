// Command warden is the single entry point for the container
// auto-restart engine. It wires the Durable Store, Runtime Adapter,
// Policy Engine, Restart Executor, Monitor Loop, Event Listener, Uptime
// Integration, notification/metrics sinks, and the management router
// together and runs them until interrupted. Grounded on the teacher
// CLI's cobra root-command idiom, adapted to a long-running daemon
// rather than a request/response CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/containerwarden/warden/internal/clock"
	"github.com/containerwarden/warden/internal/config"
	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/listener"
	"github.com/containerwarden/warden/internal/monitor"
	"github.com/containerwarden/warden/internal/notify"
	"github.com/containerwarden/warden/internal/restart"
	"github.com/containerwarden/warden/internal/runtime"
	"github.com/containerwarden/warden/internal/store"
	"github.com/containerwarden/warden/internal/uptime"

	apirouter "github.com/containerwarden/warden/internal/api"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dataDir        string
		managementPort int
		metricsPort    int
		logLevel       string
	)

	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Container auto-restart and health engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if managementPort != 0 {
				cfg.ManagementPort = managementPort
			}
			if metricsPort != 0 {
				cfg.MetricsPort = metricsPort
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for persisted engine state (overrides DATA_DIR)")
	cmd.Flags().IntVar(&managementPort, "management-port", 0, "port for the management HTTP API (overrides MANAGEMENT_PORT)")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "port for the Prometheus metrics endpoint (overrides METRICS_PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "initial log level: debug, info, warn, error (overrides LOG_LEVEL)")

	return cmd
}

func run(cfg *config.Config) error {
	setupLogging(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DataDir, cfg.FilePerm, cfg.DirPerm)
	if err != nil {
		return fmt.Errorf("fatal: open durable store: %w", err)
	}
	if err := st.WatchExternalEdits(ctx, 2*time.Second); err != nil {
		slog.WarnContext(ctx, "failed to start external-edit watcher", "error", err)
	}

	// runtime.New only fails on malformed client configuration (e.g. an
	// unparsable DOCKER_HOST), not on the daemon being unreachable — an
	// unreachable daemon surfaces per-call as runtimeerr.ErrUnavailable,
	// which the monitor loop already treats as a non-fatal, retried tick.
	rt, err := runtime.New(cfg.DockerHost)
	if err != nil {
		return fmt.Errorf("fatal: construct runtime adapter: %w", err)
	}

	reg := prometheus.NewRegistry()
	sinks := buildSinks(st, reg)
	wireEventSink(st, sinks)

	realClock := clock.Real{}
	executor := restart.New(rt, st, realClock)
	monitorLoop := monitor.New(rt, st, executor, realClock)
	eventListener := listener.New(rt, st)
	uptimePoller := uptime.New(st, executor, realClock)

	scheduler, err := monitorLoop.Start(ctx)
	if err != nil {
		return fmt.Errorf("fatal: start monitor loop: %w", err)
	}
	defer scheduler.Shutdown()

	if err := scheduleUptimePolling(ctx, scheduler, st, uptimePoller); err != nil {
		return fmt.Errorf("fatal: schedule uptime polling: %w", err)
	}

	go eventListener.Run(ctx)

	router := apirouter.NewRouter(rt, st, executor, realClock)
	mgmtSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ManagementPort), Handler: router}
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}

	errCh := make(chan error, 2)
	go func() { errCh <- mgmtSrv.ListenAndServe() }()
	go func() { errCh <- metricsSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("fatal: http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = mgmtSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	_ = rt.Close()

	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := tint.NewHandler(os.Stdout, &tint.Options{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func buildSinks(st *store.Store, reg *prometheus.Registry) *notify.Multi {
	cfg := st.GetConfig()
	var sinks []notify.Sink

	if cfg.Observability.MetricsEnabled {
		sinks = append(sinks, notify.NewMetricsSink(reg))
	}
	if cfg.Observability.NotifyProvider != "" {
		if s, err := notify.NewShoutrrrSinkFromConfig(cfg.Observability.NotifyProvider, cfg.Observability.NotifyConfig); err == nil {
			sinks = append(sinks, s)
		} else {
			slog.Warn("failed to build notification sink", "error", err)
		}
	}

	return notify.NewMulti(sinks...)
}

func wireEventSink(st *store.Store, sinks *notify.Multi) {
	st.SetEventHook(func(e domain.Event) {
		if err := sinks.Publish(context.Background(), notify.FromDomainEvent(e)); err != nil {
			slog.Warn("failed to publish event to sinks", "error", err)
		}
	})
}

// scheduleUptimePolling registers the uptime poller as a second job on
// the same scheduler the monitor loop runs on, at the same interval,
// rather than running its own independent ticker.
func scheduleUptimePolling(ctx context.Context, s gocron.Scheduler, st *store.Store, poller *uptime.Poller) error {
	interval := st.GetConfig().Monitor.IntervalSeconds
	if interval <= 0 {
		interval = 15
	}

	_, err := s.NewJob(
		gocron.DurationJob(time.Duration(interval)*time.Second),
		gocron.NewTask(func() { poller.Tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}
