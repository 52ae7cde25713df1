package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"vfswatch/internal/api"
	"vfswatch/internal/config"
	"vfswatch/internal/event"
	"vfswatch/internal/fswatch"
	"vfswatch/internal/logging"
	"vfswatch/internal/metrics"
	"vfswatch/internal/vfs"
)

const statsInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	applyEnvOverrides(&cfg)

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.LevelInfo
	}
	logger := logging.NewLogger(logging.NewBuffer(logging.DefaultBufferSize), level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon, err := newDaemon(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", map[string]string{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("vfswatch started", map[string]string{
		"roots": strconv.Itoa(len(cfg.Roots)),
		"addr":  cfg.ListenAddr,
	})

	<-ctx.Done()
	daemon.shutdown(logger)
}

func applyEnvOverrides(cfg *config.Config) {
	if addr := os.Getenv("VFSWATCH_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if level := os.Getenv("VFSWATCH_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}

type daemon struct {
	registry  *vfs.Registry
	bus       *event.Bus[event.Notification]
	publisher *changePublisher
	server    *http.Server
	stopSync  func()
}

func newDaemon(ctx context.Context, cfg config.Config, logger *logging.Logger) (*daemon, error) {
	counters := metrics.Default
	bus := event.NewBus[event.Notification](ctx, event.BusOptions{
		Name:     "watch_events",
		Registry: counters,
	})

	publisher := newChangePublisher(bus, counters, time.Duration(cfg.Debounce))
	factory, source := fswatch.Factory(fswatch.Options{Logger: logger})
	hooks := &lateHooks{}
	registry, err := vfs.NewRegistry(
		factory,
		cfg.Filter(),
		cfg.MustWatch,
		publisher,
		hooks,
		logger,
	)
	if err != nil {
		return nil, err
	}
	hooks.bind(&countingHooks{
		inner:    fswatch.NewHooks(source(), registry.WatchFilter(), logger),
		counters: counters,
	})

	syncer := &rootSyncer{
		registry: registry,
		source:   source(),
		roots:    cfg.Roots,
		logger:   logger,
	}
	if err := syncer.syncAll(); err != nil {
		_ = registry.Close()
		return nil, err
	}

	stopSync := publisher.startResync(syncer)
	startStatsReporter(ctx, registry, counters, logger)

	var server *http.Server
	if cfg.ListenAddr != "" {
		mux := http.NewServeMux()
		api.RegisterRoutes(mux, bus, counters, os.Getenv("VFSWATCH_TOKEN"), nil)
		server = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server stopped", map[string]string{"error": err.Error()})
			}
		}()
	}

	return &daemon{
		registry:  registry,
		bus:       bus,
		publisher: publisher,
		server:    server,
		stopSync:  stopSync,
	}, nil
}

func (d *daemon) shutdown(logger *logging.Logger) {
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.server.Shutdown(shutdownCtx)
		cancel()
	}
	d.stopSync()
	d.publisher.stopDebounce()
	d.bus.Close()

	stats := d.registry.GetAndResetStatistics()
	fields := map[string]string{
		"events": strconv.Itoa(stats.ReceivedEventCount),
	}
	if stats.UnknownEventEncountered {
		fields["unknown_events"] = "true"
	}
	if stats.LastError != nil {
		fields["last_error"] = stats.LastError.Error()
	}
	logger.Info("vfswatch stopping", fields)

	if err := d.registry.Close(); err != nil {
		logger.Error("close watch registry", map[string]string{"error": err.Error()})
	}
}

// startStatsReporter periodically drains the registry statistics into the
// metrics counters and the log.
func startStatsReporter(ctx context.Context, registry *vfs.Registry, counters *metrics.Registry, logger *logging.Logger) {
	go func() {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := registry.GetAndResetStatistics()
				if stats.UnknownEventEncountered {
					counters.IncUnknownEvents()
				}
				if stats.LastError != nil {
					counters.IncStreamErrors()
					logger.Warn("watch stream reported an error", map[string]string{
						"error": stats.LastError.Error(),
					})
				}
				if logger.Enabled(logging.LevelDebug) {
					logger.Debug("watch statistics", map[string]string{
						"events": strconv.Itoa(stats.ReceivedEventCount),
					})
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
