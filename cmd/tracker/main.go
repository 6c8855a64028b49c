// Command tracker hosts a location tracking session driven from stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathkeeper/tracker/internal/config"
	"github.com/pathkeeper/tracker/internal/dispatcher"
	"github.com/pathkeeper/tracker/internal/influx"
	"github.com/pathkeeper/tracker/internal/logging"
	"github.com/pathkeeper/tracker/internal/monitor"
	intOtel "github.com/pathkeeper/tracker/internal/otel"
	"github.com/pathkeeper/tracker/internal/parser"
	"github.com/pathkeeper/tracker/internal/permission"
	"github.com/pathkeeper/tracker/internal/presenter"
	"github.com/pathkeeper/tracker/internal/session"
	"github.com/pathkeeper/tracker/internal/source"
	"github.com/pathkeeper/tracker/internal/storage"
	"github.com/pathkeeper/tracker/internal/worker"
)

const appName = "tracker"

func main() {
	configDir := "."
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configDir, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// closer is one shutdown step; steps run in reverse order of registration.
type closer struct {
	name string
	fn   func() error
}

func run(ctx context.Context, configDir string, in io.Reader, out io.Writer) error {
	start := time.Now()

	slogManager := logging.NewSlogManager()
	slogManager.Setup(nil, "info", nil)
	logger := slogManager.Logger()

	if err := config.Load(configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config", "dir", configDir)
	}

	var closers []closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].fn(); err != nil {
				logger.Error("Shutdown step failed", "step", closers[i].name, "error", err)
			}
		}
	}()

	logLevel := config.GetString("logLevel")
	logsDir := config.GetString("logsDir")

	var logFile *os.File
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	} else {
		path := logging.LogFilePath(logsDir, appName, start)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			logger.Error("Failed to open log file", "error", err, "path", path)
		} else {
			logFile = f
			closers = append(closers, closer{"log file", f.Close})
			logger.Info("Begin logging in logs directory", "path", path)
		}
	}
	// keep nil interfaces nil when there is no file
	var fileOut io.Writer
	var logWriter io.Writer = os.Stderr
	if logFile != nil {
		fileOut = logFile
		logWriter = logFile
	}

	otelCfg, err := config.GetOTelConfig()
	if err != nil {
		return err
	}
	otelProvider, err := intOtel.New(ctx, intOtel.FromConfig(otelCfg, fileOut))
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
		otelProvider, _ = intOtel.New(ctx, intOtel.Config{})
	}
	closers = append(closers, closer{"otel", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelProvider.Shutdown(shutdownCtx)
	}})

	var extra []slog.Handler
	graylogCfg, err := config.GetGraylogConfig()
	if err != nil {
		return err
	}
	if graylogCfg.Enabled {
		sink, err := logging.NewGELFSink(graylogCfg.Address, graylogCfg.Facility, logLevel)
		if err != nil {
			logger.Error("Failed to set up Graylog sink", "error", err)
		} else {
			extra = append(extra, sink.Handler)
			closers = append(closers, closer{"graylog", sink.Close})
		}
	}

	slogManager.Setup(fileOut, logLevel, otelProvider.LoggerProvider(), extra...)
	logger = slogManager.Logger()

	trackingCfg, err := config.GetTrackingConfig()
	if err != nil {
		return err
	}
	storageCfg, err := config.GetStorageConfig()
	if err != nil {
		return err
	}
	presenterCfg, err := config.GetPresenterConfig()
	if err != nil {
		return err
	}
	influxCfg, err := config.GetInfluxConfig()
	if err != nil {
		return err
	}
	monitorCfg, err := config.GetMonitorConfig()
	if err != nil {
		return err
	}

	sess := session.New(session.WithLogger(logger.With("component", "session")))

	var current atomic.Pointer[worker.Manager]
	tracking := func() bool {
		m := current.Load()
		return m != nil && m.Tracking()
	}
	slogManager.Context = func() []slog.Attr {
		return []slog.Attr{slog.Bool("tracking", tracking())}
	}
	infraLog := logging.NewZerolog(logWriter, logLevel, func(e *zerolog.Event) {
		e.Bool("tracking", tracking())
	})

	backend, err := storage.NewBackend(storageCfg, logger, infraLog)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init %s storage: %w", storageCfg.Type, err)
	}
	closers = append(closers, closer{"storage", backend.Close})

	views := presenter.Fanout{presenter.NewLog(logger)}
	var geojson *presenter.GeoJSON
	if presenterCfg.GeoJSON {
		geojson = presenter.NewGeoJSON(nil, logger)
		views = append(views, geojson)
	}
	if presenterCfg.Stream.Enabled {
		stream := presenter.NewStream(presenter.StreamConfig{
			URL:    presenterCfg.Stream.URL,
			Secret: presenterCfg.Stream.Secret,
		}, logger)
		if err := stream.Init(); err != nil {
			_ = stream.Close()
			logger.Warn("Map stream unavailable", "error", err, "url", presenterCfg.Stream.URL)
		} else {
			views = append(views, stream)
		}
	}
	closers = append(closers, closer{"presenters", views.Close})

	var src source.LocationSource = source.NewStatic(nil)
	if trackingCfg.ReplayFile != "" {
		replay, err := source.LoadReplay(trackingCfg.ReplayFile, source.WithSpeed(trackingCfg.ReplaySpeed))
		if err != nil {
			return err
		}
		logger.Info("Replaying route", "file", trackingCfg.ReplayFile, "samples", replay.Remaining())
		src = replay
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	closers = append(closers, closer{"dispatcher", func() error { d.Close(); return nil }})

	mgr := worker.NewManager(worker.Dependencies{
		Session:   sess,
		Source:    src,
		Presenter: views,
		Backend:   backend,
		Gate:      permission.Static(config.GetBool("permission.location")),
		Parser:    parser.NewParser(logger),
		Logger:    logger.With("component", "worker"),
		Tracking:  trackingCfg,
	})
	current.Store(mgr)
	mgr.RegisterHandlers(d)
	closers = append(closers, closer{"worker", mgr.Close})

	if err := mgr.Init(ctx); err != nil {
		fmt.Fprintln(out, worker.UserMessage(err))
	}

	var points monitor.PointWriter
	if influxCfg.Enabled {
		backupPath := filepath.Join(logsDir, fmt.Sprintf("%s.%s.influx.gz", appName, start.Format("20060102_150405")))
		backup, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Error("Failed to open influx backup file", "error", err, "path", backupPath)
		}
		var backupWriter io.Writer
		if backup != nil {
			backupWriter = backup
			closers = append(closers, closer{"influx backup", backup.Close})
		}
		im := influx.NewManager(influxCfg, infraLog, backupWriter)
		if err := im.Connect(ctx); err != nil {
			logger.Warn("Session telemetry disabled", "error", err)
		} else {
			points = im
		}
		closers = append(closers, closer{"influx", im.Close})
	}

	mon := monitor.NewService(monitor.Dependencies{
		Session:  sess,
		Points:   points,
		Logger:   logger.With("component", "monitor"),
		Interval: monitorCfg.Interval,
	})
	mon.Start(ctx)
	closers = append(closers, closer{"monitor", func() error { mon.Stop(); return nil }})

	logger.Info("Tracker ready", "commands", d.Commands())
	fmt.Fprintln(out, "tracker ready, type help for commands")

	r := &repl{d: d, geojson: geojson, out: out}
	if err := r.run(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("read commands: %w", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := slogManager.Flush(flushCtx); err != nil {
		logger.Warn("Failed to flush logs", "error", err)
	}
	return nil
}
