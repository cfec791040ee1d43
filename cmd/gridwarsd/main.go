// Command gridwarsd runs the game engine with a command console on stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/gridwars/engine/internal/catalog"
	"github.com/gridwars/engine/internal/combat"
	"github.com/gridwars/engine/internal/config"
	"github.com/gridwars/engine/internal/dispatcher"
	"github.com/gridwars/engine/internal/economy"
	"github.com/gridwars/engine/internal/engine"
	"github.com/gridwars/engine/internal/events"
	"github.com/gridwars/engine/internal/handlers"
	"github.com/gridwars/engine/internal/influx"
	"github.com/gridwars/engine/internal/logging"
	"github.com/gridwars/engine/internal/loop"
	"github.com/gridwars/engine/internal/monitor"
	"github.com/gridwars/engine/internal/notify"
	intOtel "github.com/gridwars/engine/internal/otel"
	"github.com/gridwars/engine/internal/scheduler"
	"github.com/gridwars/engine/internal/skills"
	"github.com/gridwars/engine/internal/transport"
	"github.com/gridwars/engine/internal/world"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

// bootstrap is read from the environment before the config file, which it
// locates.
type bootstrap struct {
	ConfigDir string `env:"GRIDWARS_CONFIG_DIR" envDefault:"."`
	LogLevel  string `env:"GRIDWARS_LOG_LEVEL"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "gridwarsd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var boot bootstrap
	if err := env.Parse(&boot); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	sessionStart := time.Now()

	cfgErr := config.Load(boot.ConfigDir)
	level := boot.LogLevel
	if level == "" {
		level = config.GetString("logLevel")
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	zlog := zerolog.New(io.MultiWriter(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
		logFile,
	)).Level(zerologLevel(level)).With().Timestamp().Logger()

	if len(args) > 0 && strings.ToLower(args[0]) == "setupdb" {
		if err := setupDB(zlog); err != nil {
			return err
		}
		zlog.Info().Msg("DB setup complete.")
		return nil
	}

	// OTel logs go next to the session log
	otelPath := strings.TrimSuffix(logPath, ".log") + ".otel.log"
	otelFile, err := os.OpenFile(otelPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("opening otel log file: %w", err)
	}
	defer otelFile.Close()
	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), otelFile))
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	outputs := logging.Outputs{
		Console:  os.Stderr,
		File:     logFile,
		Provider: provider.LoggerProvider(),
	}
	var gelfErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.DialGELF(gl.Address)
		if err != nil {
			gelfErr = err
		} else {
			outputs.GELF = w
		}
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(level, outputs)
	log := slogManager.Logger()
	defer func() { _ = slogManager.Flush(context.Background()) }()

	log.Info("Starting up...", "version", Version, "buildDate", BuildDate, "logFile", logPath)
	if cfgErr != nil {
		log.Warn("Failed to load config, using defaults!", "error", cfgErr)
	}
	if gelfErr != nil {
		log.Warn("Failed to connect to Graylog", "error", gelfErr)
	}

	cat, err := loadCatalog(config.GetString("catalog.path"))
	if err != nil {
		return err
	}

	store, err := createStorageBackend(config.GetStorageConfig(), log, zlog)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	ec := config.GetEngineConfig()
	seed := ec.Seed
	if seed == 0 {
		seed = uint64(sessionStart.UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	lp := loop.New(log)
	sched, err := scheduler.New(lp.Clock(), rng, ec.TickUnit)
	if err != nil {
		return err
	}
	slogManager.Watch(lp, sched)
	w := world.New(world.Dependencies{
		Store:     store,
		Catalog:   cat,
		Scheduler: sched,
		Notifier:  notify.Log{Logger: log},
		Logger:    log,
	})

	bus, err := events.New(logging.NewZerologAdapter(zlog))
	if err != nil {
		return err
	}
	if err := events.RegisterEngine(bus); err != nil {
		return err
	}
	if _, err := skills.New(w, rng, skills.Config{
		ResurrectChance:   ec.ResurrectChance,
		SwitchSidesChance: ec.SwitchSidesChance,
	}).Register(bus); err != nil {
		return err
	}

	econ := economy.New(w, bus)
	eng := engine.New(engine.Dependencies{
		World:   w,
		Bus:     bus,
		Combat:  combat.New(w, bus, rng),
		Economy: econ,
		Rand:    rng,
	})
	flights := transport.New(w)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := influx.NewManager(config.GetInfluxConfig(), zlog,
		filepath.Join(logsDir, fmt.Sprintf("influx.%s.lp.gz", sessionStart.Format("20060102_150405"))))
	switch err := stats.Connect(ctx); {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		log.Warn("Failed to connect to InfluxDB", "error", err)
	default:
		if err := influx.NewRecorder(stats, w.Now, zlog).Register(bus); err != nil {
			return err
		}
	}
	defer func() {
		if err := stats.Close(); err != nil {
			log.Error("Failed to close InfluxDB", "error", err)
		}
	}()

	lp.Post(func() error {
		units, err := eng.Resume()
		if err != nil {
			return fmt.Errorf("resuming units: %w", err)
		}
		airborne, err := flights.Resume()
		if err != nil {
			return fmt.Errorf("resuming transports: %w", err)
		}
		log.Info("Resumed", "units", units, "transports", airborne)
		return nil
	})

	mon := monitor.NewService(monitor.Dependencies{
		Store:    store,
		Tasks:    sched,
		Loop:     lp,
		Logger:   log,
		Interval: config.GetDuration("monitor.interval"),
	})
	mon.Start(ctx)
	defer mon.Stop()

	d, err := dispatcher.New(log)
	if err != nil {
		return err
	}
	handlers.NewService(handlers.Dependencies{
		World:     w,
		Engine:    eng,
		Economy:   econ,
		Transport: flights,
		Monitor:   mon,
		Logger:    log,
	}).Register(d, lp)

	go console(ctx, os.Stdin, os.Stdout, d, stop)

	log.Info("Engine running", "tickUnit", ec.TickUnit, "storage", config.GetStorageConfig().Type)
	if err := lp.Run(ctx); err != nil {
		log.Error("Event loop stopped", "error", err)
		return err
	}
	log.Info("Shutting down", "droppedLogRecords", slogManager.Dropped())
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

func zerologLevel(level string) zerolog.Level {
	switch logging.ParseLevel(level) {
	case slog.LevelDebug:
		return zerolog.DebugLevel
	case slog.LevelWarn:
		return zerolog.WarnLevel
	case slog.LevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
