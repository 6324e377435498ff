package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"neobots/config"
	"neobots/core/events"
	"neobots/core/state"
	"neobots/native/economy"
	"neobots/observability/logging"
	telemetry "neobots/observability/otel"
	"neobots/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "economyd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to economyd configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog := logging.SetupWithFile("economyd", cfg.Environment, logging.ParseLevel(cfg.Log.Level), logging.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer closeLog.Close()

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "economyd",
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     cfg.Telemetry.Headers,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()
	if cfg.Telemetry.Endpoint != "" {
		logger.Info("trace export enabled", slog.String("endpoint", logging.MaskEndpoint(cfg.Telemetry.Endpoint)), slog.Group("headers", logging.MaskHeaders(cfg.Telemetry.Headers)...))
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "economy"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := state.EnsureStateVersion(db, cfg.AllowMigrate); err != nil {
		return err
	}

	engine := economy.NewEngine()
	if err := engine.SetParams(cfg.Params()); err != nil {
		return fmt.Errorf("economy params: %w", err)
	}
	manager := state.NewManager(db)
	manager.SetEmitter(events.Fanout{events.LogEmitter{Logger: logger, Level: slog.LevelDebug}})
	service := economy.NewService(engine, manager, logger)

	var forum string
	if cfg.GenesisFile != "" {
		genesis, err := config.LoadGenesis(cfg.GenesisFile)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		if err := applyGenesis(context.Background(), service, genesis, logger); err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
		forum = genesis.Forum.Name
	}

	httpServer := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           newRouter(service, forum),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("economyd listening", slog.String("addr", cfg.MetricsAddress), slog.String("forum", forum))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case <-stopCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_ = httpServer.Close()
			return err
		}
		return nil
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
