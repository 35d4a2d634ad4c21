package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/shardkv/internal/infra/buildinfo"
	"github.com/yndnr/shardkv/internal/infra/confloader"
	"github.com/yndnr/shardkv/internal/infra/shutdown"
	"github.com/yndnr/shardkv/internal/server/config"
	"github.com/yndnr/shardkv/internal/server/httpserver"
	"github.com/yndnr/shardkv/internal/server/redisserver"
	"github.com/yndnr/shardkv/internal/storage"
	"github.com/yndnr/shardkv/internal/telemetry/logger"
	"github.com/yndnr/shardkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:      "shardkv-server",
		Usage:     "Redis-compatible sharded key-value server",
		UsageText: "shardkv-server [flags] [config-file]",
		Version:   buildinfo.String(),
		Flags:     serverFlags(),
		Action:    run,
	}
}

// serverFlags mirrors the configuration keys. Values are kept as strings
// so malformed flags fall back to defaults like any other source.
func serverFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (.yaml, .yml or key=value)",
		},
	}
	for _, key := range config.Keys {
		flags = append(flags, &cli.StringFlag{
			Name:  flagName(key),
			Usage: "Override " + key,
		})
	}
	return flags
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	for _, key := range config.Keys {
		if name := flagName(key); c.IsSet(name) {
			m[key] = c.String(name)
		}
	}
	return m
}

// loadConfig resolves defaults, file, environment and flag overrides.
func loadConfig(path string, overrides map[string]any) (*config.ServerConfig, []config.Issue, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDotEnv(".env"),
	)
	loadErr := loader.Load()
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, nil, nil, err
		}
	}

	cfg, issues := config.Normalize(loader.All())
	return cfg, issues, loader, loadErr
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	if configFile == "" {
		configFile = c.Args().First()
	}
	overrides := flagOverrides(c)

	cfg, issues, loader, loadErr := loadConfig(configFile, overrides)
	if cfg == nil {
		return fmt.Errorf("load config: %w", loadErr)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})
	logger.SetDefault(log)

	runID := buildinfo.NewRunID()
	info := buildinfo.Get()
	log = log.With("run_id", runID)
	ctx := logger.WithRunID(logger.WithLogger(c.Context, log), runID)

	log.Info("starting shardkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"go", info.GoVersion,
		"config_file", configFile)

	if loadErr != nil {
		log.Warn("configuration file ignored", "path", configFile, "error", loadErr)
	}
	if configFile != "" && loader.FileMissing() {
		log.Warn("configuration file not found, using defaults", "path", configFile)
	}
	for _, is := range issues {
		log.Warn("configuration setting ignored",
			"key", is.Key,
			"setting", is.Value,
			"reason", is.Reason)
	}
	log.Info("configuration loaded", "config", cfg)

	engine, err := storage.New(config.ToStorageConfig(cfg, log))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("storage recovery: %w", err)
	}

	metrics := metric.NewRegistry()
	metrics.SetBuildInfo(info.Version, info.Commit, runID)
	if err := metrics.Register(metric.NewCollector(engine)); err != nil {
		return fmt.Errorf("register storage metrics: %w", err)
	}

	srv := redisserver.New(config.ToRedisConfig(cfg), engine.Store(), log,
		redisserver.WithMetrics(metrics))

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log))

	// Hooks run in reverse order: the log closes after the listener stops.
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return engine.Close()
	})

	if err := srv.Start(ctx); err != nil {
		engine.Close()
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown("redis server", srv.Shutdown)

	status := &serverStatus{engine: engine, srv: srv, runID: runID, started: time.Now()}
	if cfg.MetricsAddr != "" {
		adminServer := startAdminServer(cfg.MetricsAddr, metrics, status, log)
		shutdownHandler.OnShutdown("admin server", adminServer.Shutdown)
	}

	if configFile != "" && !loader.FileMissing() {
		watcher, err := watchConfig(configFile, overrides, log)
		if err != nil {
			log.Warn("configuration hot reload disabled", "path", configFile, "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	status.ready.Store(true)
	log.Info("server started", "address", srv.Addr().String(), "durable", engine.Durable())

	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// startAdminServer serves /metrics, /health, /ready and /info.
func startAdminServer(addr string, metrics *metric.Registry, status *serverStatus, log *slog.Logger) *httpserver.Server {
	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Metrics = metrics.Handler()
	routerCfg.Status = status
	routerCfg.Logger = log

	adminServer := httpserver.New(addr, httpserver.NewRouter(routerCfg))

	go func() {
		log.Info("admin server listening", "address", addr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server error", "error", err)
		}
	}()
	return adminServer
}

// watchConfig reapplies log_level when the configuration file changes.
// Other settings take effect on restart.
func watchConfig(path string, overrides map[string]any, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, _, _, err := loadConfig(path, overrides)
		if cfg == nil || err != nil {
			log.Warn("configuration reload failed", "path", path, "error", err)
			return
		}
		if prev := logger.GetLevel(); prev != cfg.LogLevel {
			logger.SetLevel(cfg.LogLevel)
			log.Info("log level changed", "from", prev, "to", cfg.LogLevel)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
