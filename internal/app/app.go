package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clipbook/clipbook/internal/analyzer"
	"github.com/clipbook/clipbook/internal/clipboard"
	"github.com/clipbook/clipbook/internal/config"
	"github.com/clipbook/clipbook/internal/httpserver"
	"github.com/clipbook/clipbook/internal/httpserver/deps"
	"github.com/clipbook/clipbook/internal/index"
	"github.com/clipbook/clipbook/internal/library"
	"github.com/clipbook/clipbook/internal/logger"
	"github.com/clipbook/clipbook/internal/redis"
	"github.com/clipbook/clipbook/internal/scheduler"
	"github.com/clipbook/clipbook/internal/search"
	redisstore "github.com/clipbook/clipbook/internal/store/redis"
	"github.com/clipbook/clipbook/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	analyzer     *analyzer.Analyzer
	library      *library.Service
	watcher      *clipboard.Watcher
	seedReloader *scheduler.SeedReloader
	flushRetrier *scheduler.FlushRetrier
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Durable store + in-memory collection
	store := redisstore.NewStore(redisClient)
	memIndex := index.NewMemoryIndex()

	// External analyzer client + availability monitor
	analyzerClient := analyzer.New(analyzer.Options{
		BaseURL:      cfg.AnalyzerURL,
		StartupDelay: cfg.AnalyzerStartupDelay,
		RetryDelay:   cfg.AnalyzerRetryDelay,
		MaxAttempts:  cfg.AnalyzerMaxAttempts,
	}, loggerClient)

	// Bookmark lifecycle service (factory + CRUD + persistence)
	lib := library.New(store, memIndex, analyzerClient, cfg.StoreName, loggerClient)

	// Search engine: semantic when the analyzer is up, fuzzy otherwise
	engine := search.New(lib, analyzerClient, loggerClient)

	// Clipboard watcher (if a clipboard command is configured)
	var watcher *clipboard.Watcher
	if cfg.ClipboardCommand != "" {
		source, err := clipboard.NewCommandSource(cfg.ClipboardCommand)
		if err != nil {
			loggerClient.Errorf("Invalid clipboard command: %v", err)
			os.Exit(1)
		}
		watcher = clipboard.NewWatcher(source, lib, nil, loggerClient,
			cfg.ClipboardPollInterval, cfg.ClipboardMinLength)
	} else {
		loggerClient.Info("clipboard command not configured, clipboard capture disabled")
	}

	// Seed importer (if a seed file is configured)
	var seedReloader *scheduler.SeedReloader
	var seedReloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed importer",
			logger.String("file", cfg.SeedFile))
		seedReloadTrigger = make(chan struct{}, 1)
		seedReloader = scheduler.NewSeedReloader(
			cfg.SeedFile,
			lib,
			loggerClient,
			cfg.SeedReloadInterval,
			seedReloadTrigger,
		)
	}

	// Flush retrier recovers failed durable writes
	flushRetrier := scheduler.NewFlushRetrier(lib, loggerClient, cfg.FlushRetryInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		RedisClient:       redisClient,
		Library:           lib,
		Search:            engine,
		Analyzer:          analyzerClient,
		SeedReloadTrigger: seedReloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		analyzer:     analyzerClient,
		library:      lib,
		watcher:      watcher,
		seedReloader: seedReloader,
		flushRetrier: flushRetrier,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Clipbook v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Clipbook %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the collection before anything can mutate or search it
	if err := a.library.Load(ctx); err != nil {
		return fmt.Errorf("failed to load bookmark collection: %w", err)
	}

	// Start analyzer availability probing
	if err := a.analyzer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start analyzer monitor: %w", err)
	}

	// Start seed importer (if enabled)
	if a.seedReloader != nil {
		if err := a.seedReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed importer: %w", err)
		}
		a.logger.Info("seed importer started",
			logger.Duration("interval", a.cfg.SeedReloadInterval))
	}

	// Start clipboard watcher (if enabled)
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start clipboard watcher: %w", err)
		}
		a.logger.Info("clipboard watcher started",
			logger.Duration("interval", a.cfg.ClipboardPollInterval))
	}

	// Start flush retrier
	if err := a.flushRetrier.Start(ctx); err != nil {
		return fmt.Errorf("failed to start flush retrier: %w", err)
	}
	a.logger.Info("flush retrier started",
		logger.Duration("interval", a.cfg.FlushRetryInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop periodic loops before the server so no new work arrives
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.seedReloader != nil {
		a.seedReloader.Stop()
	}
	a.flushRetrier.Stop()
	a.analyzer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Clipbook stopped cleanly")
	return nil
}
