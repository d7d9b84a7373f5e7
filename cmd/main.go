package main

//	@title			Lock Service API
//	@version		1.0
//	@description	Distributed lock service: acquire, heartbeat and release named locks with automatic expiry.

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and an API key.

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/lockservice/auth"
	"github.com/ebogdum/lockservice/config"
	"github.com/ebogdum/lockservice/core"
	seclog "github.com/ebogdum/lockservice/core/log"
	"github.com/ebogdum/lockservice/locks"
	"github.com/ebogdum/lockservice/maintenance"
	"github.com/ebogdum/lockservice/metrics"
	"github.com/ebogdum/lockservice/server"
)

var rootCmd = &cobra.Command{
	Use:   "lockservice",
	Short: "lockservice - distributed lock service",
	Long: `lockservice grants named, expiring locks to independent client processes
over HTTP, backed by an in-process store or by Redis.`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the lock server",
	Long:  "Start the lock server with the configured storage backend and API endpoints",
	RunE:  runServer,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the lockservice configuration and display the loaded settings",
	RunE:  validateConfig,
}

var configFilePath string

func main() {
	serverCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")
	validateCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serverCmd, configCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the lock server and blocks until SIGINT or SIGTERM
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()
	seclog.SetMode(seclog.ParseMode(cfg.Log.Mode))

	logger.Info("Starting lockservice",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("storage", cfg.Storage.Type))

	// Background workers get their own context so they can be stopped
	// after the HTTP server has drained.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	store, workers, err := initializeStore(workerCtx, cfg, logger)
	if err != nil {
		return err
	}

	engine := core.NewEngine(store, logger, core.WithMaxTimeout(cfg.Limits.MaxTimeoutSeconds))

	var authenticator auth.Authenticator
	if keyAuth := auth.NewAPIKeyAuthenticator(cfg.Auth.APIKeys); keyAuth.Enabled() {
		authenticator = keyAuth
	} else {
		logger.Warn("API key authentication disabled (no auth.api_keys configured)")
	}

	router := server.NewRouter(engine, server.RouterOptions{
		Authenticator:  authenticator,
		RequestTimeout: cfg.Server.RequestTimeout,
		Limits:         cfg.Limits,
		ServeMetrics:   cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "",
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 2)
	go func() {
		var err error
		if cfg.Server.TLSEnabled() {
			logger.Info("Starting HTTPS server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		metrics.RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("Starting metrics server", zap.String("addr", cfg.Metrics.ListenAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("Shutting down server...", zap.String("signal", sig.String()))
	case runErr = <-serverErr:
		logger.Error("Server failed", zap.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		runErr = errors.Join(runErr, err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	// Requests have drained; the snapshot worker takes its final snapshot now.
	stopWorkers()
	for _, w := range workers {
		w.Wait()
	}

	if err := store.Close(); err != nil {
		logger.Error("Failed to close lock store", zap.Error(err))
	}

	logger.Info("Server exited")
	return runErr
}

// initializeStore builds the configured lock store and starts its maintenance workers
func initializeStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (locks.Store, []*maintenance.Worker, error) {
	switch cfg.Storage.Type {
	case config.StorageRedis:
		logger.Info("Initializing Redis lock store",
			zap.String("addr", cfg.Redis.Addr),
			zap.Int("db", cfg.Redis.DB),
			zap.String("key_prefix", cfg.Redis.KeyPrefix))
		store, err := locks.NewRedisStore(locks.RedisOptions{
			Addr:         cfg.Redis.Addr,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis lock store: %w", err)
		}
		// Redis expires keys natively; no sweep or snapshot workers.
		return store, nil, nil

	default:
		var opts []locks.LocalOption
		if cfg.Persistence.Enabled {
			opts = append(opts, locks.WithPersistPath(cfg.Persistence.Path))
		}
		store := locks.NewLocalStore(logger, opts...)

		if cfg.Persistence.Enabled {
			restored, err := store.Restore(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to restore lock snapshot from %s: %w", cfg.Persistence.Path, err)
			}
			logger.Info("Restored lock snapshot",
				zap.String("path", cfg.Persistence.Path),
				zap.Int("records", restored))
		} else {
			logger.Info("Lock snapshot persistence disabled")
		}
		metrics.ActiveLocks.Set(float64(store.Len()))

		workers := []*maintenance.Worker{
			maintenance.StartSweepWorker(ctx, store, cfg.Sweep.Interval, logger),
		}
		if cfg.Persistence.Enabled {
			workers = append(workers, maintenance.StartSnapshotWorker(ctx, store, cfg.Persistence.Interval, logger))
		}
		return store, workers, nil
	}
}

// validateConfig validates the lockservice configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("TLS Enabled: %t\n", cfg.Server.TLSEnabled())
	fmt.Printf("Storage: %s\n", cfg.Storage.Type)
	switch cfg.Storage.Type {
	case config.StorageRedis:
		fmt.Printf("Redis Address: %s\n", cfg.Redis.Addr)
		fmt.Printf("Redis Password: %s\n", maskSecret(cfg.Redis.Password))
		fmt.Printf("Redis Key Prefix: %s\n", cfg.Redis.KeyPrefix)
	default:
		if cfg.Persistence.Enabled {
			fmt.Printf("Snapshot Path: %s (every %s)\n", cfg.Persistence.Path, cfg.Persistence.Interval)
		} else {
			fmt.Println("Snapshot Path: disabled")
		}
		fmt.Printf("Sweep Interval: %s\n", cfg.Sweep.Interval)
	}
	fmt.Printf("API Keys: %d configured\n", len(cfg.Auth.APIKeys))

	return nil
}

// maskSecret masks a secret for display
func maskSecret(secret string) string {
	if secret == "" {
		return "(none)"
	}
	return "***"
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
