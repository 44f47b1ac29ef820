// Server entry point: wires configuration, storage, domain services and the
// HTTP router.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"labcore/internal/domain/attachment"
	"labcore/internal/domain/inventory"
	"labcore/internal/domain/sequence"
	v1 "labcore/internal/infrastructure/http/v1"
	"labcore/internal/infrastructure/storage/postgres"
	"labcore/internal/infrastructure/storage/postgres/catalog_repo"
	"labcore/internal/infrastructure/storage/postgres/inventory_repo"
	"labcore/internal/infrastructure/storage/postgres/result_repo"
	"labcore/internal/infrastructure/storage/postgres/sequence_repo"
	"labcore/pkg/logger"
)

// Config holds server configuration, read from environment (LABCORE_ prefix)
// with an optional config file.
type Config struct {
	DatabaseURL     string        `mapstructure:"database_url"`
	HTTPPort        int           `mapstructure:"http_port"`
	LogLevel        string        `mapstructure:"log_level"`
	Development     bool          `mapstructure:"development"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func loadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)
	v.SetDefault("shutdown_timeout", 15*time.Second)

	v.SetConfigName("labcore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/labcore")

	v.SetEnvPrefix("labcore")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database_url is required (LABCORE_DATABASE_URL)")
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	// Repositories
	counterRepo := sequence_repo.NewCounterRepo(txm)
	lotRepo := inventory_repo.NewLotRepo(txm)
	movementRepo := inventory_repo.NewMovementRepo(txm)
	summaryRepo := inventory_repo.NewSummaryRepo(txm)
	catalogRepo := catalog_repo.NewRepo(txm)
	operationRepo := result_repo.NewOperationRepo(txm)
	resultRepo := result_repo.NewResultRepo(txm)

	// Domain services
	sequenceService := sequence.NewService(counterRepo, txm)
	selector := inventory.NewSelector(lotRepo)
	recalc := inventory.NewRecalculator(lotRepo, summaryRepo)
	recorder := inventory.NewRecorder(catalogRepo, movementRepo, selector, recalc, sequenceService)
	attachService := attachment.NewService(operationRepo, resultRepo, catalogRepo, recorder, txm)

	router := v1.NewRouter(v1.RouterConfig{
		Pool:       pool,
		Logger:     log,
		Tx:         txm,
		Attachment: attachService,
		Sequence:   sequenceService,
		Selector:   selector,
		Summaries:  summaryRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info(ctx, "server stopped")
	return nil
}
