package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/cache"
	"github.com/salespoint/pos/internal/config"
	"github.com/salespoint/pos/internal/events"
	"github.com/salespoint/pos/internal/repository"
	"github.com/salespoint/pos/internal/server"
	"github.com/salespoint/pos/internal/service"
	"github.com/salespoint/pos/internal/session"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := migrateUp(cfg.PostgresURL); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	writer := events.NewWriter([]string{cfg.KafkaAddr})
	defer func() { _ = writer.Close() }()
	publisher := events.NewPublisher(writer, cfg.KafkaTopic)

	settings := repository.NewSettings(pool)
	unit := storeCurrency(ctx, settings, log)

	catalog := service.NewCatalog(repository.NewProduct(pool), cache.NewRedisCache(redisClient), log)
	sales := service.NewSales(repository.NewSale(pool), catalog, publisher, cfg.LowStockThreshold, log)

	handler := server.NewHandler(log, catalog, repository.NewCustomer(pool), sales,
		settings, session.NewRegistry(unit), unit, cfg.LowStockThreshold)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("currency", unit.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func migrateUp(pgURL string) error {
	m, err := migrate.New("file://migrations", pgURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// storeCurrency reads the configured store currency from settings, seeded by
// the migrations. An unreadable or invalid value falls back to USD.
func storeCurrency(ctx context.Context, settings *repository.SettingsRepository, log *zap.Logger) currency.Unit {
	code, err := settings.GetSetting(ctx, "currency")
	if err != nil {
		log.Warn("currency setting unavailable, using USD", zap.Error(err))
		return currency.USD
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		log.Warn("invalid currency setting, using USD", zap.String("code", code))
		return currency.USD
	}
	return unit
}
