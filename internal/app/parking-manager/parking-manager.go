// Package parkingmanager собирает HTTP-приложение управления парковкой:
// хранилище, миграции, Redis, RabbitMQ, сервисы и маршруты.
package parkingmanager

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/parking-manager/internal/cache"
	"github.com/magabrotheeeer/parking-manager/internal/config"
	"github.com/magabrotheeeer/parking-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-manager/internal/migrations"
	catalogservice "github.com/magabrotheeeer/parking-manager/internal/services/catalog"
	lifecycleservice "github.com/magabrotheeeer/parking-manager/internal/services/lifecycle"
	paymentservice "github.com/magabrotheeeer/parking-manager/internal/services/payment"
	"github.com/magabrotheeeer/parking-manager/internal/storage"
)

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	rabbitConn *amqp.Connection
}

// New инициализирует приложение. Redis и RabbitMQ необязательны:
// при пустом адресе выезд не передаёт номер в поток оплаты и не
// публикует событие, остальные операции работают как обычно.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	var handoffSet lifecycleservice.Handoff
	var handoffGet paymentservice.Handoff
	var paymentViews paymentservice.Views
	var catalogViews catalogservice.Views
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, err
		}
		handoffSet = cacheRedis
		handoffGet = cacheRedis
		paymentViews = cacheRedis
		catalogViews = cacheRedis
	} else {
		logger.Warn("redis address is empty, current payment handoff and view cache disabled")
	}

	var rabbitConn *amqp.Connection
	var publisher lifecycleservice.ExitPublisher
	if cfg.RabbitAddress != "" {
		conn, ch, err := rabbitmq.Connect(cfg.RabbitAddress)
		if err != nil {
			return nil, err
		}
		rabbitConn = conn
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbit address is empty, exit events disabled")
	}

	// Общий мьютекс: сервисы разделяют коллекции и мутируют их по одной.
	mu := &sync.Mutex{}

	catalogService := catalogservice.NewCatalogService(db, catalogViews, cfg.UserDeletePolicy, logger, mu)
	lifecycleService := lifecycleservice.NewLifecycleService(db, handoffSet, publisher, cfg.Rates, logger, mu)
	paymentService := paymentservice.NewPaymentService(db, handoffGet, paymentViews, cfg.Rates, logger, mu)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, catalogService, lifecycleService, paymentService)

	router.Get("/docs/*", httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.rabbitConn != nil {
			_ = a.rabbitConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
