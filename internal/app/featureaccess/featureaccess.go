// Package featureaccess собирает и запускает HTTP-сервис управления доступом.
package featureaccess

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/feature-access/internal/cache"
	"github.com/magabrotheeeer/feature-access/internal/config"
	jwtlib "github.com/magabrotheeeer/feature-access/internal/lib/jwt"
	"github.com/magabrotheeeer/feature-access/internal/migrations"
	"github.com/magabrotheeeer/feature-access/internal/rabbitmq"
	accessservice "github.com/magabrotheeeer/feature-access/internal/services/access"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
	"github.com/magabrotheeeer/feature-access/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetDecisionQueues())
	if err != nil {
		closeBroker(nil, conn, logger)
		return nil, err
	}

	jwtMaker := jwtlib.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	accessService := accessservice.New(db, cacheRedis, logger, cfg.RoleCacheTTL)
	requestService := requestservice.New(db, rabbitmq.NewPublisher(ch), accessService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, accessService, requestService, jwtMaker, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
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
		closeBroker(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", "error", closeErr)
		}
		return err
	}
}

func closeBroker(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}
