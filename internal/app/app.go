package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/scheduled-shortener/internal/adapter/repository/tablestorage"
	"github.com/vadimbarashkov/scheduled-shortener/internal/config"
	"github.com/vadimbarashkov/scheduled-shortener/internal/entity"
	"github.com/vadimbarashkov/scheduled-shortener/internal/occ"
	"github.com/vadimbarashkov/scheduled-shortener/internal/usecase"
	"github.com/vadimbarashkov/scheduled-shortener/migrations"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/postgres"
	"github.com/vadimbarashkov/scheduled-shortener/pkg/tables"
	"golang.org/x/sync/errgroup"

	goredis "github.com/redis/go-redis/v9"
	delivery "github.com/vadimbarashkov/scheduled-shortener/internal/adapter/delivery/http"
	redisrepo "github.com/vadimbarashkov/scheduled-shortener/internal/adapter/repository/redis"
)

func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger("scheduled-shortener", httplog.Options{
		LogLevel: cfg.Level(),
		JSON:     cfg.Env != config.EnvDev,
		Concise:  cfg.Env == config.EnvDev,
	})
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	client, closeClient, err := newTableClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeClient()

	consistency := entity.Consistency(cfg.Storage.Consistency)

	storage := tablestorage.New(client,
		tablestorage.WithConsistency(consistency),
		tablestorage.WithRetryPolicy(occ.Policy{
			MaxRetries:      cfg.Storage.MaxRetries,
			InitialInterval: cfg.Storage.RetryInitialInterval,
			MaxInterval:     cfg.Storage.RetryMaxInterval,
		}),
	)

	codes, closeCodes, err := newCodeGenerator(ctx, cfg, storage)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeCodes()

	urlUseCase := usecase.NewURLUseCase(storage, codes,
		usecase.WithConsistency(consistency),
		usecase.WithMaxAttempts(cfg.ShortCode.MaxAttempts),
		usecase.WithLogger(logger.Logger),
	)

	router := delivery.NewRouter(logger, urlUseCase, delivery.Options{
		CustomDomain: cfg.CustomDomain,
		FallbackURL:  cfg.Redirect.FallbackURL,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "env", cfg.Env, "backend", cfg.Storage.Backend)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func newTableClient(ctx context.Context, cfg *config.Config) (tables.Client, func(), error) {
	if cfg.Storage.Backend == config.BackendMemory {
		return tables.NewMemoryClient(), func() {}, nil
	}

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrations(migrations.FS, cfg.Postgres.DSN()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return tables.NewPostgresClient(db), func() { db.Close() }, nil
}

func newCodeGenerator(ctx context.Context, cfg *config.Config, storage *tablestorage.Storage) (usecase.CodeGenerator, func(), error) {
	switch cfg.ShortCode.Generator {
	case config.GeneratorNanoid:
		return usecase.NewRandomCodes(cfg.ShortCode.Length), func() {}, nil
	case config.GeneratorRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		seq := redisrepo.NewSequence(client, cfg.Redis.Key)

		return usecase.NewCounterCodes(seq.NextID), func() { client.Close() }, nil
	default:
		return usecase.NewCounterCodes(storage.NextCounterValue), func() {}, nil
	}
}
