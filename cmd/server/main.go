package main // process entry point for the seat engine

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-seat-engine/internal/authority"
	"github.com/iliyamo/event-seat-engine/internal/config"
	"github.com/iliyamo/event-seat-engine/internal/database"
	"github.com/iliyamo/event-seat-engine/internal/handler"
	"github.com/iliyamo/event-seat-engine/internal/lock"
	"github.com/iliyamo/event-seat-engine/internal/queue"
	"github.com/iliyamo/event-seat-engine/internal/repository"
	"github.com/iliyamo/event-seat-engine/internal/repository/memstore"
	"github.com/iliyamo/event-seat-engine/internal/router"
	"github.com/iliyamo/event-seat-engine/internal/scheduler"
	"github.com/iliyamo/event-seat-engine/internal/service"
)

func main() {
	log := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	setupLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("bye")
}

func setupLogger(log *logrus.Logger, cfg config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	health := map[string]handler.Check{}

	// Storage
	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store = memstore.New()
	default:
		db, err := database.Open(ctx, database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
		}
		store = repository.NewSQLStore(db)
		health["db"] = db.PingContext
	}

	// Redis backs the sync lock and the rate limiter; both are optional.
	var (
		locker   service.Locker
		scripter redis.Scripter
	)
	if rdb := config.NewRedisClient(ctx, cfg.Redis, log); rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, "seat-engine")
		scripter = rdb
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var publisher service.SalePublisher
	if cfg.RabbitMQURL != "" {
		p := queue.NewPublisher(cfg.RabbitMQURL, log.WithField("component", "publisher"))
		defer p.Close()
		publisher = p
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	client := authority.NewHTTPClient(authority.Config{
		BaseURL: cfg.AuthorityURL,
		Token:   cfg.AuthorityToken,
		Timeout: cfg.AuthorityTimeout,
	}, log.WithField("component", "authority"))

	eng := service.NewEngine(store, client, service.Options{
		HoldDuration: cfg.HoldDuration,
		Location:     loc,
		SyncLockTTL:  cfg.SyncLockTTL,
		Locker:       locker,
		Publisher:    publisher,
		Logger:       log,
	})

	// Background loops stop with ctx.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.NewScheduler(eng, cfg.SyncInterval, log.WithField("component", "scheduler")).Start(ctx)
	}()
	if cfg.RabbitMQURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := queue.NewCatalogConsumer(cfg.RabbitMQURL, eng, log.WithField("component", "catalog_consumer"))
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("catalog consumer stopped")
			}
		}()
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, reservation and admin routes will reject every request")
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, router.Deps{
		Handler:           handler.New(eng, log.WithField("component", "http")),
		Health:            health,
		JWTSecret:         cfg.JWTSecret,
		NotificationToken: cfg.NotificationToken,
		RateLimit:         cfg.RateLimit,
		Redis:             scripter,
		Log:               log,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	wg.Wait()
	return runErr
}
