package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/furstore/internal/backend"
	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/catalog"
	"github.com/fjod/furstore/internal/config"
	h "github.com/fjod/furstore/internal/http"
	"github.com/fjod/furstore/internal/ledger"
	"github.com/fjod/furstore/internal/logger"
	"github.com/fjod/furstore/internal/publisher"
	"github.com/fjod/furstore/internal/repository"
	"github.com/fjod/furstore/internal/service"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot := logger.New(config.Default().Log)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Log)

	// Incoming traceparent headers become the request span's parent; trace ids land in the logs.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Caches: redis when configured, in-process otherwise
	var (
		sessionCache cache.SessionCache
		productCache cache.ProductCache
		submitLock   cache.SubmitLock
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connection failed")
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		sessionCache = cache.NewRedisSessionCache(redisClient, cfg.Redis.SessionTTL)
		productCache = cache.NewRedisProductCache(redisClient, cfg.Redis.ProductTTL)
		submitLock = cache.NewRedisSubmitLock(redisClient, cfg.Redis.LockTTL)
	} else {
		log.Warn().Msg("redis not configured, using in-process caches")
		sessionCache = cache.NewMemorySessionCache(10000, cfg.Redis.SessionTTL)
		productCache = cache.NewMemoryProductCache(1000, cfg.Redis.ProductTTL)
		submitLock = cache.NewMemorySubmitLock(cfg.Redis.LockTTL)
	}

	// Sessions are durable only with mongo
	var sessionRepo repository.SessionRepository
	if cfg.Mongo.URI != "" {
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoDB.Client().Disconnect(ctx)
		}()
		repo := repository.NewMongoRepository(mongoDB)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create session indexes")
		}
		sessionRepo = repo
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	}

	db, err := ledger.Open(cfg.Ledger.Driver, cfg.Ledger.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open submission ledger")
	}
	if err := ledger.RunMigrations(db, cfg.Ledger.Driver, cfg.Ledger.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate submission ledger")
	}
	submissions := ledger.New(db, cfg.Ledger.Driver, cfg.Ledger.StaleAfter)
	defer submissions.Close()

	client := backend.NewClient(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		MaxFailures: cfg.Backend.MaxFailures,
		OpenTimeout: cfg.Backend.OpenTimeout,
	}, log)

	products := catalog.NewService(client, productCache, log)
	storefront := service.NewStorefront(service.Deps{
		Sessions:   service.NewSessionService(sessionRepo, sessionCache, log),
		Catalog:    products,
		Orders:     client,
		Ledger:     submissions,
		SubmitLock: submitLock,
		Log:        log,
	})

	var wg sync.WaitGroup
	if pub := newPublisher(cfg.Outbox, log); pub != nil {
		defer pub.Close()
		poller := publisher.NewOutboxPoller(submissions, pub, cfg.Outbox.PollInterval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()
	}

	timeout := cfg.HTTP.RequestTimeout
	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     timeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		SecureCookies:      cfg.HTTP.SecureCookies,
	}, h.Handlers{
		Cart:     h.NewCartHandler(storefront, timeout),
		Checkout: h.NewCheckoutHandler(storefront, timeout),
		Orders:   h.NewOrdersHandler(storefront, timeout),
		Catalog:  h.NewCatalogHandler(products, timeout),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	wg.Wait()
	log.Info().Msg("server exited")
}

// newPublisher picks kafka when brokers are configured, else amqp. Nil means
// the outbox is only recorded.
func newPublisher(cfg config.OutboxConfig, log zerolog.Logger) publisher.Publisher {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.Topic).Msg("publishing order events to kafka")
		return publisher.NewKafkaPublisher(cfg.Topic, cfg.KafkaBrokers...)
	case cfg.AMQPURL != "":
		pub, err := publisher.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		log.Info().Str("exchange", cfg.Exchange).Msg("publishing order events to rabbitmq")
		return pub
	default:
		log.Warn().Msg("no broker configured, order events stay in the outbox")
		return nil
	}
}
