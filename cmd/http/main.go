package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/virtualclassroom/backend/internal/domain"
	"github.com/virtualclassroom/backend/internal/infrastructure/configs"
	"github.com/virtualclassroom/backend/internal/infrastructure/events"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/messaging"
	"github.com/virtualclassroom/backend/internal/infrastructure/metrics"
	"github.com/virtualclassroom/backend/internal/infrastructure/profanity"
	"github.com/virtualclassroom/backend/internal/infrastructure/ratelimiter"
	memrepo "github.com/virtualclassroom/backend/internal/infrastructure/repository"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/infrastructure/tracing"
	"github.com/virtualclassroom/backend/internal/persistence/db"
	"github.com/virtualclassroom/backend/internal/persistence/repository"
	"github.com/virtualclassroom/backend/internal/presentation/api"
	"github.com/virtualclassroom/backend/internal/presentation/handler/health"
	"github.com/virtualclassroom/backend/internal/presentation/handler/rooms"
	"github.com/virtualclassroom/backend/internal/presentation/handler/signal"
	"github.com/virtualclassroom/backend/internal/presentation/handler/users"
	"github.com/virtualclassroom/backend/internal/relay"
)

const (
	serviceName = "classroom-api"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
	})
	logger.Init()

	var (
		roomRepository  domain.RoomRepository
		userRepository  domain.UserRepository
		auditRepository domain.SignalAuditRepository
	)

	if cfg.Mongo.Enabled {
		mongoClient, err := db.NewMongoClient(ctx, &db.MongoConfig{
			URI:               cfg.Mongo.URI,
			Database:          cfg.Mongo.Database,
			ConnectionTimeout: db.DefaultConnectionTimeout,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer db.DisconnectMongo(context.Background(), mongoClient)

		database := mongoClient.Database(cfg.Mongo.Database)
		roomRepository = repository.NewRoomRepository(database)
		userRepository = repository.NewUserRepository(database)
		auditRepository = repository.NewSignalAuditLogRepository(database)
	} else {
		roomRepository = memrepo.NewInMemoryRoomRepository(int(cfg.RoomStore.Capacity), cfg.RoomStore.IdleExpiry)
		userRepository = memrepo.NewInMemoryUserRepository()
		auditRepository = memrepo.NewInMemoryAuditRepository(0)
	}

	for _, repo := range []interface {
		EnsureIndexes(context.Context) error
	}{roomRepository, userRepository, auditRepository} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	relayMetrics := metrics.NewRelayMetrics(registry)

	var publisher relay.PresencePublisher
	if cfg.RabbitMQ.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")

		signalPublisher := events.NewSignalPublisher(rabbitmq, logger)
		defer signalPublisher.Close()
		publisher = signalPublisher

		auditConsumer := events.NewAuditConsumer(rabbitmq, auditRepository, logger)
		go func() {
			if err := auditConsumer.Start(); err != nil {
				logger.Errorf("audit consumer stopped: %v", err)
			}
		}()
	}

	rel := relay.New(logger, relayMetrics, publisher)

	tokenManager := security.NewTokenManager(security.TokenConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	})

	profanityFilter := profanity.NewFilter()

	var limiterCache ratelimiter.GetterSetter
	if cfg.Redis.Enabled {
		limiterCache, err = ratelimiter.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Auth)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
	}

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		Cache:            limiterCache,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	roomHandler := rooms.NewHandler(roomRepository, profanityFilter)
	userHandler := users.NewHandler(userRepository, tokenManager, profanityFilter)
	healthHandler := health.NewHandler()
	signalHandler := signal.NewHandler(rel, tokenManager, cfg.Relay, cfg.HTTP.AllowedOrigins, logger)

	app := api.NewApplication(*cfg, roomHandler, userHandler, healthHandler, signalHandler, tokenManager, logger, rl, registry)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	logger.Info(logging.General, logging.Startup, "signaling relay starting", map[logging.ExtraKey]any{
		logging.AppName: serviceName,
		"config":        configPath,
		"started_at":    time.Now().UTC().Format(time.RFC3339),
	})

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
