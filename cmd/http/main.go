package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/hilthontt/spinwheel/internal/application/session"
	"github.com/hilthontt/spinwheel/internal/application/spin"
	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/infrastructure/cache"
	"github.com/hilthontt/spinwheel/internal/infrastructure/configs"
	"github.com/hilthontt/spinwheel/internal/infrastructure/events"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/messaging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
	"github.com/hilthontt/spinwheel/internal/infrastructure/presence"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ratelimiter"
	"github.com/hilthontt/spinwheel/internal/infrastructure/reporting"
	"github.com/hilthontt/spinwheel/internal/infrastructure/tracing"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ws"
	"github.com/hilthontt/spinwheel/internal/jobs"
	"github.com/hilthontt/spinwheel/internal/persistence/db"
	"github.com/hilthontt/spinwheel/internal/persistence/repository"
	"github.com/hilthontt/spinwheel/internal/presentation/api"
	catalogHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/catalog"
	healthHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/health"
	realtimeHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/realtime"
	sessionsHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/sessions"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	ctx := context.Background()

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
	logger.Info(logging.General, logging.Startup, "configuration loaded", map[logging.ExtraKey]any{
		"path": configPath,
	})

	instanceID := cfg.Replication.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		InstanceID:  instanceID,
	})
	if err != nil {
		logger.Fatal(logging.General, logging.Startup, "failed to initialize tracer", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	reporter, err := reporting.New(reporting.Config{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Debug:       cfg.Sentry.Debug,
	})
	if err != nil {
		logger.Fatal(logging.General, logging.Startup, "failed to initialize sentry", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	recorder := metrics.NewRecorder()

	redisClient, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(logging.Redis, logging.Startup, "failed to connect to redis", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	postgres, err := db.NewPostgres(ctx, db.PostgresConfig{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal(logging.Postgres, logging.Startup, "failed to connect to postgres", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(postgres, repository.Models()...); err != nil {
			logger.Fatal(logging.Postgres, logging.Startup, "failed to migrate postgres", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	sessionRepository := repository.NewSessionRepository(postgres)
	memberRepository := repository.NewMemberRepository(postgres)
	catalogRepository := repository.NewCatalogRepository(postgres)
	if err := catalogRepository.Seed(ctx, repository.DefaultCatalog()); err != nil {
		logger.Warn(logging.Postgres, logging.Startup, "failed to seed game catalog", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}

	healthChecks := []healthHandler.Check{
		{Name: "redis", Probe: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		{Name: "postgres", Probe: func(ctx context.Context) error {
			sqlDB, err := postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
	}

	var (
		mongoClient *mongo.Client
		auditRepo   domain.SessionAuditRepository
	)
	if cfg.Mongo.Enabled {
		mongoClient, err = db.NewMongoClient(ctx, &db.MongoConfig{
			URI:               cfg.Mongo.URI,
			Database:          cfg.Mongo.Database,
			ConnectionTimeout: cfg.Mongo.ConnectionTimeout,
		}, logger)
		if err != nil {
			logger.Fatal(logging.MongoDB, logging.Startup, "failed to connect to mongodb", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}

		auditRepo = repository.NewSessionAuditLogRepository(mongoClient.Database(cfg.Mongo.Database))
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn(logging.MongoDB, logging.Startup, "failed to create audit log indexes", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}

		healthChecks = append(healthChecks, healthHandler.Check{
			Name:  "mongodb",
			Probe: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		})
	}

	var (
		transport events.Transport
		rabbitmq  *messaging.RabbitMQ
	)
	switch cfg.Replication.Driver {
	case "rabbitmq":
		rabbitmq, err = messaging.NewRabbitMQ(cfg.Replication.RabbitMQ)
		if err != nil {
			logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to connect to rabbitmq", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
		transport, err = events.NewAMQPTransport(rabbitmq, cfg.Replication.Channel)
		if err != nil {
			logger.Fatal(logging.RabbitMQ, logging.Startup, "failed to declare replication exchange", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	default:
		transport = events.NewRedisTransport(redisClient, cfg.Replication.Channel)
	}

	router := ws.NewRouter(recorder)
	bus := events.NewBus(instanceID, transport, router, logger, recorder)
	fanout := events.NewFanout(router, bus, logger)
	notifier := ws.NewNotifier(fanout, logger)

	runCtx, stopBackground := context.WithCancel(ctx)
	go func() {
		if err := bus.Run(runCtx); err != nil {
			logger.Error(logging.Replication, logging.Subscribe, "replication bus stopped", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
		}
	}()

	engine := spin.NewEngine(spin.Options{
		MinTurns:    cfg.Spin.MinTurns,
		MaxTurns:    cfg.Spin.MaxTurns,
		MinDuration: cfg.Spin.MinDuration,
		MaxDuration: cfg.Spin.MaxDuration,
	})

	registry := session.NewRegistry(session.Config{
		TTL:           cfg.Session.TTL,
		CacheTTL:      cfg.Session.CacheTTL,
		ExpiryPolicy:  session.ExpiryPolicy(cfg.Session.ExpiryPolicy),
		MutateTimeout: cfg.Session.MutateTimeout,
	}, session.Deps{
		Store:    sessionRepository,
		Members:  memberRepository,
		Cache:    cache.NewSessionCache(redisClient, cfg.Redis.KeyPrefix),
		Catalog:  catalogRepository,
		Audit:    auditRepo,
		Engine:   engine,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  recorder,
		Reporter: reporter,
	})

	reaper := jobs.NewSessionReaperJob(registry, logger, cfg.Session.ReapInterval)
	go reaper.Start(runCtx)

	tracker := presence.NewTracker(redisClient, cfg.Redis.KeyPrefix, cfg.Presence.TTL)
	var counter ratelimiter.Counter = ratelimiter.NewRedis(redisClient)
	if cfg.RateLimiter.Driver == "memory" {
		counter = ratelimiter.NewInMemory()
	}
	limiter := ratelimiter.New(counter, ratelimiter.WithSourceHeader(cfg.RateLimiter.SourceHeaderKey))

	realtime := realtimeHandler.NewHandler(realtimeHandler.Config{
		Client: ws.ClientOptions{
			FramesPerSecond: cfg.RateLimiter.FramesPerSecond,
			FrameBurst:      cfg.RateLimiter.FrameBurst,
			AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		},
		Messages: ratelimiter.Rule{
			Limit:  cfg.RateLimiter.Messages.Limit,
			Window: cfg.RateLimiter.Messages.Window,
		},
		CreateSession: ratelimiter.Rule{
			Limit:  cfg.RateLimiter.CreateSession.Limit,
			Window: cfg.RateLimiter.CreateSession.Window,
		},
		ActionTimeout: cfg.Session.MutateTimeout,
	}, registry, router, limiter, tracker, logger, recorder)

	app := api.NewApplication(
		*cfg,
		healthHandler.NewHandler(healthChecks...),
		sessionsHandler.NewHandler(registry, tracker, router, auditRepo, logger),
		catalogHandler.NewHandler(catalogRepository, logger),
		realtime,
		logger,
		recorder,
		limiter,
	)

	app.OnShutdown(func(ctx context.Context) {
		reaper.Stop()
		engine.Stop()
		router.CloseAll()
		stopBackground()
		// the transport owns the broker connection
		_ = bus.Close()
		_ = limiter.Close()
		_ = db.ClosePostgres(postgres)
		_ = db.DisconnectMongo(ctx, mongoClient)
		_ = shutdownTracer(ctx)
		reporter.Flush(2 * time.Second)
	})

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Startup, "server stopped with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	_ = logger.Sync()
}
