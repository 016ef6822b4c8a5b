package api

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hilthontt/spinwheel/internal/infrastructure/configs"
	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"github.com/hilthontt/spinwheel/internal/infrastructure/metrics"
	"github.com/hilthontt/spinwheel/internal/infrastructure/ratelimiter"
	catalogHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/catalog"
	healthHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/health"
	realtimeHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/realtime"
	sessionsHandler "github.com/hilthontt/spinwheel/internal/presentation/handler/sessions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config          configs.Config
	healthHandler   *healthHandler.Handler
	sessionsHandler *sessionsHandler.Handler
	catalogHandler  *catalogHandler.Handler
	realtimeHandler *realtimeHandler.Handler
	logger          logging.Logger
	metrics         *metrics.Recorder
	ratelimiter     *ratelimiter.Limiter
	shutdownHooks   []func(ctx context.Context)
}

func NewApplication(
	config configs.Config,
	healthHandler *healthHandler.Handler,
	sessionsHandler *sessionsHandler.Handler,
	catalogHandler *catalogHandler.Handler,
	realtimeHandler *realtimeHandler.Handler,
	logger logging.Logger,
	metrics *metrics.Recorder,
	ratelimiter *ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		healthHandler:   healthHandler,
		sessionsHandler: sessionsHandler,
		catalogHandler:  catalogHandler,
		realtimeHandler: realtimeHandler,
		logger:          logger,
		metrics:         metrics,
		ratelimiter:     ratelimiter,
	}
}

// OnShutdown registers fn to run, in order, after the server stops accepting
// requests.
func (app *Application) OnShutdown(fn func(ctx context.Context)) {
	app.shutdownHooks = append(app.shutdownHooks, fn)
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(app.prometheusMiddleware)
	r.Use(app.enableCors)

	// long-lived; kept out of the request timeout and the HTTP limiter
	r.Get("/ws", app.realtimeHandler.ServeWS)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	app.mountDebug(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(app.rateLimiterMiddleware)

		r.Route("/api", func(r chi.Router) {
			r.Route("/sessions/{sessionId}", func(r chi.Router) {
				r.Get("/", app.sessionsHandler.GetSessionHandler)
				r.Get("/history", app.sessionsHandler.GetHistoryHandler)
			})
			r.Get("/stats", app.sessionsHandler.GetStatsHandler)
			r.Get("/games", app.catalogHandler.ListGamesHandler)

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetReady)
			r.Get("/live", app.healthHandler.GetHealth)
		})
	})

	return otelhttp.NewHandler(r, "spinwheel.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// mountDebug exposes the expvar registry (goroutine count, memstats).
func (app *Application) mountDebug(r chi.Router) {
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr(),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})
		app.healthHandler.SetHealthy(false)

		err := srv.Shutdown(ctx)
		for _, hook := range app.shutdownHooks {
			hook(ctx)
		}
		shutdown <- err
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
