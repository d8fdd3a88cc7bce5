package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/virtualclassroom/backend/internal/infrastructure/configs"
	"github.com/virtualclassroom/backend/internal/infrastructure/logging"
	"github.com/virtualclassroom/backend/internal/infrastructure/ratelimiter"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/presentation/auth"
	healthHandler "github.com/virtualclassroom/backend/internal/presentation/handler/health"
	roomHandler "github.com/virtualclassroom/backend/internal/presentation/handler/rooms"
	signalHandler "github.com/virtualclassroom/backend/internal/presentation/handler/signal"
	userHandler "github.com/virtualclassroom/backend/internal/presentation/handler/users"
)

type Application struct {
	config        configs.Config
	roomHandler   *roomHandler.Handler
	userHandler   *userHandler.Handler
	healthHandler *healthHandler.Handler
	signalHandler *signalHandler.Handler
	tokenManager  *security.TokenManager
	logger        logging.Logger
	ratelimiter   ratelimiter.Limiter
	registry      *prometheus.Registry
}

func NewApplication(
	config configs.Config,
	roomHandler *roomHandler.Handler,
	userHandler *userHandler.Handler,
	healthHandler *healthHandler.Handler,
	signalHandler *signalHandler.Handler,
	tokenManager *security.TokenManager,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
	registry *prometheus.Registry,
) *Application {
	return &Application{
		config:        config,
		roomHandler:   roomHandler,
		userHandler:   userHandler,
		healthHandler: healthHandler,
		signalHandler: signalHandler,
		tokenManager:  tokenManager,
		logger:        logger,
		ratelimiter:   ratelimiter,
		registry:      registry,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.enableCors)
	r.Use(app.loggerMiddleware)

	requireAuth := auth.Middleware(app.tokenManager)

	r.Route("/api", func(r chi.Router) {
		// The websocket endpoint keeps the connection open far longer than
		// any request timeout, so it is mounted outside the timeout group.
		r.Get("/signal", app.signalHandler.ConnectHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(app.rateLimiterMiddleware)

			r.Route("/user", func(r chi.Router) {
				r.Post("/register", app.userHandler.RegisterHandler)
				r.Post("/login", app.userHandler.LoginHandler)

				r.With(requireAuth).Get("/profile", app.userHandler.ProfileHandler)
			})

			r.Route("/rooms", func(r chi.Router) {
				r.Use(requireAuth)

				r.Post("/", app.roomHandler.CreateRoomHandler)
				r.Get("/", app.roomHandler.ListRoomsHandler)
				r.Get("/{roomId}", app.roomHandler.GetRoomHandler)
				r.Delete("/{roomId}", app.roomHandler.DeleteRoomHandler)
			})

			r.Get("/health", app.healthHandler.GetHealth)
			r.Get("/healthz", app.healthHandler.GetHealth)
			r.Get("/ready", app.healthHandler.GetHealth)
			r.Get("/live", app.healthHandler.GetHealth)
		})
	})

	if app.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	}

	return otelhttp.NewHandler(r, "http.server")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
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

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
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
