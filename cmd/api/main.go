package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/accounts-backend/api/controllers"
	"github.com/angelmondragon/accounts-backend/api/routes"
	"github.com/angelmondragon/accounts-backend/internal/auth"
	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/notifications"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/auth/session"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/metrics"
	"github.com/angelmondragon/accounts-backend/pkg/migrate"
	"github.com/angelmondragon/accounts-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "accounts-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "accounts-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	cal := jalali.New(loc)
	views := controllers.NewViews(cal, cfg.Media)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	messagingMetrics := metrics.NewMessagingMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	messageRepo := messages.NewRepository(conn)
	contactRepo := contacts.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Presenter:      views.Users,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		Media:          cfg.Media,
		Presenter:      views.Users,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	usersService, err := users.NewService(users.ServiceParams{
		Repo:     userRepo,
		Messages: messageRepo,
		Contacts: contactRepo,
		Media:    cfg.Media,
		Calendar: cal,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	messagesService, err := messages.NewService(messages.ServiceParams{
		Repo:    messageRepo,
		Users:   userRepo,
		Metrics: messagingMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	contactsService, err := contacts.NewService(contacts.ServiceParams{
		DB:       dbClient,
		Repo:     contactRepo,
		Messages: messageRepo,
		Users:    userRepo,
		Metrics:  messagingMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	threadsService, err := threads.NewService(threads.ServiceParams{
		Messages:      messageRepo,
		Contacts:      contactRepo,
		Users:         userRepo,
		ReadMarker:    messagesService,
		ContactViewer: contactsService,
	})
	if err != nil {
		return err
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(conn), usersService)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Ready:         map[string]controllers.Pinger{"database": dbClient, "redis": redisClient},
		Cache:         redisClient,
		Sessions:      sessionManager,
		Accounts:      userRepo,
		Gatherer:      registry,
		Metrics:       metrics.NewHTTPMetrics(registry),
		Views:         views,
		Auth:          authService,
		Register:      registerService,
		Users:         usersService,
		Contacts:      contactsService,
		Messages:      messagesService,
		Threads:       threadsService,
		Notifications: notificationsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
