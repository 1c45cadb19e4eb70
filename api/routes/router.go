package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/accounts-backend/api/controllers"
	"github.com/angelmondragon/accounts-backend/api/middleware"
	"github.com/angelmondragon/accounts-backend/internal/auth"
	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/notifications"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/auth/session"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/accounts-backend/pkg/redis"
)

// Cache is the Redis surface used by the rate limiters and idempotency guard.
type Cache interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Ready    map[string]controllers.Pinger
	Cache    Cache
	Sessions session.AccessSessionChecker
	Accounts middleware.AccountChecker
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics
	Views    controllers.Views

	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Contacts      contacts.Service
	Messages      messages.Service
	Threads       threads.Service
	Notifications notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, deps.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterUsernameLimit,
	)

	var (
		idempotency = middleware.Idempotency(nil, logg)
		loginLimit  = middleware.AuthRateLimit(loginPolicy, nil, logg)
		regLimit    = middleware.AuthRateLimit(registerPolicy, nil, logg)
		apiLimit    = middleware.RateLimit(nil, 0, 0, logg)
	)
	if deps.Cache != nil {
		idempotency = middleware.Idempotency(deps.Cache, logg)
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Cache, logg)
		regLimit = middleware.AuthRateLimit(registerPolicy, deps.Cache, logg)
		apiLimit = middleware.RateLimit(deps.Cache, cfg.AuthRateLimit.APILimit, cfg.AuthRateLimit.APIWindow, logg)
	}

	views := deps.Views

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Ready, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.Ping("public"))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(regLimit, idempotency).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.Accounts, logg))
		r.Use(apiLimit)
		r.Use(idempotency)

		r.Get("/ping", controllers.Ping("private"))

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(deps.Users, logg))
			r.Put("/", controllers.ProfileUpdate(deps.Users, logg))
		})

		r.Route("/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactList(deps.Contacts, views, logg))
			r.Post("/", controllers.ContactSubmit(deps.Contacts, views, logg))
		})

		r.Route("/v1/messages", func(r chi.Router) {
			r.Get("/", controllers.MessageInbox(deps.Threads, views, logg))
			r.Post("/", controllers.MessageSend(deps.Messages, views, logg))
			r.Get("/conversation", controllers.MessageConversation(deps.Threads, views, logg))
			r.Get("/private", controllers.MessagePrivateThread(deps.Threads, views, logg))
			r.Get("/{messageId}", controllers.MessageDetail(deps.Threads, views, logg))
			r.Post("/{messageId}/read", controllers.MessageMarkRead(deps.Messages, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/unread-count", controllers.NotificationsUnreadCount(deps.Notifications, logg))
			r.Get("/summary", controllers.NotificationsSummary(deps.Notifications, views, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.Accounts, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleStaff))
		r.Use(apiLimit)
		r.Use(idempotency)
		r.Get("/ping", controllers.Ping("admin"))

		r.Get("/v1/dashboard", controllers.AdminDashboard(deps.Notifications, views, logg))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(deps.Users, logg))
			r.Get("/stats", controllers.AdminUserStats(deps.Users, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(deps.Users, views, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(deps.Users, logg))
			r.Patch("/{userId}/type", controllers.AdminUserUpdateType(deps.Users, logg))
			r.Post("/{userId}/toggle-active", controllers.AdminUserToggleActive(deps.Users, logg))
			r.Get("/{userId}/job-document", controllers.AdminUserJobDocument(deps.Users, logg))
			r.Post("/{userId}/messages", controllers.AdminSendToUser(deps.Messages, views, logg))
		})

		r.Route("/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.AdminContactList(deps.Contacts, views, logg))
			r.Get("/{contactId}", controllers.AdminContactDetail(deps.Threads, views, logg))
			r.Post("/{contactId}/respond", controllers.AdminContactRespond(deps.Contacts, views, logg))
		})

		r.Route("/v1/messages", func(r chi.Router) {
			r.Get("/", controllers.AdminPrivateInbox(deps.Messages, views, logg))
			r.Get("/{messageId}", controllers.AdminPrivateDetail(deps.Threads, views, logg))
			r.Post("/{messageId}/reply", controllers.AdminPrivateReply(deps.Messages, views, logg))
		})
	})

	return r
}
