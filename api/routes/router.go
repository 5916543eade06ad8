package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zatgpt/zatgpt-backend/api/controllers"
	"github.com/zatgpt/zatgpt-backend/api/middleware"
	"github.com/zatgpt/zatgpt-backend/internal/auth"
	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/conversations"
	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
	"github.com/zatgpt/zatgpt-backend/pkg/metrics"
)

// Dependencies carries everything the router hands to controllers.
type Dependencies struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   controllers.Pinger
	Redis                controllers.Pinger
	Gatherer             prometheus.Gatherer
	HTTPMetrics          *metrics.HTTPMetrics
	AuthService          auth.Service
	RegisterService      auth.RegisterService
	AdminRegisterService auth.AdminRegisterService
	AdminService         auth.AdminService
	Conversations        conversations.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedHosts),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authenticated := middleware.Auth(deps.AuthService, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(deps.RegisterService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(authenticated).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/users/me", controllers.UserProfile(logg))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(deps.Conversations, logg))
			r.Get("/", controllers.SessionList(deps.Conversations, logg))
			r.Get("/{sessionId}/messages", controllers.MessageList(deps.Conversations, logg))
			r.Post("/{sessionId}/messages", controllers.MessageSend(deps.Conversations, logg))
		})
		r.Post("/messages", controllers.MessageSendLegacy(deps.Conversations, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Get("/users", controllers.AdminListUsers(deps.AdminService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRank(authz.RankStaffAdmin, logg))
				r.Get("/permission", controllers.AdminPermissionCheck(deps.AdminService, logg))
				superOnly := r.With(middleware.RequireRank(authz.RankSuperAdmin, logg))
				superOnly.Post("/users/admin", controllers.AdminCreateUser(deps.AdminRegisterService, enums.AdminTierAdmin, logg))
				superOnly.Post("/users/superadmin", controllers.AdminCreateUser(deps.AdminRegisterService, enums.AdminTierSuperAdmin, logg))
				r.Post("/users/permissions", controllers.AdminUpdatePermissions(deps.AdminService, logg))
			})
		})
	})

	return r
}
