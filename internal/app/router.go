package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	audithttp "github.com/denguechat/denguechat-admin/internal/audit/http"
	"github.com/denguechat/denguechat-admin/internal/auth"
	"github.com/denguechat/denguechat-admin/internal/cities"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/dashboard"
	"github.com/denguechat/denguechat-admin/internal/houseblocks"
	"github.com/denguechat/denguechat-admin/internal/inspections"
	"github.com/denguechat/denguechat-admin/internal/observability"
	"github.com/denguechat/denguechat-admin/internal/organizations"
	"github.com/denguechat/denguechat-admin/internal/permissions"
	"github.com/denguechat/denguechat-admin/internal/platform/cache"
	"github.com/denguechat/denguechat-admin/internal/platform/httpx"
	"github.com/denguechat/denguechat-admin/internal/posts"
	"github.com/denguechat/denguechat-admin/internal/roles"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/teams"
	"github.com/denguechat/denguechat-admin/internal/users"
	"github.com/denguechat/denguechat-admin/internal/visits"
	"github.com/denguechat/denguechat-admin/jobs"
	"github.com/denguechat/denguechat-admin/report"
	"github.com/denguechat/denguechat-admin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Redis          *redis.Client
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Renderer       *crud.Renderer
	Metrics        *observability.Metrics

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler

	Users         *crud.Resource[users.User]
	Roles         *crud.Resource[roles.Role]
	Permissions   *crud.Resource[permissions.Permission]
	Teams         *crud.Resource[teams.Team]
	Organizations *crud.Resource[organizations.Organization]
	CitiesHandler *cities.Handler
	HouseBlocks   *crud.Resource[houseblocks.HouseBlock]
	Visits        *crud.Resource[visits.Visit]
	Inspections   *crud.Resource[inspections.Inspection]
	PostsHandler  *posts.Handler

	AuditHandler  *audithttp.Handler
	JobHandler    *jobs.Handler
	ReportHandler *report.Handler
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Renderer:       params.Renderer,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(params.AuthHandler.Authenticate)
	r.NotFound(params.Renderer.NotFound().ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Redis != nil {
			if err := cache.Ping(r.Context(), params.Redis); err != nil {
				params.Logger.Warn("healthz", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Redis unavailable", err.Error())
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Route("/jobs", params.JobHandler.MountRoutes)
	r.Route("/report", params.ReportHandler.MountRoutes)

	params.DashboardHandler.MountPublic(r)
	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.AuthHandler.MountLanguage(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		params.DashboardHandler.MountRoutes(r)
		params.AuthHandler.MountAccount(r)

		r.Route(users.Path, params.Users.Mount)
		r.Route(roles.Path, params.Roles.Mount)
		r.Route(permissions.Path, params.Permissions.Mount)
		r.Route(teams.Path, params.Teams.Mount)
		r.Route(organizations.Path, params.Organizations.Mount)
		r.Route(cities.Path, params.CitiesHandler.MountRoutes)
		r.Route(houseblocks.Path, params.HouseBlocks.Mount)
		r.Route(visits.Path, params.Visits.Mount)
		r.Route(inspections.Path, params.Inspections.Mount)
		r.Route(posts.Path, params.PostsHandler.MountRoutes)

		params.AuditHandler.MountRoutes(r)
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
