package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/denguechat/denguechat-admin/cmd/denguechat/cli"
	"github.com/denguechat/denguechat-admin/internal/app"
	"github.com/denguechat/denguechat-admin/internal/audit"
	audithttp "github.com/denguechat/denguechat-admin/internal/audit/http"
	"github.com/denguechat/denguechat-admin/internal/auth"
	"github.com/denguechat/denguechat-admin/internal/cities"
	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/dashboard"
	"github.com/denguechat/denguechat-admin/internal/houseblocks"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/inspections"
	"github.com/denguechat/denguechat-admin/internal/lookup"
	"github.com/denguechat/denguechat-admin/internal/observability"
	"github.com/denguechat/denguechat-admin/internal/organizations"
	"github.com/denguechat/denguechat-admin/internal/permissions"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/platform/cache"
	"github.com/denguechat/denguechat-admin/internal/platform/db"
	"github.com/denguechat/denguechat-admin/internal/posts"
	"github.com/denguechat/denguechat-admin/internal/rbac"
	"github.com/denguechat/denguechat-admin/internal/roles"
	"github.com/denguechat/denguechat-admin/internal/shared"
	"github.com/denguechat/denguechat-admin/internal/teams"
	"github.com/denguechat/denguechat-admin/internal/users"
	"github.com/denguechat/denguechat-admin/internal/view"
	"github.com/denguechat/denguechat-admin/internal/visits"
	"github.com/denguechat/denguechat-admin/jobs"
	"github.com/denguechat/denguechat-admin/report"
)

const sessionCookie = "denguechat_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
		err := jobsCLI.Run(ctx, os.Args[2:], cfg.AuditRetention, os.Stdout)
		_ = jobsCLI.Close()
		if err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	auditStore := audit.NewStore(nil)
	if dbpool != nil {
		defer dbpool.Close()
		auditStore = audit.NewStore(dbpool)
		if err := auditStore.EnsureSchema(ctx); err != nil {
			logger.Error("audit schema", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("PG_DSN not set, audit events go to the application log")
	}

	metrics := observability.NewMetrics()

	client, err := api.NewClient(api.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
		Observer:  metrics,
	})
	if err != nil {
		logger.Error("backend client", slog.Any("error", err))
		os.Exit(1)
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	renderer := &crud.Renderer{Logger: logger, Templates: templates, CSRF: csrfManager, Translator: i18n.NewTranslator()}
	rbacMiddleware := rbac.Middleware{Logger: logger, Forbidden: renderer.Forbidden()}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	var recorder *audit.Recorder
	if auditStore.Enabled() {
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		recorder = audit.NewRecorder(jobClient, auditStore, logger)
	} else {
		recorder = audit.NewRecorder(nil, nil, logger)
	}

	reportClient := report.NewClient(cfg.GotenbergURL, report.Options{Timeout: cfg.AppRequestTimeout, Landscape: true})

	deps := crud.Deps{
		Renderer: renderer,
		Client:   client,
		Lookup:   lookup.NewService(client, lookup.NewCache(redisClient, cfg.LookupTTL), logger),
		Audit:    recorder,
		RBAC:     rbacMiddleware,
		PDF:      reportClient,
	}

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(client)), renderer, sessionManager)
	dashboardHandler := dashboard.NewHandler(logger, renderer, client, visits.Statuses, cfg.Reports())
	auditHandler := audithttp.NewHandler(logger, auditStore, renderer, rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Redis:            redisClient,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Renderer:         renderer,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		Users:            users.NewResource(deps),
		Roles:            roles.NewResource(deps),
		Permissions:      permissions.NewResource(deps),
		Teams:            teams.NewResource(deps),
		Organizations:    organizations.NewResource(deps),
		CitiesHandler:    cities.NewHandler(deps),
		HouseBlocks:      houseblocks.NewResource(deps),
		Visits:           visits.NewResource(deps),
		Inspections:      inspections.NewResource(deps),
		PostsHandler:     posts.NewHandler(deps),
		AuditHandler:     auditHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		ReportHandler:    report.NewHandler(reportClient, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
