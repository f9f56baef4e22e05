package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/observability"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Renderer       *crud.Renderer
	Metrics        *observability.Metrics
}

// MiddlewareStack installs the dashboard middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		// Reports are embedded from the analytics host.
		ContentSecurityPolicy: "default-src 'self'; frame-src https:",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.Config == nil || !cfg.Config.IsProduction(),
	})

	timeout := 45 * time.Second
	limit := 120
	fallback := ""
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.AppRateLimit > 0 {
			limit = cfg.Config.AppRateLimit
		}
		fallback = cfg.Config.DefaultLanguage
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(cfg.Logger),
		shared.SessionMiddleware(cfg.SessionManager, cfg.Logger),
		languageMiddleware(fallback),
		recoverer(cfg.Logger, cfg.Renderer),
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		csrfMiddleware(cfg.CSRFManager, cfg.Renderer, cfg.Logger),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// requestLogger writes one access line per request through logger.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	})
}

// languageMiddleware resolves the UI language and forwards it to the
// backend client.
func languageMiddleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			stored := ""
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				stored = sess.Language()
			}
			lang := i18n.Resolve(stored, r.Header.Get("Accept-Language"), fallback)
			ctx := i18n.WithLanguage(r.Context(), lang)
			ctx = api.WithLanguage(ctx, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func csrfMiddleware(manager *shared.CSRFManager, renderer *crud.Renderer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if err := manager.VerifyToken(r.Context(), sess, shared.TokenFromRequest(r)); err != nil {
				logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				renderer.Error(w, r, http.StatusForbidden, renderer.T(r, i18n.CodeForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recoverer turns panics into the generic error page.
func recoverer(logger *slog.Logger, renderer *crud.Renderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic serving request",
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Any("panic", fmt.Sprint(rec)))
				renderer.Error(w, r, http.StatusInternalServerError, renderer.T(r, i18n.CodeGeneric))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
