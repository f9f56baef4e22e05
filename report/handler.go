package report

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denguechat/denguechat-admin/internal/platform/httpx"
)

// Handler exposes the renderer health endpoint.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.client.Ping(r.Context()); err != nil {
		if errors.Is(err, ErrDisabled) {
			status = "disabled"
		} else {
			h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	httpx.JSON(w, code, map[string]string{"status": status})
}
