// Package rbac guards handlers with the permissions carried by the
// signed-in profile.
package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
	// Forbidden renders the denial; plain 403 text when nil.
	Forbidden http.Handler
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require("any", normalizePermissions(perms), hasAnyPermission)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require("all", normalizePermissions(perms), hasAllPermissions)
}

func (m Middleware) require(mode string, required []string, check func(granted, required []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			profile, ok := shared.ProfileFromContext(r.Context())
			if ok && (profile.IsAdmin() || check(profile.Permissions(), required)) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Info("rbac denied",
					slog.String("mode", mode),
					slog.String("user", profile.Username),
					slog.String("path", r.URL.Path),
					slog.Any("required", required))
			}
			m.deny(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if m.Forbidden != nil {
		m.Forbidden.ServeHTTP(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// Can reports whether profile holds any of perms.
func Can(profile shared.Profile, perms ...string) bool {
	required := normalizePermissions(perms)
	return len(required) == 0 || profile.IsAdmin() || hasAnyPermission(profile.Permissions(), required)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func permissionSet(granted []string) map[string]struct{} {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	return set
}

func hasAnyPermission(granted []string, required []string) bool {
	set := permissionSet(granted)
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	set := permissionSet(granted)
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
