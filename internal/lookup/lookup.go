// Package lookup serves the option lists behind selects and multiple
// selects, cached in Redis per kind, caller audience and organization scope.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Kind names a backend collection used for options.
type Kind string

const (
	Roles         Kind = "roles"
	Permissions   Kind = "permissions"
	Organizations Kind = "organizations"
	Teams         Kind = "teams"
	Neighborhoods Kind = "neighborhoods"
	Cities        Kind = "cities"
	Users         Kind = "users"
)

// maxOptions bounds one option list request.
const maxOptions = 500

// loadTimeout bounds a shared load, which outlives the request that
// started it.
const loadTimeout = 15 * time.Second

var paths = map[Kind]string{
	Roles:         "/roles",
	Permissions:   "/permissions",
	Organizations: "/organizations",
	Teams:         "/teams",
	Neighborhoods: "/neighborhoods",
	Cities:        "/cities",
	Users:         "/users",
}

// scoped kinds are filtered by the caller's organization.
var scoped = map[Kind]bool{Teams: true, Users: true}

type optionRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

func (r optionRow) label() string {
	if r.Name != "" {
		return r.Name
	}
	if full := strings.TrimSpace(r.FirstName + " " + r.LastName); full != "" {
		return full
	}
	if r.Username != "" {
		return r.Username
	}
	return r.ID
}

// Service loads option lists.
type Service struct {
	client *api.Client
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs the lookup service.
func NewService(client *api.Client, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, cache: cache, logger: logger}
}

// Options returns the options of kind. scope is the organization ID for
// organization-bound kinds; it is ignored for the others. Lists are shared
// only between callers of the same audience: admins, members of one
// organization, or a single user without one. Callers without a profile
// always hit the backend.
func (s *Service) Options(ctx context.Context, kind Kind, scope string) ([]form.Option, error) {
	path, ok := paths[kind]
	if !ok {
		return nil, fmt.Errorf("lookup: unknown kind %q", kind)
	}
	if !scoped[kind] {
		scope = ""
	}
	partition, ok := audience(ctx)
	if !ok {
		return s.load(ctx, path, scope)
	}
	bucket := scope
	if bucket == "" {
		bucket = "all"
	}
	key, err := s.cache.BuildKey(ctx, kind, partition+":"+bucket)
	if err != nil {
		s.logger.Warn("lookup cache unavailable", slog.String("kind", string(kind)), slog.Any("error", err))
		return s.load(ctx, path, scope)
	}

	res := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		var opts []form.Option
		err := s.cache.FetchJSON(loadCtx, key, &opts, func(ctx context.Context) (any, error) {
			return s.load(ctx, path, scope)
		})
		return opts, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		return slices.Clone(r.Val.([]form.Option)), nil
	}
}

// audience names the cache partition of the signed-in caller.
func audience(ctx context.Context) (string, bool) {
	profile, ok := shared.ProfileFromContext(ctx)
	switch {
	case !ok:
		return "", false
	case profile.IsAdmin():
		return "admin", true
	case profile.OrganizationID != "":
		return "org-" + profile.OrganizationID, true
	case profile.ID != "":
		return "user-" + profile.ID, true
	}
	return "", false
}

// MustOptions is Options with failures logged and an empty list returned,
// so a form still renders when a lookup fails.
func (s *Service) MustOptions(ctx context.Context, kind Kind, scope string) []form.Option {
	opts, err := s.Options(ctx, kind, scope)
	if err != nil {
		s.logger.Warn("lookup options failed", slog.String("kind", string(kind)), slog.Any("error", err))
		return []form.Option{}
	}
	return opts
}

// Label resolves the label of id within kind, or id itself.
func (s *Service) Label(ctx context.Context, kind Kind, scope, id string) string {
	for _, opt := range s.MustOptions(ctx, kind, scope) {
		if opt.Value == id {
			return opt.Label
		}
	}
	return id
}

// Bump invalidates the cached lists of kind after a mutation.
func (s *Service) Bump(ctx context.Context, kind Kind) {
	if err := s.cache.Bump(ctx, kind); err != nil {
		s.logger.Warn("lookup bump failed", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}

func (s *Service) load(ctx context.Context, path, scope string) ([]form.Option, error) {
	q := url.Values{}
	q.Set("page[size]", fmt.Sprint(maxOptions))
	if scope != "" {
		q.Set("filter[organization_id]", scope)
	}
	page, err := api.List[optionRow](ctx, s.client, path, q)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}
	opts := make([]form.Option, 0, len(page.Items))
	for _, row := range page.Items {
		opts = append(opts, form.Option{Value: row.ID, Label: row.label()})
	}
	slices.SortStableFunc(opts, func(a, b form.Option) int {
		return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	})
	return opts, nil
}
