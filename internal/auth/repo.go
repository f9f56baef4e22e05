package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/platform/jsonapi"
)

// SessionPath is the backend sign-in endpoint.
const SessionPath = "/users/session"

const sessionInclude = "roles,roles.permissions,organization,team"

// Repository signs users in against the backend.
type Repository interface {
	CreateSession(ctx context.Context, creds Credentials) (account, string, error)
}

// APIRepository implements Repository over the JSON:API client.
type APIRepository struct {
	client *api.Client
}

// NewRepository constructs the backend repository.
func NewRepository(client *api.Client) *APIRepository {
	return &APIRepository{client: client}
}

// CreateSession posts the credentials and returns the signed-in account and
// the token carried in meta.jwt.
func (r *APIRepository) CreateSession(ctx context.Context, creds Credentials) (account, string, error) {
	q := url.Values{"include": {sessionInclude}}
	doc, err := r.client.Do(ctx, http.MethodPost, SessionPath, q, creds)
	if err != nil {
		return account{}, "", err
	}
	if doc == nil {
		return account{}, "", errors.New("auth: empty session response")
	}
	var acct account
	if err := doc.Unmarshal(&acct); err != nil && !errors.Is(err, jsonapi.ErrNoData) {
		return account{}, "", err
	}
	return acct, doc.Meta.String("jwt"), nil
}

var _ Repository = (*APIRepository)(nil)
