package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Authenticate signs in with the backend. Rejected credentials come back as
// the backend's *api.Error so the form can show its codes; a response
// without a usable token is shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	acct, token, err := s.repo.CreateSession(ctx, creds)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && len(apiErr.Items) == 0 {
			return Session{}, shared.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if acct.ID == "" || token == "" {
		return Session{}, shared.ErrInvalidCredentials
	}
	if err := api.CheckToken(token, s.now()); err != nil {
		return Session{}, fmt.Errorf("auth: backend token: %w", err)
	}
	return Session{Profile: acct.profile(), Token: token}, nil
}
