// Package users manages dashboard accounts: listing with search, status
// and role filters, and the create/edit dialog with role, organization and
// team selects.
package users

import (
	"strings"

	"github.com/denguechat/denguechat-admin/internal/crud"
	"github.com/denguechat/denguechat-admin/internal/form"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

var statusOptions = []form.Option{
	{Value: StatusActive, Label: "Active"},
	{Value: StatusInactive, Label: "Inactive"},
	{Value: StatusPending, Label: "Pending"},
}

// User is an account as returned by the backend.
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Status       string     `json:"status"`
	CreatedAt    string     `json:"createdAt"`
	Roles        []crud.Ref `json:"roles"`
	Organization *crud.Ref  `json:"organization"`
	Team         *crud.Ref  `json:"team"`
}

// DisplayName joins first and last name, falling back to the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

type userInput struct {
	FirstName      string   `json:"first_name" form:"first_name" validate:"required"`
	LastName       string   `json:"last_name" form:"last_name" validate:"required"`
	Username       string   `json:"username" form:"username" validate:"required"`
	Email          string   `json:"email" form:"email" validate:"required,email"`
	Phone          string   `json:"phone,omitempty" form:"phone"`
	Status         string   `json:"status" form:"status" validate:"required,oneof=active inactive pending"`
	RoleIDs        []string `json:"role_ids" form:"role_ids"`
	OrganizationID string   `json:"organization_id,omitempty" form:"organization_id"`
	TeamID         string   `json:"team_id,omitempty" form:"team_id"`
}

type createInput struct {
	userInput
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type updateInput struct {
	userInput
	Password string `json:"password,omitempty" form:"password" validate:"omitempty,min=8"`
}
