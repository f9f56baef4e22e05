package auth

import (
	"strings"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

// account is the user resource returned by the sign-in endpoint, with its
// roles, permissions, organization and team included.
type account struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Email        string        `json:"email"`
	Locale       string        `json:"locale"`
	Roles        []accountRole `json:"roles"`
	Organization *named        `json:"organization"`
	Team         *named        `json:"team"`
}

type accountRole struct {
	Name        string  `json:"name"`
	Permissions []named `json:"permissions"`
}

type named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Credentials are the sign-in form values.
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Session is a successful sign in.
type Session struct {
	Profile shared.Profile
	Token   string
}

func (a account) profile() shared.Profile {
	p := shared.Profile{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Locale:    strings.ToLower(a.Locale),
		Roles:     make([]shared.ProfileRole, 0, len(a.Roles)),
	}
	for _, role := range a.Roles {
		perms := make([]string, 0, len(role.Permissions))
		for _, perm := range role.Permissions {
			if perm.Name != "" {
				perms = append(perms, strings.ToLower(perm.Name))
			}
		}
		p.Roles = append(p.Roles, shared.ProfileRole{Name: role.Name, Permissions: perms})
	}
	if a.Organization != nil {
		p.OrganizationID, p.Organization = a.Organization.ID, a.Organization.Name
	}
	if a.Team != nil {
		p.TeamID, p.Team = a.Team.ID, a.Team.Name
	}
	return p
}
