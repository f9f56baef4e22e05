package shared

import "strings"

// RoleAdmin grants every dashboard permission.
const RoleAdmin = "admin"

// Profile is the signed-in user's snapshot kept in the session.
type Profile struct {
	ID             string        `json:"id"`
	Username       string        `json:"username"`
	FirstName      string        `json:"firstName"`
	LastName       string        `json:"lastName"`
	Email          string        `json:"email"`
	Locale         string        `json:"locale,omitempty"`
	Roles          []ProfileRole `json:"roles"`
	OrganizationID string        `json:"organizationId,omitempty"`
	Organization   string        `json:"organization,omitempty"`
	TeamID         string        `json:"teamId,omitempty"`
	Team           string        `json:"team,omitempty"`
}

// ProfileRole is a role with its permission names.
type ProfileRole struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// DisplayName joins first and last name, falling back to the username.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	for _, role := range p.Roles {
		if strings.EqualFold(role.Name, RoleAdmin) {
			return true
		}
	}
	return false
}

// Permissions returns the deduplicated, lowercased permission names.
func (p Profile) Permissions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, role := range p.Roles {
		for _, perm := range role.Permissions {
			perm = strings.ToLower(strings.TrimSpace(perm))
			if perm == "" {
				continue
			}
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}

// Can reports whether the profile holds perm.
func (p Profile) Can(perm string) bool {
	if p.IsAdmin() {
		return true
	}
	perm = strings.ToLower(perm)
	for _, granted := range p.Permissions() {
		if granted == perm {
			return true
		}
	}
	return false
}
