package view

import (
	"strings"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

type navEntry struct {
	label string
	href  string
	perms []string
}

var navEntries = []navEntry{
	{label: "Home", href: "/"},
	{label: "Users", href: "/users", perms: []string{shared.PermUsersView, shared.PermUsersEdit}},
	{label: "Roles", href: "/roles", perms: []string{shared.PermRolesView, shared.PermRolesEdit}},
	{label: "Permissions", href: "/permissions", perms: []string{shared.PermPermissionsView, shared.PermPermissionsEdit}},
	{label: "Teams", href: "/teams", perms: []string{shared.PermTeamsView, shared.PermTeamsEdit}},
	{label: "Organizations", href: "/organizations", perms: []string{shared.PermOrganizationsView, shared.PermOrganizationsEdit}},
	{label: "Cities", href: "/cities", perms: []string{shared.PermCitiesView, shared.PermCitiesEdit}},
	{label: "House blocks", href: "/house_blocks", perms: []string{shared.PermHouseBlocksView, shared.PermHouseBlocksEdit}},
	{label: "Visits", href: "/visits", perms: []string{shared.PermVisitsView, shared.PermVisitsEdit}},
	{label: "Inspections", href: "/inspections", perms: []string{shared.PermInspectionsView, shared.PermInspectionsEdit}},
	{label: "Community", href: "/posts"},
	{label: "Reports", href: "/reports"},
	{label: "Audit", href: "/audit", perms: []string{shared.PermAuditView}},
}

// Navigation lists the sections visible to profile, marking the one
// containing path.
func Navigation(profile *shared.Profile, path string) []NavItem {
	if profile == nil {
		return nil
	}
	var items []NavItem
	for _, entry := range navEntries {
		if !canAny(profile, entry.perms) {
			continue
		}
		active := path == entry.href || (entry.href != "/" && strings.HasPrefix(path, entry.href+"/"))
		items = append(items, NavItem{Label: entry.label, Href: entry.href, Active: active})
	}
	return items
}

func canAny(profile *shared.Profile, perms []string) bool {
	if len(perms) == 0 {
		return true
	}
	for _, perm := range perms {
		if profile.Can(perm) {
			return true
		}
	}
	return false
}
