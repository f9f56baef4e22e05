package shared

// Dashboard permissions granted through backend roles.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"
	PermPermissionsEdit = "permissions.edit"

	PermTeamsView = "teams.view"
	PermTeamsEdit = "teams.edit"

	PermOrganizationsView = "organizations.view"
	PermOrganizationsEdit = "organizations.edit"

	PermCitiesView = "cities.view"
	PermCitiesEdit = "cities.edit"

	PermHouseBlocksView = "house_blocks.view"
	PermHouseBlocksEdit = "house_blocks.edit"

	PermVisitsView = "visits.view"
	PermVisitsEdit = "visits.edit"

	PermInspectionsView = "inspections.view"
	PermInspectionsEdit = "inspections.edit"

	PermPostsModerate = "posts.moderate"

	PermAuditView = "audit.view"
)

// CoreScopes lists every dashboard permission.
func CoreScopes() []string {
	return []string{
		PermUsersView, PermUsersEdit,
		PermRolesView, PermRolesEdit,
		PermPermissionsView, PermPermissionsEdit,
		PermTeamsView, PermTeamsEdit,
		PermOrganizationsView, PermOrganizationsEdit,
		PermCitiesView, PermCitiesEdit,
		PermHouseBlocksView, PermHouseBlocksEdit,
		PermVisitsView, PermVisitsEdit,
		PermInspectionsView, PermInspectionsEdit,
		PermPostsModerate,
		PermAuditView,
	}
}
