package auth

// MenuItem is a navigation entry gated by role.
type MenuItem struct {
	Name  string
	Path  string
	Roles []Role
}

var allRoles = []Role{RoleSuperadmin, RoleBranchManager, RoleInstructor, RoleClient}

// Menu lists every navigation entry known to the client.
var Menu = []MenuItem{
	{Name: "Dashboard", Path: "/", Roles: allRoles},
	{Name: "Calendar", Path: "/calendar", Roles: allRoles},
	{Name: "Clients", Path: "/clients", Roles: []Role{RoleSuperadmin, RoleBranchManager}},
	{Name: "Plans", Path: "/plans", Roles: []Role{RoleSuperadmin}},
	{Name: "Locations", Path: "/locations", Roles: []Role{RoleSuperadmin}},
	{Name: "Settings", Path: "/settings", Roles: allRoles},
}

// Allows reports whether role r may see the item. RoleNone sees nothing.
func (m MenuItem) Allows(r Role) bool {
	if r == RoleNone {
		return false
	}
	for _, allowed := range m.Roles {
		if allowed == r {
			return true
		}
	}
	return false
}

// MenuFor returns the entries visible to the holder of p. A nil profile yields an empty menu.
func MenuFor(p *Profile) []MenuItem {
	role := RoleOf(p)
	out := make([]MenuItem, 0, len(Menu))
	for _, item := range Menu {
		if item.Allows(role) {
			out = append(out, item)
		}
	}
	return out
}

// DisplayName prefers the profile name and falls back to the email local part.
func DisplayName(p *Profile, id *Identity) string {
	if p != nil && p.FullName != "" {
		return p.FullName
	}
	if id == nil {
		return ""
	}
	for i := 0; i < len(id.Email); i++ {
		if id.Email[i] == '@' {
			return id.Email[:i]
		}
	}
	return id.Email
}
