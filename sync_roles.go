package access

import "sort"

// SyncEngine recomputes a user's role set from a desired application list.
// Granting an app adds the matching app-scoped role; holding a global admin
// role upgrades every grant to the admin spelling. All computations are
// pure; only their persistence can fail.
type SyncEngine struct {
	catalog *Catalog
}

// NewSyncEngine builds a role/app sync engine over the given catalog.
func NewSyncEngine(catalog *Catalog) *SyncEngine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &SyncEngine{catalog: catalog}
}

// SyncRoles computes the new role set for a desired application list.
//
// Every known app-scoped role is stripped first, so repeated calls never
// accumulate duplicates: SyncRoles(SyncRoles(r, apps), apps) equals
// SyncRoles(r, apps). The Admin Panel pseudo-app grants the global admin
// role before per-app assignment runs, so a fresh admin grant upgrades
// app roles computed in the same call. Unknown app names are ignored.
// The result is sorted and deduplicated.
func (e *SyncEngine) SyncRoles(existing []string, desiredApps []string) []string {
	base := make(map[string]struct{}, len(existing))
	for _, role := range existing {
		if e.catalog.IsAppScopedRole(role) {
			continue
		}
		base[role] = struct{}{}
	}

	for _, name := range desiredApps {
		if name == AdminPanelApp {
			if _, ok := base[RoleAdmin]; ok {
				continue
			}
			if _, ok := base[RoleSuperAdmin]; ok {
				continue
			}
			base[RoleAdmin] = struct{}{}
		}
	}

	_, isAdmin := base[RoleAdmin]
	_, isSuper := base[RoleSuperAdmin]
	grantAdmin := isAdmin || isSuper

	for _, name := range desiredApps {
		appID, ok := e.resolveAppName(name)
		if !ok {
			continue
		}
		if grantAdmin {
			base[appID+"-admin"] = struct{}{}
		} else {
			base[appID+"-member"] = struct{}{}
		}
	}

	roles := make([]string, 0, len(base))
	for role := range base {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// NextStatus applies the auto-activation rule. A role set carrying a global
// admin role forces active unless the caller explicitly requested a
// non-pending status; an explicit request always wins otherwise.
func (e *SyncEngine) NextStatus(current UserStatus, requested UserStatus, roles []string) UserStatus {
	if requested != "" && requested != UserStatusPending {
		return requested
	}

	if e.catalog.IsGlobalAdmin(roles) {
		return UserStatusActive
	}

	if requested != "" {
		return requested
	}

	if current == "" {
		return UserStatusPending
	}

	return current
}

// resolveAppName accepts either the display name carried by edit forms or
// the app ID itself.
func (e *SyncEngine) resolveAppName(name string) (string, bool) {
	if id, ok := e.catalog.AppIDByName(name); ok {
		return id, true
	}
	if _, ok := e.catalog.App(name); ok {
		return name, true
	}
	return "", false
}
