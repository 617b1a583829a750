package access

import "fmt"

// Role strings come in two families: global roles that apply console-wide,
// and app-scoped roles spelled <app>-admin / <app>-member. A legacy bare
// <app> form is still honored on reads and treated as member-level.
const (
	// RoleUser is the baseline global role.
	RoleUser = "user"
	// RoleAdmin grants platform-wide admin capability.
	RoleAdmin = "admin"
	// RoleSuperAdmin grants every capability, including admin management.
	RoleSuperAdmin = "super_admin"
)

// AdminPanelApp is the pseudo-application that gates the console itself.
// Granting it confers the global admin role rather than an app-scoped one.
const AdminPanelApp = "Admin Panel"

// AppRole is the level of access a role set confers for one application.
type AppRole string

const (
	AppRoleAdmin  AppRole = "admin"
	AppRoleMember AppRole = "member"
	AppRoleNone   AppRole = "none"
)

// AppStatus describes an application's availability in the console.
type AppStatus string

const (
	AppStatusLive  AppStatus = "live"
	AppStatusBeta  AppStatus = "beta"
	AppStatusInDev AppStatus = "development"
)

// Application is a static descriptor for one console application. It is
// never mutated by the engine.
type Application struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	RequiredRoles []string  `json:"required_roles,omitempty"`
	Status        AppStatus `json:"status,omitempty"`
}

// AdminRole is the app-scoped admin spelling for this application.
func (a Application) AdminRole() string { return a.ID + "-admin" }

// MemberRole is the app-scoped member spelling for this application.
func (a Application) MemberRole() string { return a.ID + "-member" }

// Catalog is the single source of truth for valid applications and the
// role-string spellings they imply. It is immutable after construction and
// safe to share across concurrent requests.
type Catalog struct {
	apps     []Application
	byID     map[string]Application
	byName   map[string]string
	appRoles map[string]struct{}
}

// NewCatalog builds an immutable catalog from application descriptors.
func NewCatalog(apps ...Application) *Catalog {
	c := &Catalog{
		apps:     make([]Application, 0, len(apps)),
		byID:     make(map[string]Application, len(apps)),
		byName:   make(map[string]string, len(apps)),
		appRoles: make(map[string]struct{}, len(apps)*3),
	}

	for _, app := range apps {
		if app.ID == "" {
			continue
		}
		if len(app.RequiredRoles) == 0 {
			app.RequiredRoles = []string{app.AdminRole(), app.MemberRole()}
		}
		c.apps = append(c.apps, app)
		c.byID[app.ID] = app
		c.byName[app.Name] = app.ID

		c.appRoles[app.ID] = struct{}{}
		c.appRoles[app.AdminRole()] = struct{}{}
		c.appRoles[app.MemberRole()] = struct{}{}
	}

	return c
}

// DefaultCatalog returns the console's shipped application catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Application{ID: "solebrew", Name: "SoleBrew", Status: AppStatusLive},
		Application{ID: "chimpanion", Name: "Chimpanion", Status: AppStatusBeta},
		Application{ID: "golf", Name: "Golf", Status: AppStatusInDev},
	)
}

// Apps returns the catalog's applications in declaration order. The slice
// is a copy; callers may not mutate catalog state.
func (c *Catalog) Apps() []Application {
	out := make([]Application, len(c.apps))
	copy(out, c.apps)
	return out
}

// App looks up one application by ID.
func (c *Catalog) App(id string) (Application, bool) {
	app, ok := c.byID[id]
	return app, ok
}

// AppIDByName maps a display name (as carried by edit forms) to an app ID.
// The Admin Panel pseudo-app is not part of the catalog and never matches.
func (c *Catalog) AppIDByName(name string) (string, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// IsGlobalAdmin reports whether the role set carries platform-wide admin
// capability. Global admins implicitly satisfy every app-scoped check.
func (c *Catalog) IsGlobalAdmin(roles []string) bool {
	for _, r := range roles {
		if r == RoleAdmin || r == RoleSuperAdmin {
			return true
		}
	}
	return false
}

// AppRole computes the access level a role set confers for one app. Global
// admin roles always yield AppRoleAdmin; the bare legacy <app> spelling
// counts as member. Pure, never errors.
func (c *Catalog) AppRole(appID string, roles []string) AppRole {
	if c.IsGlobalAdmin(roles) {
		return AppRoleAdmin
	}

	level := AppRoleNone
	for _, r := range roles {
		switch r {
		case appID + "-admin":
			return AppRoleAdmin
		case appID + "-member", appID:
			level = AppRoleMember
		}
	}
	return level
}

// IsAppScopedRole reports whether the role string belongs to the closed set
// of app-scoped spellings (admin, member, and legacy bare forms) for any
// catalog application.
func (c *Catalog) IsAppScopedRole(role string) bool {
	_, ok := c.appRoles[role]
	return ok
}

// IsKnownRole accepts global roles and every catalog app-scoped spelling.
func (c *Catalog) IsKnownRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return c.IsAppScopedRole(role)
}

// ValidateRoles returns an error naming the first role string outside the
// catalog's closed set.
func (c *Catalog) ValidateRoles(roles []string) error {
	for _, r := range roles {
		if !c.IsKnownRole(r) {
			return fmt.Errorf("unknown role: %q", r)
		}
	}
	return nil
}
