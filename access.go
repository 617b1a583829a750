package access

// Display labels for the highest capability a role set confers on one app.
const (
	LabelSuperAdmin    = "Super Admin"
	LabelPlatformAdmin = "Platform Admin"
	LabelAppAdmin      = "App Admin"
	LabelAppMember     = "App Member"
	LabelNoAppRole     = "No App Role"
)

// Deriver computes visible applications, capability labels, and effective
// account status from a user's role set. All methods are pure.
type Deriver struct {
	catalog *Catalog
}

// NewDeriver builds an access deriver over the given catalog.
func NewDeriver(catalog *Catalog) *Deriver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Deriver{catalog: catalog}
}

// Catalog exposes the taxonomy the deriver computes against.
func (d *Deriver) Catalog() *Catalog {
	return d.catalog
}

// AccessibleApps filters the application catalog to those the role set can
// see. Global admins see every application.
func (d *Deriver) AccessibleApps(roles []string) []Application {
	apps := make([]Application, 0, len(d.catalog.apps))
	for _, app := range d.catalog.apps {
		if d.catalog.AppRole(app.ID, roles) != AppRoleNone {
			apps = append(apps, app)
		}
	}
	return apps
}

// DisplayRoleLabel renders the highest capability the role set holds for
// one application, in fixed precedence order.
func (d *Deriver) DisplayRoleLabel(appID string, roles []string) string {
	for _, r := range roles {
		if r == RoleSuperAdmin {
			return LabelSuperAdmin
		}
	}
	for _, r := range roles {
		if r == RoleAdmin {
			return LabelPlatformAdmin
		}
	}

	switch d.catalog.AppRole(appID, roles) {
	case AppRoleAdmin:
		return LabelAppAdmin
	case AppRoleMember:
		return LabelAppMember
	}
	return LabelNoAppRole
}

// ComputedStatus derives the effective account status. An explicitly stored
// status always wins; otherwise holding any role means active and an empty
// role set means pending.
func (d *Deriver) ComputedStatus(user *User) UserStatus {
	if user == nil {
		return UserStatusPending
	}

	if user.Status != "" {
		return user.Status
	}

	if len(user.Roles) > 0 {
		return UserStatusActive
	}

	return UserStatusPending
}
