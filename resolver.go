package access

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
)

// DefaultSuperAdminEmail keys the distinguished super admin account. The
// bare "alex" write alias prefix-matches it like any username slug would.
const DefaultSuperAdminEmail = "alex@placeholder.user"

// SuperAdminProviderID is the legacy numeric placeholder the original
// console used before the account was migrated to a federated identity.
const SuperAdminProviderID = "999"

// Resolver maps inbound identifier slugs to canonical user records. It is
// read-only; write paths reuse the same matching rules through
// ResolveForWrite.
type Resolver struct {
	users           Users
	provider        IdentityProvider
	superAdminEmail string
	superAdminName  string
	logger          Logger
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithResolverProvider wires the external identity provider used to overlay
// live credential values on federated accounts.
func WithResolverProvider(p IdentityProvider) ResolverOption {
	return func(r *Resolver) {
		r.provider = p
	}
}

// WithResolverLogger overrides the default logger.
func WithResolverLogger(l Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSuperAdminProfile overrides the email and display name the reserved
// aliases resolve to.
func WithSuperAdminProfile(email, name string) ResolverOption {
	return func(r *Resolver) {
		if email != "" {
			r.superAdminEmail = email
		}
		if name != "" {
			r.superAdminName = name
		}
	}
}

// NewResolver builds an identity resolver backed by the given repository.
func NewResolver(users Users, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		users:           users,
		superAdminEmail: DefaultSuperAdminEmail,
		superAdminName:  "Alex",
		logger:          defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve maps a read-path identifier to exactly one user record. Zero
// matches yield ErrUserNotFound; fuzzy filters matching more than one
// record yield ErrAmbiguousIdentifier. When the record is a federated
// account and the provider is reachable, live credential values override
// the locally stored placeholders for display; provider failures degrade
// to local values.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*User, error) {
	user, err := r.resolveParsed(ctx, ParseIdentifier(raw))
	if err != nil {
		return nil, translateLookupError(err, raw)
	}

	return r.overlayProviderCredentials(ctx, user), nil
}

// ResolveForWrite maps an identifier for update and delete paths. It honors
// the additional "alex" super admin alias and skips the provider overlay:
// writes operate on stored state.
func (r *Resolver) ResolveForWrite(ctx context.Context, raw string) (*User, error) {
	user, err := r.resolveParsed(ctx, ParseWriteIdentifier(raw))
	if err != nil {
		return nil, translateLookupError(err, raw)
	}
	return user, nil
}

// IsSuperAdmin reports whether the record is the distinguished super admin
// account, which is protected from deletion.
func (r *Resolver) IsSuperAdmin(user *User) bool {
	if user == nil {
		return false
	}
	return user.Email == r.superAdminEmail || user.ProviderID == SuperAdminProviderID
}

func (r *Resolver) resolveParsed(ctx context.Context, id Identifier) (*User, error) {
	switch id.Kind {
	case KindSuperAdmin:
		return r.resolveSuperAdmin(ctx)
	case KindPhone:
		return r.users.FindByEmail(ctx, PhonePlaceholderEmail(id.Value))
	case KindWallet:
		return r.users.FindByNameContains(ctx, id.Value)
	case KindEmail:
		return r.users.FindByEmail(ctx, id.Value)
	case KindEmailSlug, KindUsername:
		return r.users.FindByEmailPrefix(ctx, id.Value)
	default:
		return r.resolveRaw(ctx, id.Value)
	}
}

func (r *Resolver) resolveSuperAdmin(ctx context.Context) (*User, error) {
	user, err := r.users.FindByEmail(ctx, r.superAdminEmail)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	// Read-time fallback only: the well-known profile is synthesized with
	// the full role set but never persisted.
	return r.syntheticSuperAdmin(), nil
}

func (r *Resolver) syntheticSuperAdmin() *User {
	user := &User{
		ProviderID: SuperAdminProviderID,
		Email:      r.superAdminEmail,
		Name:       r.superAdminName,
		Roles:      []string{RoleSuperAdmin, RoleAdmin, RoleUser},
		Status:     UserStatusActive,
	}

	if id, err := hashid.NewUUID(r.superAdminEmail); err == nil {
		user.ID = id
	}

	return user
}

func (r *Resolver) resolveRaw(ctx context.Context, value string) (*User, error) {
	if isUUID(value) {
		return r.users.GetByID(ctx, value)
	}
	return r.users.FindByProviderID(ctx, value)
}

func (r *Resolver) overlayProviderCredentials(ctx context.Context, user *User) *User {
	if r.provider == nil || user == nil || !isProviderDID(user.ProviderID) {
		return user
	}

	creds, err := r.provider.FetchLinkedCredentials(ctx, user.ProviderID)
	if err != nil {
		// Degrade to locally stored placeholder-derived values.
		r.logger.Warn("provider credential fetch failed for %s: %v", user.ProviderID, err)
		return user
	}

	overlaid := *user
	if creds.Phone != "" {
		phone := creds.Phone
		overlaid.LinkedAccounts.Phone = &phone
	}
	if creds.Wallet != "" {
		wallet := creds.Wallet
		overlaid.LinkedAccounts.Wallet = &wallet
	}
	if creds.Email != "" && IsPlaceholderEmail(overlaid.Email) {
		overlaid.Email = creds.Email
	}

	return &overlaid
}

func translateLookupError(err error, identifier string) error {
	if repository.IsRecordNotFound(err) {
		return ErrUserNotFound.WithMetadata(map[string]any{
			"identifier": strings.TrimSpace(identifier),
		})
	}
	return err
}
