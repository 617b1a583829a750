package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of a user account.
type UserStatus = string

const (
	// UserStatusPending is the default status for accounts with no roles.
	UserStatusPending UserStatus = "pending"
	// UserStatusActive marks accounts that hold at least one role or were
	// explicitly activated by an admin.
	UserStatusActive UserStatus = "active"
	// UserStatusSuspended marks accounts temporarily locked by an admin.
	UserStatusSuspended UserStatus = "suspended"
	// UserStatusArchived is terminal.
	UserStatusArchived UserStatus = "archived"
)

// KnownStatuses lists every valid status value.
func KnownStatuses() []UserStatus {
	return []UserStatus{
		UserStatusPending,
		UserStatusActive,
		UserStatusSuspended,
		UserStatusArchived,
	}
}

// CredentialType identifies a secondary credential slot on a user record.
type CredentialType string

const (
	CredentialPhone  CredentialType = "phone"
	CredentialWallet CredentialType = "wallet"
)

// IsValid checks the credential type against the known slots.
func (c CredentialType) IsValid() bool {
	return c == CredentialPhone || c == CredentialWallet
}

// PlaceholderDomain is the synthetic domain used to key accounts that
// authenticated through phone or wallet and have no real email yet.
const PlaceholderDomain = "placeholder.user"

// LinkedAccounts tracks secondary credentials attached to an identity.
// Each slot holds at most one value; nil means unlinked.
type LinkedAccounts struct {
	Phone  *string `bun:"linked_phone,nullzero" json:"phone,omitempty"`
	Wallet *string `bun:"linked_wallet,nullzero" json:"wallet,omitempty"`
}

// Get returns the current value for a credential slot.
func (l LinkedAccounts) Get(t CredentialType) *string {
	switch t {
	case CredentialPhone:
		return l.Phone
	case CredentialWallet:
		return l.Wallet
	}
	return nil
}

// Set writes a credential slot; pass nil to clear it.
func (l *LinkedAccounts) Set(t CredentialType, value *string) {
	switch t {
	case CredentialPhone:
		l.Phone = value
	case CredentialWallet:
		l.Wallet = value
	}
}

// User is the canonical identity record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`

	// ProviderID carries the external identity provider reference: a
	// provider DID for federated accounts, or a legacy numeric placeholder
	// for the distinguished super admin.
	ProviderID string `bun:"provider_id,unique,nullzero" json:"provider_id,omitempty"`

	// Email is unique across the store; placeholder addresses (see
	// PhonePlaceholderEmail, WalletPlaceholderEmail) key accounts that have
	// no real email on file.
	Email string `bun:"email,notnull,unique" json:"email,omitempty"`

	Name   string     `bun:"name" json:"name,omitempty"`
	Roles  []string   `bun:"roles,type:jsonb" json:"roles,omitempty"`
	Status UserStatus `bun:"status" json:"status,omitempty"`

	LinkedAccounts LinkedAccounts `bun:"embed:" json:"linked_accounts"`

	Metadata  map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus fills in the default status for records created before the
// status column existed.
func (u *User) EnsureStatus() {
	if u == nil {
		return
	}
	if u.Status == "" {
		u.Status = UserStatusPending
	}
}

// IsActive reports whether the account is active.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// IsPending reports whether the account is still pending.
func (u *User) IsPending() bool {
	return u != nil && u.Status == UserStatusPending
}

// HasRole checks for an exact role string.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// PhonePlaceholderEmail builds the synthetic address that keys a
// phone-authenticated account, e.g. phone_14155551212@placeholder.user.
func PhonePlaceholderEmail(digits string) string {
	return fmt.Sprintf("phone_%s@%s", digits, PlaceholderDomain)
}

// WalletPlaceholderEmail builds the synthetic address that keys a
// wallet-authenticated account from the address prefix, e.g.
// wallet_1a2b3c4d@placeholder.user.
func WalletPlaceholderEmail(address string) string {
	return fmt.Sprintf("wallet_%s@%s", WalletPrefix(address), PlaceholderDomain)
}

// IsPlaceholderEmail reports whether the address was synthesized for a
// phone or wallet account.
func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(email, "@"+PlaceholderDomain)
}

// WalletPrefix returns the first 8 hex characters of a wallet address,
// lowercased, without the 0x marker. Wallet slugs and generated display
// names both embed this prefix.
func WalletPrefix(address string) string {
	addr := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(address), "0x"))
	if len(addr) > 8 {
		addr = addr[:8]
	}
	return addr
}

// PhoneDisplayName generates the default label for a phone account,
// keeping only the trailing digits visible.
func PhoneDisplayName(digits string) string {
	tail := digits
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return fmt.Sprintf("Phone User (…%s)", tail)
}

// WalletDisplayName generates the default label for a wallet account. The
// lowercase address prefix is embedded so wallet slugs can resolve against
// the name column.
func WalletDisplayName(address string) string {
	return fmt.Sprintf("Wallet User (0x%s…)", WalletPrefix(address))
}

// EmailDisplayName derives a default display name from the local part of
// an email address.
func EmailDisplayName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}
	return local
}

// StatusFromTag decodes the legacy "status:<value>" prefix convention used
// before the status column existed. The second return is false when the
// field holds unrelated content, which callers must preserve.
func StatusFromTag(field string) (UserStatus, bool) {
	if !strings.HasPrefix(field, "status:") {
		return "", false
	}
	return UserStatus(strings.TrimPrefix(field, "status:")), true
}
