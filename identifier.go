package access

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// IdentifierKind tags the shape of an inbound user reference. Identifiers
// are parsed once at the boundary; downstream code switches on the kind
// instead of re-deriving it from string prefixes.
type IdentifierKind string

const (
	// KindSuperAdmin is a reserved legacy alias for the distinguished
	// super admin account.
	KindSuperAdmin IdentifierKind = "super_admin"
	// KindPhone is a phone-<digits> slug.
	KindPhone IdentifierKind = "phone"
	// KindWallet is a wallet-<prefix> slug.
	KindWallet IdentifierKind = "wallet"
	// KindEmail is a full email address.
	KindEmail IdentifierKind = "email"
	// KindEmailSlug is a dashed local-part slug (dash stands for dot).
	KindEmailSlug IdentifierKind = "email_slug"
	// KindUsername is a bare single-token local part.
	KindUsername IdentifierKind = "username"
	// KindRaw is an internal ID: a generated UUID or a provider DID.
	KindRaw IdentifierKind = "raw"
)

// Identifier is the parsed form of an inbound user reference.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// Reserved aliases for the distinguished super admin. The bare "alex"
// spelling is honored only on write paths, where the legacy console used it
// for update and delete routes.
var (
	superAdminAliases      = map[string]struct{}{"999": {}, "super-admin": {}}
	superAdminWriteAliases = map[string]struct{}{"999": {}, "super-admin": {}, "alex": {}}
)

// IsSuperAdminAlias reports whether the identifier is a read-path alias for
// the super admin.
func IsSuperAdminAlias(raw string) bool {
	_, ok := superAdminAliases[strings.TrimSpace(raw)]
	return ok
}

// IsSuperAdminWriteAlias reports whether the identifier is refused for
// destructive operations.
func IsSuperAdminWriteAlias(raw string) bool {
	_, ok := superAdminWriteAliases[strings.TrimSpace(raw)]
	return ok
}

// ParseIdentifier classifies a read-path identifier. Each step is mutually
// exclusive by construction: DIDs and UUIDs are claimed as raw IDs before
// the slug heuristics run, so a dashed UUID is never mistaken for an email
// slug.
func ParseIdentifier(raw string) Identifier {
	return parseIdentifier(raw, superAdminAliases)
}

// ParseWriteIdentifier classifies an identifier for update and delete
// paths, which additionally honor the bare "alex" super admin alias.
func ParseWriteIdentifier(raw string) Identifier {
	return parseIdentifier(raw, superAdminWriteAliases)
}

func parseIdentifier(raw string, aliases map[string]struct{}) Identifier {
	trimmed := strings.TrimSpace(raw)

	if _, ok := aliases[trimmed]; ok {
		return Identifier{Kind: KindSuperAdmin, Value: trimmed}
	}

	if isProviderDID(trimmed) || isUUID(trimmed) {
		return Identifier{Kind: KindRaw, Value: trimmed}
	}

	if digits, ok := strings.CutPrefix(trimmed, "phone-"); ok {
		return Identifier{Kind: KindPhone, Value: keepDigits(digits)}
	}

	if prefix, ok := strings.CutPrefix(trimmed, "wallet-"); ok {
		return Identifier{Kind: KindWallet, Value: strings.ToLower(prefix)}
	}

	if strings.Contains(trimmed, "@") {
		return Identifier{Kind: KindEmail, Value: trimmed}
	}

	if strings.Contains(trimmed, "-") {
		return Identifier{Kind: KindEmailSlug, Value: strings.ReplaceAll(trimmed, "-", ".")}
	}

	return Identifier{Kind: KindUsername, Value: trimmed}
}

func isProviderDID(identifier string) bool {
	return strings.HasPrefix(identifier, "did:")
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone reduces a phone value to the digit form used in slugs and
// placeholder emails. International input is parsed as E.164; anything the
// parser rejects falls back to a digits-only strip.
func NormalizePhone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if num, err := phonenumbers.Parse(trimmed, "US"); err == nil && phonenumbers.IsPossibleNumber(num) {
		return keepDigits(phonenumbers.Format(num, phonenumbers.E164))
	}

	return keepDigits(trimmed)
}
