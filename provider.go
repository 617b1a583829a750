package access

import "context"

// LinkedCredentials carries the credential values the identity provider
// holds for one federated account. The provider is the source of truth for
// credential values; the local store remains the source of truth for roles.
type LinkedCredentials struct {
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Wallet string `json:"wallet,omitempty"`
}

// AllowlistEntry is one pre-approved login method from the provider's
// allowlist, used only by the bootstrap sync.
type AllowlistEntry struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Allowlist entry types.
const (
	AllowlistEmail  = "email"
	AllowlistPhone  = "phone"
	AllowlistWallet = "wallet"
)

// IdentityProvider is the external identity collaborator. Verification
// flows (OTP, signatures) are opaque capabilities behind BeginLink and
// ConfirmLink; the engine only tracks their outcomes.
type IdentityProvider interface {
	// FetchLinkedCredentials returns live credential values for a provider
	// DID. Failures are transient; read paths fall back to local values.
	FetchLinkedCredentials(ctx context.Context, providerID string) (LinkedCredentials, error)

	// BeginLink starts verification of a candidate credential value and
	// returns an opaque verification token.
	BeginLink(ctx context.Context, userID string, credential CredentialType, value string) (string, error)

	// ConfirmLink submits proof for a pending verification. A false return
	// with nil error means the proof was rejected.
	ConfirmLink(ctx context.Context, token, proof string) (bool, error)

	// Unlink detaches a credential value at the provider.
	Unlink(ctx context.Context, userID string, credential CredentialType, value string) (bool, error)

	// ListAllowlist returns the provider's pre-approved login methods.
	ListAllowlist(ctx context.Context) ([]AllowlistEntry, error)
}
