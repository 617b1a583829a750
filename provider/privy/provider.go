package privy

import (
	"context"

	"github.com/forgeworks/go-access"
)

// Privy linked account types.
const (
	accountEmail  = "email"
	accountPhone  = "phone"
	accountWallet = "wallet"
)

// IdentityProvider implements access.IdentityProvider backed by the Privy
// management API.
type IdentityProvider struct {
	client *Client
}

// NewIdentityProvider creates a Privy-backed identity provider.
func NewIdentityProvider(cfg Config) (*IdentityProvider, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &IdentityProvider{client: client}, nil
}

// NewIdentityProviderWithClient wraps an existing management client.
func NewIdentityProviderWithClient(client *Client) *IdentityProvider {
	return &IdentityProvider{client: client}
}

// FetchLinkedCredentials implements access.IdentityProvider.
func (p *IdentityProvider) FetchLinkedCredentials(ctx context.Context, providerID string) (access.LinkedCredentials, error) {
	creds := access.LinkedCredentials{}

	user, err := p.client.GetUser(ctx, providerID)
	if err != nil {
		return creds, err
	}

	for _, account := range user.LinkedAccounts {
		switch account.Type {
		case accountEmail:
			if creds.Email == "" {
				creds.Email = account.Address
			}
		case accountPhone:
			if creds.Phone == "" {
				creds.Phone = account.Number
			}
		case accountWallet:
			if creds.Wallet == "" {
				creds.Wallet = account.Address
			}
		}
	}

	return creds, nil
}

// BeginLink implements access.IdentityProvider.
func (p *IdentityProvider) BeginLink(ctx context.Context, userID string, credential access.CredentialType, value string) (string, error) {
	return p.client.BeginVerification(ctx, userID, accountType(credential), value)
}

// ConfirmLink implements access.IdentityProvider.
func (p *IdentityProvider) ConfirmLink(ctx context.Context, token, proof string) (bool, error) {
	return p.client.ConfirmVerification(ctx, token, proof)
}

// Unlink implements access.IdentityProvider.
func (p *IdentityProvider) Unlink(ctx context.Context, userID string, credential access.CredentialType, value string) (bool, error) {
	return p.client.UnlinkAccount(ctx, userID, accountType(credential), value)
}

// ListAllowlist implements access.IdentityProvider.
func (p *IdentityProvider) ListAllowlist(ctx context.Context) ([]access.AllowlistEntry, error) {
	entries, err := p.client.ListAllowlist(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]access.AllowlistEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, access.AllowlistEntry{
			Type:  entry.Type,
			Value: entry.Value,
		})
	}
	return out, nil
}

func accountType(credential access.CredentialType) string {
	switch credential {
	case access.CredentialPhone:
		return accountPhone
	case access.CredentialWallet:
		return accountWallet
	default:
		return string(credential)
	}
}
