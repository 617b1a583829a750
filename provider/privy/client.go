package privy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	goerrors "github.com/goliatone/go-errors"
)

// LinkedAccount is one login method attached to a Privy user.
type LinkedAccount struct {
	Type      string `json:"type"`
	Address   string `json:"address,omitempty"`
	Number    string `json:"number,omitempty"`
	ChainType string `json:"chain_type,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
}

// User is a Privy user record as returned by the management API.
type User struct {
	ID             string          `json:"id"`
	CreatedAt      int64           `json:"created_at"`
	LinkedAccounts []LinkedAccount `json:"linked_accounts"`
}

// AllowlistEntry is one pre-approved login method.
type AllowlistEntry struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type allowlistResponse struct {
	Data []AllowlistEntry `json:"data"`
}

type verificationResponse struct {
	Token    string `json:"token"`
	Verified bool   `json:"verified"`
}

type apiError struct {
	Message string `json:"error"`
}

// Client is a thin REST client for the Privy management API. All calls
// authenticate with basic auth (app ID and secret) plus the privy-app-id
// header.
type Client struct {
	config Config
	http   *http.Client
	base   string
}

// NewClient creates a management API client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: cfg,
		http:   cfg.httpClient(),
		base:   cfg.baseURL(),
	}, nil
}

// GetUser fetches a user by DID.
func (c *Client) GetUser(ctx context.Context, did string) (*User, error) {
	if did == "" {
		return nil, goerrors.New("privy: user DID is required", goerrors.CategoryBadInput)
	}

	user := &User{}
	path := "/api/v1/users/" + url.PathEscape(did)
	if err := c.do(ctx, http.MethodGet, path, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BeginVerification starts verification of a candidate login method for a
// user and returns an opaque verification token.
func (c *Client) BeginVerification(ctx context.Context, did, accountType, value string) (string, error) {
	body := map[string]string{
		"type":  accountType,
		"value": value,
	}

	resp := &verificationResponse{}
	path := "/api/v1/users/" + url.PathEscape(did) + "/accounts/verify"
	if err := c.do(ctx, http.MethodPost, path, body, resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ConfirmVerification submits proof (an OTP code or signature) for a
// pending verification. A false return with nil error means Privy rejected
// the proof.
func (c *Client) ConfirmVerification(ctx context.Context, token, proof string) (bool, error) {
	body := map[string]string{
		"token": token,
		"proof": proof,
	}

	resp := &verificationResponse{}
	if err := c.do(ctx, http.MethodPost, "/api/v1/accounts/verify/confirm", body, resp); err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryBadInput {
			return false, nil
		}
		return false, err
	}
	return resp.Verified, nil
}

// UnlinkAccount detaches a login method from a user. Returns false when
// the account was not linked.
func (c *Client) UnlinkAccount(ctx context.Context, did, accountType, value string) (bool, error) {
	body := map[string]string{
		"type":  accountType,
		"value": value,
	}

	path := "/api/v1/users/" + url.PathEscape(did) + "/accounts/unlink"
	err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListAllowlist returns the app's pre-approved login methods.
func (c *Client) ListAllowlist(ctx context.Context) ([]AllowlistEntry, error) {
	resp := &allowlistResponse{}
	path := "/api/v1/apps/" + url.PathEscape(c.config.AppID) + "/allowlist"
	if err := c.do(ctx, http.MethodGet, path, nil, resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "privy: failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "privy: failed to build request")
	}

	req.SetBasicAuth(c.config.AppID, c.config.AppSecret)
	req.Header.Set("privy-app-id", c.config.AppID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "privy: request failed").
			WithTextCode("PROVIDER_UNAVAILABLE")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return c.statusError(res)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "privy: failed to decode response")
	}
	return nil
}

func (c *Client) statusError(res *http.Response) error {
	msg := fmt.Sprintf("privy: request failed with status %d", res.StatusCode)

	var decoded apiError
	if raw, err := io.ReadAll(io.LimitReader(res.Body, 4096)); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
			msg = "privy: " + decoded.Message
		}
	}

	category := goerrors.CategoryOperation
	switch {
	case res.StatusCode == http.StatusNotFound:
		category = goerrors.CategoryNotFound
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		category = goerrors.CategoryAuth
	case res.StatusCode >= 400 && res.StatusCode < 500:
		category = goerrors.CategoryBadInput
	}

	return goerrors.New(msg, category).WithMetadata(map[string]any{
		"status": res.StatusCode,
	})
}
