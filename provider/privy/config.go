package privy

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Privy API host.
const DefaultBaseURL = "https://auth.privy.io"

// DefaultIssuer is the issuer claim Privy puts on access tokens.
const DefaultIssuer = "privy.io"

// Config holds Privy credentials and endpoints.
type Config struct {
	// AppID is the Privy application ID. Sent as the basic auth username
	// and the privy-app-id header, and expected as the token audience.
	AppID string

	// AppSecret is the Privy application secret.
	AppSecret string

	// BaseURL overrides the API host (default: DefaultBaseURL).
	BaseURL string

	// Issuer overrides the expected token issuer (default: DefaultIssuer).
	Issuer string

	// JWKSURL overrides the verification key endpoint.
	// Default: "{BaseURL}/api/v1/apps/{AppID}/jwks.json".
	JWKSURL string

	// HTTPClient used for API calls (default: client with Timeout).
	HTTPClient *http.Client

	// Timeout for API calls when HTTPClient is not provided.
	// Default: 10 seconds.
	Timeout time.Duration

	// RefreshInterval is how often the JWKS cache refreshes in the
	// background. Default: 1 hour.
	RefreshInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(appID, appSecret string) Config {
	return Config{
		AppID:           appID,
		AppSecret:       appSecret,
		BaseURL:         DefaultBaseURL,
		Timeout:         10 * time.Second,
		RefreshInterval: time.Hour,
	}
}

// Validate checks that credentials are present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("privy: app ID is required")
	}
	if strings.TrimSpace(c.AppSecret) == "" {
		return fmt.Errorf("privy: app secret is required")
	}
	return nil
}

func (c Config) baseURL() string {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/")
}

func (c Config) issuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return DefaultIssuer
}

func (c Config) jwksURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return fmt.Sprintf("%s/api/v1/apps/%s/jwks.json", c.baseURL(), c.AppID)
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
