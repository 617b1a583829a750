package privy

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Claims are the validated claims of a Privy access token. The subject is
// the user's DID.
type Claims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the DID the token was issued for.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenValidator validates Privy-issued access tokens against the app's
// JWKS endpoint. Privy signs access tokens with ES256.
type TokenValidator struct {
	config  Config
	jwks    *keyfunc.JWKS
	keyFunc jwt.Keyfunc
}

// NewTokenValidator fetches the app's JWKS and returns a validator that
// refreshes keys in the background. Call Close when done.
func NewTokenValidator(cfg Config, logger interface{ Error(string, ...any) }) (*TokenValidator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	refresh := cfg.RefreshInterval
	if refresh == 0 {
		refresh = time.Hour
	}

	jwks, err := keyfunc.Get(cfg.jwksURL(), keyfunc.Options{
		RefreshInterval:   refresh,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Error("privy: background JWKS refresh failed: %v", err)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("privy: failed to fetch JWKS: %w", err)
	}

	return &TokenValidator{
		config:  cfg,
		jwks:    jwks,
		keyFunc: jwks.Keyfunc,
	}, nil
}

// NewTokenValidatorWithKeyfunc builds a validator around a static key
// function, used in tests.
func NewTokenValidatorWithKeyfunc(cfg Config, kf jwt.Keyfunc) *TokenValidator {
	return &TokenValidator{config: cfg, keyFunc: kf}
}

// Validate parses and verifies a token string, returning its claims.
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(v.config.issuer()),
		jwt.WithAudience(v.config.AppID),
	)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	if !token.Valid {
		return nil, goerrors.New("privy: token is not valid", goerrors.CategoryAuth).
			WithTextCode("TOKEN_INVALID")
	}

	return claims, nil
}

// VerifyToken validates a token string and returns the DID it was issued
// for. It satisfies the verifier interface the HTTP middleware expects.
func (v *TokenValidator) VerifyToken(tokenString string) (string, error) {
	claims, err := v.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func normalizeValidationError(err error) error {
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "privy: token expired").
			WithTextCode("TOKEN_EXPIRED")
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, "privy: token validation failed").
		WithTextCode("TOKEN_INVALID").
		WithMetadata(map[string]any{
			"cause": err.Error(),
		})
}
