package access

import (
	"errors"
	"strings"

	"github.com/goliatone/go-router"
)

// ErrTokenMissing is returned when a request carries no usable bearer token.
var ErrTokenMissing = errors.New("missing or malformed bearer token")

// TokenVerifier validates a raw token string and returns the provider
// subject it was issued for.
type TokenVerifier interface {
	VerifyToken(tokenString string) (string, error)
}

// MiddlewareConfig configures the identity middleware.
type MiddlewareConfig struct {
	// Verifier is required.
	Verifier TokenVerifier
	// Resolver, when set, resolves the verified subject to a full user
	// record and stores it in the request context and router locals.
	Resolver *Resolver
	// Filter skips the middleware when it returns true.
	Filter func(router.Context) bool
	// SuccessHandler runs after the identity has been attached. Defaults
	// to ctx.Next().
	SuccessHandler router.HandlerFunc
	// ErrorHandler handles extraction, verification, and resolution
	// failures.
	ErrorHandler router.ErrorHandler
	// UserKey is the locals key the resolved user is stored under.
	// Defaults to DefaultUserLocalsKey.
	UserKey string
	// AuthScheme is the expected Authorization scheme. Defaults to
	// "Bearer".
	AuthScheme string
}

func (cfg MiddlewareConfig) withDefaults() MiddlewareConfig {
	if cfg.Verifier == nil {
		panic("ACCESS: identity middleware configuration: Verifier is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrTokenMissing) {
				return c.Status(router.StatusBadRequest).SendString(ErrTokenMissing.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.UserKey == "" {
		cfg.UserKey = DefaultUserLocalsKey
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// RequireIdentity returns middleware that verifies the request's bearer
// token and attaches the verified subject to the request context. When a
// Resolver is configured it also resolves the subject to a user record,
// stored both in the standard context and in router locals under UserKey.
func RequireIdentity(config ...MiddlewareConfig) router.MiddlewareFunc {
	var cfg MiddlewareConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := extractBearerToken(ctx, cfg.AuthScheme)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			subject, err := cfg.Verifier.VerifyToken(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			stdCtx := WithSubjectContext(ctx.Context(), subject)

			if cfg.Resolver != nil {
				user, err := cfg.Resolver.Resolve(stdCtx, subject)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
				stdCtx = WithContext(stdCtx, user)
				ctx.Locals(cfg.UserKey, user)
			}

			ctx.SetContext(stdCtx)

			return cfg.SuccessHandler(ctx)
		}
	}
}

func extractBearerToken(ctx router.Context, authScheme string) (string, error) {
	header := ctx.GetString(router.HeaderAuthorization, "")
	scheme := strings.TrimSpace(authScheme)
	l := len(scheme)

	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) {
		return strings.TrimSpace(header[l:]), nil
	}

	return "", ErrTokenMissing
}
