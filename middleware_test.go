package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/forgeworks/go-access"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyToken(tokenString string) (string, error) {
	args := m.Called(tokenString)
	return args.String(0), args.Error(1)
}

func TestRequireIdentityAttachesSubject(t *testing.T) {
	verifier := &MockVerifier{}
	verifier.On("VerifyToken", "valid-token").Return("did:privy:abc123", nil).Once()

	var captured context.Context
	ctx := &MockContext{}
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer valid-token").Once()
	ctx.On("Context").Return(context.Background()).Once()
	ctx.On("SetContext", mock.MatchedBy(func(c context.Context) bool {
		captured = c
		return true
	})).Once()

	handler := access.RequireIdentity(access.MiddlewareConfig{Verifier: verifier})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	subject, ok := access.SubjectFromContext(captured)
	require.True(t, ok)
	assert.Equal(t, "did:privy:abc123", subject)

	verifier.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestRequireIdentityResolvesUser(t *testing.T) {
	did := "did:privy:abc123"
	stored := &access.User{ID: uuid.New(), ProviderID: did, Email: "person@example.com"}

	users := &MockUsers{}
	users.On("FindByProviderID", mock.Anything, did).Return(stored, nil).Once()

	verifier := &MockVerifier{}
	verifier.On("VerifyToken", "valid-token").Return(did, nil).Once()

	var captured context.Context
	ctx := &MockContext{}
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer valid-token").Once()
	ctx.On("Context").Return(context.Background()).Once()
	ctx.On("Locals", access.DefaultUserLocalsKey, stored).Once()
	ctx.On("SetContext", mock.MatchedBy(func(c context.Context) bool {
		captured = c
		return true
	})).Once()

	handler := access.RequireIdentity(access.MiddlewareConfig{
		Verifier: verifier,
		Resolver: access.NewResolver(users),
	})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	user, ok := access.FromContext(captured)
	require.True(t, ok)
	assert.Equal(t, stored, user)

	users.AssertExpectations(t)
	verifier.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestRequireIdentityMissingHeader(t *testing.T) {
	verifier := &MockVerifier{}

	ctx := &MockContext{}
	ctx.On("GetString", router.HeaderAuthorization, "").Return("").Once()
	ctx.On("Status", router.StatusBadRequest).Once()
	ctx.On("SendString", access.ErrTokenMissing.Error()).Return(nil).Once()

	handler := access.RequireIdentity(access.MiddlewareConfig{Verifier: verifier})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.NextCalled)

	verifier.AssertNotCalled(t, "VerifyToken", mock.Anything)
	ctx.AssertExpectations(t)
}

func TestRequireIdentityInvalidToken(t *testing.T) {
	verifier := &MockVerifier{}
	verifier.On("VerifyToken", "bad-token").Return("", errors.New("signature mismatch")).Once()

	ctx := &MockContext{}
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer bad-token").Once()
	ctx.On("Status", router.StatusUnauthorized).Once()
	ctx.On("SendString", "Invalid or expired token").Return(nil).Once()

	handler := access.RequireIdentity(access.MiddlewareConfig{Verifier: verifier})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.NextCalled)

	verifier.AssertExpectations(t)
	ctx.AssertExpectations(t)
}

func TestRequireIdentityFilterSkips(t *testing.T) {
	verifier := &MockVerifier{}

	ctx := &MockContext{}

	handler := access.RequireIdentity(access.MiddlewareConfig{
		Verifier: verifier,
		Filter: func(router.Context) bool {
			return true
		},
	})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	verifier.AssertNotCalled(t, "VerifyToken", mock.Anything)
}

func TestRequireIdentityCustomErrorHandler(t *testing.T) {
	verifier := &MockVerifier{}
	verifier.On("VerifyToken", "bad-token").Return("", errors.New("expired")).Once()

	var handled error
	ctx := &MockContext{}
	ctx.On("GetString", router.HeaderAuthorization, "").Return("Bearer bad-token").Once()

	handler := access.RequireIdentity(access.MiddlewareConfig{
		Verifier: verifier,
		ErrorHandler: func(c router.Context, err error) error {
			handled = err
			return nil
		},
	})(func(c router.Context) error {
		return c.Next()
	})

	err := handler(ctx)
	require.NoError(t, err)
	require.Error(t, handled)
	assert.Contains(t, handled.Error(), "expired")
}
