package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &User{Email: "jane@example.com", Roles: []string{"solebrew-member"}}

	ctx := WithContext(context.Background(), user)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestSubjectContextRoundTrip(t *testing.T) {
	ctx := WithSubjectContext(context.Background(), "did:privy:abc")
	subject, ok := SubjectFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "did:privy:abc", subject)

	_, ok = SubjectFromContext(context.Background())
	assert.False(t, ok)

	_, ok = SubjectFromContext(WithSubjectContext(context.Background(), ""))
	assert.False(t, ok)
}

func TestContextWrongTypeIsIgnored(t *testing.T) {
	ctx := context.WithValue(context.Background(), userCtxKey, "not-a-user")
	_, ok := FromContext(ctx)
	assert.False(t, ok)
}

func TestCanAccessApp(t *testing.T) {
	member := &User{Roles: []string{"solebrew-member"}}
	admin := &User{Roles: []string{"admin"}}

	ctx := WithContext(context.Background(), member)
	assert.True(t, CanAccessApp(ctx, nil, "solebrew"))
	assert.False(t, CanAccessApp(ctx, nil, "golf"))

	ctx = WithContext(context.Background(), admin)
	assert.True(t, CanAccessApp(ctx, nil, "golf"))

	assert.False(t, CanAccessApp(context.Background(), nil, "solebrew"))
}
