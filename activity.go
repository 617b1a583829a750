package access

import (
	"context"
	"time"
)

// ActorRef identifies who/what triggered a mutation.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserCreated       ActivityEventType = "user.created"
	ActivityEventUserDeleted       ActivityEventType = "user.deleted"
	ActivityEventUserEdited        ActivityEventType = "user.edited"
	ActivityEventRolesSynced       ActivityEventType = "user.roles.synced"
	ActivityEventUserStatusChanged ActivityEventType = "user.status.changed"
	ActivityEventCredentialPending ActivityEventType = "credential.link.pending"
	ActivityEventCredentialLinked  ActivityEventType = "credential.linked"
	ActivityEventCredentialRemoved ActivityEventType = "credential.unlinked"
	ActivityEventAllowlistSynced   ActivityEventType = "allowlist.synced"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromStatus UserStatus
	ToStatus   UserStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: failures are logged, never propagated.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
