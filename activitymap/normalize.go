// Package activitymap flattens activity events into a transport-agnostic
// record that downstream feeds, webhooks, and audit stores can consume
// without importing the access domain types.
package activitymap

import (
	"context"
	"strings"
	"time"

	access "github.com/forgeworks/go-access"
)

const (
	// MetadataKeyActorType stores the actor type derived from access.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromStatus stores the source user status for lifecycle transitions.
	MetadataKeyFromStatus = "from_status"
	// MetadataKeyToStatus stores the target user status for lifecycle transitions.
	MetadataKeyToStatus = "to_status"
)

const (
	defaultChannel    = "access"
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Normalized is the flattened activity shape handed to downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Normalizer converts access.ActivityEvent values into Normalized records.
// The zero value is usable and applies the package defaults.
type Normalizer struct {
	channel       string
	objectType    string
	actorFallback string
	objectID      func(access.ActivityEvent) string
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithChannel sets the channel stamped on normalized records.
func WithChannel(channel string) Option {
	return func(n *Normalizer) {
		n.channel = strings.TrimSpace(channel)
	}
}

// WithObjectType sets the object type stamped on normalized records.
func WithObjectType(objectType string) Option {
	return func(n *Normalizer) {
		n.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event carries neither
// an actor nor a subject user.
func WithActorFallback(actorID string) Option {
	return func(n *Normalizer) {
		n.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithObjectID overrides how the object id is derived from an event.
func WithObjectID(fn func(access.ActivityEvent) string) Option {
	return func(n *Normalizer) {
		n.objectID = fn
	}
}

// New builds a Normalizer with the given options applied over the defaults.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Normalize converts a single event.
func (n *Normalizer) Normalize(event access.ActivityEvent) Normalized {
	if n == nil {
		n = New()
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.Actor.ID),
		strings.TrimSpace(event.UserID),
		n.actorFallback,
	)

	objectID := strings.TrimSpace(event.UserID)
	if n.objectID != nil {
		objectID = strings.TrimSpace(n.objectID(event))
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: n.objectType,
		ObjectID:   objectID,
		Channel:    n.channel,
		Metadata:   flattenMetadata(event),
		OccurredAt: occurredAt,
	}
}

// Normalize converts an event using the package defaults.
func Normalize(event access.ActivityEvent, opts ...Option) Normalized {
	return New(opts...).Normalize(event)
}

// Sink adapts a consumer of normalized records into an access.ActivitySink.
func Sink(fn func(context.Context, Normalized) error, opts ...Option) access.ActivitySink {
	n := New(opts...)
	return access.ActivitySinkFunc(func(ctx context.Context, event access.ActivityEvent) error {
		if fn == nil {
			return nil
		}
		return fn(ctx, n.Normalize(event))
	})
}

func flattenMetadata(event access.ActivityEvent) map[string]any {
	var metadata map[string]any
	if len(event.Metadata) > 0 {
		metadata = make(map[string]any, len(event.Metadata))
		for key, value := range event.Metadata {
			metadata[key] = value
		}
	}

	set := func(key, value string) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	set(MetadataKeyActorType, strings.TrimSpace(event.Actor.Type))
	set(MetadataKeyFromStatus, string(event.FromStatus))
	set(MetadataKeyToStatus, string(event.ToStatus))

	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
